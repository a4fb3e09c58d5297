package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meiziya0402-source/PPT/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testImage = []byte{0x89, 'P', 'N', 'G', 1, 2, 3}

func testRequest() Request {
	return Request{Prompt: "make slides", Image: testImage, MimeType: "image/png", Schema: DeckSchema()}
}

func TestNewAIClient_Types(t *testing.T) {
	log := zap.NewNop()

	c, err := NewAIClient(&config.Config{AIClientType: "OpenAI", AIBaseURL: "http://localhost", AIModel: "m"}, log)
	require.NoError(t, err)
	assert.IsType(t, &openAIClient{}, c)

	c, err = NewAIClient(&config.Config{AIClientType: config.AIClientOllama, AIBaseURL: "http://localhost:11434/v1", AIModel: "llava"}, log)
	require.NoError(t, err)
	assert.IsType(t, &ollamaClient{}, c)
	assert.Equal(t, "llava", c.Model())

	c, err = NewAIClient(&config.Config{AIClientType: config.AIClientNone}, log)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = NewAIClient(&config.Config{AIClientType: "bard"}, log)
	assert.Error(t, err)
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "model": "gemini-2.5-flash",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"themeColor\":\"#000000\",\"slides\":[]}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
		}`))
	}))
	defer srv.Close()

	client := newOpenAIClient(&config.Config{
		AIBaseURL: srv.URL + "/", AIModel: "gemini-2.5-flash", AIAPIKey: "secret", AITimeout: 5 * time.Second,
	}, zap.NewNop())

	text, usage, err := client.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"themeColor":"#000000","slides":[]}`, text)
	assert.Equal(t, UsageInfo{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}, usage)

	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "make slides", parts[0].(map[string]any)["text"])
	imageURL := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(testImage), imageURL)

	format := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)["schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		contain string
	}{
		{"server error", http.StatusInternalServerError, `{"error": {"message": "boom", "type": "server_error"}}`, "boom"},
		{"empty choices", http.StatusOK, `{"id": "x", "choices": []}`, "пустой ответ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := newOpenAIClient(&config.Config{AIBaseURL: srv.URL, AIModel: "m", AIAPIKey: "k", AITimeout: 5 * time.Second}, zap.NewNop())
			_, _, err := client.Generate(context.Background(), testRequest())
			require.ErrorIs(t, err, ErrAIGenerationFailed)
			assert.Contains(t, err.Error(), tt.contain)
		})
	}
}

func TestOpenAIClient_EmptyPrompt(t *testing.T) {
	client := newOpenAIClient(&config.Config{AIBaseURL: "http://127.0.0.1:1", AIModel: "m"}, zap.NewNop())
	_, _, err := client.Generate(context.Background(), Request{Prompt: "  "})
	assert.ErrorIs(t, err, ErrAIGenerationFailed)
}

func TestOllamaClient_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llava","message":{"role":"assistant","content":"{\"slides\":[]}"},"done":true,"prompt_eval_count":40,"eval_count":12}` + "\n"))
	}))
	defer srv.Close()

	client, err := newOllamaClient(&config.Config{AIBaseURL: srv.URL + "/v1/", AIModel: "llava", AITimeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)

	text, usage, err := client.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"slides":[]}`, text)
	assert.Equal(t, 52, usage.TotalTokens)

	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "object", got["format"].(map[string]any)["type"])
	msg := got["messages"].([]any)[0].(map[string]any)
	assert.Equal(t, "make slides", msg["content"])
	images := msg["images"].([]any)
	require.Len(t, images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(testImage), images[0])
}

func TestOllamaClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llava' not found"}`))
	}))
	defer srv.Close()

	client, err := newOllamaClient(&config.Config{AIBaseURL: srv.URL, AIModel: "llava", AITimeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)

	_, _, err = client.Generate(context.Background(), testRequest())
	require.ErrorIs(t, err, ErrAIGenerationFailed)
	assert.True(t, strings.Contains(err.Error(), "not found"))
}
