package generator

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meiziya0402-source/PPT/internal/config"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIClient реализует AIClient поверх OpenAI-совместимого API (по умолчанию endpoint Gemini).
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func newOpenAIClient(cfg *config.Config, logger *zap.Logger) *openAIClient {
	openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	openaiConfig.BaseURL = strings.TrimSuffix(cfg.AIBaseURL, "/")
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
	return &openAIClient{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.AIModel,
		logger: logger.Named("OpenAIClient"),
	}
}

func (c *openAIClient) Model() string { return c.model }

// Generate отправляет изображение как data URL и требует ответ по JSON schema.
func (c *openAIClient) Generate(ctx context.Context, req Request) (string, UsageInfo, error) {
	usage := UsageInfo{}
	if strings.TrimSpace(req.Prompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: промт пуст", ErrAIGenerationFailed)
	}

	parts := []openaigo.ChatMessagePart{
		{Type: openaigo.ChatMessagePartTypeText, Text: req.Prompt},
	}
	if len(req.Image) > 0 {
		parts = append(parts, openaigo.ChatMessagePart{
			Type: openaigo.ChatMessagePartTypeImageURL,
			ImageURL: &openaigo.ChatMessageImageURL{
				URL:    "data:" + req.MimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
				Detail: openaigo.ImageURLDetailAuto,
			},
		})
	}

	request := openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openaigo.ChatCompletionResponseFormatJSONSchema{
				Name:   "generated_deck",
				Schema: req.Schema,
			},
		},
	}

	start := time.Now()
	c.logger.Debug("Sending AI request",
		zap.String("model", c.model), zap.Int("promptBytes", len(req.Prompt)), zap.Int("imageBytes", len(req.Image)))

	resp, err := c.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	if err != nil {
		c.logger.Warn("AI API error", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn("AI API returned empty response", zap.Duration("duration", duration))
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: получен пустой ответ", ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	text := resp.Choices[0].Message.Content
	if resp.Usage.TotalTokens > 0 {
		usage = UsageInfo{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	} else {
		usage = estimateUsage(c.model, req.Prompt, text)
	}
	recordUsage(c.model, usage)

	c.logger.Info("AI response received",
		zap.Duration("duration", duration), zap.Int("length", len(text)),
		zap.Int("promptTokens", usage.PromptTokens), zap.Int("completionTokens", usage.CompletionTokens),
		zap.Bool("estimated", usage.Estimated))
	return text, usage, nil
}
