package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meiziya0402-source/PPT/internal/config"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// ollamaClient реализует AIClient для локальной мультимодальной модели через ollama/api.
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (*ollamaClient, error) {
	// api.NewClient ожидает URL без суффикса /v1
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.AIBaseURL, "/"), "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
	}

	return &ollamaClient{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout}),
		model:   cfg.AIModel,
		timeout: cfg.AITimeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

// Generate передает изображение в Images, а JSON schema в Format.
func (c *ollamaClient) Generate(ctx context.Context, req Request) (string, UsageInfo, error) {
	usage := UsageInfo{}
	if strings.TrimSpace(req.Prompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: промт пуст", ErrAIGenerationFailed)
	}

	msg := api.Message{Role: "user", Content: req.Prompt}
	if len(req.Image) > 0 {
		msg.Images = []api.ImageData{req.Image}
	}
	chatReq := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{msg},
		Stream:   func(b bool) *bool { return &b }(false),
		Format:   req.Schema,
	}

	requestCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, chatReq, func(r api.ChatResponse) error {
		resp = r // без стрима приходит один полный ответ
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("Ollama API timeout", zap.Duration("timeout", c.timeout), zap.Duration("duration", duration))
		} else {
			c.logger.Warn("Ollama API error", zap.Duration("duration", duration), zap.Error(err))
		}
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: получен пустой ответ", ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	usage = UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	recordUsage(c.model, usage)

	c.logger.Info("Ollama response received", zap.Duration("duration", duration), zap.Int("length", len(resp.Message.Content)))
	return resp.Message.Content, usage, nil
}
