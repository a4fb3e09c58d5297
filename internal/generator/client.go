package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meiziya0402-source/PPT/internal/config"

	"go.uber.org/zap"
)

// Request - один мультимодальный запрос к модели.
type Request struct {
	Prompt   string
	Image    []byte
	MimeType string
	Schema   json.RawMessage // JSON schema ответа, передается всегда
}

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool // посчитано tiktoken, а не получено от API
}

// AIClient интерфейс для взаимодействия с AI API.
type AIClient interface {
	// Generate отправляет изображение и промт, возвращает сырой JSON ответа.
	Generate(ctx context.Context, req Request) (string, UsageInfo, error)
	// Model возвращает имя модели для метрик и ключа кеша.
	Model() string
}

// NewAIClient создает клиент в зависимости от AI_CLIENT_TYPE.
// Для типа "none" возвращается nil: колода тогда всегда резервная.
func NewAIClient(cfg *config.Config, logger *zap.Logger) (AIClient, error) {
	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientOpenAI:
		logger.Info("Using AI client implementation: OpenAI", zap.String("baseURL", cfg.AIBaseURL), zap.String("model", cfg.AIModel))
		return newOpenAIClient(cfg, logger), nil
	case config.AIClientOllama:
		logger.Info("Using AI client implementation: Ollama", zap.String("baseURL", cfg.AIBaseURL), zap.String("model", cfg.AIModel))
		client, err := newOllamaClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.AIClientNone, "":
		logger.Warn("AI client disabled, generation always uses the fallback deck")
		return nil, nil
	default:
		return nil, fmt.Errorf("неизвестный тип AI клиента: %s", cfg.AIClientType)
	}
}
