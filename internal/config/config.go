package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Типы AI клиента
const (
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"
	AIClientNone   = "none" // генерация всегда дает резервную колоду
)

// Config содержит конфигурацию сервера редактора.
type Config struct {
	Env                string `envconfig:"ENV" default:"development"`
	ServerPort         string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding        string `envconfig:"LOG_ENCODING" default:"json"`
	LogComponentLevels string `envconfig:"LOG_COMPONENT_LEVELS"` // Renderer=debug,GeneratorService=warn

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// AI (по умолчанию OpenAI-совместимый endpoint Gemini)
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	AIModel          string        `envconfig:"AI_MODEL" default:"gemini-2.5-flash"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"3"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s"`
	AIRateInterval   time.Duration `envconfig:"AI_RATE_INTERVAL" default:"2s"`
	// Секретное поле, читается из AI_API_KEY или /run/secrets/ai_api_key
	AIAPIKey string `ignored:"true"`

	PromptsDir string `envconfig:"PROMPTS_DIR" default:""`

	// Redis опционален: без него кеш генерации и лимитер работают в памяти
	RedisAddr          string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword      string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB            int           `envconfig:"REDIS_DB" default:"0"`
	GenerationCacheTTL time.Duration `envconfig:"GENERATION_CACHE_TTL" default:"24h"`

	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	FontPath             string        `envconfig:"FONT_PATH" default:""`
	UploadMaxBytes       int64         `envconfig:"UPLOAD_MAX_BYTES" default:"20971520"`
	ImageMaxPixels       int64         `envconfig:"IMAGE_MAX_PIXELS" default:"40000000"` // ширина x высота загружаемого фона
	FooterFormat         string        `envconfig:"FOOTER_FORMAT" default:"2024 Year End - Page %d"`
	DefaultBackgroundURL string        `envconfig:"DEFAULT_BACKGROUND_URL" default:""`
	RemoteAllowPrivate   bool          `envconfig:"REMOTE_IMAGE_ALLOW_PRIVATE" default:"false"` // разрешить ссылки на внутреннюю сеть
	HTTPRateLimit        int           `envconfig:"HTTP_RATE_LIMIT" default:"10"` // запросов в минуту на IP для generate и export
	ExportEncodeWorkers  int           `envconfig:"EXPORT_ENCODE_WORKERS" default:"4"`
}

// GetAllowedOrigins разбивает CORSAllowedOrigins по запятым.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// IsProduction сообщает, запущен ли сервер в production окружении.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig загружает конфигурацию из .env (если есть), переменных окружения и секретов.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	cfg.AIClientType = strings.ToLower(strings.TrimSpace(cfg.AIClientType))
	if key := strings.TrimSpace(os.Getenv("AI_API_KEY")); key != "" {
		cfg.AIAPIKey = key
	} else if key, err := ReadSecret("ai_api_key"); err == nil {
		cfg.AIAPIKey = key
	} else if cfg.AIClientType == AIClientOpenAI {
		// без ключа генерация недоступна, сервер работает на резервной колоде
		log.Printf("Warning: AI API key not found (%v), generation falls back to the default deck", err)
		cfg.AIClientType = AIClientNone
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые envconfig проверить не может.
func (c *Config) Validate() error {
	switch c.AIClientType {
	case AIClientOpenAI, AIClientOllama, AIClientNone:
	default:
		return fmt.Errorf("unknown AI_CLIENT_TYPE %q", c.AIClientType)
	}
	if c.AIMaxAttempts < 1 {
		return fmt.Errorf("AI_MAX_ATTEMPTS must be >= 1, got %d", c.AIMaxAttempts)
	}
	if strings.Count(c.FooterFormat, "%d") != 1 {
		return fmt.Errorf("FOOTER_FORMAT must contain exactly one %%d, got %q", c.FooterFormat)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.ImageMaxPixels <= 0 {
		return fmt.Errorf("IMAGE_MAX_PIXELS must be positive")
	}
	return nil
}
