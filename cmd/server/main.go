package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meiziya0402-source/PPT/internal/config"
	"github.com/meiziya0402-source/PPT/internal/deck"
	"github.com/meiziya0402-source/PPT/internal/delivery/websocket"
	"github.com/meiziya0402-source/PPT/internal/generator"
	"github.com/meiziya0402-source/PPT/internal/handler"
	sharedLogger "github.com/meiziya0402-source/PPT/internal/logger"
	"github.com/meiziya0402-source/PPT/internal/middleware"
	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"
	"github.com/meiziya0402-source/PPT/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:           cfg.LogLevel,
		Encoding:        cfg.LogEncoding,
		Service:         "deck-editor",
		ComponentLevels: cfg.LogComponentLevels,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("aiClient", cfg.AIClientType),
		zap.String("aiModel", cfg.AIModel),
	)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Rendering ---
	fonts, err := render.LoadFonts(cfg.FontPath)
	if err != nil {
		zap.L().Fatal("Failed to load fonts", zap.Error(err))
	}
	if !fonts.HasCJK() {
		zap.L().Warn("CJK font not configured, Chinese text renders with the fallback face", zap.String("fontPath", cfg.FontPath))
	}
	renderer := render.NewRenderer(fonts, logger)

	// --- External Connections (optional) ---
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = setupRedis(cfg)
		if err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		zap.L().Info("Connected to Redis")
	} else {
		zap.L().Info("REDIS_ADDR not set, generation cache and rate limiter run in memory")
	}

	// --- Generation ---
	aiClient, err := generator.NewAIClient(cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}
	if aiClient == nil {
		zap.L().Warn("AI generation disabled, every generation uses the fallback deck")
	}
	prompt, err := generator.LoadPromptTemplate(cfg.PromptsDir, logger)
	if err != nil {
		zap.L().Fatal("Failed to load prompt template", zap.Error(err))
	}
	var cache generator.Cache = generator.NoopCache{}
	if redisClient != nil {
		cache = generator.NewRedisCache(redisClient, cfg.GenerationCacheTTL, logger)
	}
	generatorSvc := generator.NewService(aiClient, cache, prompt, generator.ServiceConfig{
		MaxAttempts:    cfg.AIMaxAttempts,
		BaseRetryDelay: cfg.AIBaseRetryDelay,
		RateInterval:   cfg.AIRateInterval,
	}, logger)

	// --- WebSocket Hub ---
	hub := websocket.NewHub(cfg.GetAllowedOrigins(), logger)
	go hub.Run(rootCtx)

	// --- Sessions ---
	fetcher := handler.NewImageFetcher(30*time.Second, cfg.UploadMaxBytes, cfg.RemoteAllowPrivate, logger)
	defaultBackground := loadDefaultBackground(rootCtx, fetcher, cfg.DefaultBackgroundURL, cfg.ImageMaxPixels)

	sessions := session.NewStore(cfg.SessionTTL, func(sessionID string) *deck.Deck {
		d := deck.New(deck.Options{
			Topic:        sessionID,
			FooterFormat: cfg.FooterFormat,
			Generator:    generatorSvc,
			Notifier:     hub,
			Logger:       logger,
		})
		if defaultBackground != nil {
			d.SetBackgroundImage(defaultBackground)
		}
		return d
	}, logger)

	// --- Rate Limiter (generate и export) ---
	rateLimitStore := rateli.InMemoryStore(&rateli.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(cfg.HTTPRateLimit),
	})
	if redisClient != nil {
		rateLimitStore = rateli.RedisStore(&rateli.RedisOptions{
			RedisClient: redisClient,
			Rate:        time.Minute,
			Limit:       uint(cfg.HTTPRateLimit),
		})
	}
	rateLimitMiddleware := rateli.RateLimiter(rateLimitStore, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    models.ErrCodeTooManyRequests,
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	deckHandler := handler.NewDeckHandler(sessions, renderer, hub, fetcher, handler.Options{
		UploadMaxBytes: cfg.UploadMaxBytes,
		MaxImagePixels: cfg.ImageMaxPixels,
		ExportWorkers:  cfg.ExportEncodeWorkers,
	}, logger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.MaxMultipartMemory = cfg.UploadMaxBytes
	router.Use(middleware.ZapLogger(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDKey}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDKey}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"sessions":   sessions.Count(),
			"websockets": hub.ClientCount(),
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	deckHandler.RegisterRoutes(router, rateLimitMiddleware)

	// Prometheus подключается после регистрации роутов
	p.Use(router)

	// --- Start HTTP Server ---
	// WriteTimeout покрывает генерацию с повторами и экспорт всей колоды
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.AIMaxAttempts)*cfg.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	// Останавливаем hub после HTTP сервера, чтобы закрыть оставшиеся websocket соединения
	stop()

	zap.L().Info("Server exiting")
}

// setupRedis подключается к Redis с несколькими попытками.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	zap.L().Info("Redis connection options configured", zap.String("address", redisOpts.Addr), zap.Int("db", redisOpts.DB))

	var lastErr error
	maxRetries := 10
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client := redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// loadDefaultBackground скачивает фон новых сессий. Ошибка не фатальна: сессии стартуют без фона.
func loadDefaultBackground(ctx context.Context, fetcher *handler.ImageFetcher, url string, maxPixels int64) *models.Background {
	if url == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	data, err := fetcher.Fetch(ctx, url)
	if err != nil {
		zap.L().Warn("Failed to fetch default background", zap.String("url", url), zap.Error(err))
		return nil
	}
	bg, err := render.DecodeBackgroundLimit(data, maxPixels)
	if err != nil {
		zap.L().Warn("Default background is not a supported image", zap.String("url", url), zap.Error(err))
		return nil
	}
	zap.L().Info("Default background loaded", zap.String("mime", bg.MimeType), zap.Int("bytes", len(data)))
	return bg
}
