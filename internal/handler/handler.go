package handler

import (
	"net/http"
	"strconv"

	"github.com/meiziya0402-source/PPT/internal/deck"
	"github.com/meiziya0402-source/PPT/internal/delivery/websocket"
	"github.com/meiziya0402-source/PPT/internal/export"
	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"
	"github.com/meiziya0402-source/PPT/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options - ограничения HTTP слоя.
type Options struct {
	UploadMaxBytes int64
	MaxImagePixels int64 // 0 - render.DefaultMaxPixels
	ExportWorkers  int
}

// DeckHandler обслуживает REST API редактора и websocket подписку.
type DeckHandler struct {
	sessions *session.Store
	renderer *render.Renderer
	hub      *websocket.Hub
	fetcher  *ImageFetcher
	opts     Options
	logger   *zap.Logger
}

// NewDeckHandler создает обработчик.
func NewDeckHandler(sessions *session.Store, renderer *render.Renderer, hub *websocket.Hub, fetcher *ImageFetcher, opts Options, logger *zap.Logger) *DeckHandler {
	if opts.ExportWorkers <= 0 {
		opts.ExportWorkers = export.DefaultWorkers
	}
	return &DeckHandler{
		sessions: sessions,
		renderer: renderer,
		hub:      hub,
		fetcher:  fetcher,
		opts:     opts,
		logger:   logger.Named("DeckHandler"),
	}
}

// RegisterRoutes регистрирует маршруты. heavy применяется к generate и export (лимит запросов по IP).
func (h *DeckHandler) RegisterRoutes(router *gin.Engine, heavy ...gin.HandlerFunc) {
	api := router.Group("/api/v1/sessions")
	{
		api.POST("", h.createSession)
		api.GET("/:sessionId", h.getSession)
		api.DELETE("/:sessionId", h.deleteSession)

		api.PUT("/:sessionId/background", h.uploadBackground)
		api.PUT("/:sessionId/selection", h.selectSlide)

		api.PATCH("/:sessionId/slides/:slideId", h.updateSlideField)
		api.GET("/:sessionId/slides/:slideId/regions", h.listRegions)
		api.POST("/:sessionId/slides/:slideId/regions/:field/begin", h.beginEdit)
		api.PUT("/:sessionId/slides/:slideId/regions/:field/draft", h.inputDraft)
		api.POST("/:sessionId/slides/:slideId/regions/:field/commit", h.commitEdit)
		api.DELETE("/:sessionId/slides/:slideId/regions/:field/draft", h.cancelEdit)
		api.GET("/:sessionId/slides/:slideId/preview", h.previewSlide)

		api.POST("/:sessionId/generate", chain(heavy, h.generateDeck)...)
		api.POST("/:sessionId/export", chain(heavy, h.exportDeck)...)
	}

	router.GET("/ws", h.serveWS)
}

func chain(middleware []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(middleware)+1)
	out = append(out, middleware...)
	return append(out, handler)
}

// deck достает колоду сессии из пути. При ошибке ответ уже записан.
func (h *DeckHandler) deck(c *gin.Context) (*deck.Deck, bool) {
	d, err := h.sessions.Get(c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return d, true
}

// scaleParam читает ?scale=1|2. Другие значения - ошибка запроса.
func scaleParam(c *gin.Context) (float64, bool) {
	raw := c.DefaultQuery("scale", "1")
	scale, err := strconv.ParseFloat(raw, 64)
	if err != nil || (scale != 1 && scale != render.ExportScale) {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeBadRequest,
			Message: "scale must be 1 or 2",
		})
		return 0, false
	}
	return scale, true
}

func (h *DeckHandler) serveWS(c *gin.Context) {
	id := c.Query("session")
	if !h.sessions.Exists(id) {
		handleServiceError(c, session.ErrSessionNotFound)
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, id); err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.String("sessionID", id), zap.Error(err))
	}
}
