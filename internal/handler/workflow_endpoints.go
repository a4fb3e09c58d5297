package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/meiziya0402-source/PPT/internal/deck"
	"github.com/meiziya0402-source/PPT/internal/export"
	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"

	"github.com/gin-gonic/gin"
)

// GenerateRequest - тело POST /generate. Тело можно не передавать.
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"max=2000"`
}

// GenerateResponse - результат генерации и новая колода.
type GenerateResponse struct {
	Fallback bool          `json:"fallback"`
	Notice   string        `json:"notice,omitempty"`
	Deck     deck.Snapshot `json:"deck"`
}

func (h *DeckHandler) generateDeck(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	res, err := d.GenerateDeck(c.Request.Context(), req.Prompt)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Fallback: res.Fallback, Notice: res.Notice, Deck: d.Snapshot()})
}

func (h *DeckHandler) exportDeck(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	surface := render.NewSurface(h.renderer, render.ExportScale, h.logger)
	pipeline := export.NewPipeline(h.opts.ExportWorkers, h.logger)

	data, err := d.ExportAll(c.Request.Context(), surface, pipeline)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.ArchiveName))
	c.Data(http.StatusOK, "application/zip", data)
}
