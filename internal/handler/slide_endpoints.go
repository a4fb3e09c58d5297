package handler

import (
	"bytes"
	"image/png"
	"net/http"

	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SelectRequest - тело PUT /selection.
type SelectRequest struct {
	SlideID string `json:"slideId" binding:"required"`
}

// UpdateFieldRequest - тело PATCH /slides/:slideId. Field - путь поля, например "gridItems.1.desc".
type UpdateFieldRequest struct {
	Field string  `json:"field" binding:"required"`
	Value *string `json:"value" binding:"required"`
}

// DraftRequest - тело PUT /regions/:field/draft.
type DraftRequest struct {
	Text string `json:"text"`
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *DeckHandler) selectSlide(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	var req SelectRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := d.SelectSlide(req.SlideID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selectedId": req.SlideID})
}

func (h *DeckHandler) updateSlideField(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	var req UpdateFieldRequest
	if !bindJSON(c, &req) {
		return
	}
	ref, err := models.ParseFieldRef(req.Field)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	slideID := c.Param("slideId")
	if err := d.UpdateSlideField(slideID, ref, *req.Value); err != nil {
		handleServiceError(c, err)
		return
	}
	slide, err := d.Slide(slideID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

func (h *DeckHandler) listRegions(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	scale, ok := scaleParam(c)
	if !ok {
		return
	}
	regions, err := d.EditableRegions(c.Param("slideId"), scale)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if regions == nil {
		regions = []render.Region{}
	}
	c.JSON(http.StatusOK, gin.H{"scale": scale, "regions": regions})
}

// fieldParam разбирает :field пути.
func fieldParam(c *gin.Context) (models.FieldRef, bool) {
	ref, err := models.ParseFieldRef(c.Param("field"))
	if err != nil {
		handleServiceError(c, err)
		return models.FieldRef{}, false
	}
	return ref, true
}

func (h *DeckHandler) beginEdit(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	ref, ok := fieldParam(c)
	if !ok {
		return
	}
	state, err := d.BeginEdit(c.Param("slideId"), ref)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *DeckHandler) inputDraft(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	ref, ok := fieldParam(c)
	if !ok {
		return
	}
	var req DraftRequest
	if !bindJSON(c, &req) {
		return
	}
	state, err := d.InputDraft(c.Param("slideId"), ref, req.Text)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *DeckHandler) commitEdit(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	ref, ok := fieldParam(c)
	if !ok {
		return
	}
	state, err := d.CommitEdit(c.Param("slideId"), ref)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *DeckHandler) cancelEdit(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	ref, ok := fieldParam(c)
	if !ok {
		return
	}
	d.CancelEdit(c.Param("slideId"), ref)
	c.Status(http.StatusNoContent)
}

// previewSlide отдает PNG слайда в том виде, в каком его сейчас показывает холст.
func (h *DeckHandler) previewSlide(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	scale, ok := scaleParam(c)
	if !ok {
		return
	}
	slideID := c.Param("slideId")
	slide, err := d.Slide(slideID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	surface := render.NewSurface(h.renderer, scale, h.logger)
	frame, err := surface.Present(slide, d.Background(), d.Generating()).Wait(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, frame); err != nil {
		h.logger.Error("Failed to encode preview", zap.String("slideID", slideID), zap.Error(err))
		handleServiceError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
