package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/meiziya0402-source/PPT/internal/deck"
	"github.com/meiziya0402-source/PPT/internal/models"
	"github.com/meiziya0402-source/PPT/internal/render"
	"github.com/meiziya0402-source/PPT/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Session not found"}
	case errors.Is(err, deck.ErrSlideNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Slide not found"}
	case errors.Is(err, deck.ErrNoBackground):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "Upload a background image first"}
	case errors.Is(err, deck.ErrBusy):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "Deck is busy with another workflow"}
	case errors.Is(err, deck.ErrNotEditing):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "Region is not being edited"}
	case errors.Is(err, models.ErrUnknownField):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrFieldNotApplicable), errors.Is(err, models.ErrIndexOutOfRange), errors.Is(err, deck.ErrNoRegion):
		statusCode = http.StatusUnprocessableEntity
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, ErrBadUpload):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, ErrUploadTooLarge):
		statusCode = http.StatusRequestEntityTooLarge
		errResp = models.ErrorResponse{Code: models.ErrCodeTooLarge, Message: err.Error()}
	case errors.Is(err, render.ErrUnsupportedImage):
		statusCode = http.StatusUnsupportedMediaType
		errResp = models.ErrorResponse{Code: models.ErrCodeUnsupportedMedia, Message: "Supported formats: PNG, JPEG, GIF, WebP"}
	case errors.Is(err, deck.ErrExportFailed):
		zap.L().Error("Export failed", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: deck.NoticeExportFailed}
	case errors.Is(err, context.Canceled):
		statusCode = http.StatusRequestTimeout
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Request canceled"}
	case errors.Is(err, context.DeadlineExceeded):
		statusCode = http.StatusGatewayTimeout
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "Request timed out"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
