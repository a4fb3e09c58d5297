package handler

import (
	"net/http"

	"github.com/meiziya0402-source/PPT/internal/deck"

	"github.com/gin-gonic/gin"
)

// SessionResponse - ответ на создание сессии.
type SessionResponse struct {
	SessionID string        `json:"sessionId"`
	Deck      deck.Snapshot `json:"deck"`
}

func (h *DeckHandler) createSession(c *gin.Context) {
	id, d := h.sessions.Create()
	c.JSON(http.StatusCreated, SessionResponse{SessionID: id, Deck: d.Snapshot()})
}

func (h *DeckHandler) getSession(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{SessionID: c.Param("sessionId"), Deck: d.Snapshot()})
}

func (h *DeckHandler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("sessionId")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
