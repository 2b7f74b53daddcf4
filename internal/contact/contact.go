// Package contact persists public contact-form submissions.
package contact

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/garayn/garayn-backend/internal/store"
)

const collContacts = "contacts"

type Handler struct {
	store store.Store
	log   zerolog.Logger
}

func NewHandler(st store.Store, log zerolog.Logger) *Handler {
	return &Handler{store: st, log: log.With().Str("component", "contact").Logger()}
}

// Register attaches the contact route to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/contact", h.submit)
}

type submitReq struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

func (h *Handler) submit(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email, and message are required"})
		return
	}

	_, err := h.store.Add(c.Request.Context(), collContacts, map[string]interface{}{
		"name":      req.Name,
		"email":     req.Email,
		"message":   req.Message,
		"createdAt": time.Now().UTC(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to store contact submission")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message received"})
}
