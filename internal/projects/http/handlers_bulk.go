package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garayn/garayn-backend/internal/projects/domain"
)

type bulkDeleteReq struct {
	IDs []string `json:"ids"`
}

type bulkStatusReq struct {
	IDs    []string      `json:"ids"`
	Status domain.Status `json:"status"`
}

// bulkDelete removes all listed projects or none. A single missing id fails
// the whole request with 404 and leaves every project in place.
func (h *Handler) bulkDelete(c *gin.Context) {
	var req bulkDeleteReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	if err := h.repo.BulkDelete(c.Request.Context(), req.IDs, actorEmail(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bulkUpdateStatus(c *gin.Context) {
	var req bulkStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	if err := h.repo.BulkUpdateStatus(c.Request.Context(), req.IDs, req.Status, actorEmail(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
