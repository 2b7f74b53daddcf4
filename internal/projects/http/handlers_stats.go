package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) dashboard(c *gin.Context) {
	dash, err := h.repo.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
