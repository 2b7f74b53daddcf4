package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garayn/garayn-backend/internal/projects/domain"
)

// The legacy /api/projects surface predates the admin panel. Reads are
// public; writes require a session but skip the status lifecycle, so a
// legacy PUT never appends history.

func (h *Handler) publicList(c *gin.Context) {
	projects, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) publicGet(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) legacyCreate(c *gin.Context) {
	var in domain.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), actorEmail(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) legacyReplace(c *gin.Context) {
	var in domain.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	p, err := h.repo.Replace(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) legacyDelete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id"), actorEmail(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}
