package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/garayn/garayn-backend/internal/auth"
	"github.com/garayn/garayn-backend/internal/projects/domain"
	"github.com/garayn/garayn-backend/internal/projects/repository"
)

// ImageChecker re-validates externally hosted image URLs before they are
// accepted into a project. A nil checker skips the step.
type ImageChecker interface {
	Validate(ctx context.Context, url string) error
}

// Handler exposes the admin project CRUD plus the read-only public surface.
type Handler struct {
	repo   *repository.Repo
	images ImageChecker
	log    zerolog.Logger
}

func NewHandler(repo *repository.Repo, images ImageChecker, log zerolog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		images: images,
		log:    log.With().Str("component", "projects-http").Logger(),
	}
}

func (h *Handler) checkImages(c *gin.Context, in domain.ProjectInput) bool {
	if h.images == nil {
		return true
	}
	urls := append([]string{in.Image}, in.Gallery...)
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := h.images.Validate(c.Request.Context(), u); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return false
		}
	}
	return true
}

func (h *Handler) list(c *gin.Context) {
	projects, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) create(c *gin.Context) {
	var in domain.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.checkImages(c, in) {
		return
	}

	p, err := h.repo.Create(c.Request.Context(), actorEmail(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) update(c *gin.Context) {
	var in domain.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	p, err := h.repo.Update(c.Request.Context(), c.Param("id"), actorEmail(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type statusReq struct {
	Status domain.Status `json:"status"`
	Reason string        `json:"reason"`
}

// updateStatus is the narrow status-only transition. Setting the current
// status again is a no-op that still answers 200.
func (h *Handler) updateStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	p, changed, err := h.repo.UpdateStatus(c.Request.Context(), c.Param("id"), actorEmail(c), req.Status, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{"message": "Status not changed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// delete accepts the id either as a path segment or as the ?id= query
// param; the admin frontend uses the query form.
func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		id = c.Query("id")
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id, actorEmail(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if details, ok := domain.AsValidationErrors(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation Error", "details": details})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("project request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

func actorEmail(c *gin.Context) string {
	s, _ := auth.SessionFrom(c)
	return s.Email
}
