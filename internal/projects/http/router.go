package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garayn/garayn-backend/internal/auth"
	"github.com/garayn/garayn-backend/internal/ratelimit"
)

// RegisterAdmin attaches the admin project routes. Rate limits run before
// the admin gate so floods are rejected without a token check.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup, guard *auth.Guard, limiter *ratelimit.Limiter) {
	admin := guard.RequireAdmin()
	limit := func(identifier string, n int) gin.HandlerFunc {
		return ratelimit.Middleware(limiter, identifier, n, time.Minute)
	}

	rg.GET("/projects", limit("projects-list", 10), admin, h.list)
	rg.POST("/projects", limit("project-create", 5), admin, h.create)
	rg.DELETE("/projects", limit("project-delete", 5), admin, h.delete)
	rg.DELETE("/projects/bulk", limit("bulk-delete", 5), admin, h.bulkDelete)
	rg.PATCH("/projects/bulk", limit("bulk-update", 5), admin, h.bulkUpdateStatus)
	rg.GET("/projects/:id", admin, h.get)
	rg.PUT("/projects/:id", admin, h.update)
	rg.PATCH("/projects/:id", admin, h.updateStatus)
	rg.DELETE("/projects/:id", limit("project-delete", 5), admin, h.delete)
	rg.GET("/stats", limit("stats", 10), admin, h.stats)
	rg.GET("/dashboard", limit("dashboard", 10), admin, h.dashboard)
}

// RegisterPublic attaches the legacy /api/projects surface: public reads,
// session-guarded writes.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup, guard *auth.Guard) {
	session := guard.RequireSession()

	rg.GET("", h.publicList)
	rg.POST("", session, h.legacyCreate)
	rg.GET("/:id", h.publicGet)
	rg.PUT("/:id", session, h.legacyReplace)
	rg.DELETE("/:id", session, h.legacyDelete)
}
