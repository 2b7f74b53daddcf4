package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garayn/garayn-backend/internal/auth"
	"github.com/garayn/garayn-backend/internal/ratelimit"
)

// Handler exposes the auth endpoints: login, token refresh and password
// reset requests.
type Handler struct {
	service *auth.Service
	tokens  *auth.TokenManager
	guard   *auth.Guard
}

func NewHandler(service *auth.Service, tokens *auth.TokenManager, guard *auth.Guard) *Handler {
	return &Handler{service: service, tokens: tokens, guard: guard}
}

// Register attaches auth routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
	rg.POST("/refresh", h.guard.RequireSession(), h.refresh)
	rg.POST("/reset-password", h.resetPassword)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, token, err := h.service.Authenticate(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": sessionUser{
			ID:      session.ID,
			Email:   session.Email,
			Role:    session.Role,
			IsAdmin: session.IsAdmin,
		},
	})
}

// refresh re-signs the current session token when it is due. A token that is
// not yet due for refresh is returned unchanged.
func (h *Handler) refresh(c *gin.Context) {
	session, ok := auth.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if !h.tokens.ShouldRefresh(session) {
		c.JSON(http.StatusOK, gin.H{"refreshed": false})
		return
	}

	token, refreshed, err := h.tokens.Refresh(session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refreshed": true,
		"token":     token,
		"user": sessionUser{
			ID:      refreshed.ID,
			Email:   refreshed.Email,
			Role:    refreshed.Role,
			IsAdmin: refreshed.IsAdmin,
		},
	})
}

type resetReq struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		// Do not leak whether the account exists.
		c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link has been sent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link has been sent"})
}

func writeAuthError(c *gin.Context, err error) {
	var rle *ratelimit.RateLimitError
	switch {
	case errors.As(err, &rle):
		c.Header("Retry-After", strconv.Itoa(rle.RetryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rle.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, auth.ErrAdminRequired):
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
