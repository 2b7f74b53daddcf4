package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garayn/garayn-backend/internal/users"
)

const ctxSession = "session"

// Guard is the single authorization middleware applied to protected routes.
// It replaces per-endpoint role checks with one reusable gate.
type Guard struct {
	tokens *TokenManager
	users  *users.Repo
}

func NewGuard(tokens *TokenManager, userRepo *users.Repo) *Guard {
	return &Guard{tokens: tokens, users: userRepo}
}

// RequireSession validates the bearer token and stores the session in the
// request context. It also refreshes the session marker's activity stamp in
// the background.
func (g *Guard) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		session, err := g.tokens.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set(ctxSession, session)
		g.touchActivity(session.Email)
		c.Next()
	}
}

// RequireAdmin is RequireSession plus the admin claim. Authenticated users
// without the claim get 403, never 401.
func (g *Guard) RequireAdmin() gin.HandlerFunc {
	requireSession := g.RequireSession()
	return func(c *gin.Context) {
		requireSession(c)
		if c.IsAborted() {
			return
		}

		session, _ := SessionFrom(c)
		if session.Role != "admin" || !session.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom extracts the validated session placed by the guard.
func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(ctxSession)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

func (g *Guard) touchActivity(email string) {
	if g.users == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Advisory; a failed stamp never blocks the request.
		_ = g.users.UpdateLastActive(ctx, email, time.Now().UTC())
	}()
}

// extractToken extracts the Bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
