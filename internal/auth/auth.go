// Package auth implements the admin gate: credentials verification against
// the identity provider, the two-stage admin check, and signed session
// tokens.
package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAdminRequired      = errors.New("admin access required")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrSessionExpired     = errors.New("session expired")
)

// Session is the authenticated identity carried by a token.
type Session struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	IsAdmin       bool      `json:"isAdmin"`
	LastRefreshed time.Time `json:"lastRefreshed"`
}
