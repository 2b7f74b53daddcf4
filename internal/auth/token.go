package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	UserID        string `json:"id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	IsAdmin       bool   `json:"isAdmin"`
	LastRefreshed int64  `json:"lastRefreshed"` // unix millis
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens. Sessions expire after
// TTL of inactivity and are meant to be re-signed every RefreshInterval.
type TokenManager struct {
	secret          []byte
	ttl             time.Duration
	refreshInterval time.Duration
	now             func() time.Time
}

func NewTokenManager(secret string, ttl, refreshInterval time.Duration) *TokenManager {
	return &TokenManager{
		secret:          []byte(secret),
		ttl:             ttl,
		refreshInterval: refreshInterval,
		now:             time.Now,
	}
}

// Issue creates a signed token for the session, stamping LastRefreshed.
func (m *TokenManager) Issue(s Session) (string, Session, error) {
	now := m.now()
	s.LastRefreshed = now

	claims := &Claims{
		UserID:        s.ID,
		Email:         s.Email,
		Role:          s.Role,
		IsAdmin:       s.IsAdmin,
		LastRefreshed: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, err
	}
	return signed, s, nil
}

// Validate parses a token and returns its session.
func (m *TokenManager) Validate(tokenString string) (Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrSessionExpired
		}
		return Session{}, ErrInvalidToken
	}
	if !token.Valid {
		return Session{}, ErrInvalidToken
	}

	return Session{
		ID:            claims.UserID,
		Email:         claims.Email,
		Role:          claims.Role,
		IsAdmin:       claims.IsAdmin,
		LastRefreshed: time.UnixMilli(claims.LastRefreshed),
	}, nil
}

// ShouldRefresh reports whether the session is due for a re-signed token.
func (m *TokenManager) ShouldRefresh(s Session) bool {
	return m.now().Sub(s.LastRefreshed) >= m.refreshInterval
}

// Refresh re-signs the session with a fresh LastRefreshed stamp and expiry.
func (m *TokenManager) Refresh(s Session) (string, Session, error) {
	return m.Issue(s)
}
