// Package users reads and maintains the per-admin documents keyed by email:
// the role claim, the denormalized project counter and the session marker.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garayn/garayn-backend/internal/projects/domain"
	"github.com/garayn/garayn-backend/internal/store"
)

const (
	collUsers    = "users"
	collSessions = "sessions"
)

type Repo struct {
	store store.Store
}

func NewRepo(st store.Store) *Repo {
	return &Repo{store: st}
}

// Get returns the user document for email, or nil when none exists.
func (r *Repo) Get(ctx context.Context, email string) (*domain.User, error) {
	snap, err := r.store.Get(ctx, collUsers, email)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, nil
	}

	var u domain.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", email, err)
	}
	return &u, nil
}

// IsAdmin reports whether email has the admin role claim.
func (r *Repo) IsAdmin(ctx context.Context, email string) (bool, error) {
	u, err := r.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil && u.Role == "admin", nil
}

// TouchSession upserts the session marker for email after a successful
// sign-in.
func (r *Repo) TouchSession(ctx context.Context, email string, at time.Time) error {
	return r.store.Set(ctx, collSessions, email, map[string]interface{}{
		"lastSignIn": at,
		"lastActive": at,
	})
}

// UpdateLastActive refreshes the activity timestamp on the session marker.
// Missing markers are not an error; the login flow recreates them.
func (r *Repo) UpdateLastActive(ctx context.Context, email string, at time.Time) error {
	err := r.store.Update(ctx, collSessions, email, map[string]interface{}{
		"lastActive": at,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
