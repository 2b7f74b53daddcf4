// Package audit writes advisory bookkeeping records: login attempts and
// upload logs. Every method swallows its own failure after logging it;
// audit writes must never fail the operation they describe.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/garayn/garayn-backend/internal/store"
)

const (
	collLoginAttempts = "loginAttempts"
	collUploads       = "uploads"

	attemptRetention = 24 * time.Hour
	cleanupBatch     = 100
)

type Recorder struct {
	store store.Store
	log   zerolog.Logger
}

func NewRecorder(st store.Store, log zerolog.Logger) *Recorder {
	return &Recorder{store: st, log: log.With().Str("component", "audit").Logger()}
}

// LoginAttempt records one login outcome and opportunistically prunes
// attempts older than 24 hours, in batches.
func (r *Recorder) LoginAttempt(ctx context.Context, email, ip string, success bool) {
	now := time.Now().UTC()
	_, err := r.store.Add(ctx, collLoginAttempts, map[string]interface{}{
		"email":     email,
		"ip":        ip,
		"timestamp": now,
		"success":   success,
	})
	if err != nil {
		r.log.Error().Err(err).Str("email", email).Msg("failed to record login attempt")
		return
	}

	r.pruneAttempts(ctx, now.Add(-attemptRetention))
}

func (r *Recorder) pruneAttempts(ctx context.Context, cutoff time.Time) {
	old, err := r.store.Query(ctx, store.Query{
		Collection: collLoginAttempts,
		Filters:    []store.Filter{{Field: "timestamp", Op: "<=", Value: cutoff}},
		Limit:      cleanupBatch,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to query old login attempts")
		return
	}
	if len(old) == 0 {
		return
	}

	for _, snap := range old {
		if err := r.store.Delete(ctx, collLoginAttempts, snap.ID()); err != nil {
			r.log.Warn().Err(err).Str("id", snap.ID()).Msg("failed to delete old login attempt")
		}
	}
	r.log.Info().Int("count", len(old)).Msg("cleaned up old login attempts")
}

// Upload records a completed image upload.
func (r *Recorder) Upload(ctx context.Context, fileName, fileType string, fileSize int64, uploadedBy, url, providerID string) {
	_, err := r.store.Add(ctx, collUploads, map[string]interface{}{
		"fileName":     fileName,
		"fileType":     fileType,
		"fileSize":     fileSize,
		"uploadedBy":   uploadedBy,
		"uploadedAt":   time.Now().UTC(),
		"url":          url,
		"cloudinaryId": providerID,
	})
	if err != nil {
		r.log.Error().Err(err).Str("file", fileName).Msg("failed to record upload")
	}
}
