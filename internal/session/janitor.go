// Package session runs the nightly cleanup of stale session markers and
// old login attempts.
package session

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/garayn/garayn-backend/internal/store"
)

const (
	collSessions      = "sessions"
	collLoginAttempts = "loginAttempts"

	sessionRetention = 24 * time.Hour
	cleanupBatch     = 100
)

// Janitor deletes session docs whose lastActive is older than 24 hours and
// login attempts past retention, nightly.
type Janitor struct {
	store store.Store
	cron  *cron.Cron
	log   zerolog.Logger
	now   func() time.Time
}

func NewJanitor(st store.Store, log zerolog.Logger) *Janitor {
	return &Janitor{
		store: st,
		cron:  cron.New(),
		log:   log.With().Str("component", "session-janitor").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the nightly run at midnight. It returns after scheduling;
// the cron runs on its own goroutine.
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc("0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		j.Run(ctx)
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info().Msg("session janitor scheduled (nightly at midnight)")
	return nil
}

func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Run performs one cleanup pass. Exposed so it can be triggered directly.
func (j *Janitor) Run(ctx context.Context) {
	cutoff := j.now().Add(-sessionRetention)
	sessions := j.sweep(ctx, collSessions, "lastActive", cutoff)
	attempts := j.sweep(ctx, collLoginAttempts, "timestamp", cutoff)
	j.log.Info().Int("sessions", sessions).Int("loginAttempts", attempts).Msg("cleanup pass finished")
}

// sweep deletes docs in coll whose field is older than cutoff, in batches,
// and returns the number deleted.
func (j *Janitor) sweep(ctx context.Context, coll, field string, cutoff time.Time) int {
	deleted := 0
	for {
		old, err := j.store.Query(ctx, store.Query{
			Collection: coll,
			Filters:    []store.Filter{{Field: field, Op: "<=", Value: cutoff}},
			Limit:      cleanupBatch,
		})
		if err != nil {
			j.log.Warn().Err(err).Str("collection", coll).Msg("cleanup query failed")
			return deleted
		}
		if len(old) == 0 {
			return deleted
		}

		pass := 0
		for _, snap := range old {
			if err := j.store.Delete(ctx, coll, snap.ID()); err != nil {
				j.log.Warn().Err(err).Str("collection", coll).Str("id", snap.ID()).Msg("cleanup delete failed")
				continue
			}
			pass++
		}
		deleted += pass
		// A pass that removed nothing would re-query the same docs forever.
		if pass == 0 || len(old) < cleanupBatch {
			return deleted
		}
	}
}
