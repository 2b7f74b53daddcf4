// Package repository owns every write to project documents and their
// status history. Multi-document mutations (counters, bulk operations,
// activity log) go through the store's transaction boundary.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/garayn/garayn-backend/internal/projects/domain"
	"github.com/garayn/garayn-backend/internal/store"
)

const (
	collProjects = "projects"
	collUsers    = "users"
	collActivity = "activity_log"
)

// ImageCleaner removes stored images by URL. Cleanup is advisory: failures
// are logged and never fail the operation that triggered them.
type ImageCleaner interface {
	Remove(ctx context.Context, url string) error
}

// Repo provides persistence operations for projects.
type Repo struct {
	store   store.Store
	cleaner ImageCleaner
	log     zerolog.Logger
	now     func() time.Time
}

func New(st store.Store, cleaner ImageCleaner, log zerolog.Logger) *Repo {
	return &Repo{
		store:   st,
		cleaner: cleaner,
		log:     log.With().Str("component", "projects").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create validates in, then atomically writes the project document and bumps
// the acting user's project counter.
func (r *Repo) Create(ctx context.Context, actorEmail string, in domain.ProjectInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := r.now()
	doc := docFromInput(in)
	doc["status"] = string(domain.StatusDraft)
	doc["createdBy"] = actorEmail
	doc["createdAt"] = now
	doc["updatedAt"] = now

	var projectID string
	err := r.store.RunTransaction(ctx, func(tx store.Tx) error {
		userSnap, err := tx.Get(collUsers, actorEmail)
		if err != nil {
			return err
		}

		var user domain.User
		if userSnap.Exists() {
			if err := userSnap.DataTo(&user); err != nil {
				return err
			}
		}

		projectID, err = tx.Create(collProjects, doc)
		if err != nil {
			return err
		}

		return tx.Update(collUsers, actorEmail, map[string]interface{}{
			"projectCount":       user.ProjectCount + 1,
			"lastProjectCreated": now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	return r.Get(ctx, projectID)
}

// Get fetches a single project by id.
func (r *Repo) Get(ctx context.Context, id string) (*domain.Project, error) {
	snap, err := r.store.Get(ctx, collProjects, id)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, domain.ErrNotFound
	}

	var p domain.Project
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	p.ID = snap.ID()
	return &p, nil
}

// List returns all projects, newest first.
func (r *Repo) List(ctx context.Context) ([]domain.Project, error) {
	return r.queryProjects(ctx, store.Query{
		Collection: collProjects,
		OrderBy:    "createdAt",
		Desc:       true,
	})
}

// RecentlyUpdated returns the most recently touched projects, capped at
// limit. The dashboard view orders by updatedAt rather than createdAt.
func (r *Repo) RecentlyUpdated(ctx context.Context, limit int) ([]domain.Project, error) {
	return r.queryProjects(ctx, store.Query{
		Collection: collProjects,
		OrderBy:    "updatedAt",
		Desc:       true,
		Limit:      limit,
	})
}

// Update replaces the client-owned fields of a project. When the payload's
// status differs from the stored one, exactly one history entry is appended;
// a payload without a status change appends nothing.
func (r *Repo) Update(ctx context.Context, id, actorEmail string, in domain.ProjectInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := r.now()
	fields := docFromInput(in)
	fields["updatedAt"] = now

	if in.Status != "" && in.Status != current.CurrentStatus() {
		entry := domain.StatusHistoryEntry{
			Status:    in.Status,
			ChangedBy: actorEmail,
			ChangedAt: now,
			Reason:    strings.TrimSpace(in.StatusChangeReason),
		}
		fields["status"] = string(in.Status)
		fields["statusHistory"] = append(current.StatusHistory, entry)
	}

	if err := r.store.Update(ctx, collProjects, id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}

	return r.Get(ctx, id)
}

// Replace overwrites the client-owned fields without touching the status
// lifecycle. The legacy public surface uses this; the admin surface goes
// through Update.
func (r *Repo) Replace(ctx context.Context, id string, in domain.ProjectInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	fields := docFromInput(in)
	fields["updatedAt"] = r.now()

	if err := r.store.Update(ctx, collProjects, id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("replace project %s: %w", id, err)
	}
	return r.Get(ctx, id)
}

// UpdateStatus is the narrow status-only operation. It returns
// changed=false without touching the document when the new status equals the
// current one. Transitions into completed or archived stamp completedAt or
// archivedAt; those fields are never cleared by later transitions away.
func (r *Repo) UpdateStatus(ctx context.Context, id, actorEmail string, status domain.Status, reason string) (*domain.Project, bool, error) {
	if !status.Valid() {
		return nil, false, domain.ErrInvalidStatus
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if current.CurrentStatus() == status {
		return current, false, nil
	}

	now := r.now()
	entry := domain.StatusHistoryEntry{
		Status:    status,
		ChangedBy: actorEmail,
		ChangedAt: now,
		Reason:    strings.TrimSpace(reason),
	}

	fields := map[string]interface{}{
		"status":        string(status),
		"updatedAt":     now,
		"statusHistory": append(current.StatusHistory, entry),
	}
	switch status {
	case domain.StatusCompleted:
		fields["completedAt"] = now
	case domain.StatusArchived:
		fields["archivedAt"] = now
	}

	if err := r.store.Update(ctx, collProjects, id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("update status of %s: %w", id, err)
	}

	updated, err := r.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// Delete atomically removes the project, decrements the user's counter
// (floored at zero) and records the deletion in the activity log. Image
// cleanup runs after commit and is best-effort.
func (r *Repo) Delete(ctx context.Context, id, actorEmail string) error {
	var deleted domain.Project

	now := r.now()
	err := r.store.RunTransaction(ctx, func(tx store.Tx) error {
		projSnap, err := tx.Get(collProjects, id)
		if err != nil {
			return err
		}
		userSnap, err := tx.Get(collUsers, actorEmail)
		if err != nil {
			return err
		}

		if !projSnap.Exists() {
			return domain.ErrNotFound
		}
		if err := projSnap.DataTo(&deleted); err != nil {
			return err
		}

		var user domain.User
		if userSnap.Exists() {
			if err := userSnap.DataTo(&user); err != nil {
				return err
			}
		}
		count := user.ProjectCount - 1
		if count < 0 {
			count = 0
		}

		if err := tx.Delete(collProjects, id); err != nil {
			return err
		}
		if _, err := tx.Create(collActivity, activityDoc("deleted", deleted.Title, actorEmail, now, nil)); err != nil {
			return err
		}
		return tx.Update(collUsers, actorEmail, map[string]interface{}{
			"projectCount":       count,
			"lastProjectDeleted": now,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete project %s: %w", id, err)
	}

	r.cleanupImages(ctx, &deleted)
	return nil
}

// BulkDelete removes every listed project or none of them: all ids are
// verified inside the transaction before any write is queued.
func (r *Repo) BulkDelete(ctx context.Context, ids []string, actorID string) error {
	now := r.now()
	err := r.store.RunTransaction(ctx, func(tx store.Tx) error {
		snaps, err := r.getAll(tx, ids)
		if err != nil {
			return err
		}

		for _, snap := range snaps {
			title, _ := snap.Data()["title"].(string)
			if err := tx.Delete(collProjects, snap.ID()); err != nil {
				return err
			}
			if _, err := tx.Create(collActivity, activityDoc("deleted", title, actorID, now, nil)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("bulk delete: %w", err)
	}
	return nil
}

// BulkUpdateStatus sets status on every listed project or none of them.
func (r *Repo) BulkUpdateStatus(ctx context.Context, ids []string, status domain.Status, actorID string) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	now := r.now()
	err := r.store.RunTransaction(ctx, func(tx store.Tx) error {
		snaps, err := r.getAll(tx, ids)
		if err != nil {
			return err
		}

		for _, snap := range snaps {
			title, _ := snap.Data()["title"].(string)
			err := tx.Update(collProjects, snap.ID(), map[string]interface{}{
				"status":    string(status),
				"updatedAt": now,
				"updatedBy": actorID,
			})
			if err != nil {
				return err
			}
			details := map[string]interface{}{"status": string(status)}
			if _, err := tx.Create(collActivity, activityDoc("updated", title, actorID, now, details)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("bulk status update: %w", err)
	}
	return nil
}

// getAll reads every id inside tx and fails on the first missing document,
// before the caller queues any write.
func (r *Repo) getAll(tx store.Tx, ids []string) ([]store.Snapshot, error) {
	snaps := make([]store.Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := tx.Get(collProjects, id)
		if err != nil {
			return nil, err
		}
		if !snap.Exists() {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (r *Repo) queryProjects(ctx context.Context, q store.Query) ([]domain.Project, error) {
	snaps, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Project, 0, len(snaps))
	for _, snap := range snaps {
		var p domain.Project
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", snap.ID(), err)
		}
		p.ID = snap.ID()
		out = append(out, p)
	}
	return out, nil
}

func (r *Repo) cleanupImages(ctx context.Context, p *domain.Project) {
	if r.cleaner == nil {
		return
	}
	urls := make([]string, 0, 1+len(p.Gallery))
	if p.Image != "" {
		urls = append(urls, p.Image)
	}
	urls = append(urls, p.Gallery...)

	for _, u := range urls {
		if err := r.cleaner.Remove(ctx, u); err != nil {
			r.log.Warn().Err(err).Str("url", u).Msg("failed to delete project image")
		}
	}
}

// activityDoc shapes an activity_log entry. Timestamps are stored as RFC3339
// strings in this collection.
func activityDoc(action, title, userID string, at time.Time, details map[string]interface{}) map[string]interface{} {
	doc := map[string]interface{}{
		"type":      "project",
		"action":    action,
		"title":     title,
		"userId":    userID,
		"timestamp": at.Format(time.RFC3339),
	}
	if details != nil {
		doc["details"] = details
	}
	return doc
}

// docFromInput maps the validated payload onto document fields. Optional
// fields that were not provided stay untouched on update, matching the
// partial-write behavior of the original admin API.
func docFromInput(in domain.ProjectInput) map[string]interface{} {
	doc := map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"image":       in.Image,
		"tags":        in.Tags,
		"category":    in.Category,
		"url":         in.URL,
		"client":      in.Client,
		"year":        in.Year,
		"isPaid":      *in.IsPaid,
		"liveUrl":     in.LiveURL,
		"videoUrl":    in.VideoURL,
		"githubUrl":   in.GithubURL,
	}
	if in.Gallery != nil {
		doc["gallery"] = in.Gallery
	}
	if in.Price != nil {
		doc["price"] = *in.Price
	}
	if in.PreviewFeatures != nil {
		doc["previewFeatures"] = in.PreviewFeatures
	}
	return doc
}
