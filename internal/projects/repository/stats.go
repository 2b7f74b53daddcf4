package repository

import (
	"context"
	"sort"
	"time"

	"github.com/garayn/garayn-backend/internal/projects/domain"
	"github.com/garayn/garayn-backend/internal/store"
)

const dashboardWindow = 50

// Stats returns the headline counts over all projects.
func (r *Repo) Stats(ctx context.Context) (*domain.Stats, error) {
	snaps, err := r.store.Query(ctx, store.Query{Collection: collProjects})
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{TotalProjects: len(snaps)}
	for _, snap := range snaps {
		switch status, _ := snap.Data()["status"].(string); domain.Status(status) {
		case domain.StatusActive:
			stats.ActiveProjects++
		case domain.StatusCompleted:
			stats.CompletedProjects++
		}
	}
	return stats, nil
}

// Dashboard aggregates the 50 most recently updated projects with the last
// deletions from the activity log into one summary payload.
func (r *Repo) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	projects, err := r.RecentlyUpdated(ctx, dashboardWindow)
	if err != nil {
		return nil, err
	}

	dash := &domain.Dashboard{
		ByCategory:     make(map[string]int),
		ByStatus:       make(map[string]int),
		RecentActivity: make([]domain.ActivityEntry, 0, len(projects)),
	}

	for _, p := range projects {
		dash.TotalProjects++

		category := p.Category
		if category == "" {
			category = "Uncategorized"
		}
		dash.ByCategory[category]++
		dash.ByStatus[string(p.CurrentStatus())]++

		dash.RecentActivity = append(dash.RecentActivity, domain.ActivityEntry{
			ID:        p.ID,
			Title:     p.Title,
			Action:    "updated",
			Timestamp: p.UpdatedAt.Format(time.RFC3339),
		})
	}

	deletions, err := r.store.Query(ctx, store.Query{
		Collection: collActivity,
		Filters: []store.Filter{
			{Field: "action", Op: "==", Value: "deleted"},
			{Field: "type", Op: "==", Value: "project"},
		},
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   10,
	})
	if err != nil {
		return nil, err
	}

	for _, snap := range deletions {
		data := snap.Data()
		title, _ := data["title"].(string)
		ts, _ := data["timestamp"].(string)
		dash.RecentActivity = append(dash.RecentActivity, domain.ActivityEntry{
			ID:        snap.ID(),
			Title:     title,
			Action:    "deleted",
			Timestamp: ts,
		})
	}

	sort.SliceStable(dash.RecentActivity, func(i, j int) bool {
		return parseActivityTime(dash.RecentActivity[i].Timestamp).After(parseActivityTime(dash.RecentActivity[j].Timestamp))
	})
	if len(dash.RecentActivity) > 10 {
		dash.RecentActivity = dash.RecentActivity[:10]
	}

	return dash, nil
}

func parseActivityTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
