package domain

import "time"

// Status is the lifecycle state of a project. Any status may move to any
// other; history is appended iff the value actually changes.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// StatusHistoryEntry is one record in a project's append-only status trail.
// The last entry always matches the project's current status.
type StatusHistoryEntry struct {
	Status    Status    `json:"status" firestore:"status"`
	ChangedBy string    `json:"changedBy" firestore:"changedBy"`
	ChangedAt time.Time `json:"changedAt" firestore:"changedAt"`
	Reason    string    `json:"reason,omitempty" firestore:"reason,omitempty"`
}

// Project is a portfolio entry. Timestamps and CreatedBy are owned by the
// repository; clients never set them directly. CompletedAt/ArchivedAt are
// stamped on the transition in and never cleared on the way out.
type Project struct {
	ID              string               `json:"id" firestore:"-"`
	Title           string               `json:"title" firestore:"title"`
	Description     string               `json:"description" firestore:"description"`
	Image           string               `json:"image" firestore:"image"`
	Gallery         []string             `json:"gallery,omitempty" firestore:"gallery,omitempty"`
	Tags            []string             `json:"tags" firestore:"tags"`
	Category        string               `json:"category" firestore:"category"`
	URL             string               `json:"url" firestore:"url"`
	Client          string               `json:"client" firestore:"client"`
	Year            string               `json:"year" firestore:"year"`
	IsPaid          bool                 `json:"isPaid" firestore:"isPaid"`
	Price           *float64             `json:"price,omitempty" firestore:"price,omitempty"`
	PreviewFeatures []string             `json:"previewFeatures,omitempty" firestore:"previewFeatures,omitempty"`
	LiveURL         string               `json:"liveUrl,omitempty" firestore:"liveUrl,omitempty"`
	VideoURL        string               `json:"videoUrl,omitempty" firestore:"videoUrl,omitempty"`
	GithubURL       string               `json:"githubUrl,omitempty" firestore:"githubUrl,omitempty"`
	Status          Status               `json:"status,omitempty" firestore:"status,omitempty"`
	StatusHistory   []StatusHistoryEntry `json:"statusHistory,omitempty" firestore:"statusHistory,omitempty"`
	CreatedBy       string               `json:"createdBy,omitempty" firestore:"createdBy,omitempty"`
	UpdatedBy       string               `json:"updatedBy,omitempty" firestore:"updatedBy,omitempty"`
	CreatedAt       time.Time            `json:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt" firestore:"updatedAt"`
	CompletedAt     *time.Time           `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
	ArchivedAt      *time.Time           `json:"archivedAt,omitempty" firestore:"archivedAt,omitempty"`
}

// CurrentStatus treats an unset status as draft, matching stored documents
// created before the lifecycle existed.
func (p *Project) CurrentStatus() Status {
	if p.Status == "" {
		return StatusDraft
	}
	return p.Status
}

// User is the per-admin record keyed by email. ProjectCount is maintained
// transactionally alongside project create/delete and floored at zero.
type User struct {
	Role               string     `json:"role,omitempty" firestore:"role,omitempty"`
	ProjectCount       int64      `json:"projectCount" firestore:"projectCount"`
	LastProjectCreated *time.Time `json:"lastProjectCreated,omitempty" firestore:"lastProjectCreated,omitempty"`
	LastProjectDeleted *time.Time `json:"lastProjectDeleted,omitempty" firestore:"lastProjectDeleted,omitempty"`
}

// ActivityEntry is one row of the dashboard's recent-activity feed.
type ActivityEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// Stats are the headline counts for the admin overview.
type Stats struct {
	TotalProjects     int `json:"totalProjects"`
	ActiveProjects    int `json:"activeProjects"`
	CompletedProjects int `json:"completedProjects"`
}

// Dashboard aggregates the 50 most recently updated projects plus recent
// deletions from the activity log.
type Dashboard struct {
	TotalProjects  int             `json:"totalProjects"`
	ByCategory     map[string]int  `json:"byCategory"`
	ByStatus       map[string]int  `json:"byStatus"`
	RecentActivity []ActivityEntry `json:"recentActivity"`
}
