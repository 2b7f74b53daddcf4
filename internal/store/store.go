// Package store abstracts the transactional document database behind a small
// capability interface so the same business logic runs against Firestore in
// production and the in-process implementation in tests.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Update/Delete targets that do not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAborted is returned when a transaction could not be committed.
	ErrAborted = errors.New("transaction aborted")
)

// Snapshot is a read view of a single document.
type Snapshot interface {
	ID() string
	Exists() bool
	// DataTo decodes the document into v. Missing documents return ErrNotFound.
	DataTo(v interface{}) error
	// Data returns the raw document fields. Nil for missing documents.
	Data() map[string]interface{}
}

// Tx collects reads and writes that commit atomically. All reads must happen
// before the first write (Firestore transaction rule; the memory
// implementation enforces the same ordering so tests catch violations).
type Tx interface {
	Get(coll, id string) (Snapshot, error)
	// Create queues a write to a new document with a generated ID and
	// returns that ID immediately.
	Create(coll string, data interface{}) (string, error)
	Set(coll, id string, data interface{}) error
	// Update queues a partial update. Commits fail if the document is missing.
	Update(coll, id string, fields map[string]interface{}) error
	Delete(coll, id string) error
}

// Filter is a single field predicate. Op is one of "==", "<", "<=", ">", ">=".
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// Query describes a collection read. Zero Limit means no limit.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
}

// Store is the document database handle.
type Store interface {
	Get(ctx context.Context, coll, id string) (Snapshot, error)
	// Add writes a new document with a generated ID.
	Add(ctx context.Context, coll string, data interface{}) (string, error)
	Set(ctx context.Context, coll, id string, data interface{}) error
	Update(ctx context.Context, coll, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, coll, id string) error
	Query(ctx context.Context, q Query) ([]Snapshot, error)
	// RunTransaction executes fn; writes queued on the Tx apply atomically
	// iff fn returns nil.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
