package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on top of a Firestore client.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

type fsSnapshot struct {
	snap *firestore.DocumentSnapshot
}

func (s fsSnapshot) ID() string   { return s.snap.Ref.ID }
func (s fsSnapshot) Exists() bool { return s.snap.Exists() }

func (s fsSnapshot) DataTo(v interface{}) error {
	if !s.snap.Exists() {
		return ErrNotFound
	}
	return s.snap.DataTo(v)
}

func (s fsSnapshot) Data() map[string]interface{} {
	if !s.snap.Exists() {
		return nil
	}
	return s.snap.Data()
}

func (f *FirestoreStore) Get(ctx context.Context, coll, id string) (Snapshot, error) {
	snap, err := f.client.Collection(coll).Doc(id).Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return nil, fmt.Errorf("get %s/%s: %w", coll, id, err)
	}
	return fsSnapshot{snap: snap}, nil
}

func (f *FirestoreStore) Add(ctx context.Context, coll string, data interface{}) (string, error) {
	ref, _, err := f.client.Collection(coll).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", coll, err)
	}
	return ref.ID, nil
}

func (f *FirestoreStore) Set(ctx context.Context, coll, id string, data interface{}) error {
	if _, err := f.client.Collection(coll).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("set %s/%s: %w", coll, id, err)
	}
	return nil
}

func (f *FirestoreStore) Update(ctx context.Context, coll, id string, fields map[string]interface{}) error {
	_, err := f.client.Collection(coll).Doc(id).Update(ctx, toUpdates(fields))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("update %s/%s: %w", coll, id, err)
	}
	return nil
}

func (f *FirestoreStore) Delete(ctx context.Context, coll, id string) error {
	if _, err := f.client.Collection(coll).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", coll, id, err)
	}
	return nil
}

func (f *FirestoreStore) Query(ctx context.Context, q Query) ([]Snapshot, error) {
	fq := f.client.Collection(q.Collection).Query
	for _, flt := range q.Filters {
		fq = fq.Where(flt.Field, flt.Op, flt.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	it := fq.Documents(ctx)
	defer it.Stop()

	var out []Snapshot
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Collection, err)
		}
		out = append(out, fsSnapshot{snap: snap})
	}
	return out, nil
}

func (f *FirestoreStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return f.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(&fsTx{client: f.client, tx: t})
	})
}

// Ping issues a cheap read to confirm the backend is reachable. A NotFound
// result still proves connectivity.
func (f *FirestoreStore) Ping(ctx context.Context) error {
	_, err := f.client.Collection("health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

func (f *FirestoreStore) Close() error {
	return f.client.Close()
}

type fsTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *fsTx) Get(coll, id string) (Snapshot, error) {
	snap, err := t.tx.Get(t.client.Collection(coll).Doc(id))
	if err != nil && status.Code(err) != codes.NotFound {
		return nil, fmt.Errorf("tx get %s/%s: %w", coll, id, err)
	}
	return fsSnapshot{snap: snap}, nil
}

func (t *fsTx) Create(coll string, data interface{}) (string, error) {
	ref := t.client.Collection(coll).NewDoc()
	if err := t.tx.Create(ref, data); err != nil {
		return "", fmt.Errorf("tx create in %s: %w", coll, err)
	}
	return ref.ID, nil
}

func (t *fsTx) Set(coll, id string, data interface{}) error {
	return t.tx.Set(t.client.Collection(coll).Doc(id), data)
}

func (t *fsTx) Update(coll, id string, fields map[string]interface{}) error {
	return t.tx.Update(t.client.Collection(coll).Doc(id), toUpdates(fields))
}

func (t *fsTx) Delete(coll, id string) error {
	return t.tx.Delete(t.client.Collection(coll).Doc(id))
}

func toUpdates(fields map[string]interface{}) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	return updates
}
