package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store with the same transactional semantics as
// the Firestore adapter: reads before writes, queued writes applied atomically
// on commit. It backs tests and credential-less local runs; it is not durable.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]map[string]interface{})}
}

type memSnapshot struct {
	id  string
	doc map[string]interface{} // nil when missing
}

func (s memSnapshot) ID() string   { return s.id }
func (s memSnapshot) Exists() bool { return s.doc != nil }

func (s memSnapshot) DataTo(v interface{}) error {
	if s.doc == nil {
		return ErrNotFound
	}
	raw, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return json.Unmarshal(raw, v)
}

func (s memSnapshot) Data() map[string]interface{} {
	if s.doc == nil {
		return nil
	}
	return copyDoc(s.doc)
}

func (m *MemoryStore) Get(ctx context.Context, coll, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(coll, id), nil
}

func (m *MemoryStore) Add(ctx context.Context, coll string, data interface{}) (string, error) {
	doc, err := toDoc(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(coll)[id] = doc
	return id, nil
}

func (m *MemoryStore) Set(ctx context.Context, coll, id string, data interface{}) error {
	doc, err := toDoc(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(coll)[id] = doc
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, coll, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collection(coll)[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = copyValue(v)
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, coll, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collection(coll), id)
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []memSnapshot
	for id, doc := range m.data[q.Collection] {
		ok := true
		for _, f := range q.Filters {
			if !matches(doc[f.Field], f.Op, f.Value) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, memSnapshot{id: id, doc: copyDoc(doc)})
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c := compare(matched[i].doc[q.OrderBy], matched[j].doc[q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]Snapshot, len(matched))
	for i, s := range matched {
		out[i] = s
	}
	return out, nil
}

func (m *MemoryStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}

	// Stage on a copy so a failing write leaves nothing applied.
	staged := m.copyAll()
	for _, op := range tx.ops {
		if err := op(staged); err != nil {
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
	}
	m.data = staged
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
func (m *MemoryStore) Close() error                   { return nil }

func (m *MemoryStore) collection(coll string) map[string]map[string]interface{} {
	c, ok := m.data[coll]
	if !ok {
		c = make(map[string]map[string]interface{})
		m.data[coll] = c
	}
	return c
}

func (m *MemoryStore) snapshot(coll, id string) memSnapshot {
	doc, ok := m.data[coll][id]
	if !ok {
		return memSnapshot{id: id}
	}
	return memSnapshot{id: id, doc: copyDoc(doc)}
}

func (m *MemoryStore) copyAll() map[string]map[string]map[string]interface{} {
	out := make(map[string]map[string]map[string]interface{}, len(m.data))
	for coll, docs := range m.data {
		c := make(map[string]map[string]interface{}, len(docs))
		for id, doc := range docs {
			c[id] = copyDoc(doc)
		}
		out[coll] = c
	}
	return out
}

type txOp func(staged map[string]map[string]map[string]interface{}) error

type memTx struct {
	store *memTxStore
	ops   []txOp
}

// memTxStore is an alias kept narrow so the Tx cannot reach the mutex.
type memTxStore = MemoryStore

func (t *memTx) Get(coll, id string) (Snapshot, error) {
	if len(t.ops) > 0 {
		return nil, fmt.Errorf("transaction read after write on %s/%s", coll, id)
	}
	return t.store.snapshot(coll, id), nil
}

func (t *memTx) Create(coll string, data interface{}) (string, error) {
	doc, err := toDoc(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	t.ops = append(t.ops, func(staged map[string]map[string]map[string]interface{}) error {
		c := stagedColl(staged, coll)
		if _, exists := c[id]; exists {
			return fmt.Errorf("document %s/%s already exists", coll, id)
		}
		c[id] = doc
		return nil
	})
	return id, nil
}

func (t *memTx) Set(coll, id string, data interface{}) error {
	doc, err := toDoc(data)
	if err != nil {
		return err
	}
	t.ops = append(t.ops, func(staged map[string]map[string]map[string]interface{}) error {
		stagedColl(staged, coll)[id] = doc
		return nil
	})
	return nil
}

func (t *memTx) Update(coll, id string, fields map[string]interface{}) error {
	copied := copyDoc(fields)
	t.ops = append(t.ops, func(staged map[string]map[string]map[string]interface{}) error {
		doc, ok := stagedColl(staged, coll)[id]
		if !ok {
			return fmt.Errorf("update %s/%s: %w", coll, id, ErrNotFound)
		}
		for k, v := range copied {
			doc[k] = v
		}
		return nil
	})
	return nil
}

func (t *memTx) Delete(coll, id string) error {
	t.ops = append(t.ops, func(staged map[string]map[string]map[string]interface{}) error {
		delete(stagedColl(staged, coll), id)
		return nil
	})
	return nil
}

func stagedColl(staged map[string]map[string]map[string]interface{}, coll string) map[string]map[string]interface{} {
	c, ok := staged[coll]
	if !ok {
		c = make(map[string]map[string]interface{})
		staged[coll] = c
	}
	return c
}

// toDoc accepts a field map (preferred, preserves time.Time values) or any
// JSON-encodable struct.
func toDoc(data interface{}) (map[string]interface{}, error) {
	if m, ok := data.(map[string]interface{}); ok {
		return copyDoc(m), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return m, nil
}

func copyDoc(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return copyDoc(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	case time.Time, string, bool, int, int64, float64:
		return x
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	}
	return v
}

func matches(have interface{}, op string, want interface{}) bool {
	c := compare(have, want)
	switch op {
	case "==":
		return c == 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func compare(a, b interface{}) int {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			default:
				return 0
			}
		}
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	// Incomparable values sort as equal, mirroring a missing field.
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
