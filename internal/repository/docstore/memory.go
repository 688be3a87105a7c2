package docstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and local development.
// Documents are deep-copied on both read and write so callers can never
// mutate stored state through a returned map.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(doc), nil
}

func (s *MemoryStore) Find(ctx context.Context, collection, field string, value interface{}) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.collections[collection] {
		if doc[field] == value {
			return deepCopy(doc), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Query(ctx context.Context, collection string, preds ...Predicate) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Document
	for _, doc := range s.collections[collection] {
		if matches(doc, preds) {
			out = append(out, deepCopy(doc))
		}
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := data.ID()
	if id == "" {
		id = uuid.New().String()
	}

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}

	doc := deepCopy(data)
	now := s.now()
	doc[FieldID] = id
	doc[FieldCreatedAt] = now
	doc[FieldUpdatedAt] = now
	s.collections[collection][id] = doc

	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}

	for key, value := range patch {
		if key == FieldID || key == FieldCreatedAt || key == FieldUpdatedAt {
			continue
		}
		if _, del := value.(deleteField); del {
			delete(doc, key)
			continue
		}
		doc[key] = deepCopyValue(value)
	}
	doc[FieldUpdatedAt] = s.now()

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

// Len reports the number of documents in a collection. Test helper.
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func matches(doc Document, preds []Predicate) bool {
	for _, p := range preds {
		if doc[p.Field] != p.Value {
			return false
		}
	}
	return true
}

func deepCopy(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[k] = deepCopyValue(inner)
		}
		return out
	case Document:
		return map[string]interface{}(deepCopy(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = deepCopyValue(inner)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out
	case json.RawMessage:
		out := make(json.RawMessage, len(val))
		copy(out, val)
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, inner := range val {
			out[k] = inner
		}
		return out
	default:
		return v
	}
}
