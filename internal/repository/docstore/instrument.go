package docstore

import (
	"context"

	"github.com/clinsync/clinsync/pkg/metrics"
)

// instrumentedStore counts every store operation by collection and outcome.
type instrumentedStore struct {
	next Store
	m    *metrics.Metrics
}

// Instrumented wraps a Store with operation counters. A nil metrics value
// returns the store unchanged.
func Instrumented(next Store, m *metrics.Metrics) Store {
	if m == nil {
		return next
	}
	return &instrumentedStore{next: next, m: m}
}

func (s *instrumentedStore) count(collection, op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.m.StoreOperations.WithLabelValues(collection, op, status).Inc()
}

func (s *instrumentedStore) Get(ctx context.Context, collection, id string) (Document, error) {
	doc, err := s.next.Get(ctx, collection, id)
	s.count(collection, "get", err)
	return doc, err
}

func (s *instrumentedStore) Find(ctx context.Context, collection, field string, value interface{}) (Document, error) {
	doc, err := s.next.Find(ctx, collection, field, value)
	s.count(collection, "find", err)
	return doc, err
}

func (s *instrumentedStore) Query(ctx context.Context, collection string, preds ...Predicate) ([]Document, error) {
	docs, err := s.next.Query(ctx, collection, preds...)
	s.count(collection, "query", err)
	return docs, err
}

func (s *instrumentedStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	id, err := s.next.Create(ctx, collection, data)
	s.count(collection, "create", err)
	return id, err
}

func (s *instrumentedStore) Update(ctx context.Context, collection, id string, patch Document) error {
	err := s.next.Update(ctx, collection, id, patch)
	s.count(collection, "update", err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, collection, id string) error {
	err := s.next.Delete(ctx, collection, id)
	s.count(collection, "delete", err)
	return err
}
