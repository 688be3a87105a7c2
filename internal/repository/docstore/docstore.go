// Package docstore provides generic access to named, schemaless document
// collections. It is the only layer that touches raw documents; everything
// above it works with typed models.
package docstore

import (
	"context"
	"errors"
)

// Well-known document keys maintained by the adapter itself.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// ErrNotFound is returned when a document or match does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a raw store record. Values survive a JSON round-trip, so
// numbers come back as float64 and nested objects as map[string]interface{}.
type Document map[string]interface{}

// ID returns the document's id key, or "" if absent.
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// String returns the named field as a string, or "" when absent or not a
// string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// deleteField is the sentinel recognized by Update to remove a key.
type deleteField struct{}

// DeleteField marks a key for removal inside an Update patch.
var DeleteField = deleteField{}

// Predicate is an equality filter for Query.
type Predicate struct {
	Field string
	Value interface{}
}

// Where builds an equality predicate.
func Where(field string, value interface{}) Predicate {
	return Predicate{Field: field, Value: value}
}

// Store is the adapter contract every repository builds on. Creation and
// update timestamps are assigned server-side; callers never set them.
type Store interface {
	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Find returns the first document whose field equals value, or ErrNotFound.
	Find(ctx context.Context, collection, field string, value interface{}) (Document, error)
	// Query returns all documents matching every predicate. No predicates
	// means the whole collection.
	Query(ctx context.Context, collection string, preds ...Predicate) ([]Document, error)
	// Create writes a new document and returns its id. A caller-provided
	// "id" key is honored (the identity collection relies on this);
	// otherwise one is generated.
	Create(ctx context.Context, collection string, data Document) (string, error)
	// Update merges patch into the existing document. DeleteField values
	// remove keys. ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, id string, patch Document) error
	// Delete removes the document. ErrNotFound if it does not exist.
	Delete(ctx context.Context, collection, id string) error
}
