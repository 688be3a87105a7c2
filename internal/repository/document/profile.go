package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	apperrors "github.com/clinsync/clinsync/pkg/errors"
)

// profileOps holds the operations shared by both profile repositories. The
// two collections differ only in their typed codecs.
type profileOps struct {
	store      docstore.Store
	collection string
	resource   string
}

func (r *profileOps) getDoc(ctx context.Context, id string) (docstore.Document, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NotFound(r.resource, err)
		}
		return nil, fmt.Errorf("failed to get %s: %w", r.resource, err)
	}
	return doc, nil
}

func (r *profileOps) findByOwnerDoc(ctx context.Context, identityID string) (docstore.Document, error) {
	doc, err := r.store.Find(ctx, r.collection, fieldOwnerIdentityID, identityID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NotFound(r.resource, err)
		}
		return nil, fmt.Errorf("failed to find %s by owner: %w", r.resource, err)
	}
	return doc, nil
}

func (r *profileOps) Update(ctx context.Context, id string, patch docstore.Document) error {
	if err := r.store.Update(ctx, r.collection, id, patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound(r.resource, err)
		}
		return fmt.Errorf("failed to update %s: %w", r.resource, err)
	}
	return nil
}

func (r *profileOps) SetOwner(ctx context.Context, id, identityID string) error {
	return r.Update(ctx, id, docstore.Document{fieldOwnerIdentityID: identityID})
}

// StripPersonalFields removes every identity-owned key a legacy document may
// still carry. Safe to call on already-clean documents.
func (r *profileOps) StripPersonalFields(ctx context.Context, id string) error {
	patch := docstore.Document{}
	for _, key := range model.PersonalFieldKeys {
		patch[key] = docstore.DeleteField
	}
	return r.Update(ctx, id, patch)
}

func (r *profileOps) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound(r.resource, err)
		}
		return fmt.Errorf("failed to delete %s: %w", r.resource, err)
	}
	return nil
}

func (r *profileOps) listDocs(ctx context.Context) ([]docstore.Document, error) {
	docs, err := r.store.Query(ctx, r.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", r.resource, err)
	}
	return docs, nil
}
