package document

import (
	"context"
	"fmt"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository"
	"github.com/clinsync/clinsync/internal/repository/docstore"
)

type practitionerProfileRepository struct {
	profileOps
}

func NewPractitionerProfileRepository(store docstore.Store) repository.PractitionerProfileRepository {
	return &practitionerProfileRepository{profileOps{
		store:      store,
		collection: repository.CollectionPractitionerProfiles,
		resource:   "practitioner profile",
	}}
}

func (r *practitionerProfileRepository) Create(ctx context.Context, profile *model.PractitionerProfile) error {
	id, err := r.store.Create(ctx, r.collection, practitionerToDoc(profile))
	if err != nil {
		return fmt.Errorf("failed to create practitioner profile: %w", err)
	}
	profile.ID = id
	return nil
}

func (r *practitionerProfileRepository) Get(ctx context.Context, id string) (*model.PractitionerProfile, error) {
	doc, err := r.getDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return practitionerFromDoc(doc), nil
}

func (r *practitionerProfileRepository) FindByOwner(ctx context.Context, identityID string) (*model.PractitionerProfile, error) {
	doc, err := r.findByOwnerDoc(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return practitionerFromDoc(doc), nil
}

func (r *practitionerProfileRepository) List(ctx context.Context) ([]*model.PractitionerProfile, error) {
	docs, err := r.listDocs(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.PractitionerProfile, 0, len(docs))
	for _, doc := range docs {
		profiles = append(profiles, practitionerFromDoc(doc))
	}
	return profiles, nil
}
