package document

import (
	"context"
	"fmt"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository"
	"github.com/clinsync/clinsync/internal/repository/docstore"
)

type patientProfileRepository struct {
	profileOps
}

func NewPatientProfileRepository(store docstore.Store) repository.PatientProfileRepository {
	return &patientProfileRepository{profileOps{
		store:      store,
		collection: repository.CollectionPatientProfiles,
		resource:   "patient profile",
	}}
}

func (r *patientProfileRepository) Create(ctx context.Context, profile *model.PatientProfile) error {
	id, err := r.store.Create(ctx, r.collection, patientToDoc(profile))
	if err != nil {
		return fmt.Errorf("failed to create patient profile: %w", err)
	}
	profile.ID = id
	return nil
}

func (r *patientProfileRepository) Get(ctx context.Context, id string) (*model.PatientProfile, error) {
	doc, err := r.getDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return patientFromDoc(doc), nil
}

func (r *patientProfileRepository) FindByOwner(ctx context.Context, identityID string) (*model.PatientProfile, error) {
	doc, err := r.findByOwnerDoc(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return patientFromDoc(doc), nil
}

func (r *patientProfileRepository) List(ctx context.Context) ([]*model.PatientProfile, error) {
	docs, err := r.listDocs(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.PatientProfile, 0, len(docs))
	for _, doc := range docs {
		profiles = append(profiles, patientFromDoc(doc))
	}
	return profiles, nil
}
