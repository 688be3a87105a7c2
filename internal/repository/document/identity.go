package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	apperrors "github.com/clinsync/clinsync/pkg/errors"
)

type identityRepository struct {
	store docstore.Store
}

func NewIdentityRepository(store docstore.Store) repository.IdentityRepository {
	return &identityRepository{store: store}
}

func (r *identityRepository) Create(ctx context.Context, identity *model.Identity) error {
	if identity.ID == "" {
		return fmt.Errorf("identity id is required")
	}
	if !identity.Role.Valid() {
		return fmt.Errorf("invalid role %q", identity.Role)
	}

	// Uniqueness is enforced here, before any write, because the store has
	// no unique constraints of its own.
	if _, err := r.FindByEmail(ctx, identity.Email); err == nil {
		return apperrors.Duplicate("email", identity.Email)
	} else if !apperrors.IsNotFound(err) {
		return err
	}
	if identity.NationalID != "" {
		if _, err := r.FindByNationalID(ctx, identity.NationalID); err == nil {
			return apperrors.Duplicate("national_id", identity.NationalID)
		} else if !apperrors.IsNotFound(err) {
			return err
		}
	}

	if _, err := r.store.Create(ctx, repository.CollectionIdentities, identityToDoc(identity)); err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

func (r *identityRepository) Get(ctx context.Context, id string) (*model.Identity, error) {
	doc, err := r.store.Get(ctx, repository.CollectionIdentities, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NotFound("identity", err)
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return identityFromDoc(doc), nil
}

func (r *identityRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	doc, err := r.store.Find(ctx, repository.CollectionIdentities, fieldEmail, email)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NotFound("identity", err)
		}
		return nil, fmt.Errorf("failed to find identity by email: %w", err)
	}
	return identityFromDoc(doc), nil
}

func (r *identityRepository) FindByNationalID(ctx context.Context, nationalID string) (*model.Identity, error) {
	doc, err := r.store.Find(ctx, repository.CollectionIdentities, fieldNationalID, nationalID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NotFound("identity", err)
		}
		return nil, fmt.Errorf("failed to find identity by national id: %w", err)
	}
	return identityFromDoc(doc), nil
}

func (r *identityRepository) Update(ctx context.Context, id string, patch *model.IdentityPatch) error {
	if patch.Empty() {
		return nil
	}

	doc := docstore.Document{}
	if patch.Email != nil {
		existing, err := r.FindByEmail(ctx, *patch.Email)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if existing != nil && existing.ID != id {
			return apperrors.Duplicate("email", *patch.Email)
		}
		doc[fieldEmail] = *patch.Email
	}
	if patch.NationalID != nil {
		existing, err := r.FindByNationalID(ctx, *patch.NationalID)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if existing != nil && existing.ID != id {
			return apperrors.Duplicate("national_id", *patch.NationalID)
		}
		doc[fieldNationalID] = *patch.NationalID
	}
	if patch.DisplayName != nil {
		doc[fieldDisplayName] = *patch.DisplayName
	}
	if patch.Phone != nil {
		doc[fieldPhone] = *patch.Phone
	}
	if patch.Active != nil {
		doc[fieldActive] = *patch.Active
	}

	if err := r.store.Update(ctx, repository.CollectionIdentities, id, doc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound("identity", err)
		}
		return fmt.Errorf("failed to update identity: %w", err)
	}
	return nil
}

func (r *identityRepository) SetProfileLink(ctx context.Context, id string, role model.Role, profileID string) error {
	var field string
	switch role {
	case model.RolePatient:
		field = fieldLinkedPatientProfile
	case model.RolePractitioner:
		field = fieldLinkedPractitionerProf
	default:
		return fmt.Errorf("role %q has no profile link", role)
	}

	if err := r.store.Update(ctx, repository.CollectionIdentities, id, docstore.Document{field: profileID}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound("identity", err)
		}
		return fmt.Errorf("failed to set profile link: %w", err)
	}
	return nil
}

func (r *identityRepository) TouchLastAccess(ctx context.Context, id string) error {
	patch := docstore.Document{fieldLastAccessAt: time.Now().UTC().Format(time.RFC3339Nano)}
	if err := r.store.Update(ctx, repository.CollectionIdentities, id, patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound("identity", err)
		}
		return fmt.Errorf("failed to touch last access: %w", err)
	}
	return nil
}

func (r *identityRepository) List(ctx context.Context) ([]*model.Identity, error) {
	docs, err := r.store.Query(ctx, repository.CollectionIdentities)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	identities := make([]*model.Identity, 0, len(docs))
	for _, doc := range docs {
		identities = append(identities, identityFromDoc(doc))
	}
	return identities, nil
}

func (r *identityRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, repository.CollectionIdentities, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperrors.NotFound("identity", err)
		}
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}
