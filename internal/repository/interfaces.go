package repository

import (
	"context"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository/docstore"
)

// Collection names of the three entity collections plus the event outbox.
const (
	CollectionIdentities           = "identities"
	CollectionPatientProfiles      = "patient_profiles"
	CollectionPractitionerProfiles = "practitioner_profiles"
	CollectionOutbox               = "outbox_events"
)

// IdentityRepository owns the canonical account collection.
type IdentityRepository interface {
	// Create writes a new identity. Email and national-id uniqueness is
	// checked proactively; a collision fails before anything is written.
	Create(ctx context.Context, identity *model.Identity) error
	Get(ctx context.Context, id string) (*model.Identity, error)
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	FindByNationalID(ctx context.Context, nationalID string) (*model.Identity, error)
	Update(ctx context.Context, id string, patch *model.IdentityPatch) error
	// SetProfileLink points the role-matching link field at profileID.
	SetProfileLink(ctx context.Context, id string, role model.Role, profileID string) error
	TouchLastAccess(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Identity, error)
	Delete(ctx context.Context, id string) error
}

// PatientProfileRepository owns the patient profile collection.
type PatientProfileRepository interface {
	Create(ctx context.Context, profile *model.PatientProfile) error
	Get(ctx context.Context, id string) (*model.PatientProfile, error)
	FindByOwner(ctx context.Context, identityID string) (*model.PatientProfile, error)
	// Update merges a caller-assembled patch of domain fields. The
	// repository does not whitelist keys; see the coordinator contract.
	Update(ctx context.Context, id string, patch docstore.Document) error
	SetOwner(ctx context.Context, id, identityID string) error
	StripPersonalFields(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.PatientProfile, error)
	Delete(ctx context.Context, id string) error
}

// PractitionerProfileRepository owns the practitioner profile collection.
type PractitionerProfileRepository interface {
	Create(ctx context.Context, profile *model.PractitionerProfile) error
	Get(ctx context.Context, id string) (*model.PractitionerProfile, error)
	FindByOwner(ctx context.Context, identityID string) (*model.PractitionerProfile, error)
	Update(ctx context.Context, id string, patch docstore.Document) error
	SetOwner(ctx context.Context, id, identityID string) error
	StripPersonalFields(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.PractitionerProfile, error)
	Delete(ctx context.Context, id string) error
}

// OutboxRepository stages lifecycle events for the publishing worker.
type OutboxRepository interface {
	Create(ctx context.Context, eventType string, payload interface{}) error
	ListPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string, retryCount int) error
}
