// Package entity implements the consistency coordinator: the write-side
// protocol that keeps the identity collection and the two profile
// collections mutually consistent without store-level transactions.
package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinsync/clinsync/internal/authn"
	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	apperrors "github.com/clinsync/clinsync/pkg/errors"
	"github.com/clinsync/clinsync/pkg/logger"
	"github.com/clinsync/clinsync/pkg/security"
)

const generatedPasswordLength = 14

// EntityService is the write/read surface over complete entities.
type EntityService interface {
	CreateCompleteEntity(ctx context.Context, personal model.PersonalData, profile model.ProfileData, role model.Role) (*model.MergedEntity, error)
	UpdateCompleteEntity(ctx context.Context, identityID string, personal *model.IdentityPatch, profilePatch docstore.Document) error
	JoinedView(ctx context.Context, identifier string) (*model.MergedEntity, error)
	DeleteCompleteEntity(ctx context.Context, identityID string) error
	LinkStatus(ctx context.Context, identityID string) (model.LinkStatus, error)
}

type Service struct {
	identities    repository.IdentityRepository
	patients      repository.PatientProfileRepository
	practitioners repository.PractitionerProfileRepository
	accounts      authn.Provider
	outbox        repository.OutboxRepository
	logger        *logger.Logger
}

func NewService(
	identities repository.IdentityRepository,
	patients repository.PatientProfileRepository,
	practitioners repository.PractitionerProfileRepository,
	accounts authn.Provider,
	outbox repository.OutboxRepository,
	logger *logger.Logger,
) *Service {
	return &Service{
		identities:    identities,
		patients:      patients,
		practitioners: practitioners,
		accounts:      accounts,
		outbox:        outbox,
		logger:        logger,
	}
}

// CreateCompleteEntity creates the auth account, the identity document, the
// role profile, and the identity->profile link, in that order. There is no
// rollback: a failure after the identity document exists leaves a transient
// unlinked state that migration repairs and validation reports. The error
// messages name the step that failed.
func (s *Service) CreateCompleteEntity(ctx context.Context, personal model.PersonalData, profile model.ProfileData, role model.Role) (*model.MergedEntity, error) {
	if role != model.RolePatient && role != model.RolePractitioner {
		return nil, apperrors.BadRequest(fmt.Sprintf("role %q cannot own a profile", role), nil)
	}
	if profile == nil || profile.ProfileRole() != role {
		return nil, apperrors.BadRequest("profile data does not match role", nil)
	}
	if personal.Email == "" || personal.DisplayName == "" {
		return nil, apperrors.BadRequest("email and display name are required", nil)
	}

	// Uniqueness is checked before anything is written, auth account included.
	if _, err := s.identities.FindByEmail(ctx, personal.Email); err == nil {
		return nil, apperrors.Duplicate("email", personal.Email)
	} else if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if personal.NationalID != "" {
		if _, err := s.identities.FindByNationalID(ctx, personal.NationalID); err == nil {
			return nil, apperrors.Duplicate("national_id", personal.NationalID)
		} else if !apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("failed to check national id uniqueness: %w", err)
		}
	}

	password := personal.Password
	if password == "" {
		generated, err := security.GenerateTemporaryPassword(generatedPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate temporary credential: %w", err)
		}
		password = generated
	}

	// No documents exist yet, so an auth failure here aborts cleanly.
	externalID, err := s.accounts.CreateAccount(ctx, personal.Email, password, personal.DisplayName)
	if errors.Is(err, authn.ErrAlreadyExists) {
		// The account exists in the auth system but not in our store.
		// Adopt it instead of failing.
		externalID, err = s.accounts.LookupAccount(ctx, personal.Email)
	}
	if err != nil {
		return nil, apperrors.AuthProvider("create account", err)
	}

	identity := &model.Identity{
		ID:          externalID,
		Email:       personal.Email,
		DisplayName: personal.DisplayName,
		NationalID:  personal.NationalID,
		Role:        role,
		Active:      true,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to create identity document: %w", err)
	}

	merged := &model.MergedEntity{Identity: *identity}
	var profileID string
	switch data := profile.(type) {
	case model.PatientProfileData:
		p := &model.PatientProfile{
			OwnerIdentityID:  &identity.ID,
			BloodType:        data.BloodType,
			Allergies:        data.Allergies,
			MedicalHistory:   data.MedicalHistory,
			EmergencyContact: data.EmergencyContact,
		}
		if err := s.patients.Create(ctx, p); err != nil {
			s.logPartialState(identity.ID, "profile creation")
			return nil, fmt.Errorf("failed to create patient profile (identity %s left unlinked): %w", identity.ID, err)
		}
		profileID = p.ID
		merged.Patient = p
	case model.PractitionerProfileData:
		p := &model.PractitionerProfile{
			OwnerIdentityID: &identity.ID,
			Specialty:       data.Specialty,
			LicenseNumber:   data.LicenseNumber,
			Biography:       data.Biography,
			Schedule:        data.Schedule,
		}
		if err := s.practitioners.Create(ctx, p); err != nil {
			s.logPartialState(identity.ID, "profile creation")
			return nil, fmt.Errorf("failed to create practitioner profile (identity %s left unlinked): %w", identity.ID, err)
		}
		profileID = p.ID
		merged.Practitioner = p
	}

	if err := s.identities.SetProfileLink(ctx, identity.ID, role, profileID); err != nil {
		s.logPartialState(identity.ID, "link establishment")
		return nil, fmt.Errorf("failed to link profile %s to identity %s: %w", profileID, identity.ID, err)
	}
	switch role {
	case model.RolePatient:
		merged.Identity.LinkedPatientProfileID = &profileID
	case model.RolePractitioner:
		merged.Identity.LinkedPractitionerProfileID = &profileID
	}

	s.emit(ctx, model.EventEntityCreated, merged.Identity.ID)
	return merged, nil
}

// UpdateCompleteEntity applies the personal patch to the identity and the
// profile patch to the linked profile. The profile patch is applied as
// given; restricting it to domain fields is the caller's responsibility
// (the HTTP handler enforces an allow-list, batch callers are trusted).
func (s *Service) UpdateCompleteEntity(ctx context.Context, identityID string, personal *model.IdentityPatch, profilePatch docstore.Document) error {
	identity, err := s.identities.Get(ctx, identityID)
	if err != nil {
		return err
	}

	if !personal.Empty() {
		if err := s.identities.Update(ctx, identityID, personal); err != nil {
			return fmt.Errorf("failed to update identity: %w", err)
		}
	}

	if len(profilePatch) > 0 {
		link := identity.ProfileLink()
		if link == nil {
			return apperrors.BadRequest(fmt.Sprintf("identity %s has no linked profile to update", identityID), nil)
		}
		switch identity.Role {
		case model.RolePatient:
			err = s.patients.Update(ctx, *link, profilePatch)
		case model.RolePractitioner:
			err = s.practitioners.Update(ctx, *link, profilePatch)
		}
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
	}

	s.emit(ctx, model.EventEntityUpdated, identityID)
	return nil
}

// JoinedView reconstructs the merged entity from an identity id or, as a
// legacy fallback, a profile id. Identity fields win on overlap.
func (s *Service) JoinedView(ctx context.Context, identifier string) (*model.MergedEntity, error) {
	// Fastest path first: the identifier used as a reverse key against the
	// profile collections, which covers identity ids of linked entities.
	// Only a missing document advances the chain; store failures propagate.
	if patient, err := s.patients.FindByOwner(ctx, identifier); err == nil {
		identity, err := s.identities.Get(ctx, identifier)
		if err != nil {
			return nil, err
		}
		return &model.MergedEntity{Identity: *identity, Patient: patient}, nil
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}
	if practitioner, err := s.practitioners.FindByOwner(ctx, identifier); err == nil {
		identity, err := s.identities.Get(ctx, identifier)
		if err != nil {
			return nil, err
		}
		return &model.MergedEntity{Identity: *identity, Practitioner: practitioner}, nil
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	// Direct identity lookup covers admins and unlinked identities.
	if identity, err := s.identities.Get(ctx, identifier); err == nil {
		return &model.MergedEntity{Identity: *identity}, nil
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	// Legacy callers may only know a profile id.
	if patient, err := s.patients.Get(ctx, identifier); err == nil {
		return s.mergeFromPatient(ctx, patient)
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}
	if practitioner, err := s.practitioners.Get(ctx, identifier); err == nil {
		return s.mergeFromPractitioner(ctx, practitioner)
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	return nil, apperrors.NotFound("entity", nil)
}

func (s *Service) mergeFromPatient(ctx context.Context, patient *model.PatientProfile) (*model.MergedEntity, error) {
	if !patient.Linked() {
		return nil, apperrors.NotFound("identity for patient profile "+patient.ID, nil)
	}
	identity, err := s.identities.Get(ctx, *patient.OwnerIdentityID)
	if err != nil {
		return nil, err
	}
	return &model.MergedEntity{Identity: *identity, Patient: patient}, nil
}

func (s *Service) mergeFromPractitioner(ctx context.Context, practitioner *model.PractitionerProfile) (*model.MergedEntity, error) {
	if !practitioner.Linked() {
		return nil, apperrors.NotFound("identity for practitioner profile "+practitioner.ID, nil)
	}
	identity, err := s.identities.Get(ctx, *practitioner.OwnerIdentityID)
	if err != nil {
		return nil, err
	}
	return &model.MergedEntity{Identity: *identity, Practitioner: practitioner}, nil
}

// DeleteCompleteEntity removes the profile first, then the identity. If the
// profile deletion fails the identity is left in place, so no profile ever
// loses its owner record.
func (s *Service) DeleteCompleteEntity(ctx context.Context, identityID string) error {
	identity, err := s.identities.Get(ctx, identityID)
	if err != nil {
		return err
	}

	if link := identity.ProfileLink(); link != nil {
		switch identity.Role {
		case model.RolePatient:
			err = s.patients.Delete(ctx, *link)
		case model.RolePractitioner:
			err = s.practitioners.Delete(ctx, *link)
		}
		if err != nil && !apperrors.IsNotFound(err) {
			s.logger.Error(err, "profile deletion failed, identity retained",
				"identity_id", identityID, "profile_id", *link)
			return fmt.Errorf("failed to delete profile %s: %w", *link, err)
		}
	}

	if err := s.identities.Delete(ctx, identityID); err != nil {
		return fmt.Errorf("failed to delete identity %s: %w", identityID, err)
	}

	// Best effort: the auth account is external state, not part of the
	// store's consistency contract.
	if err := s.accounts.DeleteAccount(ctx, identityID); err != nil && !errors.Is(err, authn.ErrAccountNotFound) {
		s.logger.Error(err, "failed to delete auth account", "identity_id", identityID)
	}

	s.emit(ctx, model.EventEntityDeleted, identityID)
	return nil
}

// LinkStatus derives the link state at read time. Nothing is persisted.
func (s *Service) LinkStatus(ctx context.Context, identityID string) (model.LinkStatus, error) {
	identity, err := s.identities.Get(ctx, identityID)
	if err != nil {
		return "", err
	}

	link := identity.ProfileLink()
	if link == nil {
		return model.LinkStatusUnlinked, nil
	}

	var owner *string
	switch identity.Role {
	case model.RolePatient:
		profile, err := s.patients.Get(ctx, *link)
		if apperrors.IsNotFound(err) {
			return model.LinkStatusDangling, nil
		}
		if err != nil {
			return "", err
		}
		owner = profile.OwnerIdentityID
	case model.RolePractitioner:
		profile, err := s.practitioners.Get(ctx, *link)
		if apperrors.IsNotFound(err) {
			return model.LinkStatusDangling, nil
		}
		if err != nil {
			return "", err
		}
		owner = profile.OwnerIdentityID
	}

	if owner == nil || *owner != identity.ID {
		return model.LinkStatusDangling, nil
	}
	return model.LinkStatusLinked, nil
}

func (s *Service) logPartialState(identityID, step string) {
	s.logger.Warn("entity creation left partial state, repairable by migration",
		"identity_id", identityID, "failed_step", step)
}

func (s *Service) emit(ctx context.Context, eventType, identityID string) {
	if s.outbox == nil {
		return
	}
	payload := map[string]string{"identity_id": identityID}
	if err := s.outbox.Create(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "failed to stage outbox event",
			"event_type", eventType, "identity_id", identityID)
	}
}
