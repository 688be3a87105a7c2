// Package migration implements the backfill that links legacy profile
// documents to identities and strips the personal fields they still carry.
// Safe to re-run: already-linked documents are skipped.
package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/clinsync/clinsync/internal/authn"
	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository"
	apperrors "github.com/clinsync/clinsync/pkg/errors"
	"github.com/clinsync/clinsync/pkg/logger"
	"github.com/clinsync/clinsync/pkg/metrics"
	"github.com/clinsync/clinsync/pkg/security"
)

const (
	generatedPasswordLength = 14
	lookupCacheTTL          = 10 * time.Minute
)

type Service struct {
	identities    repository.IdentityRepository
	patients      repository.PatientProfileRepository
	practitioners repository.PractitionerProfileRepository
	accounts      authn.Provider
	outbox        repository.OutboxRepository
	lookups       *cache.Cache
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewService(
	identities repository.IdentityRepository,
	patients repository.PatientProfileRepository,
	practitioners repository.PractitionerProfileRepository,
	accounts authn.Provider,
	outbox repository.OutboxRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		identities:    identities,
		patients:      patients,
		practitioners: practitioners,
		accounts:      accounts,
		outbox:        outbox,
		lookups:       cache.New(lookupCacheTTL, lookupCacheTTL),
		logger:        logger,
		metrics:       metrics,
	}
}

// Run scans both profile collections and backfills missing links. In dry-run
// mode nothing is written anywhere, the auth system included; the report
// shows what execute mode would do.
func (s *Service) Run(ctx context.Context, mode model.MigrationMode) (*model.MigrationReport, error) {
	if mode != model.MigrationDryRun && mode != model.MigrationExecute {
		return nil, fmt.Errorf("unknown migration mode %q", mode)
	}

	report := &model.MigrationReport{Mode: mode, StartedAt: time.Now().UTC()}
	s.logger.Info("starting profile migration", "mode", string(mode))

	if err := s.runPatients(ctx, mode, &report.Patients); err != nil {
		return nil, err
	}
	if err := s.runPractitioners(ctx, mode, &report.Practitioners); err != nil {
		return nil, err
	}

	report.FinishedAt = time.Now().UTC()
	combined := report.Combined()
	s.logger.Info("profile migration finished",
		"mode", string(mode),
		"processed", combined.Processed,
		"already_linked", combined.AlreadyLinked,
		"identities_created", combined.IdentityCreated,
		"errors", len(combined.Errors))

	if mode == model.MigrationExecute && s.outbox != nil {
		if err := s.outbox.Create(ctx, model.EventMigrationCompleted, report); err != nil {
			s.logger.Error(err, "failed to stage migration event")
		}
	}
	return report, nil
}

func (s *Service) runPatients(ctx context.Context, mode model.MigrationMode, counts *model.MigrationCounts) error {
	profiles, err := s.patients.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list patient profiles: %w", err)
	}

	for _, profile := range profiles {
		counts.Processed++
		if profile.Linked() {
			counts.AlreadyLinked++
			s.countDoc(repository.CollectionPatientProfiles, "already_linked")
			continue
		}

		// A failure on one document never aborts the batch.
		if err := s.migrateOne(ctx, mode, model.RolePatient, profile.ID, profile.Legacy, counts); err != nil {
			counts.Errors = append(counts.Errors, model.MigrationError{
				Collection: repository.CollectionPatientProfiles,
				DocumentID: profile.ID,
				Reason:     err.Error(),
			})
			s.countErr(repository.CollectionPatientProfiles)
			s.logger.Error(err, "patient profile migration failed", "profile_id", profile.ID)
		}
	}
	return nil
}

func (s *Service) runPractitioners(ctx context.Context, mode model.MigrationMode, counts *model.MigrationCounts) error {
	profiles, err := s.practitioners.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list practitioner profiles: %w", err)
	}

	for _, profile := range profiles {
		counts.Processed++
		if profile.Linked() {
			counts.AlreadyLinked++
			s.countDoc(repository.CollectionPractitionerProfiles, "already_linked")
			continue
		}

		if err := s.migrateOne(ctx, mode, model.RolePractitioner, profile.ID, profile.Legacy, counts); err != nil {
			counts.Errors = append(counts.Errors, model.MigrationError{
				Collection: repository.CollectionPractitionerProfiles,
				DocumentID: profile.ID,
				Reason:     err.Error(),
			})
			s.countErr(repository.CollectionPractitionerProfiles)
			s.logger.Error(err, "practitioner profile migration failed", "profile_id", profile.ID)
		}
	}
	return nil
}

// migrateOne resolves or synthesizes the identity for one unlinked profile,
// then (execute mode only) establishes the bidirectional link and strips the
// profile's personal fields.
func (s *Service) migrateOne(ctx context.Context, mode model.MigrationMode, role model.Role, profileID string, legacy model.LegacyPersonal, counts *model.MigrationCounts) error {
	identity, err := s.resolveIdentity(ctx, legacy)
	if err != nil {
		return err
	}

	if identity == nil {
		// No match anywhere: synthesize one from the legacy fields.
		if legacy.Email == "" {
			return errors.New("profile carries no email to build an identity from")
		}
		displayName := legacy.FullName()
		if displayName == "" {
			return errors.New("profile carries no name to build an identity from")
		}

		if mode == model.MigrationDryRun {
			counts.IdentityCreated++
			s.countDoc(collectionFor(role), "identity_created")
			return nil
		}

		identity, err = s.synthesizeIdentity(ctx, role, legacy, displayName)
		if err != nil {
			return err
		}
		counts.IdentityCreated++
		s.countDoc(collectionFor(role), "identity_created")
	} else if mode == model.MigrationDryRun {
		return nil
	}

	switch role {
	case model.RolePatient:
		if err := s.patients.SetOwner(ctx, profileID, identity.ID); err != nil {
			return fmt.Errorf("failed to set owner on profile: %w", err)
		}
	case model.RolePractitioner:
		if err := s.practitioners.SetOwner(ctx, profileID, identity.ID); err != nil {
			return fmt.Errorf("failed to set owner on profile: %w", err)
		}
	}

	if err := s.identities.SetProfileLink(ctx, identity.ID, role, profileID); err != nil {
		return fmt.Errorf("failed to set reciprocal link on identity: %w", err)
	}

	switch role {
	case model.RolePatient:
		if err := s.patients.StripPersonalFields(ctx, profileID); err != nil {
			return fmt.Errorf("failed to strip personal fields: %w", err)
		}
	case model.RolePractitioner:
		if err := s.practitioners.StripPersonalFields(ctx, profileID); err != nil {
			return fmt.Errorf("failed to strip personal fields: %w", err)
		}
	}

	s.countDoc(collectionFor(role), "linked")
	return nil
}

// resolveIdentity looks for an existing identity by the legacy email, then
// the legacy national id. Returns nil when nothing matches.
func (s *Service) resolveIdentity(ctx context.Context, legacy model.LegacyPersonal) (*model.Identity, error) {
	if legacy.Email != "" {
		if cached, ok := s.lookups.Get(legacy.Email); ok {
			return cached.(*model.Identity), nil
		}
		identity, err := s.identities.FindByEmail(ctx, legacy.Email)
		if err == nil {
			s.lookups.Set(legacy.Email, identity, cache.DefaultExpiration)
			return identity, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("failed to find identity by email: %w", err)
		}
	}

	if legacy.NationalID != "" {
		identity, err := s.identities.FindByNationalID(ctx, legacy.NationalID)
		if err == nil {
			return identity, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("failed to find identity by national id: %w", err)
		}
	}

	return nil, nil
}

func (s *Service) synthesizeIdentity(ctx context.Context, role model.Role, legacy model.LegacyPersonal, displayName string) (*model.Identity, error) {
	password, err := security.GenerateTemporaryPassword(generatedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate temporary credential: %w", err)
	}

	externalID, err := s.accounts.CreateAccount(ctx, legacy.Email, password, displayName)
	if errors.Is(err, authn.ErrAlreadyExists) {
		externalID, err = s.accounts.LookupAccount(ctx, legacy.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create auth account: %w", err)
	}

	identity := &model.Identity{
		ID:          externalID,
		Email:       legacy.Email,
		DisplayName: displayName,
		NationalID:  legacy.NationalID,
		Role:        role,
		Active:      true,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to create identity document: %w", err)
	}

	s.lookups.Set(identity.Email, identity, cache.DefaultExpiration)
	return identity, nil
}

func (s *Service) countDoc(collection, outcome string) {
	if s.metrics != nil {
		s.metrics.MigrationDocsProcessed.WithLabelValues(collection, outcome).Inc()
	}
}

func (s *Service) countErr(collection string) {
	if s.metrics != nil {
		s.metrics.MigrationErrors.WithLabelValues(collection).Inc()
	}
}

func collectionFor(role model.Role) string {
	if role == model.RolePatient {
		return repository.CollectionPatientProfiles
	}
	return repository.CollectionPractitionerProfiles
}
