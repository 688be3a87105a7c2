// Package validation implements the read-only consistency check over the
// identity and profile collections. It never writes; it only reports.
package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository"
	apperrors "github.com/clinsync/clinsync/pkg/errors"
	"github.com/clinsync/clinsync/pkg/logger"
	"github.com/clinsync/clinsync/pkg/metrics"
)

type Service struct {
	identities    repository.IdentityRepository
	patients      repository.PatientProfileRepository
	practitioners repository.PractitionerProfileRepository
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewService(
	identities repository.IdentityRepository,
	patients repository.PatientProfileRepository,
	practitioners repository.PractitionerProfileRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		identities:    identities,
		patients:      patients,
		practitioners: practitioners,
		logger:        logger,
		metrics:       metrics,
	}
}

// Run scans all three collections and reports every link, role, and
// personal-field inconsistency it finds.
func (s *Service) Run(ctx context.Context) (*model.ValidationReport, error) {
	report := &model.ValidationReport{StartedAt: time.Now().UTC()}

	identities, err := s.identities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	byID := make(map[string]*model.Identity, len(identities))
	for _, identity := range identities {
		byID[identity.ID] = identity
	}

	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient profiles: %w", err)
	}
	for _, p := range patients {
		report.Profiles++
		s.checkProfile(report, repository.CollectionPatientProfiles, p.ID,
			p.OwnerIdentityID, p.Legacy, model.RolePatient, byID)
	}

	practitioners, err := s.practitioners.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list practitioner profiles: %w", err)
	}
	for _, p := range practitioners {
		report.Profiles++
		s.checkProfile(report, repository.CollectionPractitionerProfiles, p.ID,
			p.OwnerIdentityID, p.Legacy, model.RolePractitioner, byID)
	}

	for _, identity := range identities {
		report.Identities++
		s.checkIdentity(ctx, report, identity)
	}

	report.FinishedAt = time.Now().UTC()
	if s.metrics != nil {
		s.metrics.ValidationIssues.WithLabelValues(string(model.SeverityError)).Set(float64(len(report.Errors)))
		s.metrics.ValidationIssues.WithLabelValues(string(model.SeverityWarning)).Set(float64(len(report.Warnings)))
	}
	s.logger.Info("validation finished",
		"identities", report.Identities,
		"profiles", report.Profiles,
		"errors", len(report.Errors),
		"warnings", len(report.Warnings))
	return report, nil
}

func (s *Service) checkProfile(report *model.ValidationReport, collection, profileID string, owner *string, legacy model.LegacyPersonal, role model.Role, identities map[string]*model.Identity) {
	if owner == nil || *owner == "" {
		addError(report, collection, profileID, "missing owner_identity_id")
	} else {
		identity, ok := identities[*owner]
		if !ok {
			addError(report, collection, profileID,
				fmt.Sprintf("owner_identity_id %s points to a nonexistent identity", *owner))
		} else {
			if identity.Role != role {
				addWarning(report, collection, profileID,
					fmt.Sprintf("owner identity %s has role %q, expected %q", identity.ID, identity.Role, role))
			}
			if link := linkFor(identity, role); link == nil || *link != profileID {
				addWarning(report, collection, profileID,
					fmt.Sprintf("identity %s does not link back to this profile", identity.ID))
			}
		}
	}

	if !legacy.Empty() {
		addError(report, collection, profileID, "profile still carries personal-identity fields")
	}
}

func (s *Service) checkIdentity(ctx context.Context, report *model.ValidationReport, identity *model.Identity) {
	collection := repository.CollectionIdentities

	if identity.Email == "" {
		addError(report, collection, identity.ID, "missing email")
	}
	if identity.DisplayName == "" {
		addError(report, collection, identity.ID, "missing display name")
	}
	if identity.Role == "" {
		addError(report, collection, identity.ID, "missing role")
	} else if !identity.Role.Valid() {
		addError(report, collection, identity.ID, fmt.Sprintf("invalid role %q", identity.Role))
	}

	if identity.Role != model.RolePatient && identity.Role != model.RolePractitioner {
		return
	}

	link := identity.ProfileLink()
	if link == nil || *link == "" {
		addWarning(report, collection, identity.ID,
			fmt.Sprintf("role is %q but no profile link is set", identity.Role))
		return
	}

	var err error
	switch identity.Role {
	case model.RolePatient:
		_, err = s.patients.Get(ctx, *link)
	case model.RolePractitioner:
		_, err = s.practitioners.Get(ctx, *link)
	}
	if apperrors.IsNotFound(err) {
		addError(report, collection, identity.ID,
			fmt.Sprintf("profile link %s points to a nonexistent profile", *link))
	} else if err != nil {
		s.logger.Error(err, "profile lookup failed during validation",
			"identity_id", identity.ID, "profile_id", *link)
		addError(report, collection, identity.ID,
			fmt.Sprintf("profile link %s could not be resolved", *link))
	}
}

func linkFor(identity *model.Identity, role model.Role) *string {
	if role == model.RolePatient {
		return identity.LinkedPatientProfileID
	}
	return identity.LinkedPractitionerProfileID
}

func addError(report *model.ValidationReport, collection, id, message string) {
	report.Errors = append(report.Errors, model.ValidationIssue{
		Severity:   model.SeverityError,
		Collection: collection,
		DocumentID: id,
		Message:    message,
	})
}

func addWarning(report *model.ValidationReport, collection, id, message string) {
	report.Warnings = append(report.Warnings, model.ValidationIssue{
		Severity:   model.SeverityWarning,
		Collection: collection,
		DocumentID: id,
		Message:    message,
	})
}
