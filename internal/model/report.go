package model

import (
	"fmt"
	"time"
)

// MigrationMode selects whether the backfill writes anything.
type MigrationMode string

const (
	MigrationDryRun  MigrationMode = "dry-run"
	MigrationExecute MigrationMode = "execute"
)

// MigrationError records a per-document failure. The batch keeps going.
type MigrationError struct {
	Collection string `json:"collection"`
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// MigrationCounts summarizes one profile collection's pass.
type MigrationCounts struct {
	Processed       int              `json:"processed"`
	AlreadyLinked   int              `json:"already_linked"`
	IdentityCreated int              `json:"identity_created"`
	Errors          []MigrationError `json:"errors,omitempty"`
}

// MigrationReport is the output of a full backfill run.
type MigrationReport struct {
	Mode          MigrationMode   `json:"mode"`
	Patients      MigrationCounts `json:"patients"`
	Practitioners MigrationCounts `json:"practitioners"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
}

// Combined sums both collection passes.
func (r *MigrationReport) Combined() MigrationCounts {
	combined := MigrationCounts{
		Processed:       r.Patients.Processed + r.Practitioners.Processed,
		AlreadyLinked:   r.Patients.AlreadyLinked + r.Practitioners.AlreadyLinked,
		IdentityCreated: r.Patients.IdentityCreated + r.Practitioners.IdentityCreated,
	}
	combined.Errors = append(combined.Errors, r.Patients.Errors...)
	combined.Errors = append(combined.Errors, r.Practitioners.Errors...)
	return combined
}

// IssueSeverity of a validation finding.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ValidationIssue is one finding against a specific document.
type ValidationIssue struct {
	Severity   IssueSeverity `json:"severity"`
	Collection string        `json:"collection"`
	DocumentID string        `json:"document_id"`
	Message    string        `json:"message"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("[%s] %s/%s: %s", i.Severity, i.Collection, i.DocumentID, i.Message)
}

// ValidationReport aggregates all findings of a validation run.
type ValidationReport struct {
	Errors     []ValidationIssue `json:"errors"`
	Warnings   []ValidationIssue `json:"warnings"`
	Identities int               `json:"identities_scanned"`
	Profiles   int               `json:"profiles_scanned"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Failed reports whether the run found errors. Warnings alone do not fail.
func (r *ValidationReport) Failed() bool {
	return len(r.Errors) > 0
}
