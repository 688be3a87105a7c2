package email

import (
	"context"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/clinsync/clinsync/internal/model"
)

// Service sends operator-facing notification mail.
type Service interface {
	SendMigrationReport(ctx context.Context, to string, report *model.MigrationReport) error
}

// Config for the SMTP sender.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService builds the gomail-backed sender.
func NewSMTPService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendMigrationReport(ctx context.Context, to string, report *model.MigrationReport) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Profile migration report (%s)", report.Mode))
	m.SetBody("text/plain", renderReport(report))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send migration report: %w", err)
	}
	return nil
}

func renderReport(report *model.MigrationReport) string {
	var b strings.Builder
	combined := report.Combined()

	fmt.Fprintf(&b, "Profile migration run (%s)\n", report.Mode)
	fmt.Fprintf(&b, "Started:  %s\nFinished: %s\n\n", report.StartedAt, report.FinishedAt)
	fmt.Fprintf(&b, "Patients:      processed=%d already_linked=%d identities_created=%d errors=%d\n",
		report.Patients.Processed, report.Patients.AlreadyLinked, report.Patients.IdentityCreated, len(report.Patients.Errors))
	fmt.Fprintf(&b, "Practitioners: processed=%d already_linked=%d identities_created=%d errors=%d\n",
		report.Practitioners.Processed, report.Practitioners.AlreadyLinked, report.Practitioners.IdentityCreated, len(report.Practitioners.Errors))
	fmt.Fprintf(&b, "Combined:      processed=%d already_linked=%d identities_created=%d errors=%d\n",
		combined.Processed, combined.AlreadyLinked, combined.IdentityCreated, len(combined.Errors))

	if len(combined.Errors) > 0 {
		b.WriteString("\nFailures:\n")
		for _, e := range combined.Errors {
			fmt.Fprintf(&b, "  %s/%s: %s\n", e.Collection, e.DocumentID, e.Reason)
		}
	}
	return b.String()
}
