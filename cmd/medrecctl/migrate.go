package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clinsync/clinsync/internal/authn"
	"github.com/clinsync/clinsync/internal/config"
	"github.com/clinsync/clinsync/internal/email"
	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	"github.com/clinsync/clinsync/internal/repository/document"
	"github.com/clinsync/clinsync/internal/service/migration"
	"github.com/clinsync/clinsync/pkg/logger"
)

func newMigrateCommand() *cobra.Command {
	var execute bool
	var yes bool
	var emailReport bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Backfill identity links on legacy profile documents",
		Long: `Scans the patient and practitioner profile collections, creates
identities for unlinked profiles, links both sides, and strips the
personal fields the profiles still carry. Defaults to dry-run; pass
--execute to write. Safe to re-run: linked profiles are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadCLIEnv()
			if err != nil {
				return err
			}

			mode := model.MigrationDryRun
			if execute {
				mode = model.MigrationExecute
				if !yes && !confirm(cmd) {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			store, err := docstore.Open(env.StoreDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			log := logger.NewLogger(nil).WithComponent("migration")
			svc := migration.NewService(
				document.NewIdentityRepository(store),
				document.NewPatientProfileRepository(store),
				document.NewPractitionerProfileRepository(store),
				authn.NewHTTPProvider(authn.Config{
					BaseURL: env.AuthBaseURL,
					APIKey:  env.AuthAPIKey,
					Timeout: env.AuthTimeout,
				}),
				document.NewOutboxRepository(store),
				log,
				nil,
			)

			report, err := svc.Run(cmd.Context(), mode)
			if err != nil {
				return err
			}

			printReport(cmd, report)

			if emailReport {
				if env.ReportRecipient == "" {
					return fmt.Errorf("--email requires CLINSYNC_MIGRATION_REPORT_RECIPIENT")
				}
				sender := email.NewSMTPService(email.Config{
					Host:     env.SMTPHost,
					Port:     env.SMTPPort,
					Username: env.SMTPUsername,
					Password: env.SMTPPassword,
					From:     env.SMTPFrom,
				})
				if err := sender.SendMigrationReport(cmd.Context(), env.ReportRecipient, report); err != nil {
					return fmt.Errorf("failed to email report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report emailed to %s\n", env.ReportRecipient)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "write changes instead of reporting them")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the interactive confirmation")
	cmd.Flags().BoolVar(&emailReport, "email", false, "email the report to the configured recipient")
	return cmd
}

func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "This will write to the document store and the auth system. Type 'yes' to continue: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}

func printReport(cmd *cobra.Command, report *model.MigrationReport) {
	out := cmd.OutOrStdout()
	combined := report.Combined()

	fmt.Fprintf(out, "mode: %s\n", report.Mode)
	fmt.Fprintf(out, "duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(0))
	for _, pass := range []struct {
		name   string
		counts model.MigrationCounts
	}{
		{"patients", report.Patients},
		{"practitioners", report.Practitioners},
		{"total", combined},
	} {
		fmt.Fprintf(out, "%-14s processed=%d already-linked=%d identities-created=%d errors=%d\n",
			pass.name, pass.counts.Processed, pass.counts.AlreadyLinked,
			pass.counts.IdentityCreated, len(pass.counts.Errors))
	}
	for _, e := range combined.Errors {
		fmt.Fprintf(out, "  error %s/%s: %s\n", e.Collection, e.DocumentID, e.Reason)
	}
}
