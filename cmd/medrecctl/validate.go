package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinsync/clinsync/internal/config"
	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	"github.com/clinsync/clinsync/internal/repository/document"
	"github.com/clinsync/clinsync/internal/service/validation"
	"github.com/clinsync/clinsync/pkg/logger"
)

// errValidationFailed signals a non-zero exit without skipping deferred
// cleanup on the way out.
var errValidationFailed = errors.New("validation found consistency errors")

func newValidateCommand() *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check cross-collection consistency without writing anything",
		Long: `Scans the identity and profile collections and reports broken links,
role mismatches, lingering personal fields, and incomplete identities.
Exits 1 when errors are found; warnings alone exit 0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadCLIEnv()
			if err != nil {
				return err
			}

			store, err := docstore.Open(env.StoreDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			log := logger.NewLogger(nil).WithComponent("validation")
			svc := validation.NewService(
				document.NewIdentityRepository(store),
				document.NewPatientProfileRepository(store),
				document.NewPractitionerProfileRepository(store),
				log,
				nil,
			)

			report, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}

			if err := validation.WriteTable(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := validation.WriteXLSX(xlsxPath, report); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", xlsxPath)
			}

			return validationOutcome(report)
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the findings to an xlsx file")
	return cmd
}

func validationOutcome(report *model.ValidationReport) error {
	if report.Failed() {
		return errValidationFailed
	}
	return nil
}
