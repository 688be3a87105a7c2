package validation

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"github.com/clinsync/clinsync/internal/model"
)

// WriteTable renders the report as an aligned text table for the CLI.
func WriteTable(w io.Writer, report *model.ValidationReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "SEVERITY\tCOLLECTION\tDOCUMENT\tMESSAGE\n")
	for _, issue := range report.Errors {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", issue.Severity, issue.Collection, issue.DocumentID, issue.Message)
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", issue.Severity, issue.Collection, issue.DocumentID, issue.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nscanned %d identities, %d profiles: %d errors, %d warnings\n",
		report.Identities, report.Profiles, len(report.Errors), len(report.Warnings))
	return nil
}

// WriteXLSX exports the report as a spreadsheet for operators who triage
// inconsistencies outside the terminal.
func WriteXLSX(path string, report *model.ValidationReport) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Issues"
	f.SetSheetName("Sheet1", sheet)

	header := []interface{}{"Severity", "Collection", "Document", "Message"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	row := 2
	writeIssue := func(issue model.ValidationIssue) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []interface{}{string(issue.Severity), issue.Collection, issue.DocumentID, issue.Message}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		row++
		return nil
	}

	for _, issue := range report.Errors {
		if err := writeIssue(issue); err != nil {
			return fmt.Errorf("failed to write issue row: %w", err)
		}
	}
	for _, issue := range report.Warnings {
		if err := writeIssue(issue); err != nil {
			return fmt.Errorf("failed to write issue row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", path, err)
	}
	return nil
}
