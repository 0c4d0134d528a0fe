package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/eshaffer321/amex-reconcile/internal/application/reconcile"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/config"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, dryRun bool) {
	mode := "WRITE"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "amex-reconcile (%s mode)\n", mode)
}

// PrintConfiguration prints the run configuration
func PrintConfiguration(w io.Writer, cfg *config.Config, skipExtract bool) {
	fmt.Fprintf(w, "Workbook: %s", cfg.Workbook.Path)
	if cfg.Workbook.OutputPath != "" {
		fmt.Fprintf(w, " -> %s", cfg.Workbook.OutputPath)
	}
	fmt.Fprintf(w, " | Statement: %s to %s", orOpen(cfg.Statement.Start), orOpen(cfg.Statement.End))
	if cfg.Invoices.ListFolder {
		fmt.Fprintf(w, " | Folder: %s", cfg.Invoices.Directory)
	}
	if skipExtract {
		fmt.Fprint(w, " | Extraction: skipped")
	} else if !cfg.Extraction.OCR.Enabled {
		fmt.Fprint(w, " | OCR: off")
	}
	fmt.Fprint(w, "\n\n")
}

func orOpen(s string) string {
	if s == "" {
		return "open"
	}
	return s
}

// PrintSummary prints the run result summary and the unmatched invoices
func PrintSummary(w io.Writer, result *reconcile.Result) error {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	if result.Report == nil {
		fmt.Fprintln(w, "No matching was performed.")
		return nil
	}

	report := result.Report
	fmt.Fprintf(w, "Summary: Invoices=%d Transactions=%d Matched=%d Unmatched=%d Rows=%d\n",
		report.InvoiceCount,
		report.TransactionCount,
		report.MatchedCount(),
		len(report.Unmatched),
		report.ClaimedRows())

	if len(report.ByKind) > 0 {
		kinds := make([]string, 0, len(report.ByKind))
		for kind, n := range report.ByKind {
			kinds = append(kinds, fmt.Sprintf("%s=%d", kind.String(), n))
		}
		sort.Strings(kinds)
		fmt.Fprintf(w, "By strategy: %s\n", strings.Join(kinds, " "))
	}
	if result.Extracted > 0 || result.ExtractionFailed > 0 {
		fmt.Fprintf(w, "Extraction: Processed=%d Failed=%d\n", result.Extracted, result.ExtractionFailed)
	}
	if len(result.NotOnSheet) > 0 {
		fmt.Fprintln(w, "\nExtracted but not on the Invoices sheet:")
		for _, path := range result.NotOnSheet {
			fmt.Fprintf(w, "  - %s\n", path)
		}
	}

	if len(result.Discrepancies) > 0 {
		fmt.Fprintln(w, "\nCharges that do not add up:")
		for _, d := range result.Discrepancies {
			fmt.Fprintf(w, "  - %s (%s): %s\n", d.FileName, d.Kind.String(), d.Reason)
		}
	}

	fmt.Fprintln(w)
	if err := report.WriteUnmatched(w); err != nil {
		return err
	}

	switch {
	case result.SavedTo != "":
		fmt.Fprintf(w, "\nSaved %s\n", result.SavedTo)
	default:
		fmt.Fprintln(w, "\nDry run: workbook not saved.")
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	return nil
}
