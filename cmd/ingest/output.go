package main

import (
	"fmt"
	"io"

	"mcbarchive/internal/services"
)

func printResult(out, errOut io.Writer, result services.FileResult) {
	switch result.Action {
	case services.ActionInvalid:
		fmt.Fprintf(errOut, "[invalid] %s: %v\n", result.Path, result.Err)
	case services.ActionDryRun:
		fmt.Fprintf(out, "[dry-run] would upsert show: %s (%s)\n", result.ShowID, result.Path)
	default:
		fmt.Fprintf(out, "[%s] %s (%s)\n", result.Action, result.ShowID, result.Path)
	}
}

func printSummary(out io.Writer, report services.IngestReport, dryRun bool) {
	if dryRun {
		fmt.Fprintf(out, "Dry run. Files: %d, Would upsert: %d, Invalid: %d\n",
			report.Files, report.WouldUpsert, report.Failed)
		return
	}

	fmt.Fprintf(out, "Done. Inserted: %d, Updated: %d", report.Inserted, report.Updated)
	if report.Failed > 0 {
		fmt.Fprintf(out, ", Invalid: %d", report.Failed)
	}
	fmt.Fprintln(out)

	if report.Reconciled > 0 {
		fmt.Fprintf(out, "Rebuilt upvote counts for %d shows\n", report.Reconciled)
	}
}
