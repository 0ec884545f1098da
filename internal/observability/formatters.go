// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/datacampus/certgen/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxFailuresToShow caps the failure list inside the summary box;
	// the JSON summary always carries the full list.
	maxFailuresToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRow outputs a one-line progress entry for a processed row.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRow(result types.RowResult) {
	switch result.Outcome {
	case types.OutcomeGenerated:
		fmt.Fprintf(p.out, "  row %d (%s): generated %s\n", result.RowIndex, result.Company, result.ArtifactName)
	case types.OutcomeSkipped:
		fmt.Fprintf(p.out, "  row %d: already done, skipped\n", result.RowIndex)
	case types.OutcomeFailed:
		fmt.Fprintf(p.out, "  row %d (%s): FAILED [%s] %s\n", result.RowIndex, result.Company, result.ErrorKind, result.ErrorDetail)
	}
}

// PrintSummary outputs the end-of-run summary box, enumerating every failed
// row with its error kind and cause.
func (p *Printer) PrintSummary(summary *types.RunSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated: %d\n", summary.Generated))
	sb.WriteString(fmt.Sprintf("Skipped:   %d\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("Failed:    %d", summary.Failed))

	failed := summary.FailedRows()
	if len(failed) > 0 {
		sb.WriteString("\n\nFailed rows:")
		shown := len(failed)
		if shown > maxFailuresToShow {
			shown = maxFailuresToShow
		}
		for _, r := range failed[:shown] {
			sb.WriteString(fmt.Sprintf("\n  row %d [%s]: %s", r.RowIndex, r.ErrorKind, r.ErrorDetail))
			if r.NeedsReconciliation {
				sb.WriteString("\n    ⚠ uploaded but not marked done; reconcile manually")
			}
		}
		if len(failed) > shown {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more (see JSON summary)", len(failed)-shown))
		}
	}

	p.printBox("Run Summary", sb.String())
}
