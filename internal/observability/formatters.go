// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/jobscout/internal/checkpoint"
	"github.com/jonathan/jobscout/internal/ledger"
	"github.com/jonathan/jobscout/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for run and package summaries
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

// PrintRunSummary outputs the outcome of one acquisition run given its
// per-page rows, newest first or oldest first.
func (p *Printer) PrintRunSummary(rows []ledger.IngestionRun) {
	if len(rows) == 0 {
		return
	}

	var sb strings.Builder
	var totalNew, totalDup, totalSkipped int
	terminatedEarly := false

	sb.WriteString(fmt.Sprintf("Run:     %s\n", rows[0].RunID))
	sb.WriteString(fmt.Sprintf("Search:  %s\n\n", truncate(rows[0].SearchContext, 48)))

	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("Page %d: %d new, %d duplicate, %d skipped\n",
			row.PageNumber, row.ItemsNew, row.ItemsDuplicate, row.ItemsSkipped))
		totalNew += row.ItemsNew
		totalDup += row.ItemsDuplicate
		totalSkipped += row.ItemsSkipped
		if row.TerminatedEarly {
			terminatedEarly = true
		}
	}

	sb.WriteString(fmt.Sprintf("\nTotal:   %d new, %d duplicate, %d skipped", totalNew, totalDup, totalSkipped))
	if terminatedEarly {
		sb.WriteString("\nStopped early: page of known postings reached")
	}

	p.printBox("ACQUISITION RUN", sb.String())
}

// PrintRunHistory outputs recent per-page run rows, one line each.
func (p *Printer) PrintRunHistory(rows []ledger.IngestionRun) {
	if len(rows) == 0 {
		p.printBox("RUN HISTORY", "No runs recorded yet")
		return
	}

	var sb strings.Builder

	count := min(len(rows), maxItemsToShow)
	for i := 0; i < count; i++ {
		row := rows[i]
		marker := " "
		if row.TerminatedEarly {
			marker = "■"
		}
		sb.WriteString(fmt.Sprintf("%s %s p%-2d  %2d new %2d dup  %s\n",
			marker,
			row.StartedAt.Format("2006-01-02 15:04"),
			row.PageNumber, row.ItemsNew, row.ItemsDuplicate,
			truncate(shortID(row.RunID.String()), 10)))
	}

	if len(rows) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more rows", len(rows)-maxItemsToShow))
	}

	p.printBox("RUN HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPackage outputs one checkpoint package summary.
func (p *Printer) PrintPackage(pkg *checkpoint.CheckpointPackage) {
	if pkg == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Package:  %s\n", pkg.PackageID))
	sb.WriteString(fmt.Sprintf("Sequence: %s\n", pkg.SequenceLabel))
	sb.WriteString(fmt.Sprintf("Posting:  %s\n", truncate(pkg.PostingIdentity.CanonicalKey, 48)))
	sb.WriteString(fmt.Sprintf("State:    %s\n", pkg.LifecycleState))

	if pkg.Completeness.IsComplete {
		sb.WriteString("Complete: yes")
	} else {
		sb.WriteString(fmt.Sprintf("Complete: no (missing %s)", strings.Join(pkg.Completeness.Missing, ", ")))
	}

	p.printBox("CHECKPOINT PACKAGE", sb.String())
}

// PrintPackages outputs the package collection, one line per package.
func (p *Printer) PrintPackages(pkgs []*checkpoint.CheckpointPackage) {
	if len(pkgs) == 0 {
		p.printBox("PACKAGES", "Collection is empty")
		return
	}

	var sb strings.Builder
	for i, pkg := range pkgs {
		flag := " "
		if !pkg.Completeness.IsComplete {
			flag = "!"
		}
		sb.WriteString(fmt.Sprintf("%s %s %-9s %s\n",
			flag, pkg.SequenceLabel, pkg.LifecycleState,
			truncate(pkg.PostingIdentity.CanonicalKey, 38)))
		if i == maxItemsToShow-1 && len(pkgs) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more packages\n", len(pkgs)-maxItemsToShow))
			break
		}
	}

	p.printBox("PACKAGES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatchSummary outputs the generated match decision for one posting.
func (p *Printer) PrintMatchSummary(summary types.MatchSummary) {
	if summary.IsEmpty() {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:  %.2f\n", summary.Score))
	if summary.Model != "" {
		sb.WriteString(fmt.Sprintf("Model:  %s\n", summary.Model))
	}
	sb.WriteString("\n")

	for _, line := range wrapText(summary.Rationale, boxWidth-6) {
		sb.WriteString(line + "\n")
	}

	p.printBox("MATCH SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// wrapText wraps text at word boundaries to the given width.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}
