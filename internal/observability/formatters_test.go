package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/jobscout/internal/checkpoint"
	"github.com/jonathan/jobscout/internal/identity"
	"github.com/jonathan/jobscout/internal/ledger"
	"github.com/jonathan/jobscout/internal/types"
)

func testRows() []ledger.IngestionRun {
	runID := uuid.New()
	return []ledger.IngestionRun{
		{
			RunID:         runID,
			SearchContext: "https://boards.greenhouse.io/acme",
			PageNumber:    1,
			ItemsSeen:     5,
			ItemsNew:      5,
			StartedAt:     time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		},
		{
			RunID:           runID,
			SearchContext:   "https://boards.greenhouse.io/acme",
			PageNumber:      2,
			ItemsSeen:       5,
			ItemsDuplicate:  5,
			TerminatedEarly: true,
			StartedAt:       time.Date(2026, 8, 30, 10, 0, 5, 0, time.UTC),
		},
	}
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunSummary(testRows())
	out := buf.String()

	assert.Contains(t, out, "ACQUISITION RUN")
	assert.Contains(t, out, "Page 1: 5 new, 0 duplicate, 0 skipped")
	assert.Contains(t, out, "Page 2: 0 new, 5 duplicate, 0 skipped")
	assert.Contains(t, out, "Total:   5 new, 5 duplicate, 0 skipped")
	assert.Contains(t, out, "Stopped early")
}

func TestPrintRunSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunSummary(nil)
	assert.Empty(t, buf.String())
}

func TestPrintRunHistory(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunHistory(testRows())
	out := buf.String()

	assert.Contains(t, out, "RUN HISTORY")
	assert.Contains(t, out, "2026-08-30 10:00")
	// Early-terminated rows carry a marker.
	assert.Contains(t, out, "■")
}

func TestPrintRunHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunHistory(nil)
	assert.Contains(t, buf.String(), "No runs recorded yet")
}

func TestPrintPackage(t *testing.T) {
	id, err := identity.Normalize("https://acme.io/jobs/42", "", nil)
	assert.NoError(t, err)

	pkg := &checkpoint.CheckpointPackage{
		PackageID:       uuid.New(),
		SequenceLabel:   "0003",
		PostingIdentity: id,
		LifecycleState:  checkpoint.StateDraft,
		Completeness:    checkpoint.Completeness{IsComplete: false, Missing: []string{"letter"}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintPackage(pkg)
	out := buf.String()

	assert.Contains(t, out, "0003")
	assert.Contains(t, out, "acme.io/jobs/42")
	assert.Contains(t, out, "draft")
	assert.Contains(t, out, "missing letter")
}

func TestPrintPackages_IncompleteFlagged(t *testing.T) {
	id, err := identity.Normalize("https://acme.io/jobs/42", "", nil)
	assert.NoError(t, err)

	pkgs := []*checkpoint.CheckpointPackage{
		{SequenceLabel: "0001", PostingIdentity: id, LifecycleState: checkpoint.StateSent,
			Completeness: checkpoint.Completeness{IsComplete: true}},
		{SequenceLabel: "0002", PostingIdentity: id, LifecycleState: checkpoint.StateDraft,
			Completeness: checkpoint.Completeness{IsComplete: false, Missing: []string{"contact_ref"}}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintPackages(pkgs)
	out := buf.String()

	assert.Contains(t, out, "0001")
	assert.Contains(t, out, "! 0002")
}

func TestPrintMatchSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintMatchSummary(types.MatchSummary{
		Score:     0.82,
		Rationale: "Strong overlap with the backend stack and the data pipeline work.",
		Model:     "gemini-2.5-flash",
	})
	out := buf.String()

	assert.Contains(t, out, "0.82")
	assert.Contains(t, out, "gemini-2.5-flash")
	assert.Contains(t, out, "Strong overlap")
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five", 9)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 9)
	}
	assert.Equal(t, "one two three four five", strings.Join(lines, " "))

	assert.Nil(t, wrapText("   ", 10))
}
