// Package acquisition drives page-by-page fetching of a listing source,
// consults the dedup ledger per item, and applies the early-termination
// policy: a page with zero new items and at least one duplicate means every
// later page has been seen before (listings are most-recent-first).
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobscout/internal/identity"
	"github.com/jonathan/jobscout/internal/ledger"
	"github.com/jonathan/jobscout/internal/types"
)

// DefaultMaxPages bounds a run when the caller does not supply a ceiling.
const DefaultMaxPages = 10

// Fetcher retrieves one page of raw listing items. Owned by the scraping
// collaborator; the engine never retries or fabricates results on failure.
type Fetcher interface {
	FetchPage(ctx context.Context, searchContext string, page int) ([]types.RawItem, error)
}

// FetchError reports a failed page fetch. The run halts; the caller owns any
// retry policy.
type FetchError struct {
	SearchContext string
	PageNumber    int
	Cause         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d for search %q: %v", e.PageNumber, e.SearchContext, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Params configures one acquisition run. Search and candidate context are
// always passed explicitly; the engine keeps no ambient configuration.
type Params struct {
	SearchContext    string
	CandidateContext string
	// BaseReference resolves site-relative item refs, usually the listing URL.
	BaseReference string
	// MaxPages caps the run; DefaultMaxPages when zero.
	MaxPages int
	Verbose  bool
}

// Engine evaluates listing pages against the dedup ledger.
type Engine struct {
	fetcher Fetcher
	store   *ledger.Store
}

// NewEngine creates an acquisition engine over a fetcher and a ledger store.
func NewEngine(fetcher Fetcher, store *ledger.Store) *Engine {
	return &Engine{fetcher: fetcher, store: store}
}

// Run executes one acquisition session and returns the summary row of the
// last evaluated page. One IngestionRun row is written per evaluated page;
// the final row carries terminated_early when the early-exit policy fired.
func (e *Engine) Run(ctx context.Context, p Params) (ledger.IngestionRun, error) {
	if p.SearchContext == "" {
		return ledger.IngestionRun{}, errors.New("acquisition: search context is required")
	}
	if p.CandidateContext == "" {
		return ledger.IngestionRun{}, errors.New("acquisition: candidate context is required")
	}
	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	runID := uuid.New()
	var last ledger.IngestionRun

	for page := 1; page <= maxPages; page++ {
		// Cancellation point between page evaluations. Rows for completed
		// pages are already durable.
		if err := ctx.Err(); err != nil {
			return last, err
		}

		started := time.Now()
		items, err := e.fetcher.FetchPage(ctx, p.SearchContext, page)
		if err != nil {
			return last, &FetchError{SearchContext: p.SearchContext, PageNumber: page, Cause: err}
		}
		if p.Verbose {
			log.Printf("[VERBOSE] page %d: fetched %d items", page, len(items))
		}

		row, evalErr := e.evaluatePage(ctx, p, runID, page, started, items)

		// Best-effort row write even when evaluation failed mid-page, so the
		// ledger records what was actually processed.
		if recordErr := e.store.RecordRun(ctx, row); recordErr != nil {
			if evalErr != nil {
				return last, evalErr
			}
			return last, recordErr
		}
		last = row

		if evalErr != nil {
			return last, evalErr
		}
		if p.Verbose {
			log.Printf("[VERBOSE] page %d: %d new, %d duplicate, %d skipped",
				page, row.ItemsNew, row.ItemsDuplicate, row.ItemsSkipped)
		}

		if len(items) == 0 {
			// End of listings.
			return last, nil
		}
		if row.TerminatedEarly {
			return last, nil
		}
	}

	return last, nil
}

// evaluatePage normalizes and records each item of one page and builds its
// IngestionRun row. The returned error, if any, is a fatal store failure.
func (e *Engine) evaluatePage(ctx context.Context, p Params, runID uuid.UUID, page int, started time.Time, items []types.RawItem) (ledger.IngestionRun, error) {
	row := ledger.IngestionRun{
		RunID:            runID,
		SearchContext:    p.SearchContext,
		CandidateContext: p.CandidateContext,
		PageNumber:       page,
		ItemsSeen:        len(items),
		StartedAt:        started,
	}

	var fatal error
	for _, item := range items {
		id, err := identity.Normalize(item.Ref, p.BaseReference, nil)
		if err != nil {
			// Non-identifiable item: neither new nor duplicate, never stored.
			row.ItemsSkipped++
			log.Printf("skipping non-identifiable item: %v", err)
			continue
		}

		exists, err := e.store.Exists(ctx, id, p.SearchContext, p.CandidateContext)
		if err != nil {
			fatal = err
			break
		}
		if exists {
			row.ItemsDuplicate++
			continue
		}

		err = e.store.Record(ctx, id, p.SearchContext, p.CandidateContext, itemAttributes(item))
		if err != nil {
			var dup *ledger.DuplicateError
			if errors.As(err, &dup) {
				// Lost a check-then-insert race; the constraint is the arbiter.
				row.ItemsDuplicate++
				continue
			}
			fatal = err
			break
		}
		row.ItemsNew++
	}

	row.FinishedAt = time.Now()
	row.TerminatedEarly = fatal == nil && row.ItemsNew == 0 && row.ItemsDuplicate >= 1
	return row, fatal
}

func itemAttributes(item types.RawItem) map[string]any {
	attrs := make(map[string]any, len(item.Attrs)+1)
	for k, v := range item.Attrs {
		attrs[k] = v
	}
	if item.Title != "" {
		attrs["title"] = item.Title
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
