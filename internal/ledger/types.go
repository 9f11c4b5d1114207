package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SeenPosting is one row of the append-only dedup ledger. The triple
// (CanonicalKey, SearchContext, CandidateContext) is unique: the same posting
// under a different search term or candidate profile is a new logical entry.
type SeenPosting struct {
	ID               int64          `json:"id"`
	CanonicalKey     string         `json:"canonical_key"`
	FullReference    string         `json:"full_reference"`
	SiteLocalID      string         `json:"site_local_id,omitempty"`
	SearchContext    string         `json:"search_context"`
	CandidateContext string         `json:"candidate_context"`
	RawAttributes    map[string]any `json:"raw_attributes,omitempty"`
	FirstSeenAt      time.Time      `json:"first_seen_at"`
}

// IngestionRun summarizes one evaluated page of one acquisition session.
// Rows are immutable once written.
type IngestionRun struct {
	RunID            uuid.UUID `json:"run_id"`
	SearchContext    string    `json:"search_context"`
	CandidateContext string    `json:"candidate_context"`
	PageNumber       int       `json:"page_number"`
	ItemsSeen        int       `json:"items_seen"`
	ItemsNew         int       `json:"items_new"`
	ItemsDuplicate   int       `json:"items_duplicate"`
	ItemsSkipped     int       `json:"items_skipped"`
	TerminatedEarly  bool      `json:"terminated_early"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// DuplicateError reports a Record call whose triple already exists in the
// ledger. It signals a duplicate posting, not a fault.
type DuplicateError struct {
	CanonicalKey     string
	SearchContext    string
	CandidateContext string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("posting %q already recorded for search %q, candidate %q",
		e.CanonicalKey, e.SearchContext, e.CandidateContext)
}
