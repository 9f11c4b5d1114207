package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordRun appends one IngestionRun row. Failure here means the underlying
// store is unavailable and is fatal to the caller's run.
func (s *Store) RecordRun(ctx context.Context, run IngestionRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_runs
		     (run_id, search_context, candidate_context, page_number,
		      items_seen, items_new, items_duplicate, items_skipped,
		      terminated_early, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID.String(), run.SearchContext, run.CandidateContext, run.PageNumber,
		run.ItemsSeen, run.ItemsNew, run.ItemsDuplicate, run.ItemsSkipped,
		boolToInt(run.TerminatedEarly),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("ledger: record run: %w", err)
	}
	return nil
}

// RunFilters holds optional filters for listing ingestion runs.
type RunFilters struct {
	RunID         uuid.UUID
	SearchContext string
	Limit         int
}

// ListRuns retrieves ingestion run rows, newest first.
func (s *Store) ListRuns(ctx context.Context, filters RunFilters) ([]IngestionRun, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT run_id, search_context, candidate_context, page_number,
	                 items_seen, items_new, items_duplicate, items_skipped,
	                 terminated_early, started_at, finished_at
	          FROM ingestion_runs WHERE 1=1`
	args := []any{}

	if filters.RunID != uuid.Nil {
		query += " AND run_id = ?"
		args = append(args, filters.RunID.String())
	}
	if filters.SearchContext != "" {
		query += " AND search_context = ?"
		args = append(args, filters.SearchContext)
	}

	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, filters.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list runs: %w", err)
	}
	defer rows.Close()

	var runs []IngestionRun
	for rows.Next() {
		var r IngestionRun
		var runID, started, finished string
		var early int
		if err := rows.Scan(&runID, &r.SearchContext, &r.CandidateContext, &r.PageNumber,
			&r.ItemsSeen, &r.ItemsNew, &r.ItemsDuplicate, &r.ItemsSkipped,
			&early, &started, &finished); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		r.RunID, _ = uuid.Parse(runID)
		r.TerminatedEarly = early != 0
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
