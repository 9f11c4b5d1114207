package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/jobscout/internal/identity"
)

// Exists reports whether the (canonical key, search context, candidate
// context) triple is already in the ledger. Pure lookup, indexed on the
// uniqueness triple.
func (s *Store) Exists(ctx context.Context, id identity.PostingIdentity, searchContext, candidateContext string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_postings
		 WHERE canonical_key = ? AND search_context = ? AND candidate_context = ?`,
		id.CanonicalKey, searchContext, candidateContext,
	).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("ledger: exists lookup: %w", err)
}

// Record inserts a SeenPosting for the given identity and contexts. The
// UNIQUE constraint re-validates uniqueness at the storage layer, so a racing
// check-then-insert still cannot produce two rows; the loser receives a
// *DuplicateError.
func (s *Store) Record(ctx context.Context, id identity.PostingIdentity, searchContext, candidateContext string, rawAttributes map[string]any) error {
	if id.CanonicalKey == "" {
		return fmt.Errorf("ledger: refusing to record empty canonical key")
	}

	var attrsJSON any
	if len(rawAttributes) > 0 {
		data, err := json.Marshal(rawAttributes)
		if err != nil {
			return fmt.Errorf("ledger: marshal raw attributes: %w", err)
		}
		attrsJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_postings
		     (canonical_key, full_reference, site_local_id, search_context, candidate_context, raw_attributes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id.CanonicalKey, id.FullReference, nullIfEmpty(id.SiteLocalID),
		searchContext, candidateContext, attrsJSON,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return &DuplicateError{
				CanonicalKey:     id.CanonicalKey,
				SearchContext:    searchContext,
				CandidateContext: candidateContext,
			}
		}
		return fmt.Errorf("ledger: record posting: %w", err)
	}
	return nil
}

// CountSeen returns the number of ledger rows for a search/candidate pair.
func (s *Store) CountSeen(ctx context.Context, searchContext, candidateContext string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_postings WHERE search_context = ? AND candidate_context = ?`,
		searchContext, candidateContext,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ledger: count seen: %w", err)
	}
	return n, nil
}

// RecentSeen returns the most recently recorded postings, newest first.
func (s *Store) RecentSeen(ctx context.Context, limit int) ([]SeenPosting, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, canonical_key, full_reference, COALESCE(site_local_id, ''),
		        search_context, candidate_context, COALESCE(raw_attributes, ''), first_seen_at
		 FROM seen_postings ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: recent seen: %w", err)
	}
	defer rows.Close()

	var postings []SeenPosting
	for rows.Next() {
		var p SeenPosting
		var attrs, firstSeen string
		if err := rows.Scan(&p.ID, &p.CanonicalKey, &p.FullReference, &p.SiteLocalID,
			&p.SearchContext, &p.CandidateContext, &attrs, &firstSeen); err != nil {
			return nil, fmt.Errorf("ledger: scan seen posting: %w", err)
		}
		if attrs != "" {
			_ = json.Unmarshal([]byte(attrs), &p.RawAttributes)
		}
		if t, err := time.Parse(time.RFC3339Nano, firstSeen); err == nil {
			p.FirstSeenAt = t
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
