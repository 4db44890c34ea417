package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/conanology/job-tracker/internal/domain"
)

// LatestRun loads the most recently committed snapshot, listings in their
// original order. Returns nil on a first-ever run.
func (s *Store) LatestRun(ctx context.Context) (*domain.RunSnapshot, error) {
	var snap domain.RunSnapshot
	var startedStr string
	err := s.db.QueryRowContext(ctx, `
SELECT id, started_at
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT 1;`).Scan(&snap.RunID, &startedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	snap.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)

	rows, err := s.db.QueryContext(ctx, `
SELECT identity_key, title, company, location, url, source, skills, first_seen_run_id
FROM listings
WHERE run_id = ?
ORDER BY pos;`, snap.RunID)
	if err != nil {
		return nil, fmt.Errorf("latest run listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.Listing
		var skillsJSON string
		var src string
		if err := rows.Scan(&l.IdentityKey, &l.Title, &l.Company, &l.Location,
			&l.URL, &src, &skillsJSON, &l.FirstSeenRunID); err != nil {
			return nil, err
		}
		l.Source = domain.Source(src)
		_ = json.Unmarshal([]byte(skillsJSON), &l.Skills)
		snap.Listings = append(snap.Listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CommitRun persists a snapshot in one transaction. Nothing is visible to
// later runs until the commit succeeds, so an interrupted run leaves the
// prior baseline untouched.
func (s *Store) CommitRun(ctx context.Context, snap domain.RunSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs(id, started_at) VALUES(?,?);`,
		snap.RunID, snap.StartedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("commit run %s: %w", snap.RunID, err)
	}

	for pos, l := range snap.Listings {
		skillsB, _ := json.Marshal(l.Skills)
		if _, err := tx.ExecContext(ctx, `
INSERT INTO listings(run_id, pos, identity_key, title, company, location, url, source, skills, first_seen_run_id)
VALUES(?,?,?,?,?,?,?,?,?,?);`,
			snap.RunID, pos, l.IdentityKey, l.Title, l.Company, l.Location,
			l.URL, string(l.Source), string(skillsB), l.FirstSeenRunID); err != nil {
			return fmt.Errorf("commit listing %s: %w", l.IdentityKey, err)
		}
	}

	return tx.Commit()
}

// PruneRuns deletes everything but the newest keep runs. Only the latest
// run serves as a baseline; older ones are kept briefly for inspection.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx, `
DELETE FROM runs
WHERE id NOT IN (
  SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
);`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	// cascade is not guaranteed without foreign_keys pragma; sweep orphans
	if _, err := s.db.ExecContext(ctx, `
DELETE FROM listings WHERE run_id NOT IN (SELECT id FROM runs);`); err != nil {
		return 0, fmt.Errorf("prune listings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
