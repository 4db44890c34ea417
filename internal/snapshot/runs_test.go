package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/conanology/job-tracker/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jobtrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot(runID string, at time.Time) domain.RunSnapshot {
	return domain.RunSnapshot{
		RunID:     runID,
		StartedAt: at,
		Listings: []domain.Listing{
			{
				IdentityKey:    "k1",
				Title:          "Go Developer",
				Company:        "Acme",
				Location:       "Remote",
				URL:            "https://x.com/job/1",
				Skills:         []string{"Go", "SQL"},
				Source:         domain.SourceRemoteOK,
				FirstSeenRunID: runID,
			},
			{
				IdentityKey:    "k2",
				Title:          "Python Developer",
				Company:        "Beta",
				URL:            "https://x.com/job/2",
				Source:         domain.SourceGeneric,
				FirstSeenRunID: runID,
			},
		},
	}
}

func TestLatestRun_EmptyStore(t *testing.T) {
	s := openTestStore(t)
	snap, err := s.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot on first run, got %+v", snap)
	}
}

func TestCommitAndRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := sampleSnapshot("run-1", time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	if err := s.CommitRun(ctx, in); err != nil {
		t.Fatalf("CommitRun: %v", err)
	}

	out, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if out == nil || out.RunID != "run-1" {
		t.Fatalf("LatestRun = %+v", out)
	}
	if len(out.Listings) != 2 {
		t.Fatalf("round trip lost listings: %d", len(out.Listings))
	}
	got := out.Listings[0]
	if got.IdentityKey != "k1" || got.Title != "Go Developer" || got.Company != "Acme" ||
		got.Location != "Remote" || got.URL != "https://x.com/job/1" ||
		got.Source != domain.SourceRemoteOK || got.FirstSeenRunID != "run-1" {
		t.Errorf("listing fields did not round trip: %+v", got)
	}
	if len(got.Skills) != 2 || got.Skills[0] != "Go" {
		t.Errorf("skills did not round trip: %v", got.Skills)
	}
	// second listing follows in original order
	if out.Listings[1].IdentityKey != "k2" {
		t.Errorf("order not preserved: %v", out.Listings[1].IdentityKey)
	}
}

func TestLatestRun_PicksNewestCommit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if err := s.CommitRun(ctx, sampleSnapshot("run-1", t0)); err != nil {
		t.Fatal(err)
	}
	if err := s.CommitRun(ctx, sampleSnapshot("run-2", t0.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	out, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if out.RunID != "run-2" {
		t.Errorf("LatestRun picked %q, want run-2", out.RunID)
	}
}

func TestPruneRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		if err := s.CommitRun(ctx, sampleSnapshot(id, t0.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := s.PruneRuns(ctx, 1)
	if err != nil {
		t.Fatalf("PruneRuns: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d runs, want 2", deleted)
	}

	out, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if out == nil || out.RunID != "run-3" {
		t.Errorf("latest after prune = %+v, want run-3", out)
	}
}
