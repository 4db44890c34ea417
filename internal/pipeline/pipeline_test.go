package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/conanology/job-tracker/internal/domain"
	"github.com/conanology/job-tracker/internal/scrape/types"
	"github.com/conanology/job-tracker/internal/snapshot"
)

type fakeFetcher struct {
	name string
	raw  []types.RawListing
	err  error

	finalized bool
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(context.Context) (types.Result, error) {
	if f.err != nil {
		return types.Result{}, f.err
	}
	return types.Result{
		Source:   f.name,
		Raw:      f.raw,
		Finalize: func(context.Context) error { f.finalized = true; return nil },
	}, nil
}

type fakeNotifier struct {
	sent [][]domain.Listing
	err  error
}

func (n *fakeNotifier) Send(fresh []domain.Listing) error {
	n.sent = append(n.sent, fresh)
	return n.err
}

func newTestPipeline(t *testing.T, fetchers ...types.Fetcher) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	store, err := snapshot.Open(filepath.Join(dir, "jobtrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return &Pipeline{
		Fetchers: fetchers,
		Store:    store,
		CSVPath:  filepath.Join(dir, "results.csv"),
		KeepRuns: 5,
	}
}

func raw(url, title string) types.RawListing {
	return types.RawListing{Title: title, Company: "Acme", URL: url, Source: domain.SourceGeneric}
}

func TestRun_FirstRunEverythingNew(t *testing.T) {
	p := newTestPipeline(t, &fakeFetcher{name: "a", raw: []types.RawListing{
		raw("http://x.com/job/1", "Python Dev"),
		raw("http://x.com/job/2", "Go Dev"),
	}})

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Total != 2 || sum.New != 2 {
		t.Errorf("summary = %+v, want total=2 new=2", sum)
	}
}

func TestRun_SecondRunSeesNothingNew(t *testing.T) {
	f := &fakeFetcher{name: "a", raw: []types.RawListing{
		raw("http://x.com/job/1", "Python Dev"),
	}}
	p := newTestPipeline(t, f)
	ctx := context.Background()

	first, err := p.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if second.Total != 1 || second.New != 0 {
		t.Errorf("second run = %+v, want total=1 new=0", second)
	}

	// first_seen_run_id survives the re-observation
	snap, err := p.Store.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.RunID != second.RunID {
		t.Errorf("latest snapshot is %q, want %q", snap.RunID, second.RunID)
	}
	if got := snap.Listings[0].FirstSeenRunID; got != first.RunID {
		t.Errorf("first_seen_run_id = %q, want %q from the first run", got, first.RunID)
	}
}

func TestRun_NewListingAgainstPrior(t *testing.T) {
	f := &fakeFetcher{name: "a", raw: []types.RawListing{
		raw("http://x.com/job/1", "Python Dev"),
	}}
	p := newTestPipeline(t, f)
	n := &fakeNotifier{}
	p.Notifier = n
	ctx := context.Background()

	if _, err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}

	f.raw = []types.RawListing{
		raw("http://x.com/job/1", "Python Dev"),
		raw("http://x.com/job/2", "Go Dev"),
	}
	sum, err := p.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 2 || sum.New != 1 {
		t.Errorf("summary = %+v, want total=2 new=1", sum)
	}

	last := n.sent[len(n.sent)-1]
	if len(last) != 1 || last[0].Title != "Go Dev" {
		t.Errorf("notified %+v, want just the new listing", last)
	}
}

func TestRun_TrackingVariantsCollapse(t *testing.T) {
	p := newTestPipeline(t, &fakeFetcher{name: "a", raw: []types.RawListing{
		raw("http://x.com/job/1?ref=abc", "Python Dev"),
		raw("http://x.com/job/1", "Python Dev"),
	}})

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 1 || sum.New != 1 {
		t.Errorf("summary = %+v, want total=1 new=1 (same canonical key)", sum)
	}
}

func TestRun_DryRunIsIdempotent(t *testing.T) {
	f := &fakeFetcher{name: "a", raw: []types.RawListing{
		raw("http://x.com/job/1", "Python Dev"),
	}}
	p := newTestPipeline(t, f)
	p.DryRun = true
	ctx := context.Background()

	first, err := p.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if first.Total != second.Total || first.New != second.New {
		t.Errorf("dry runs diverged: %+v vs %+v", first, second)
	}
	if second.New != 1 {
		t.Errorf("uncommitted run must not change the prior baseline: %+v", second)
	}
	if f.finalized {
		t.Error("dry run must not run source finalizers")
	}

	snap, err := p.Store.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Errorf("dry run committed a snapshot: %+v", snap)
	}
}

func TestRun_KeywordFilter(t *testing.T) {
	p := newTestPipeline(t, &fakeFetcher{name: "a", raw: []types.RawListing{
		raw("http://x.com/job/1", "Python Dev"),
		raw("http://x.com/job/2", "Chef"),
	}})
	p.Keywords = []string{"python"}

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 1 {
		t.Errorf("total = %d, want 1 after keyword filter", sum.Total)
	}
}

func TestRun_MalformedRecordsDroppedNotFatal(t *testing.T) {
	p := newTestPipeline(t, &fakeFetcher{name: "a", raw: []types.RawListing{
		{Location: "Remote", Source: domain.SourceGeneric}, // nothing to key on
		raw("http://x.com/job/1", "Python Dev"),
	}})

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Malformed != 1 || sum.Total != 1 {
		t.Errorf("summary = %+v, want malformed=1 total=1", sum)
	}
}

func TestRun_AllSourcesFailed(t *testing.T) {
	p := newTestPipeline(t,
		&fakeFetcher{name: "a", err: errors.New("unreachable")},
		&fakeFetcher{name: "b", err: errors.New("parse mismatch")},
	)

	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}

func TestRun_PartialSourceFailureContinues(t *testing.T) {
	p := newTestPipeline(t,
		&fakeFetcher{name: "a", err: errors.New("unreachable")},
		&fakeFetcher{name: "b", raw: []types.RawListing{raw("http://x.com/job/1", "Python Dev")}},
	)

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("partial failure must not abort the run: %v", err)
	}
	if sum.FailedSources != 1 || sum.Total != 1 {
		t.Errorf("summary = %+v, want failed=1 total=1", sum)
	}
}

func TestRun_DeliveryFailureIsNotFatal(t *testing.T) {
	f := &fakeFetcher{name: "a", raw: []types.RawListing{raw("http://x.com/job/1", "Python Dev")}}
	p := newTestPipeline(t, f)
	p.Notifier = &fakeNotifier{err: errors.New("smtp down")}
	ctx := context.Background()

	sum, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("delivery failure must not fail the run: %v", err)
	}
	if !sum.DeliveryFailed {
		t.Error("summary should record the delivery failure")
	}

	// the snapshot still committed and finalizers still ran
	snap, err := p.Store.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil || snap.RunID != sum.RunID {
		t.Error("snapshot was not committed despite successful pipeline")
	}
	if !f.finalized {
		t.Error("source finalizer did not run after commit")
	}
}

func TestRun_CSVWriteFailureIsFatal(t *testing.T) {
	p := newTestPipeline(t, &fakeFetcher{name: "a", raw: []types.RawListing{raw("http://x.com/job/1", "Python Dev")}})
	// parent "path" is a file created by newTestPipeline's store; use the db
	// file itself as the directory component to force the failure
	p.CSVPath = filepath.Join(filepath.Dir(p.CSVPath), "jobtrack.db", "results.csv")
	ctx := context.Background()

	if _, err := p.Run(ctx); err == nil {
		t.Fatal("expected CSV write failure")
	}

	snap, err := p.Store.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Error("failed run must not commit a snapshot")
	}
}
