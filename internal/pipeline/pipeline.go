// Package pipeline runs one scrape-filter-detect-report pass.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/conanology/job-tracker/internal/domain"
	"github.com/conanology/job-tracker/internal/filter"
	"github.com/conanology/job-tracker/internal/normalize"
	"github.com/conanology/job-tracker/internal/novelty"
	"github.com/conanology/job-tracker/internal/report"
	"github.com/conanology/job-tracker/internal/scrape/types"
	"github.com/conanology/job-tracker/internal/snapshot"

	"github.com/google/uuid"
)

// ErrNoSources means every configured extractor failed and the run produced
// nothing usable.
var ErrNoSources = errors.New("all sources failed")

// Notifier is what the pipeline needs from the email reporter.
type Notifier interface {
	Send(fresh []domain.Listing) error
}

type Pipeline struct {
	Fetchers []types.Fetcher
	Keywords []string
	Store    *snapshot.Store
	CSVPath  string
	Notifier Notifier // nil disables email

	// DryRun skips snapshot commit, source finalizers and email; the CSV is
	// still written so the run can be inspected.
	DryRun bool

	KeepRuns      int
	SourceTimeout time.Duration
}

type Summary struct {
	RunID          string
	Total          int
	New            int
	Malformed      int
	FailedSources  int
	DeliveryFailed bool
}

// Run executes the full pass: sequential extraction, normalization,
// keyword filtering, novelty detection against the prior snapshot, CSV
// export, snapshot commit, then email. The prior snapshot is read once at
// the start and replaced only by a fully successful pass.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	started := time.Now().UTC()
	sum := Summary{RunID: uuid.NewString()}

	prior, err := p.Store.LatestRun(ctx)
	if err != nil {
		return sum, err
	}
	priorKeys := novelty.Keys(prior)
	firstSeen := map[string]string{}
	if prior != nil {
		for _, l := range prior.Listings {
			firstSeen[l.IdentityKey] = l.FirstSeenRunID
		}
	}

	// One source at a time: target-site load stays polite and ordering
	// stays deterministic. Source contexts live until the finalizers have
	// run, since a finalizer may reuse the source's connection.
	var cancels []context.CancelFunc
	defer func() {
		for _, c := range cancels {
			c()
		}
	}()

	var raws []types.RawListing
	var finals []func(context.Context) error
	for _, f := range p.Fetchers {
		timeout := p.SourceTimeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		fctx, cancel := context.WithTimeout(ctx, timeout)
		cancels = append(cancels, cancel)

		log.Printf("[%s] fetching...", f.Name())
		res, err := f.Fetch(fctx)
		if err != nil {
			log.Printf("[%s] extraction failed: %v", f.Name(), err)
			sum.FailedSources++
			continue
		}
		log.Printf("[%s] %d raw listings", f.Name(), len(res.Raw))
		raws = append(raws, res.Raw...)
		if res.Finalize != nil {
			finals = append(finals, res.Finalize)
		}
	}

	if len(p.Fetchers) > 0 && sum.FailedSources == len(p.Fetchers) {
		return sum, ErrNoSources
	}

	var current []domain.Listing
	for _, r := range raws {
		l, err := normalize.Normalize(r)
		if err != nil {
			sum.Malformed++
			log.Printf("[normalize] dropped record title=%q url=%q: %v", r.Title, r.URL, err)
			continue
		}
		current = append(current, l)
	}

	current = filter.Apply(current, p.Keywords)

	fresh, all := novelty.Detect(current, priorKeys)

	// first_seen_run_id carries forward for known keys, set once for new
	for i := range all {
		if id, ok := firstSeen[all[i].IdentityKey]; ok {
			all[i].FirstSeenRunID = id
		} else {
			all[i].FirstSeenRunID = sum.RunID
		}
	}
	for i := range fresh {
		fresh[i].FirstSeenRunID = sum.RunID
	}

	sum.Total, sum.New = len(all), len(fresh)

	// CSV first: a write failure is fatal and must precede the commit
	if err := report.WriteCSV(p.CSVPath, all); err != nil {
		return sum, err
	}
	log.Printf("[csv] wrote %d listings to %s", len(all), p.CSVPath)

	if p.DryRun {
		log.Printf("[run:%s] dry run: %d listings, %d new (not committed)", sum.RunID, sum.Total, sum.New)
		return sum, nil
	}

	snap := domain.RunSnapshot{RunID: sum.RunID, StartedAt: started, Listings: all}
	if err := p.Store.CommitRun(ctx, snap); err != nil {
		return sum, err
	}
	if _, err := p.Store.PruneRuns(ctx, p.KeepRuns); err != nil {
		log.Printf("[store] prune: %v", err)
	}

	for _, fin := range finals {
		if err := fin(ctx); err != nil {
			log.Printf("[finalize] %v", err)
		}
	}

	if p.Notifier != nil {
		if err := p.Notifier.Send(fresh); err != nil {
			sum.DeliveryFailed = true
			log.Printf("[email] %v", err)
		} else if len(fresh) > 0 {
			log.Printf("[email] notified about %d new listings", len(fresh))
		}
	}

	log.Printf("[run:%s] done: %d listings, %d new, %d malformed, %d sources failed",
		sum.RunID, sum.Total, sum.New, sum.Malformed, sum.FailedSources)
	return sum, nil
}
