package types

import (
	"context"

	"github.com/conanology/job-tracker/internal/domain"
)

// RawListing is what an extractor hands to the normalizer. Fields may be
// empty or messy; nothing downstream touches a RawListing directly.
type RawListing struct {
	Title    string
	Company  string
	Location string
	URL      string
	Skills   []string
	Source   domain.Source
}

type Result struct {
	Source string
	Raw    []RawListing

	// Finalize, when set, runs after the snapshot commits (e.g. marking
	// alert emails seen). Skipped on dry runs.
	Finalize func(context.Context) error
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (Result, error)
}
