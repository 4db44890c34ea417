package domain

import "time"

// Source identifies which extractor produced a listing.
type Source string

const (
	SourceRemoteOK   Source = "remoteok"
	SourceLinkedIn   Source = "linkedin"
	SourceIndeed     Source = "indeed"
	SourceEmailAlert Source = "email_alert"
	SourceGeneric    Source = "generic"
)

// Listing is a normalized job posting. IdentityKey is the sole basis for
// dedup within a run and novelty comparison across runs.
type Listing struct {
	IdentityKey    string
	Title          string
	Company        string
	Location       string
	URL            string
	Skills         []string
	Source         Source
	FirstSeenRunID string
}

// RunSnapshot is the ordered result set of one run. It is compared against
// the previously committed snapshot and then committed as the new prior.
type RunSnapshot struct {
	RunID     string
	StartedAt time.Time
	Listings  []Listing
}
