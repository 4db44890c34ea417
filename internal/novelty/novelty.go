// Package novelty partitions a run's listings into new vs previously seen.
package novelty

import "github.com/conanology/job-tracker/internal/domain"

// Detect dedupes current by identity key (first occurrence wins) and splits
// the result against the prior run's key set. Both outputs preserve the
// iteration order of current. An empty prior means a first-ever run: every
// deduplicated listing is new. Pure; persistence happens in the caller.
func Detect(current []domain.Listing, prior map[string]struct{}) (fresh, all []domain.Listing) {
	seen := make(map[string]struct{}, len(current))
	for _, l := range current {
		if _, dup := seen[l.IdentityKey]; dup {
			continue
		}
		seen[l.IdentityKey] = struct{}{}
		all = append(all, l)
		if _, known := prior[l.IdentityKey]; !known {
			fresh = append(fresh, l)
		}
	}
	return fresh, all
}

// Keys collects the identity keys of a snapshot's listings.
func Keys(snap *domain.RunSnapshot) map[string]struct{} {
	out := map[string]struct{}{}
	if snap == nil {
		return out
	}
	for _, l := range snap.Listings {
		out[l.IdentityKey] = struct{}{}
	}
	return out
}
