package filter

import (
	"strings"

	"github.com/conanology/job-tracker/internal/domain"
)

// Matches reports whether any keyword appears in the listing's title,
// company or location, case-insensitively. A keyword set with no usable
// terms matches everything (pass-through mode).
func Matches(l domain.Listing, keywords []string) bool {
	blob := strings.ToLower(l.Title + " " + l.Company + " " + l.Location)

	usable := false
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		usable = true
		if strings.Contains(blob, k) {
			return true
		}
	}
	return !usable
}

// Apply keeps the listings matching the keyword set, preserving order.
func Apply(in []domain.Listing, keywords []string) []domain.Listing {
	out := make([]domain.Listing, 0, len(in))
	for _, l := range in {
		if Matches(l, keywords) {
			out = append(out, l)
		}
	}
	return out
}

// Merge combines config keywords with a comma-separated CLI value.
func Merge(configured []string, flagValue string) []string {
	out := append([]string(nil), configured...)
	for _, k := range strings.Split(flagValue, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
