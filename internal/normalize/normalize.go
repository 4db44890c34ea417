// Package normalize canonicalizes raw extractor records into Listings and
// derives the identity keys used for dedup and novelty comparison.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"

	"github.com/conanology/job-tracker/internal/domain"
	"github.com/conanology/job-tracker/internal/scrape/types"
)

// ErrMalformedRecord means a raw record had nothing usable to key on
// (no URL and no title/company). Dropped and counted, never fatal.
var ErrMalformedRecord = errors.New("malformed record")

// CleanText trims and collapses internal whitespace, including NBSP.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// CanonicalURL lowercases scheme/host, drops the fragment, strips tracking
// query parameters and re-encodes the rest deterministically. The display
// URL keeps its original casing; this form only feeds the identity key.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		if isTrackingParam(k) {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func isTrackingParam(k string) bool {
	lk := strings.ToLower(k)
	if strings.HasPrefix(lk, "utm_") {
		return true
	}
	switch lk {
	case "gclid", "fbclid", "msclkid",
		"mc_cid", "mc_eid", "mkt_tok",
		"ref", "trk", "refid":
		return true
	}
	return false
}

// IdentityKey hashes the canonical URL, falling back to normalized
// title+company when the record has no URL. Empty when neither exists.
func IdentityKey(rawURL, title, company string) string {
	if c := CanonicalURL(rawURL); c != "" {
		return hashString("url:" + c)
	}
	t := strings.ToLower(CleanText(title))
	co := strings.ToLower(CleanText(company))
	if t == "" && co == "" {
		return ""
	}
	return hashString("tc:" + t + "|" + co)
}

// Normalize turns a raw extractor record into a Listing. Pure transform;
// FirstSeenRunID is assigned later by the pipeline.
func Normalize(raw types.RawListing) (domain.Listing, error) {
	l := domain.Listing{
		Title:    CleanText(raw.Title),
		Company:  CleanText(raw.Company),
		Location: CleanText(raw.Location),
		URL:      strings.TrimSpace(raw.URL),
		Source:   raw.Source,
	}
	for _, s := range raw.Skills {
		if s = CleanText(s); s != "" {
			l.Skills = append(l.Skills, s)
		}
	}

	l.IdentityKey = IdentityKey(l.URL, l.Title, l.Company)
	if l.IdentityKey == "" {
		return domain.Listing{}, ErrMalformedRecord
	}
	return l, nil
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
