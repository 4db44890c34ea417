// Package board extracts listings from arbitrary job boards by trying a
// series of common listing markup patterns.
package board

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/conanology/job-tracker/internal/domain"
	"github.com/conanology/job-tracker/internal/scrape/types"
	"github.com/conanology/job-tracker/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

const maxJobs = 20

// Selector patterns tried in order; the first one yielding any parsed
// listing wins. Boards repeat these shapes often enough for this to work.
var jobSelectors = []string{
	"div.job",
	"div.job-listing",
	"article.job",
	"li.job",
	`div[class*="job"]`,
	`div[class*="listing"]`,
}

type Scraper struct {
	url    string
	client *util.Client
}

func New(url string, client *util.Client) *Scraper {
	return &Scraper{url: url, client: client}
}

func (s *Scraper) Name() string { return "board" }

func (s *Scraper) Fetch(ctx context.Context) (types.Result, error) {
	res, err := s.client.Get(ctx, s.url)
	if err != nil {
		return types.Result{}, fmt.Errorf("board get: %w", err)
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return types.Result{}, fmt.Errorf("board parse html: %w", err)
	}

	base, _ := url.Parse(s.url)

	var raws []types.RawListing
	for _, sel := range jobSelectors {
		doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if len(raws) >= maxJobs {
				return false
			}

			title := cleanText(el.Find(`h2, h3, .title, [class*="title"]`).First().Text())
			if title == "" {
				return true
			}
			company := cleanText(el.Find(`.company, [class*="company"]`).First().Text())

			link := ""
			if href, ok := el.Find("a[href]").First().Attr("href"); ok {
				link = resolveLink(base, href)
			}

			raws = append(raws, types.RawListing{
				Title:   title,
				Company: company,
				URL:     link,
				Source:  domain.SourceGeneric,
			})
			return true
		})

		if len(raws) > 0 {
			break
		}
	}

	return types.Result{Source: s.Name(), Raw: raws}, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
