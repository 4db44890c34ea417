// Package remoteok extracts listings from RemoteOK search pages.
package remoteok

import (
	"context"
	"fmt"
	"strings"

	"github.com/conanology/job-tracker/internal/domain"
	"github.com/conanology/job-tracker/internal/scrape/types"
	"github.com/conanology/job-tracker/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

const (
	baseURL   = "https://remoteok.com"
	maxJobs   = 30
	maxSkills = 5
)

type Scraper struct {
	url    string
	client *util.Client
}

func New(url string, client *util.Client) *Scraper {
	return &Scraper{url: url, client: client}
}

func (s *Scraper) Name() string { return "remoteok" }

func (s *Scraper) Fetch(ctx context.Context) (types.Result, error) {
	res, err := s.client.Get(ctx, s.url)
	if err != nil {
		return types.Result{}, fmt.Errorf("remoteok get: %w", err)
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return types.Result{}, fmt.Errorf("remoteok parse html: %w", err)
	}

	var raws []types.RawListing
	doc.Find("tr.job").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if len(raws) >= maxJobs {
			return false
		}
		// featured rows are ads
		if cls, _ := row.Attr("class"); strings.Contains(cls, "featured") {
			return true
		}

		company := cleanText(row.Find("h3").First().Text())
		position := cleanText(row.Find("h2").First().Text())
		if company == "" || position == "" {
			return true
		}

		var skills []string
		row.Find(".tag").EachWithBreak(func(_ int, tag *goquery.Selection) bool {
			if len(skills) >= maxSkills {
				return false
			}
			if t := cleanText(tag.Text()); t != "" {
				skills = append(skills, t)
			}
			return true
		})

		link, _ := row.Attr("data-url")
		link = strings.TrimSpace(link)
		if link != "" && !strings.HasPrefix(link, "http") {
			link = baseURL + link
		}

		raws = append(raws, types.RawListing{
			Title:    position,
			Company:  company,
			Location: "Remote",
			URL:      link,
			Skills:   skills,
			Source:   domain.SourceRemoteOK,
		})
		return true
	})

	return types.Result{Source: s.Name(), Raw: raws}, nil
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
