package alerts

import (
	"io"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"github.com/conanology/job-tracker/internal/domain"
	"github.com/conanology/job-tracker/internal/scrape/types"

	"github.com/PuerkitoBio/goquery"
)

var reJobID = regexp.MustCompile(`/jobs/view/(\d+)`)

// ParseAlert extracts listings from one alert email. LinkedIn digests carry
// many anchors per job (logo, title, card); anchors are merged by job id so
// a logo anchor seen first cannot shadow the titled one.
func ParseAlert(raw []byte) []types.RawListing {
	body := htmlBody(raw)
	if body == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	type card struct {
		raw types.RawListing
	}
	byID := map[string]*card{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		lh := strings.ToLower(href)
		if href == "" || !strings.Contains(lh, "linkedin.com") {
			return
		}
		if !strings.Contains(lh, "/jobs/view/") && !strings.Contains(lh, "/comm/jobs/view/") {
			return
		}

		jobURL := unwrapRedirect(href)
		key := jobURL
		if m := reJobID.FindStringSubmatch(jobURL); len(m) == 2 {
			key = "linkedin:" + m[1]
		}

		c, ok := byID[key]
		if !ok {
			c = &card{raw: types.RawListing{
				URL:    jobURL,
				Source: domain.SourceEmailAlert,
			}}
			byID[key] = c
			order = append(order, key)
		}

		if t := cleanText(a.Text()); betterTitle(t, c.raw.Title) {
			c.raw.Title = t
		}

		// company and location live in a nearby "Company · Location" <p>
		container := a.Closest("tr")
		if container.Length() == 0 {
			container = a.Parent()
		}
		container.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := cleanText(p.Text())
			if c.raw.Company == "" && strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				c.raw.Company = strings.TrimSpace(parts[0])
				c.raw.Location = strings.TrimSpace(parts[1])
			}
		})
	})

	out := make([]types.RawListing, 0, len(byID))
	for _, key := range order {
		c := byID[key]
		if c.raw.Title == "" {
			continue
		}
		out = append(out, c.raw)
	}
	return out
}

// IsAlertSender reports whether a From address looks like a job-alert
// notification sender.
func IsAlertSender(from string) bool {
	lf := strings.ToLower(from)
	return strings.Contains(lf, "linkedin.com") || strings.Contains(lf, "jobalerts")
}

func htmlBody(raw []byte) string {
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		// not a full message; assume the bytes already are the body
		return string(raw)
	}
	b, err := io.ReadAll(msg.Body)
	if err != nil {
		return ""
	}
	return string(b)
}

func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}
	return href
}

func betterTitle(cand, cur string) bool {
	if cand == "" {
		return false
	}
	l := strings.ToLower(cand)
	if strings.Contains(l, "view job") || strings.Contains(l, "see all") || l == "apply" {
		return false
	}
	return len(cand) > len(cur)
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
