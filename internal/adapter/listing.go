package adapter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/odishajobs/internal/classify"
	"github.com/amishk599/odishajobs/internal/model"
)

// Selectors locates postings on a listing page. Title, Link and PDF are
// evaluated relative to each Listing element.
type Selectors struct {
	Listing string
	Title   string
	Link    string
	PDF     string // optional
}

// DefaultRenderedSelectors matches commission portals that render their
// recruitment table client-side.
var DefaultRenderedSelectors = Selectors{
	Listing: ".job-listing",
	Title:   ".job-title",
	Link:    "a",
	PDF:     ".pdf-link",
}

// DefaultStaticSelectors matches server-rendered notification boards.
var DefaultStaticSelectors = Selectors{
	Listing: ".notification-item",
	Title:   "h3",
	Link:    "a",
}

// WithDefaults fills empty selector fields from def.
func (s Selectors) WithDefaults(def Selectors) Selectors {
	if s.Listing == "" {
		s.Listing = def.Listing
	}
	if s.Title == "" {
		s.Title = def.Title
	}
	if s.Link == "" {
		s.Link = def.Link
	}
	if s.PDF == "" {
		s.PDF = def.PDF
	}
	return s
}

// Source identifies the portal a listing belongs to.
type Source struct {
	Name         string
	Organization string
	Selectors    Selectors
}

// parseListing extracts candidates from a parsed listing page. Elements
// without a title or a link are skipped.
func parseListing(doc *goquery.Document, pageURL string, src Source) []model.Candidate {
	candidates := make([]model.Candidate, 0)
	doc.Find(src.Selectors.Listing).Each(func(_ int, el *goquery.Selection) {
		title := cleanText(el.Find(src.Selectors.Title).First().Text())
		href, _ := el.Find(src.Selectors.Link).First().Attr("href")
		link := resolveURL(pageURL, href)
		if title == "" || link == "" {
			return
		}

		c := model.Candidate{
			Title:           title,
			Organization:    src.Organization,
			SourceName:      src.Name,
			NotificationURL: link,
			Category:        classify.Categorize(title),
		}
		if src.Selectors.PDF != "" {
			if pdfHref, ok := el.Find(src.Selectors.PDF).First().Attr("href"); ok {
				c.PDFURL = resolveURL(pageURL, pdfHref)
			}
		}
		candidates = append(candidates, c)
	})
	return candidates
}

// resolveURL returns href as an absolute http(s) URL. Relative references are
// resolved against the origin of pageURL. Returns "" for empty or non-web links.
func resolveURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	abs := origin.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
