package discover

import (
	"log/slog"
	netUrl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/internal/model"
)

const maxNavTextLen = 50

// navSelectors cover explicit nav/header elements plus the class and role
// conventions site builders actually use.
var navSelectors = []string{
	"nav", "header",
	"[class*=nav]", "[class*=Nav]",
	"[class*=menu]", "[class*=Menu]",
	"[role=navigation]",
	"[class*=header]", "[class*=Header]",
}

var subpageKeywords = []string{
	"q-a", "qa", "faq", "travel", "things-to-do", "registry",
	"rsvp", "schedule", "story", "photos", "party", "details",
	"accommodations", "hotels", "wedding-party", "our-story",
	"events", "ceremony", "reception", "welcome",
}

// Pages matched by these labels are recorded but never fetched; guests get
// pointed at them directly instead of us scraping image galleries and
// embedded storefronts.
var skipKeywords = []string{"photos", "photo", "gallery", "registry", "gift", "gifts"}

var knownSections = map[model.Platform][]string{
	model.PlatformTheKnot:     {"travel", "q-a", "schedule", "registry", "rsvp", "party", "photos"},
	model.PlatformZola:        {"travel", "faq", "schedule", "registry"},
	model.PlatformJoy:         {"travel", "faq", "schedule", "registry", "story"},
	model.PlatformWeddingWire: {"events", "travel", "accommodations", "q-a", "schedule", "registry"},
}

// Discover finds the sub-pages of a wedding site from its root markup and
// splits them into pages to fetch and pages to only note as available.
// Navigation is often rendered client-side; when nav scanning finds nothing
// it falls back to keyword-matched anchors and then to the platform's
// conventional paths.
func Discover(doc *goquery.Document, baseURL string, p model.Platform, maxSubpages int) ([]model.NavLink, []model.PageRef) {
	if maxSubpages <= 0 {
		maxSubpages = 10
	}

	links := NavLinks(doc, baseURL, maxSubpages)
	if len(links) == 0 {
		slog.Info("nav-based discovery found no links, trying keyword fallback.")
		links = keywordLinks(doc, baseURL, maxSubpages)
	}
	if len(links) == 0 && p != model.PlatformGeneric {
		slog.Info("no subpages detected in markup, using known platform paths.",
			slog.String("platform", string(p)))
		links = knownLinks(baseURL, p)
	}

	toScrape := make([]model.NavLink, 0, len(links))
	var available []model.PageRef
	for _, link := range links {
		if skip, pageType := shouldSkip(link.Name); skip {
			available = append(available, model.PageRef{
				Name: link.DisplayName,
				URL:  link.URL,
				Type: pageType,
			})
			slog.Debug("page recorded as available, not scraped.",
				slog.String("name", link.DisplayName), slog.String("url", link.URL))
			continue
		}
		toScrape = append(toScrape, link)
	}

	return toScrape, available
}

// NavLinks scans navigation elements for same-site sub-page anchors,
// deduplicated by url in discovery order, capped at maxSubpages.
func NavLinks(doc *goquery.Document, baseURL string, maxSubpages int) []model.NavLink {
	base, err := netUrl.Parse(baseURL)
	if err != nil {
		return nil
	}
	basePath := strings.TrimRight(base.Path, "/")

	var links []model.NavLink
	seen := make(map[string]struct{})

	for _, selector := range navSelectors {
		doc.Find(selector).Each(func(_ int, nav *goquery.Selection) {
			nav.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				text := strings.TrimSpace(a.Text())
				if text == "" || len(text) > maxNavTextLen {
					return
				}
				href, _ := a.Attr("href")
				full, ok := absoluteSameSite(base, href)
				if !ok {
					return
				}
				fullPath := strings.TrimRight(full.Path, "/")
				if fullPath == basePath || fullPath == "" {
					return // home page
				}
				if !strings.HasPrefix(fullPath, basePath) && !strings.Contains(fullPath, basePath) {
					return
				}
				if _, dup := seen[full.String()]; dup {
					return
				}
				seen[full.String()] = struct{}{}
				links = append(links, model.NavLink{
					URL:         full.String(),
					Name:        strings.ToLower(text),
					DisplayName: text,
				})
			})
		})
	}

	if len(links) > maxSubpages {
		links = links[:maxSubpages]
	}
	slog.Debug("nav-based discovery finished.", slog.Int("links", len(links)))
	return links
}

// keywordLinks matches anchors anywhere on the page whose path carries a
// conventional wedding-site section keyword.
func keywordLinks(doc *goquery.Document, baseURL string, maxSubpages int) []model.NavLink {
	base, err := netUrl.Parse(baseURL)
	if err != nil {
		return nil
	}
	basePath := strings.TrimRight(strings.ToLower(base.Path), "/")

	var links []model.NavLink
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		full, ok := absoluteSameSite(base, href)
		if !ok {
			return
		}
		if _, dup := seen[full.String()]; dup {
			return
		}
		fullPath := strings.ToLower(full.Path)
		trimmed := strings.TrimRight(fullPath, "/")
		matched := strings.HasPrefix(trimmed, basePath) && trimmed != basePath && basePath != ""
		if !matched {
			for _, kw := range subpageKeywords {
				if strings.Contains(fullPath, kw) {
					matched = true
					break
				}
			}
		}
		if !matched || full.String() == baseURL {
			return
		}
		seen[full.String()] = struct{}{}
		links = append(links, model.NavLink{
			URL:         full.String(),
			Name:        pathName(full),
			DisplayName: pathName(full),
		})
	})

	if len(links) > maxSubpages {
		links = links[:maxSubpages]
	}
	return links
}

// knownLinks guesses the platform's conventional section paths.
func knownLinks(baseURL string, p model.Platform) []model.NavLink {
	sections, ok := knownSections[p]
	if !ok {
		return nil
	}
	base := strings.TrimRight(baseURL, "/")
	links := make([]model.NavLink, 0, len(sections))
	for _, section := range sections {
		links = append(links, model.NavLink{
			URL:         base + "/" + section,
			Name:        section,
			DisplayName: section,
		})
	}
	return links
}

func shouldSkip(name string) (bool, string) {
	lower := strings.ToLower(name)
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			if strings.Contains(lower, "photo") || strings.Contains(lower, "gallery") {
				return true, "photos"
			}
			return true, "registry"
		}
	}
	return false, ""
}

// absoluteSameSite resolves href against base and keeps only same-host
// http(s) links.
func absoluteSameSite(base *netUrl.URL, href string) (*netUrl.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") {
		return nil, false
	}
	full, err := base.Parse(href)
	if err != nil {
		return nil, false
	}
	if full.Hostname() != base.Hostname() {
		return nil, false
	}
	full.Fragment = ""
	return full, true
}

func pathName(u *netUrl.URL) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	name := segments[len(segments)-1]
	if name == "" {
		return "subpage"
	}
	return name
}
