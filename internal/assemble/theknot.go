package assemble

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/model"
)

// The Knot renders behind bot protection, so by the time markup reaches the
// assembler it came out of the browser tier. Markup hooks here are
// data-testid attributes and the possessive site title.
type theKnotAssembler struct {
	cfg *config.ScraperConfig
}

var possessiveTitleRe = regexp.MustCompile(`^([^']+)'s`)

var theKnotRegistryStores = []string{
	"amazon", "target", "crate", "williams-sonoma", "registry",
	"bloomingdale", "bed bath", "pottery barn", "macy", "zola", "honeyfund",
}

func (a *theKnotAssembler) Assemble(doc *goquery.Document, url string, jsonLD map[string]any,
	pages []model.PageContent, available []model.PageRef) *model.RawScrapeBundle {

	b := newBundle(model.PlatformTheKnot, url, pages, available)
	b.Hints.JSONLD = jsonLD

	b.Hints.CoupleNames = CoupleFromURL(url)
	if b.Hints.CoupleNames == "" {
		b.Hints.CoupleNames = possessiveNames(doc)
	}
	b.Hints.PageTitle = strings.TrimSpace(doc.Find("title").First().Text())
	b.Hints.MainHeading = strings.TrimSpace(doc.Find("h1").First().Text())

	b.Hints.WeddingDateText = strings.TrimSpace(doc.Find(`[data-testid*="date"], [data-testid*="Date"]`).First().Text())
	if b.Hints.WeddingDateText == "" {
		b.Hints.WeddingDateText = firstDateText(doc)
	}

	b.Hints.VenueInfo = sectionByKeywords(doc, []string{"venue", "location", "ceremony", "reception"}, 2000)
	b.Hints.TravelInfo = sectionByKeywords(doc, []string{"travel", "accommodation", "hotel", "stay"}, 3000)
	b.Hints.ScheduleInfo = sectionByKeywords(doc, []string{"schedule", "itinerary", "timeline", "events"}, 3000)
	b.Hints.FAQInfo = sectionByKeywords(doc, []string{"faq", "question"}, 3000)
	b.Hints.RegistryLinks = registryLinks(doc, theKnotRegistryStores)
	b.Hints.RSVPURL = rsvpLink(doc)
	b.Hints.DressCodeInfo = dressCodeText(doc)

	b.FullText = composeFullText(rootText(doc, 6000), pages, available, fullTextLimit(a.cfg))
	return b
}

// possessiveNames reads "Jane & John's Wedding Website" from the h1 or title.
func possessiveNames(doc *goquery.Document) string {
	for _, text := range []string{
		strings.TrimSpace(doc.Find("h1").First().Text()),
		strings.TrimSpace(doc.Find("title").First().Text()),
	} {
		if m := possessiveTitleRe.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func rsvpLink(doc *goquery.Document) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(strings.ToLower(href), "rsvp") ||
			strings.Contains(strings.ToLower(sel.Text()), "rsvp") {
			found = href
			return false
		}
		return true
	})
	return found
}

// dressCodeText grabs a short dress-code mention; anything long is prose the
// extraction pass handles better.
func dressCodeText(doc *goquery.Document) string {
	var found string
	doc.Find("p, div, span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) >= 500 {
			return true
		}
		lower := strings.ToLower(text)
		if strings.Contains(lower, "dress code") || strings.Contains(lower, "attire") {
			found = text
			return false
		}
		return true
	})
	return found
}
