package assemble

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/model"
)

// genericAssembler covers self-hosted sites and platforms without a
// dedicated parser. It leans on semantic markup and keyword scanning only.
type genericAssembler struct {
	cfg      *config.ScraperConfig
	platform model.Platform
}

var relevantLinkKeywords = []string{"registry", "rsvp", "hotel", "gift", "travel", "accommod"}

func (a *genericAssembler) Assemble(doc *goquery.Document, url string, jsonLD map[string]any,
	pages []model.PageContent, available []model.PageRef) *model.RawScrapeBundle {

	b := newBundle(a.platform, url, pages, available)
	b.Hints.JSONLD = jsonLD

	b.Hints.CoupleNames = coupleHeading(doc)
	if b.Hints.CoupleNames == "" {
		b.Hints.CoupleNames = CoupleFromURL(url)
	}
	b.Hints.PageTitle = strings.TrimSpace(doc.Find("title").First().Text())
	b.Hints.MainHeading = strings.TrimSpace(doc.Find("h1").First().Text())
	b.Hints.WeddingDateText = firstDateText(doc)
	b.Hints.VenueInfo = venueText(doc)

	b.Hints.TravelInfo = sectionByKeywords(doc, []string{"travel", "hotel", "accommodation"}, 3000)
	b.Hints.ScheduleInfo = sectionByKeywords(doc, []string{"schedule", "event", "itinerary"}, 3000)
	b.Hints.FAQInfo = sectionByKeywords(doc, []string{"faq", "question"}, 3000)
	b.Hints.RegistryLinks = registryLinks(doc, []string{"registry", "gift"})
	b.Hints.RSVPURL = rsvpLink(doc)
	b.Hints.RelevantLinks = relevantLinks(doc)

	b.FullText = composeFullText(rootText(doc, 8000), pages, available, fullTextLimit(a.cfg))
	return b
}

// coupleHeading finds the first h1 or h2 that reads like two names.
func coupleHeading(doc *goquery.Document) string {
	var found string
	doc.Find("h1, h2").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) == 0 || len(text) >= 100 {
			return true
		}
		lower := strings.ToLower(text)
		if strings.Contains(text, "&") || strings.Contains(lower, " and ") || strings.Contains(text, " + ") {
			found = text
			return false
		}
		return true
	})
	return found
}

func venueText(doc *goquery.Document) string {
	var found string
	doc.Find(`address, [class*="address"], [class*="location"], [class*="venue"]`).
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := strings.TrimSpace(sel.Text())
			if text != "" {
				found = truncate(text, 500)
				return false
			}
			return true
		})
	return found
}

func relevantLinks(doc *goquery.Document) []model.Link {
	var links []model.Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		haystack := strings.ToLower(href + " " + text)
		for _, kw := range relevantLinkKeywords {
			if strings.Contains(haystack, kw) {
				links = append(links, model.Link{Text: text, URL: href})
				return
			}
		}
	})
	return links
}
