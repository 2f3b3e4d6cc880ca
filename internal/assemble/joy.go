package assemble

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/model"
	jsoniter "github.com/json-iterator/go"
)

// Joy is a Next.js app; page props carry the event data when present.
type joyAssembler struct {
	cfg *config.ScraperConfig
}

func (a *joyAssembler) Assemble(doc *goquery.Document, url string, jsonLD map[string]any,
	pages []model.PageContent, available []model.PageRef) *model.RawScrapeBundle {

	b := newBundle(model.PlatformJoy, url, pages, available)
	b.Hints.JSONLD = jsonLD
	b.Hints.EmbeddedState = joyPageProps(doc)

	b.Hints.CoupleNames = CoupleFromURL(url)
	if b.Hints.CoupleNames == "" {
		b.Hints.CoupleNames = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	b.Hints.PageTitle = strings.TrimSpace(doc.Find("title").First().Text())
	b.Hints.WeddingDateText = firstDateText(doc)

	b.Hints.TravelInfo = sectionByKeywords(doc, []string{"travel", "hotel", "accommodation"}, 3000)
	b.Hints.ScheduleInfo = sectionByKeywords(doc, []string{"schedule", "event"}, 3000)
	b.Hints.RegistryLinks = registryLinks(doc, []string{"registry", "gift"})
	b.Hints.RSVPURL = rsvpLink(doc)

	b.FullText = composeFullText(rootText(doc, 8000), pages, available, fullTextLimit(a.cfg))
	return b
}

// joyPageProps narrows __NEXT_DATA__ to props.pageProps, the part that holds
// the event payload. The whole blob is kept if the shape is unexpected.
func joyPageProps(doc *goquery.Document) map[string]any {
	raw := strings.TrimSpace(doc.Find(`script#__NEXT_DATA__`).First().Text())
	if raw == "" {
		return nil
	}
	var parsed map[string]any
	if err := jsoniter.UnmarshalFromString(raw, &parsed); err != nil {
		return nil
	}
	if props, ok := parsed["props"].(map[string]any); ok {
		if pageProps, ok := props["pageProps"].(map[string]any); ok {
			return pageProps
		}
	}
	return parsed
}
