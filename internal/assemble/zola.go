package assemble

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/model"
	jsoniter "github.com/json-iterator/go"
)

// Zola ships its content in a serialized redux/next state blob. The blob is
// captured whole under embedded_state so the mapper can mine it; markup
// parsing is the fallback for themes that render server side.
type zolaAssembler struct {
	cfg *config.ScraperConfig
}

var preloadedStateRe = regexp.MustCompile(`window\.__PRELOADED_STATE__\s*=\s*(\{.*?\});?\s*(?:</script>|window\.|$)`)

func (a *zolaAssembler) Assemble(doc *goquery.Document, url string, jsonLD map[string]any,
	pages []model.PageContent, available []model.PageRef) *model.RawScrapeBundle {

	b := newBundle(model.PlatformZola, url, pages, available)
	b.Hints.JSONLD = jsonLD
	b.Hints.EmbeddedState = embeddedState(doc)

	b.Hints.CoupleNames = CoupleFromURL(url)
	if b.Hints.CoupleNames == "" {
		b.Hints.CoupleNames = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	b.Hints.PageTitle = strings.TrimSpace(doc.Find("title").First().Text())
	b.Hints.WeddingDateText = firstDateText(doc)

	b.Hints.TravelInfo = sectionByKeywords(doc, []string{"hotel", "accommodation", "stay", "travel"}, 3000)
	b.Hints.ScheduleInfo = sectionByKeywords(doc, []string{"schedule", "event", "itinerary"}, 3000)
	b.Hints.RegistryInfo = sectionByKeywords(doc, []string{"registry", "gift"}, 2000)
	b.Hints.RegistryLinks = registryLinks(doc, []string{"registry", "zola.com/registry"})
	b.Hints.RSVPURL = rsvpLink(doc)

	b.FullText = composeFullText(rootText(doc, 8000), pages, available, fullTextLimit(a.cfg))
	return b
}

// embeddedState pulls __PRELOADED_STATE__ or __NEXT_DATA__ out of inline
// scripts. Either may be absent or unparseable; both cases yield nil.
func embeddedState(doc *goquery.Document) map[string]any {
	var state map[string]any

	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := sel.Text()
		m := preloadedStateRe.FindStringSubmatch(raw)
		if m == nil {
			return true
		}
		var parsed map[string]any
		if err := jsoniter.UnmarshalFromString(m[1], &parsed); err == nil {
			state = parsed
			return false
		}
		return true
	})
	if state != nil {
		return state
	}

	raw := strings.TrimSpace(doc.Find(`script#__NEXT_DATA__`).First().Text())
	if raw == "" {
		return nil
	}
	var parsed map[string]any
	if err := jsoniter.UnmarshalFromString(raw, &parsed); err != nil {
		return nil
	}
	return parsed
}
