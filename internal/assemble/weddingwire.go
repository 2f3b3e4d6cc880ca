package assemble

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/model"
)

// WeddingWire sites share The Knot's rendering stack, so the same markup
// hooks apply. The bundle is retagged with the right platform.
type weddingWireAssembler struct {
	cfg *config.ScraperConfig
}

func (a *weddingWireAssembler) Assemble(doc *goquery.Document, url string, jsonLD map[string]any,
	pages []model.PageContent, available []model.PageRef) *model.RawScrapeBundle {

	inner := theKnotAssembler{cfg: a.cfg}
	b := inner.Assemble(doc, url, jsonLD, pages, available)
	b.Platform = model.PlatformWeddingWire
	return b
}
