package assemble

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/extract"
	"github.com/bkolar18/wedding-scraper/internal/model"
	jsoniter "github.com/json-iterator/go"
)

// Assembler composes one platform's raw bundle from the root markup, the
// per-page cleaned text, and whatever structured hints the markup carried.
// Hints are opportunistic; any of them may be absent.
type Assembler interface {
	Assemble(doc *goquery.Document, url string, jsonLD map[string]any,
		pages []model.PageContent, available []model.PageRef) *model.RawScrapeBundle
}

// For picks the assembler for a platform. Minted sites have no dedicated
// parser and go through the generic one.
func For(p model.Platform, cfg *config.ScraperConfig) Assembler {
	switch p {
	case model.PlatformTheKnot:
		return &theKnotAssembler{cfg: cfg}
	case model.PlatformZola:
		return &zolaAssembler{cfg: cfg}
	case model.PlatformJoy:
		return &joyAssembler{cfg: cfg}
	case model.PlatformWeddingWire:
		return &weddingWireAssembler{cfg: cfg}
	default:
		return &genericAssembler{cfg: cfg, platform: p}
	}
}

// Full-text ordering: travel and Q&A content first, because the downstream
// extraction truncates by character count and must not lose the hotels.
var priorityPages = []string{"travel", "accommodations", "hotels", "q-a", "faq"}

var datePatternRe = regexp.MustCompile(`(\w+\s+\d{1,2},?\s+\d{4}|\d{1,2}/\d{1,2}/\d{4})`)

var coupleURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/us/([a-z]+)-and-([a-z]+)`),
	regexp.MustCompile(`/wedding/([a-z]+)-([a-z]+)`),
	regexp.MustCompile(`/([a-z]+)-and-([a-z]+)`),
	regexp.MustCompile(`/([a-z]+)-([a-z]+)-wedding`),
}

// ExtractJSONLD merges every ld+json script on the page into one map.
func ExtractJSONLD(doc *goquery.Document) map[string]any {
	merged := make(map[string]any)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		var single map[string]any
		if err := jsoniter.UnmarshalFromString(raw, &single); err == nil {
			for k, v := range single {
				merged[k] = v
			}
			return
		}
		var list []map[string]any
		if err := jsoniter.UnmarshalFromString(raw, &list); err == nil {
			for _, item := range list {
				for k, v := range item {
					merged[k] = v
				}
			}
		}
	})
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// CoupleFromURL recovers "Jane & John" from vanity url paths like
// /us/jane-and-john.
func CoupleFromURL(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, re := range coupleURLPatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			return titleCase(m[1]) + " & " + titleCase(m[2])
		}
	}
	return ""
}

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

// firstDateText finds the first short element carrying a date-shaped string.
// Long paragraphs are skipped; dates buried in prose are the mapper's job.
func firstDateText(doc *goquery.Document) string {
	var found string
	doc.Find("p, div, span, h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) >= 100 {
			return true
		}
		if m := datePatternRe.FindString(text); m != "" {
			found = m
			return false
		}
		return true
	})
	return found
}

// sectionByKeywords returns the first section whose class, id, or leading
// text mentions one of the keywords.
func sectionByKeywords(doc *goquery.Document, keywords []string, limit int) string {
	var found string
	doc.Find("section, div, article").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		haystack := strings.ToLower(class + " " + id)
		text := sectionText(sel)
		lowerText := strings.ToLower(text)
		if len(lowerText) > 200 {
			lowerText = lowerText[:200]
		}
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) || strings.Contains(lowerText, kw) {
				found = truncate(text, limit)
				return false
			}
		}
		return true
	})
	return found
}

func sectionText(sel *goquery.Selection) string {
	lines := strings.Fields(strings.ReplaceAll(sel.Text(), "\n", " \n "))
	return strings.TrimSpace(strings.Join(lines, " "))
}

// registryLinks collects anchors pointing at gift registries.
func registryLinks(doc *goquery.Document, needles []string) []model.Link {
	var links []model.Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		lowerHref := strings.ToLower(href)
		lowerText := strings.ToLower(text)
		for _, needle := range needles {
			if strings.Contains(lowerHref, needle) || strings.Contains(lowerText, needle) {
				links = append(links, model.Link{Text: text, URL: href})
				return
			}
		}
	})
	return links
}

// composeFullText builds the single bounded blob handed to extraction:
// cleaned root text, then priority sub-pages, then the rest, then a note
// pointing guests at the pages that were deliberately not scraped.
func composeFullText(rootText string, pages []model.PageContent, available []model.PageRef, limit int) string {
	var b strings.Builder
	b.WriteString(rootText)

	used := make(map[string]bool, len(pages))
	appendPage := func(p model.PageContent) {
		fmt.Fprintf(&b, "\n\n=== %s PAGE ===\n%s", strings.ToUpper(p.Name), p.Text)
		used[p.Name] = true
	}
	for _, prio := range priorityPages {
		for _, p := range pages {
			if p.Name == prio && !used[p.Name] {
				appendPage(p)
			}
		}
	}
	for _, p := range pages {
		if !used[p.Name] {
			appendPage(p)
		}
	}

	if len(available) > 0 {
		b.WriteString("\n\n=== PAGES TO REDIRECT GUESTS TO ===\n")
		b.WriteString("The following pages are available on the couple's wedding website. ")
		b.WriteString("Direct guests to visit these URLs to view this content:\n")
		for _, ref := range available {
			fmt.Fprintf(&b, "- %s: %s\n", ref.Name, ref.URL)
		}
	}

	return truncate(b.String(), limit)
}

func pagesScraped(pages []model.PageContent) []string {
	names := make([]string, 0, len(pages)+1)
	names = append(names, "home")
	for _, p := range pages {
		names = append(names, p.Name)
	}
	return names
}

func newBundle(p model.Platform, url string, pages []model.PageContent, available []model.PageRef) *model.RawScrapeBundle {
	return &model.RawScrapeBundle{
		Platform:       p,
		URL:            url,
		ScrapedAt:      time.Now().UTC(),
		PagesScraped:   pagesScraped(pages),
		PagesAvailable: available,
	}
}

func rootText(doc *goquery.Document, limit int) string {
	return truncate(extract.CleanText(docTextLines(doc)), limit)
}

// docTextLines flattens the document into one line per text block.
func docTextLines(doc *goquery.Document) string {
	var parts []string
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 {
			return
		}
		if goquery.NodeName(sel) == "script" || goquery.NodeName(sel) == "style" {
			return
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(parts, "\n")
}

const defaultFullTextLimit = 20000

// fullTextLimit reads the configured ceiling for the composed blob.
func fullTextLimit(cfg *config.ScraperConfig) int {
	if cfg == nil || cfg.FullTextLimit <= 0 {
		return defaultFullTextLimit
	}
	return cfg.FullTextLimit
}

func truncate(text string, limit int) string {
	if limit > 0 && len(text) > limit {
		return text[:limit]
	}
	return text
}
