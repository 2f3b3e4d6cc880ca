package extract

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/config"
	"golang.org/x/net/html"
)

// Elements that are structurally never primary content. Registry and gift
// widgets are stripped unconditionally: several platforms render a
// persistent registry sidebar that pollutes generic text extraction.
var stripSelectors = []string{
	"[data-testid*=registry]",
	"[class*=registry]", "[class*=Registry]",
	"[class*=sidebar]", "[class*=Sidebar]",
	"[class*=gift-list]", "[class*=GiftList]",
	"[class*=wishlist]", "[class*=WishList]",
	"aside",
	"[role=complementary]",
	"footer",
	"[class*=footer]", "[class*=Footer]",
	"[class*=cookie]", "[class*=Cookie]",
	"[class*=consent]", "[class*=Consent]",
	"[class*=modal]", "[class*=Modal]",
	"[class*=popup]", "[class*=Popup]",
	"script", "style", "noscript",
}

var travelKeywords = []string{
	"travel", "hotel", "accommod", "stay", "lodging", "where to stay",
	"room block", "book your room", "reserv", "check-in", "check-out",
	"courtyard", "marriott", "hilton", "hyatt", "inn", "suites",
}

var registryIndicators = []string{
	"needs 1 of", "shop registry", "gift providers",
	"our wish list", "filter/sort", "price low to high",
	"price high to low", "cash fund", "honeymoon fund",
	"gift any amount", "purchased", "add to cart",
	"target™", "threshold™", "brightroom™", "amazon.com",
}

var (
	phoneRe     = regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.]?\d{4}`)
	addressRe   = regexp.MustCompile(`\d+\s+\w+\s+(st|street|ave|avenue|blvd|boulevard|rd|road|dr|drive|ln|lane)\b`)
	iconLineRe  = regexp.MustCompile(`^[a-z_]+$`)
	numericRe   = regexp.MustCompile(`^[\d\s]+$`)
	priceLineRe = regexp.MustCompile(`^\$[\d,]+\.?\d*$`)
)

const (
	travelScoreThreshold = 8
	minSectionLen        = 100
	maxSectionLen        = 10000
)

// Content extracts the usable text of one fetched page, keyed by the nav
// label it was discovered under. Output never exceeds the configured cap.
func Content(pageHTML, navName string, cfg *config.ScraperConfig) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", err
	}
	for _, sel := range stripSelectors {
		doc.Find(sel).Remove()
	}

	name := strings.ToLower(navName)
	switch {
	case IsTravelPage(name):
		if text := travelContent(doc, cfg); text != "" {
			return text, nil
		}
	case isQAPage(name):
		if text := qaContent(doc, cfg); text != "" {
			return text, nil
		}
	}

	return genericContent(doc, cfg), nil
}

// IsTravelPage reports whether a nav label denotes a travel or
// accommodation page.
func IsTravelPage(name string) bool {
	for _, kw := range []string{"travel", "accommodations", "hotels"} {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

func isQAPage(name string) bool {
	for _, kw := range []string{"q-a", "qa", "faq"} {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

type scoredSection struct {
	score int
	text  string
}

// travelContent collects every section scoring like hotel content, not just
// the best one: travel pages routinely list several hotels in separate
// sections and all of them matter.
func travelContent(doc *goquery.Document, cfg *config.ScraperConfig) string {
	var sections []scoredSection
	seen := make(map[string]struct{})

	doc.Find("main, article, section, div").Each(func(_ int, sel *goquery.Selection) {
		text := textLines(sel)
		flat := strings.ToLower(strings.Join(strings.Fields(text), " "))
		if len(flat) < minSectionLen || len(flat) > maxSectionLen {
			return
		}
		for _, indicator := range []string{"needs 1 of", "add to cart", "shop registry", "our wish list"} {
			if strings.Contains(flat, indicator) {
				return
			}
		}

		score := 0
		prefix := flat
		if len(prefix) > 2000 {
			prefix = prefix[:2000]
		}
		for _, kw := range travelKeywords {
			if strings.Contains(prefix, kw) {
				score++
			}
		}
		if phoneRe.MatchString(text) {
			score += 5
		}
		if addressRe.MatchString(flat) {
			score += 5
		}
		if strings.Contains(flat, "check-in") && strings.Contains(flat, "check-out") {
			score += 10
		}
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		classAndID := strings.ToLower(class + " " + id)
		for _, kw := range []string{"travel", "hotel", "accommod"} {
			if strings.Contains(classAndID, kw) {
				score += 3
				break
			}
		}

		if score < travelScoreThreshold {
			return
		}
		fingerprint := flat
		if len(fingerprint) > 100 {
			fingerprint = fingerprint[:100]
		}
		if _, dup := seen[fingerprint]; dup {
			return
		}
		seen[fingerprint] = struct{}{}
		sections = append(sections, scoredSection{score: score, text: text})
	})

	if len(sections) == 0 {
		return ""
	}
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].score > sections[j].score })
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.text
	}
	slog.Debug("travel sections combined.", slog.Int("sections", len(sections)))
	return truncate(CleanText(strings.Join(parts, "\n\n")), cfg.TravelTextLimit)
}

// qaContent gathers definition-list style and FAQ-labeled elements directly.
func qaContent(doc *goquery.Document, cfg *config.ScraperConfig) string {
	var parts []string
	seen := make(map[string]struct{})

	add := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		parts = append(parts, text)
	}

	doc.Find("details, summary, dt, dd").Each(func(_ int, sel *goquery.Selection) {
		add(textLines(sel))
	})
	for _, selector := range []string{
		"[class*=faq]", "[class*=Faq]",
		"[class*=question]", "[class*=Question]",
		"[class*=answer]", "[class*=Answer]",
	} {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			add(textLines(sel))
		})
	}

	if len(parts) == 0 {
		return ""
	}
	return truncate(CleanText(strings.Join(parts, "\n")), cfg.PageTextLimit)
}

// genericContent prefers the main content area, falling back to the whole
// page.
func genericContent(doc *goquery.Document, cfg *config.ScraperConfig) string {
	sel := doc.Find("main")
	if sel.Length() == 0 {
		sel = doc.Find("[role=main]")
	}
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	return truncate(CleanText(textLines(sel)), cfg.PageTextLimit)
}

// CleanText drops noise lines: iconography tokens, cookie and privacy
// boilerplate, bare numbers, registry and e-commerce phrases, lone prices.
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
outer:
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 3 {
			continue
		}
		if len(line) < 30 && iconLineRe.MatchString(line) {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "cookie") && len(line) > 100 {
			continue
		}
		if strings.Contains(lower, "privacy") && strings.Contains(lower, "choices") {
			continue
		}
		if numericRe.MatchString(line) {
			continue
		}
		for _, indicator := range registryIndicators {
			if strings.Contains(lower, indicator) {
				continue outer
			}
		}
		if priceLineRe.MatchString(line) {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.Join(cleaned, "\n")
}

// textLines renders the selection's text with one line per text node, the
// shape the line cleaner expects.
func textLines(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(text string, limit int) string {
	if limit > 0 && len(text) > limit {
		return text[:limit]
	}
	return text
}
