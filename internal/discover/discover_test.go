package discover

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteURL = "https://www.zola.com/wedding/jane-and-john"

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestDiscoverFromNav(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<nav>
			<a href="/wedding/jane-and-john">Home</a>
			<a href="/wedding/jane-and-john/travel">Travel</a>
			<a href="/wedding/jane-and-john/q-a">Q + A</a>
			<a href="/wedding/jane-and-john/travel">Travel</a>
			<a href="https://instagram.com/janeandjohn">Instagram</a>
			<a href="#rsvp-modal">RSVP</a>
			<a href="mailto:jane@example.com">Email us</a>
		</nav>
	</body></html>`)

	toScrape, available := Discover(doc, siteURL, model.PlatformZola, 10)

	require.Len(t, toScrape, 2)
	assert.Equal(t, "travel", toScrape[0].Name)
	assert.Equal(t, siteURL+"/travel", toScrape[0].URL)
	assert.Equal(t, "q + a", toScrape[1].Name)
	assert.Empty(t, available)
}

func TestDiscoverSkipsPhotosAndRegistry(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<nav>
			<a href="/wedding/jane-and-john/travel">Travel</a>
			<a href="/wedding/jane-and-john/photos">Photos</a>
			<a href="/wedding/jane-and-john/registry">Registry</a>
			<a href="/wedding/jane-and-john/gallery">Our Gallery</a>
		</nav>
	</body></html>`)

	toScrape, available := Discover(doc, siteURL, model.PlatformZola, 10)

	require.Len(t, toScrape, 1)
	assert.Equal(t, "travel", toScrape[0].Name)

	require.Len(t, available, 3)
	assert.Equal(t, "photos", available[0].Type)
	assert.Equal(t, "registry", available[1].Type)
	assert.Equal(t, "photos", available[2].Type)
	assert.Equal(t, "Photos", available[0].Name)
}

func TestDiscoverCapsSubpages(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><nav>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<a href="/wedding/jane-and-john/page-%d">Page %d</a>`, i, i)
	}
	b.WriteString("</nav></body></html>")
	doc := parseDoc(t, b.String())

	toScrape, _ := Discover(doc, siteURL, model.PlatformZola, 5)
	assert.Len(t, toScrape, 5)
}

func TestDiscoverKeywordFallback(t *testing.T) {
	// No nav element at all; anchors live in the page body.
	doc := parseDoc(t, `<html><body>
		<div class="content">
			<a href="/wedding/jane-and-john/travel">See travel info</a>
			<a href="/wedding/jane-and-john/faq">Questions?</a>
			<a href="/terms">Terms of service</a>
		</div>
	</body></html>`)

	toScrape, _ := Discover(doc, siteURL, model.PlatformZola, 10)

	names := make([]string, 0, len(toScrape))
	for _, link := range toScrape {
		names = append(names, link.Name)
	}
	assert.Contains(t, names, "travel")
	assert.Contains(t, names, "faq")
}

func TestDiscoverKnownPathsFallback(t *testing.T) {
	// Client-side rendered page: no anchors in the markup at all.
	doc := parseDoc(t, `<html><body><div id="root"></div></body></html>`)

	toScrape, available := Discover(doc, "https://www.theknot.com/us/jane-and-john", model.PlatformTheKnot, 10)

	require.NotEmpty(t, toScrape)
	names := make([]string, 0, len(toScrape))
	for _, link := range toScrape {
		names = append(names, link.Name)
	}
	assert.Contains(t, names, "travel")
	assert.Contains(t, names, "q-a")
	assert.NotContains(t, names, "registry")
	assert.NotContains(t, names, "photos")

	types := make([]string, 0, len(available))
	for _, ref := range available {
		types = append(types, ref.Type)
	}
	assert.Contains(t, types, "registry")
	assert.Contains(t, types, "photos")
}

func TestDiscoverGenericSiteWithoutMarkupLinks(t *testing.T) {
	doc := parseDoc(t, `<html><body><div id="root"></div></body></html>`)

	toScrape, available := Discover(doc, "https://janeandjohn2025.com/", model.PlatformGeneric, 10)
	assert.Empty(t, toScrape)
	assert.Empty(t, available)
}
