package extract

import (
	"strings"
	"testing"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scraperConfig() *config.ScraperConfig {
	return &config.ScraperConfig{
		PageTextLimit:   5000,
		TravelTextLimit: 8000,
		FullTextLimit:   20000,
	}
}

const hotelSection = `
	<section class="travel-info">
		<h2>Where to Stay</h2>
		<p>We reserved a room block at the Courtyard Marriott for our wedding weekend.
		Use code SMITHDOE for the group rate. Hotel check-in is at 3pm and check-out
		is at 11am on Sunday.</p>
		<p>123 Main Street, Springfield</p>
		<p>(555) 123-4567</p>
	</section>`

const secondHotelSection = `
	<section class="hotel-option">
		<h2>Hilton Garden Inn</h2>
		<p>A second hotel option near the reception venue with a room block under
		the Smith-Doe wedding. Book your room before May 1st for the group rate.
		Check-in from 4pm, check-out by noon. Breakfast included for guests.</p>
		<p>456 Oak Avenue, Springfield</p>
		<p>(555) 987-6543</p>
	</section>`

func TestContentTravelPageCollectsAllHotels(t *testing.T) {
	html := "<html><body>" + hotelSection + secondHotelSection + "</body></html>"

	text, err := Content(html, "travel", scraperConfig())
	require.NoError(t, err)

	assert.Contains(t, text, "Courtyard Marriott")
	assert.Contains(t, text, "Hilton Garden Inn")
	assert.Contains(t, text, "(555) 123-4567")
	assert.Contains(t, text, "(555) 987-6543")
}

func TestContentTravelPageFallsBackWhenNothingScores(t *testing.T) {
	html := `<html><body><main>
		<p>We cannot wait to celebrate with you in Springfield next June!
		More details about the weekend are coming soon, so check back here.</p>
	</main></body></html>`

	text, err := Content(html, "travel", scraperConfig())
	require.NoError(t, err)
	assert.Contains(t, text, "celebrate with you in Springfield")
}

func TestContentQAPage(t *testing.T) {
	html := `<html><body>
		<details>
			<summary>What should I wear?</summary>
			<p>Cocktail attire, please.</p>
		</details>
		<div class="faq-item">
			<div class="question">Can I bring a plus one?</div>
			<div class="answer">Please check your invitation for your party size.</div>
		</div>
	</body></html>`

	text, err := Content(html, "q-a", scraperConfig())
	require.NoError(t, err)
	assert.Contains(t, text, "What should I wear?")
	assert.Contains(t, text, "Cocktail attire, please.")
	assert.Contains(t, text, "Can I bring a plus one?")
}

func TestContentStripsRegistryWidgets(t *testing.T) {
	html := `<html><body><main>
		<p>Join us for our wedding celebration on June 15th at the Grand Hotel
		in downtown Springfield. Dinner and dancing to follow the ceremony.</p>
		<div class="registry-sidebar">
			<p>KitchenAid Mixer needs 1 of 1</p>
			<p>Add to Cart</p>
		</div>
	</main></body></html>`

	text, err := Content(html, "details", scraperConfig())
	require.NoError(t, err)
	assert.Contains(t, text, "Grand Hotel")
	assert.NotContains(t, text, "KitchenAid")
}

func TestContentRespectsCap(t *testing.T) {
	cfg := scraperConfig()
	cfg.PageTextLimit = 200

	html := "<html><body><main><p>" +
		strings.Repeat("The celebration continues with music and dancing. ", 50) +
		"</p></main></body></html>"

	text, err := Content(html, "schedule", cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(text), 200)
}

func TestCleanText(t *testing.T) {
	input := strings.Join([]string{
		"Welcome to our wedding website",
		"chevron_down",
		"12 34",
		"$1,299.99",
		"Needs 1 of 2 purchased from our wish list",
		"We are so excited to see you",
		"ab",
	}, "\n")

	got := CleanText(input)

	assert.Contains(t, got, "Welcome to our wedding website")
	assert.Contains(t, got, "We are so excited to see you")
	assert.NotContains(t, got, "chevron_down")
	assert.NotContains(t, got, "12 34")
	assert.NotContains(t, got, "$1,299.99")
	assert.NotContains(t, got, "wish list")
	assert.NotContains(t, got, "ab")
}

func TestIsTravelPage(t *testing.T) {
	assert.True(t, IsTravelPage("travel"))
	assert.True(t, IsTravelPage("hotels"))
	assert.True(t, IsTravelPage("travel & accommodations"))
	assert.False(t, IsTravelPage("our story"))
	assert.False(t, IsTravelPage("schedule"))
}
