package model

import "time"

type Platform string

const (
	PlatformTheKnot     Platform = "the_knot"
	PlatformZola        Platform = "zola"
	PlatformJoy         Platform = "joy"
	PlatformMinted      Platform = "minted"
	PlatformWeddingWire Platform = "weddingwire"
	PlatformGeneric     Platform = "generic"
)

type FetchTier int

const (
	TierLightweight FetchTier = iota
	TierBrowser
)

func (t FetchTier) String() string {
	return [...]string{"lightweight", "browser"}[t]
}

// FetchResult is the raw output of one page fetch. HTML is never empty;
// an unavailable page is signaled by fetch.ErrUnavailable, not an empty result.
type FetchResult struct {
	HTML string
	Tier FetchTier
}

// NavLink is a sub-page discovered in the root page navigation. Name is the
// normalized (lowercased) nav label and doubles as the content key for the
// page it yields.
type NavLink struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// PageRef points at a page that exists on the site but is intentionally not
// scraped (photo galleries, registries). Guests get redirected there instead.
type PageRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// PageContent is the cleaned text of one fetched page, keyed by the nav
// label it was discovered under. Order matters: pages keep discovery order.
type PageContent struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// StructuredHints are fields harvested directly from markup or metadata,
// without any LLM involvement. Every field is optional.
type StructuredHints struct {
	CoupleNames     string           `json:"couple_names,omitempty"`
	PageTitle       string           `json:"page_title,omitempty"`
	MainHeading     string           `json:"main_heading,omitempty"`
	WeddingDateText string           `json:"wedding_date_text,omitempty"`
	VenueInfo       string           `json:"venue_info,omitempty"`
	TravelInfo      string           `json:"travel_info,omitempty"`
	ScheduleInfo    string           `json:"schedule_info,omitempty"`
	FAQInfo         string           `json:"faq_info,omitempty"`
	RegistryInfo    string           `json:"registry_info,omitempty"`
	DressCodeInfo   string           `json:"dress_code_info,omitempty"`
	RSVPURL         string           `json:"rsvp_url,omitempty"`
	RegistryLinks   []Link           `json:"registry_links,omitempty"`
	RelevantLinks   []Link           `json:"relevant_links,omitempty"`
	JSONLD          map[string]any   `json:"json_ld,omitempty"`
	EmbeddedState   map[string]any   `json:"embedded_state,omitempty"`
}

// RawScrapeBundle is the aggregate of one scrape, prior to schema mapping.
type RawScrapeBundle struct {
	Platform       Platform        `json:"platform"`
	URL            string          `json:"url"`
	ScrapedAt      time.Time       `json:"scraped_at"`
	PagesScraped   []string        `json:"pages_scraped"`
	PagesAvailable []PageRef       `json:"pages_available,omitempty"`
	Hints          StructuredHints `json:"hints"`
	FullText       string          `json:"full_text"`
}
