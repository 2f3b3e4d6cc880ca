package scraper

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/fetch"
	"github.com/bkolar18/wedding-scraper/internal/mapper"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/bkolar18/wedding-scraper/internal/urlcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homePage = `<html><head><title>Jane &amp; John's Wedding</title></head><body>
	<h1>Jane &amp; John</h1>
	<p>June 15, 2025</p>
	<nav>
		<a href="/wedding/jane-john/travel">Travel</a>
		<a href="/wedding/jane-john/registry">Registry</a>
	</nav>
	<main><p>` + loremWedding + `</p></main>
</body></html>`

const travelPage = `<html><body>
	<section class="travel-info">
		<h2>Where to Stay</h2>
		<p>We reserved a room block at the Courtyard Marriott hotel. Check-in is at
		3pm, check-out at 11am. Book your room with code SMITHDOE for the rate.</p>
		<p>123 Main Street, Springfield</p>
		<p>(555) 123-4567</p>
	</section>
</body></html>`

const loremWedding = "We are so excited to celebrate our wedding with all of our " +
	"favorite people next summer in Springfield. The ceremony starts at four in " +
	"the afternoon, with dinner and dancing to follow at the Grand Hotel ballroom. " +
	"Please find travel details, schedule information, and answers to common " +
	"questions on the pages of this site. We cannot wait to see you there!"

type stubSession struct {
	pages  map[string]string
	closed bool
	calls  []string
}

func (s *stubSession) Fetch(_ context.Context, url string, _ fetch.PageHint) (*model.FetchResult, error) {
	s.calls = append(s.calls, url)
	html, ok := s.pages[url]
	if !ok {
		return nil, fetch.ErrUnavailable
	}
	return &model.FetchResult{HTML: html, Tier: model.TierLightweight}, nil
}

func (s *stubSession) Close() { s.closed = true }

type stubLLM struct {
	record *model.WeddingRecord
}

func (s *stubLLM) Extract(_ context.Context, _ string) (*model.WeddingRecord, error) {
	return s.record, nil
}

type memoryCache struct {
	bundles map[string]*model.RawScrapeBundle
}

func (m *memoryCache) GetBundle(url string) (*model.RawScrapeBundle, bool) {
	b, ok := m.bundles[url]
	return b, ok
}

func (m *memoryCache) SaveBundle(url string, b *model.RawScrapeBundle, _ bool) {
	m.bundles[url] = b
}

func (m *memoryCache) Close() {}

type stubArchiver struct {
	keys []string
}

func (a *stubArchiver) WriteBundle(b *model.RawScrapeBundle) (string, error) {
	key := "bundles/test/" + string(b.Platform) + "/bundle.json"
	a.keys = append(a.keys, key)
	return key, nil
}

type staticResolver struct{}

func (staticResolver) LookupIP(_ context.Context, _, _ string) ([]net.IP, error) {
	return []net.IP{net.ParseIP("151.101.1.195")}, nil
}

func testService(t *testing.T, sess *stubSession, bundleCache *memoryCache,
	archiver *stubArchiver) *Service {
	t.Helper()
	cfg := &config.Config{
		ScraperSettings: &config.ScraperConfig{
			MaxSubpages:     10,
			PageTextLimit:   5000,
			TravelTextLimit: 8000,
			FullTextLimit:   20000,
		},
		FetcherSettings: &config.FetcherConfig{BlockedMinLength: 500},
		S3Settings:      &config.S3Config{BucketName: "wedding-scrapes"},
	}
	validator := urlcheck.NewValidatorWithResolver(&config.ValidatorConfig{}, staticResolver{})
	llm := &stubLLM{record: &model.WeddingRecord{
		Accommodations: []model.Accommodation{{HotelName: "Courtyard Marriott"}},
	}}
	m := mapper.New(llm, nil, slog.Default())

	svc := NewService(cfg, validator, bundleCache, archiver, m, nil, nil, slog.Default())
	svc.newSession = func(model.Platform) session { return sess }
	return svc
}

func TestRunFullPipeline(t *testing.T) {
	siteURL := "https://www.zola.com/wedding/jane-john"
	sess := &stubSession{pages: map[string]string{
		siteURL:             homePage,
		siteURL + "/travel": travelPage,
	}}
	bundleCache := &memoryCache{bundles: map[string]*model.RawScrapeBundle{}}
	archiver := &stubArchiver{}
	svc := testService(t, sess, bundleCache, archiver)

	var milestones []int
	outcome, err := svc.Run(context.Background(), siteURL, false, func(pct int, _ string) {
		milestones = append(milestones, pct)
	})
	require.NoError(t, err)

	assert.Equal(t, model.PlatformZola, outcome.Platform)
	require.NotNil(t, outcome.Record)
	assert.Equal(t, "Jane", outcome.Record.Partner1Name)
	assert.Equal(t, "John", outcome.Record.Partner2Name)
	assert.Equal(t, "2025-06-15", outcome.Record.WeddingDate)
	require.Len(t, outcome.Record.Accommodations, 1)

	// Session always torn down, bundle cached and archived.
	assert.True(t, sess.closed)
	assert.Len(t, bundleCache.bundles, 1)
	require.Len(t, archiver.keys, 1)
	assert.Equal(t, archiver.keys[0], outcome.S3Key)
	assert.Equal(t, "wedding-scrapes", outcome.S3Bucket)

	// Registry page noted, never fetched.
	for _, call := range sess.calls {
		assert.NotContains(t, call, "registry")
	}
	cached := bundleCache.bundles[siteURL]
	require.Len(t, cached.PagesAvailable, 1)
	assert.Equal(t, "registry", cached.PagesAvailable[0].Type)
	assert.Equal(t, []string{"home", "travel"}, cached.PagesScraped)

	assert.Equal(t, []int{10, 30, 45, 70, 90, 100}, milestones)
}

func TestRunServesFromCache(t *testing.T) {
	siteURL := "https://www.zola.com/wedding/jane-john"
	sess := &stubSession{pages: map[string]string{}}
	bundleCache := &memoryCache{bundles: map[string]*model.RawScrapeBundle{
		siteURL: {
			Platform: model.PlatformZola,
			URL:      siteURL,
			Hints:    model.StructuredHints{CoupleNames: "Jane & John"},
			FullText: "cached text",
		},
	}}
	svc := testService(t, sess, bundleCache, &stubArchiver{})

	outcome, err := svc.Run(context.Background(), siteURL, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "Jane", outcome.Record.Partner1Name)
	assert.Empty(t, sess.calls)
}

func TestRunForceBypassesCache(t *testing.T) {
	siteURL := "https://www.zola.com/wedding/jane-john"
	sess := &stubSession{pages: map[string]string{siteURL: homePage}}
	bundleCache := &memoryCache{bundles: map[string]*model.RawScrapeBundle{
		siteURL: {Platform: model.PlatformZola, URL: siteURL, FullText: "stale"},
	}}
	svc := testService(t, sess, bundleCache, &stubArchiver{})

	_, err := svc.Run(context.Background(), siteURL, true, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.calls)
}

func TestRunRejectsUnsafeURL(t *testing.T) {
	sess := &stubSession{pages: map[string]string{}}
	svc := testService(t, sess, &memoryCache{bundles: map[string]*model.RawScrapeBundle{}}, &stubArchiver{})

	_, err := svc.Run(context.Background(), "http://169.254.169.254/latest/meta-data/", false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url rejected")
	assert.Empty(t, sess.calls)
}

func TestRunRootFailureSuggestsAlternatives(t *testing.T) {
	sess := &stubSession{pages: map[string]string{}}
	svc := testService(t, sess, &memoryCache{bundles: map[string]*model.RawScrapeBundle{}}, &stubArchiver{})

	_, err := svc.Run(context.Background(), "https://www.theknot.com/us/jane-and-john", false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot protection")
	assert.Contains(t, err.Error(), "Zola, Joy, or Minted")
	assert.True(t, sess.closed)
}

func TestImportSkipsFetchWithPremappedRecord(t *testing.T) {
	sess := &stubSession{pages: map[string]string{}}
	svc := testService(t, sess, &memoryCache{bundles: map[string]*model.RawScrapeBundle{}}, &stubArchiver{})

	pre := &model.WeddingRecord{Partner1Name: "Jane", Partner2Name: "John"}
	record, preview, err := svc.Import(context.Background(), "https://www.zola.com/wedding/jane-john", pre)
	require.NoError(t, err)
	assert.Same(t, pre, record)
	assert.Equal(t, "Jane", preview.Partner1Name)
	assert.Empty(t, sess.calls)
}

func TestImportRunsPipelineWithoutPremappedRecord(t *testing.T) {
	siteURL := "https://www.zola.com/wedding/jane-john"
	sess := &stubSession{pages: map[string]string{siteURL: homePage}}
	svc := testService(t, sess, &memoryCache{bundles: map[string]*model.RawScrapeBundle{}}, &stubArchiver{})

	record, preview, err := svc.Import(context.Background(), siteURL, nil)
	require.NoError(t, err)
	assert.Equal(t, "Jane", record.Partner1Name)
	assert.Equal(t, "2025-06-15", preview.WeddingDate)
	assert.NotEmpty(t, sess.calls)
}

func TestRunSkipsFailedSubpages(t *testing.T) {
	siteURL := "https://www.zola.com/wedding/jane-john"
	// Travel is discovered but unavailable; the scrape still succeeds.
	home := strings.Replace(homePage, `<a href="/wedding/jane-john/registry">Registry</a>`,
		`<a href="/wedding/jane-john/schedule">Schedule</a>`, 1)
	sess := &stubSession{pages: map[string]string{
		siteURL:               home,
		siteURL + "/schedule": "<html><body><main><p>" + loremWedding + "</p></main></body></html>",
	}}
	bundleCache := &memoryCache{bundles: map[string]*model.RawScrapeBundle{}}
	svc := testService(t, sess, bundleCache, &stubArchiver{})

	outcome, err := svc.Run(context.Background(), siteURL, false, nil)
	require.NoError(t, err)
	require.NotNil(t, outcome.Record)

	cached := bundleCache.bundles[siteURL]
	assert.Equal(t, []string{"home", "schedule"}, cached.PagesScraped)
}
