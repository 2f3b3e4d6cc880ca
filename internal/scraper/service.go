package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/assemble"
	"github.com/bkolar18/wedding-scraper/internal/cache"
	"github.com/bkolar18/wedding-scraper/internal/discover"
	"github.com/bkolar18/wedding-scraper/internal/extract"
	"github.com/bkolar18/wedding-scraper/internal/fetch"
	"github.com/bkolar18/wedding-scraper/internal/mapper"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/bkolar18/wedding-scraper/internal/platform"
	"github.com/bkolar18/wedding-scraper/internal/telemetry"
	"github.com/bkolar18/wedding-scraper/internal/urlcheck"
)

// Progress milestones reported while a scrape runs.
const (
	milestoneConnecting  = 10
	milestoneLoading     = 30
	milestoneDiscovering = 45
	milestoneExtracting  = 70
	milestoneMapping     = 90
	milestoneDone        = 100
)

// session is the part of fetch.Session the pipeline uses.
type session interface {
	Fetch(ctx context.Context, url string, hint fetch.PageHint) (*model.FetchResult, error)
	Close()
}

// Archiver stores assembled bundles. Optional; nil disables archiving.
type Archiver interface {
	WriteBundle(bundle *model.RawScrapeBundle) (string, error)
}

// Service runs the scrape pipeline: validate, fetch, discover, extract,
// assemble, map. It implements the job runner contract.
type Service struct {
	cfg       *config.Config
	validator *urlcheck.Validator
	cache     cache.BundleCache
	archive   Archiver
	mapper    *mapper.Mapper
	metrics   *telemetry.ScrapeMetrics
	transport *http.Transport
	log       *slog.Logger

	// session factory, swappable in tests
	newSession func(p model.Platform) session
}

func NewService(cfg *config.Config, validator *urlcheck.Validator, bundleCache cache.BundleCache,
	archiver Archiver, m *mapper.Mapper, metrics *telemetry.ScrapeMetrics,
	transport *http.Transport, log *slog.Logger) *Service {
	s := &Service{
		cfg:       cfg,
		validator: validator,
		cache:     bundleCache,
		archive:   archiver,
		mapper:    m,
		metrics:   metrics,
		transport: transport,
		log:       log,
	}
	s.newSession = func(p model.Platform) session {
		return fetch.NewSession(cfg, transport, p, metrics)
	}
	return s
}

// Run executes the whole pipeline for one url and reports milestones
// through the progress callback.
func (s *Service) Run(ctx context.Context, url string, force bool,
	progress func(pct int, msg string)) (*model.ScrapeOutcome, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	progress(milestoneConnecting, "connecting to website")
	ok, reason := s.validator.Validate(ctx, url)
	if !ok {
		if s.metrics != nil {
			s.metrics.UrlRejectedCnt(1)
		}
		return nil, fmt.Errorf("url rejected: %s", reason)
	}
	p := platform.Detect(url)

	bundle, fresh, err := s.bundle(ctx, url, p, force, progress)
	if err != nil {
		return &model.ScrapeOutcome{Platform: p}, err
	}

	outcome := &model.ScrapeOutcome{Platform: bundle.Platform}
	if fresh {
		if s.cache != nil {
			s.cache.SaveBundle(url, bundle, force)
		}
		if s.archive != nil {
			key, err := s.archive.WriteBundle(bundle)
			if err == nil {
				outcome.S3Bucket = s.cfg.S3Settings.BucketName
				outcome.S3Key = key
			}
		}
	}

	progress(milestoneMapping, "mapping wedding details")
	record, err := s.mapper.Map(ctx, bundle)
	if err != nil {
		return outcome, fmt.Errorf("mapping failed: %w", err)
	}
	outcome.Record = record

	progress(milestoneDone, "done")
	return outcome, nil
}

// Import returns the mapped record with its preview, for callers that do not
// need job tracking. A non-nil pre skips fetching entirely, so a caller that
// already ran Scrape and Map does not hit the site twice.
func (s *Service) Import(ctx context.Context, url string, pre *model.WeddingRecord) (*model.WeddingRecord, *model.Preview, error) {
	if pre != nil {
		return pre, mapper.Preview(pre), nil
	}
	outcome, err := s.Run(ctx, url, false, nil)
	if err != nil {
		return nil, nil, err
	}
	return outcome.Record, mapper.Preview(outcome.Record), nil
}

// bundle returns a raw bundle for the url, from cache when possible. The
// second return reports whether the bundle was freshly scraped.
func (s *Service) bundle(ctx context.Context, url string, p model.Platform, force bool,
	progress func(pct int, msg string)) (*model.RawScrapeBundle, bool, error) {
	if !force && s.cache != nil {
		if cached, hit := s.cache.GetBundle(url); hit {
			if s.metrics != nil {
				s.metrics.CacheHitCnt(1)
			}
			s.log.Info("bundle cache hit.", slog.String("url", url))
			progress(milestoneExtracting, "reusing recent scrape")
			return cached, false, nil
		}
	}

	fresh, err := s.Scrape(ctx, url, p, progress)
	if err != nil {
		return nil, false, err
	}
	return fresh, true, nil
}

// Scrape fetches the site and assembles a raw bundle without mapping it.
// Sub-pages are fetched one at a time; parallel fetches against the same
// site trip rate limiting.
func (s *Service) Scrape(ctx context.Context, url string, p model.Platform,
	progress func(pct int, msg string)) (*model.RawScrapeBundle, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	sess := s.newSession(p)
	defer sess.Close()

	progress(milestoneLoading, "loading website")
	root, err := sess.Fetch(ctx, url, fetch.HintDefault)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PageFetchFailCnt(1)
		}
		return nil, rootFailure(p, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(root.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}

	progress(milestoneDiscovering, "discovering pages")
	navLinks, available := discover.Discover(doc, url, p, s.cfg.ScraperSettings.MaxSubpages)
	s.log.Info("pages discovered.", slog.String("url", url),
		slog.Int("subpages", len(navLinks)), slog.Int("skipped", len(available)))

	progress(milestoneExtracting, "extracting content")
	pages := s.fetchSubpages(ctx, sess, navLinks)

	jsonLD := assemble.ExtractJSONLD(doc)
	bundle := assemble.For(p, s.cfg.ScraperSettings).Assemble(doc, url, jsonLD, pages, available)
	return bundle, nil
}

// fetchSubpages walks discovered links in order. A page that fails on both
// tiers is skipped, never fatal.
func (s *Service) fetchSubpages(ctx context.Context, sess session, links []model.NavLink) []model.PageContent {
	pages := make([]model.PageContent, 0, len(links))
	for _, link := range links {
		hint := fetch.HintDefault
		if extract.IsTravelPage(link.Name) {
			hint = fetch.HintTravel
		}

		result, err := sess.Fetch(ctx, link.URL, hint)
		if err != nil {
			if s.metrics != nil {
				s.metrics.PageFetchFailCnt(1)
			}
			s.log.Warn("subpage fetch failed, skipping.", slog.String("url", link.URL),
				slog.String("name", link.Name), slog.String("err", err.Error()))
			continue
		}

		text, err := extract.Content(result.HTML, link.Name, s.cfg.ScraperSettings)
		if err != nil || text == "" {
			s.log.Debug("subpage yielded no content.", slog.String("name", link.Name))
			continue
		}
		pages = append(pages, model.PageContent{Name: link.Name, Text: text})
	}
	return pages
}

// rootFailure builds the user-facing error for an unreachable homepage.
// Platforms behind aggressive bot protection get a suggestion to use a site
// that scrapes reliably.
func rootFailure(p model.Platform, err error) error {
	if p == model.PlatformTheKnot || p == model.PlatformWeddingWire {
		return fmt.Errorf("could not load the website, it likely uses bot protection: %w. "+
			"Zola, Joy, or Minted sites work more reliably", err)
	}
	return fmt.Errorf("could not load the website: %w", err)
}
