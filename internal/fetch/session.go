package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/bkolar18/wedding-scraper/internal/platform"
	"github.com/bkolar18/wedding-scraper/internal/telemetry"
)

// ErrUnavailable means every applicable tier failed or was blocked for the
// page. Callers treat it as "page unavailable" and keep going.
var ErrUnavailable = errors.New("page unavailable")

// PageHint tells the browser tier how patient to be with script rendering.
type PageHint int

const (
	HintDefault PageHint = iota
	// HintTravel marks travel/accommodation pages, where hotel widgets
	// hydrate late and need networkidle waits plus scroll nudges.
	HintTravel
)

// Challenge-page markers. The last one is an Akamai error reference.
var blockedMarkers = []string{
	"Access Denied",
	"Please enable JavaScript",
	"Checking your browser",
	"Just a moment...",
	"Enable JavaScript and cookies",
	"Reference&#32;&#35;",
}

// Session holds the tier decision for one scrape. Once a lightweight fetch is
// blocked (or the platform is known to need a browser), the session stays on
// the browser tier; the underlying browser process is started lazily and is
// reused for every page of the scrape. Close must always be called.
type Session struct {
	cfg       *config.Config
	transport *http.Transport
	metrics   *telemetry.ScrapeMetrics

	useBrowser bool

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	// tier implementations, swappable in tests
	lightweight func(ctx context.Context, url string) (string, error)
	browser     func(ctx context.Context, url string, hint PageHint) (string, error)
}

func NewSession(cfg *config.Config, transport *http.Transport, p model.Platform,
	metrics *telemetry.ScrapeMetrics) *Session {
	s := &Session{
		cfg:        cfg,
		transport:  transport,
		metrics:    metrics,
		useBrowser: platform.RequiresBrowser(p),
	}
	s.lightweight = s.fetchLightweight
	s.browser = s.fetchBrowser
	return s
}

// Fetch retrieves one page through the session's current tier, escalating
// from lightweight to browser when a response looks blocked. Returns
// ErrUnavailable when no tier produced usable content.
func (s *Session) Fetch(ctx context.Context, url string, hint PageHint) (*model.FetchResult, error) {
	if s.useBrowser {
		return s.fetchViaBrowser(ctx, url, hint)
	}

	html, err := s.lightweight(ctx, url)
	if err == nil && !s.Blocked(html) {
		return &model.FetchResult{HTML: html, Tier: model.TierLightweight}, nil
	}
	if err != nil {
		slog.Warn("lightweight fetch failed, trying browser.", slog.String("url", url),
			slog.String("err", err.Error()))
	} else {
		slog.Info("lightweight fetch blocked, trying browser.", slog.String("url", url))
		if s.metrics != nil {
			s.metrics.BlockedResponseCnt(1)
		}
	}

	// Latch the browser tier so the rest of the scrape skips the doomed
	// lightweight attempts.
	s.useBrowser = true
	if s.metrics != nil {
		s.metrics.TierEscalationCnt(1)
	}

	return s.fetchViaBrowser(ctx, url, hint)
}

func (s *Session) fetchViaBrowser(ctx context.Context, url string, hint PageHint) (*model.FetchResult, error) {
	html, err := s.browser(ctx, url, hint)
	if err != nil {
		slog.Warn("browser fetch failed.", slog.String("url", url), slog.String("err", err.Error()))
		return nil, ErrUnavailable
	}
	if s.Blocked(html) {
		slog.Warn("browser fetch blocked.", slog.String("url", url))
		if s.metrics != nil {
			s.metrics.BlockedResponseCnt(1)
		}
		return nil, ErrUnavailable
	}
	return &model.FetchResult{HTML: html, Tier: model.TierBrowser}, nil
}

// Blocked classifies a response body as a bot-protection challenge page:
// implausibly short, or carrying a known challenge marker.
func (s *Session) Blocked(html string) bool {
	minLen := s.cfg.FetcherSettings.BlockedMinLength
	if minLen <= 0 {
		minLen = 500
	}
	if len(html) < minLen {
		return true
	}
	for _, marker := range blockedMarkers {
		if strings.Contains(html, marker) {
			slog.Debug("blocked response marker found.", slog.String("marker", marker))
			return true
		}
	}
	return false
}

// Tier reports the session's current fetch tier.
func (s *Session) Tier() model.FetchTier {
	if s.useBrowser {
		return model.TierBrowser
	}
	return model.TierLightweight
}

// Close tears down the browser process if one was started. Must run at the
// end of every scrape, including on error; a leaked browser process is the
// main operational risk here.
func (s *Session) Close() {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
		slog.Debug("browser session closed.")
	}
}
