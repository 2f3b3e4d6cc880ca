package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		FetcherSettings: &config.FetcherConfig{BlockedMinLength: 500},
		WorkerSettings:  &config.WorkerConfig{UserAgent: "test-agent"},
	}
}

func realisticPage(marker string) string {
	return "<html><body>" + marker + strings.Repeat("wedding content ", 100) + "</body></html>"
}

func TestBlocked(t *testing.T) {
	s := NewSession(testConfig(), nil, model.PlatformGeneric, nil)

	tests := []struct {
		name string
		html string
		want bool
	}{
		{"short body", "<html></html>", true},
		{"access denied page", realisticPage("Access Denied"), true},
		{"cloudflare interstitial", realisticPage("Just a moment..."), true},
		{"js challenge", realisticPage("Please enable JavaScript"), true},
		{"akamai error reference", realisticPage("Reference&#32;&#35;18.2d4d1002"), true},
		{"normal page", realisticPage("Jane &amp; John"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Blocked(tt.html))
		})
	}
}

func TestFetchEscalatesOnBlockedResponse(t *testing.T) {
	s := NewSession(testConfig(), nil, model.PlatformGeneric, nil)

	lightweightCalls := 0
	s.lightweight = func(ctx context.Context, url string) (string, error) {
		lightweightCalls++
		return realisticPage("Access Denied"), nil
	}
	s.browser = func(ctx context.Context, url string, hint PageHint) (string, error) {
		return realisticPage("Jane &amp; John"), nil
	}

	result, err := s.Fetch(context.Background(), "https://example.com", HintDefault)
	require.NoError(t, err)
	assert.Equal(t, model.TierBrowser, result.Tier)
	assert.Equal(t, model.TierBrowser, s.Tier())

	// The tier is latched: the next fetch must skip the lightweight attempt.
	_, err = s.Fetch(context.Background(), "https://example.com/travel", HintTravel)
	require.NoError(t, err)
	assert.Equal(t, 1, lightweightCalls)
}

func TestFetchStaysLightweightWhenContentIsGood(t *testing.T) {
	s := NewSession(testConfig(), nil, model.PlatformGeneric, nil)

	s.lightweight = func(ctx context.Context, url string) (string, error) {
		return realisticPage("Jane &amp; John"), nil
	}
	s.browser = func(ctx context.Context, url string, hint PageHint) (string, error) {
		t.Fatal("browser tier must not run")
		return "", nil
	}

	result, err := s.Fetch(context.Background(), "https://example.com", HintDefault)
	require.NoError(t, err)
	assert.Equal(t, model.TierLightweight, result.Tier)
	assert.Equal(t, model.TierLightweight, s.Tier())
}

func TestFetchBrowserFirstForProtectedPlatforms(t *testing.T) {
	s := NewSession(testConfig(), nil, model.PlatformTheKnot, nil)

	s.lightweight = func(ctx context.Context, url string) (string, error) {
		t.Fatal("lightweight tier must not run for protected platform")
		return "", nil
	}
	s.browser = func(ctx context.Context, url string, hint PageHint) (string, error) {
		return realisticPage("Jane &amp; John"), nil
	}

	result, err := s.Fetch(context.Background(), "https://www.theknot.com/us/jane-and-john", HintDefault)
	require.NoError(t, err)
	assert.Equal(t, model.TierBrowser, result.Tier)
}

func TestFetchUnavailableWhenBothTiersFail(t *testing.T) {
	s := NewSession(testConfig(), nil, model.PlatformGeneric, nil)

	s.lightweight = func(ctx context.Context, url string) (string, error) {
		return "", errors.New("connection refused")
	}
	s.browser = func(ctx context.Context, url string, hint PageHint) (string, error) {
		return "", errors.New("navigation timeout")
	}

	_, err := s.Fetch(context.Background(), "https://example.com", HintDefault)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchUnavailableWhenBrowserAlsoBlocked(t *testing.T) {
	s := NewSession(testConfig(), nil, model.PlatformGeneric, nil)

	s.lightweight = func(ctx context.Context, url string) (string, error) {
		return realisticPage("Checking your browser"), nil
	}
	s.browser = func(ctx context.Context, url string, hint PageHint) (string, error) {
		return realisticPage("Access Denied"), nil
	}

	_, err := s.Fetch(context.Background(), "https://example.com", HintDefault)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewSession(testConfig(), nil, model.PlatformGeneric, nil)
	s.Close()
	s.Close()
}
