package urlcheck

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	ips map[string][]net.IP
}

func (s *stubResolver) LookupIP(_ context.Context, _ string, host string) ([]net.IP, error) {
	ips, ok := s.ips[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return ips, nil
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	cfg := &config.ValidatorConfig{
		AllowedDomains: []string{"theknot.com", "zola.com", "withjoy.com"},
		VerdictTtl:     time.Minute,
	}
	return NewValidatorWithResolver(cfg, &stubResolver{ips: map[string][]net.IP{
		"www.zola.com":       {net.ParseIP("151.101.1.195")},
		"example.com":        {net.ParseIP("93.184.216.34")},
		"internal.corp":      {net.ParseIP("10.0.0.5")},
		"metadata.sneaky.io": {net.ParseIP("169.254.169.254")},
	}})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantOk     bool
		wantReason string
	}{
		{
			name:   "known platform domain",
			url:    "https://www.zola.com/wedding/jane-and-john",
			wantOk: true,
		},
		{
			name:   "self-hosted domain is permitted",
			url:    "https://example.com/our-wedding",
			wantOk: true,
		},
		{
			name:       "cloud metadata ip literal",
			url:        "http://169.254.169.254/latest/meta-data/",
			wantOk:     false,
			wantReason: "private IP",
		},
		{
			name:       "loopback ip literal",
			url:        "http://127.0.0.1:8080/admin",
			wantOk:     false,
			wantReason: "private IP",
		},
		{
			name:       "hostname resolving to private range",
			url:        "https://internal.corp/wedding",
			wantOk:     false,
			wantReason: "private IP",
		},
		{
			name:       "hostname resolving to metadata endpoint",
			url:        "https://metadata.sneaky.io/",
			wantOk:     false,
			wantReason: "private IP",
		},
		{
			name:       "unresolvable hostname",
			url:        "https://does-not-exist.example.invalid/",
			wantOk:     false,
			wantReason: "could not resolve",
		},
		{
			name:       "file scheme",
			url:        "file:///etc/passwd",
			wantOk:     false,
			wantReason: "scheme",
		},
		{
			name:       "ftp scheme",
			url:        "ftp://example.com/",
			wantOk:     false,
			wantReason: "scheme",
		},
		{
			name:       "missing hostname",
			url:        "https:///nohost",
			wantOk:     false,
			wantReason: "hostname",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValidator(t)
			ok, reason := v.Validate(context.Background(), tt.url)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantReason != "" {
				assert.Contains(t, reason, tt.wantReason)
			}
		})
	}
}

func TestValidateCachesVerdict(t *testing.T) {
	resolver := &stubResolver{ips: map[string][]net.IP{
		"example.com": {net.ParseIP("93.184.216.34")},
	}}
	v := NewValidatorWithResolver(&config.ValidatorConfig{VerdictTtl: time.Minute}, resolver)

	ok, _ := v.Validate(context.Background(), "https://example.com/")
	require.True(t, ok)

	// Same host must not trigger another lookup.
	resolver.ips = map[string][]net.IP{}
	ok, _ = v.Validate(context.Background(), "https://example.com/other-page")
	assert.True(t, ok)
}

func TestValidateReservedRanges(t *testing.T) {
	v := newTestValidator(t)

	for _, url := range []string{
		"http://100.64.0.1/",
		"http://198.18.0.1/",
		"http://240.0.0.1/",
	} {
		ok, reason := v.Validate(context.Background(), url)
		assert.False(t, ok, url)
		assert.Contains(t, reason, "private IP", url)
	}
}
