package platform

import (
	netUrl "net/url"
	"strings"

	"github.com/bkolar18/wedding-scraper/internal/model"
)

var platformDomains = map[string]model.Platform{
	"theknot.com":     model.PlatformTheKnot,
	"zola.com":        model.PlatformZola,
	"withjoy.com":     model.PlatformJoy,
	"minted.com":      model.PlatformMinted,
	"minted.us":       model.PlatformMinted,
	"weddingwire.com": model.PlatformWeddingWire,
	"weddingwire.us":  model.PlatformWeddingWire,
}

// Platforms behind Akamai-grade bot protection: a plain HTTP fetch never
// returns real content, so the browser tier is used from the start.
var browserRequired = map[model.Platform]bool{
	model.PlatformTheKnot:     true,
	model.PlatformWeddingWire: true,
}

// Detect classifies a url by its hosting wedding platform. Unknown hosts
// (including unparseable urls) fall back to the generic platform.
func Detect(rawURL string) model.Platform {
	u, err := netUrl.Parse(rawURL)
	if err != nil {
		return model.PlatformGeneric
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for domain, p := range platformDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return p
		}
	}
	return model.PlatformGeneric
}

// RequiresBrowser reports whether the platform is known to block plain
// HTTP clients.
func RequiresBrowser(p model.Platform) bool {
	return browserRequired[p]
}
