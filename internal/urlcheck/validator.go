package urlcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	netUrl "net/url"
	"strings"
	"time"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/patrickmn/go-cache"
)

// metadataHosts are cloud metadata endpoints that must never be fetched,
// whatever they resolve to.
var metadataHosts = map[string]struct{}{
	"169.254.169.254":          {},
	"metadata.google.internal": {},
	"metadata.goog":            {},
	"100.100.100.200":          {}, // Alibaba Cloud
	"metadata.azure.com":       {},
}

// reservedNets covers internal ranges net.IP predicates miss.
var reservedNets = mustParseCIDRs(
	"100.64.0.0/10",  // carrier-grade NAT
	"192.0.0.0/24",   // IETF protocol assignments
	"198.18.0.0/15",  // benchmarking
	"240.0.0.0/4",    // reserved
	"::/128",         // unspecified
	"64:ff9b::/96",   // NAT64
)

// Resolver is the DNS lookup used by the validator. Injectable for tests.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

type verdict struct {
	ok     bool
	reason string
}

// Validator rejects urls that point into internal or reserved network space.
// The platform allow-list is advisory: unknown domains are logged and allowed.
type Validator struct {
	cfg      *config.ValidatorConfig
	resolver Resolver
	verdicts *cache.Cache
}

func NewValidator(cfg *config.ValidatorConfig) *Validator {
	ttl := cfg.VerdictTtl
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Validator{
		cfg:      cfg,
		resolver: net.DefaultResolver,
		verdicts: cache.New(ttl, 2*ttl),
	}
}

// NewValidatorWithResolver is used by tests to stub DNS resolution.
func NewValidatorWithResolver(cfg *config.ValidatorConfig, r Resolver) *Validator {
	v := NewValidator(cfg)
	v.resolver = r
	return v
}

// Validate reports whether the url is safe to fetch. A false result is
// terminal for the request; the reason is safe to surface to the caller.
func (v *Validator) Validate(ctx context.Context, rawURL string) (bool, string) {
	u, err := netUrl.Parse(rawURL)
	if err != nil {
		return false, "malformed url"
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, fmt.Sprintf("unsupported url scheme %q: only http and https are allowed", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false, "url has no hostname"
	}

	if cached, found := v.verdicts.Get(host); found {
		cv := cached.(verdict)
		return cv.ok, cv.reason
	}
	ok, reason := v.checkHost(ctx, host)
	v.verdicts.Set(host, verdict{ok: ok, reason: reason}, cache.DefaultExpiration)

	if ok && len(v.cfg.AllowedDomains) > 0 && !v.isAllowListed(host) {
		// Advisory only: unknown domains are permitted so couples with
		// self-hosted sites are not locked out.
		slog.Warn("domain not on the platform allow-list, permitting anyway.",
			slog.String("host", host))
	}

	return ok, reason
}

func (v *Validator) checkHost(ctx context.Context, host string) (bool, string) {
	if _, denied := metadataHosts[host]; denied {
		return false, fmt.Sprintf("host %q is a cloud metadata endpoint (private IP space)", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if reason, bad := classifyIP(ip); bad {
			return false, reason
		}
		return true, ""
	}

	ips, err := v.resolver.LookupIP(ctx, "ip", host)
	if err != nil || len(ips) == 0 {
		return false, fmt.Sprintf("could not resolve hostname %q", host)
	}
	for _, ip := range ips {
		if _, denied := metadataHosts[ip.String()]; denied {
			return false, fmt.Sprintf("hostname %q resolves to a cloud metadata endpoint (private IP space)", host)
		}
		if reason, bad := classifyIP(ip); bad {
			return false, reason
		}
	}

	return true, ""
}

func classifyIP(ip net.IP) (string, bool) {
	switch {
	case ip.IsLoopback():
		return fmt.Sprintf("url points to a loopback address (private IP): %s", ip), true
	case ip.IsPrivate():
		return fmt.Sprintf("url points to a private IP range: %s", ip), true
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Sprintf("url points to a link-local address (private IP): %s", ip), true
	case ip.IsMulticast():
		return fmt.Sprintf("url points to a multicast address: %s", ip), true
	case ip.IsUnspecified():
		return fmt.Sprintf("url points to an unspecified address: %s", ip), true
	}
	for _, n := range reservedNets {
		if n.Contains(ip) {
			return fmt.Sprintf("url points to a reserved IP range (private IP space): %s", ip), true
		}
	}
	return "", false
}

func (v *Validator) isAllowListed(host string) bool {
	for _, domain := range v.cfg.AllowedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}
