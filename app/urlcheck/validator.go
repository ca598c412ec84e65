// Package urlcheck gates every outbound URL against SSRF. Validation runs
// at send time, not just at registration, because DNS answers can change
// between the two (rebinding).
package urlcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
)

// Purpose identifies the outbound use of a URL; webhook destinations get
// an extra transport-security warning.
const (
	PurposeFeed    = "feed"
	PurposeWebhook = "webhook"
)

// Stable rejection categories, checkable via errors.Is.
var (
	ErrEmptyURL       = errors.New("url must be a non-empty string")
	ErrMalformedURL   = errors.New("invalid url format")
	ErrInvalidScheme  = errors.New("only http and https schemes are allowed")
	ErrMissingHost    = errors.New("url must have a hostname")
	ErrBlockedHost    = errors.New("access to localhost is not allowed")
	ErrPrivateAddress = errors.New("url resolves to a private or reserved address")
	ErrResolve        = errors.New("cannot resolve hostname")
)

// localhostAliases are rejected by name before any DNS lookup.
var localhostAliases = map[string]struct{}{
	"localhost":             {},
	"127.0.0.1":             {},
	"::1":                   {},
	"0.0.0.0":               {},
	"127.0.0.0":             {},
	"0":                     {},
	"localhost.localdomain": {},
}

// reservedBlocks covers ranges the net.IP predicates miss.
var reservedBlocks []*net.IPNet

func init() {
	for _, cidr := range []string{"240.0.0.0/4", "100.64.0.0/10"} {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("urlcheck: bad reserved block %q: %v", cidr, err))
		}
		reservedBlocks = append(reservedBlocks, block)
	}
}

// Resolver is the DNS lookup used during validation. net.DefaultResolver
// satisfies it; tests inject a stub.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

type Validator struct {
	resolver Resolver
}

func New() *Validator {
	return &Validator{resolver: net.DefaultResolver}
}

func NewWithResolver(r Resolver) *Validator {
	return &Validator{resolver: r}
}

// Validate checks a URL for outbound use and returns the trimmed URL on
// success. Rules are applied in order: non-empty input, parseable syntax,
// http/https scheme, non-empty hostname, no localhost alias, and no
// resolved address in a private, loopback, link-local, multicast,
// reserved or unspecified range. Any resolution failure rejects: the
// historical fail-open path for non-DNS resolver errors silently disabled
// the private-range check, so it is closed here.
func (v *Validator) Validate(ctx context.Context, rawURL, purpose string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", ErrEmptyURL
	}

	rawURL = strings.TrimSpace(rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w, got %q", ErrInvalidScheme, parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return "", ErrMissingHost
	}

	if _, blocked := localhostAliases[strings.ToLower(hostname)]; blocked {
		return "", fmt.Errorf("%w for %s urls", ErrBlockedHost, purpose)
	}

	addrs, err := v.resolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		var dnsErr *net.DNSError
		if !errors.As(err, &dnsErr) {
			slog.Warn("Unexpected resolver error during URL validation", "host", hostname, "error", err)
		}
		return "", fmt.Errorf("%w %q: %v", ErrResolve, hostname, err)
	}

	for _, addr := range addrs {
		if isBlockedIP(addr.IP) {
			return "", fmt.Errorf("%w (%s): access to internal networks is not allowed for %s urls",
				ErrPrivateAddress, addr.IP, purpose)
		}
	}

	if purpose == PurposeWebhook && parsed.Scheme == "http" {
		slog.Warn("Webhook URL uses insecure HTTP protocol, HTTPS is recommended", "url", rawURL)
	}

	return rawURL, nil
}

func isBlockedIP(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}

	for _, block := range reservedBlocks {
		if block.Contains(ip) {
			return true
		}
	}

	return false
}
