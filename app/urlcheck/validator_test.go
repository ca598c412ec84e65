package urlcheck

import (
	"context"
	"errors"
	"net"
	"testing"
)

type stubResolver struct {
	addrs map[string][]string
	err   error
}

func (s *stubResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	if s.err != nil {
		return nil, s.err
	}
	ips, ok := s.addrs[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}

	var addrs []net.IPAddr
	for _, ip := range ips {
		addrs = append(addrs, net.IPAddr{IP: net.ParseIP(ip)})
	}
	return addrs, nil
}

func newTestValidator(addrs map[string][]string) *Validator {
	return NewWithResolver(&stubResolver{addrs: addrs})
}

func TestValidateAcceptsPublicHost(t *testing.T) {
	v := newTestValidator(map[string][]string{"example.com": {"93.184.216.34"}})

	got, err := v.Validate(context.Background(), "  https://example.com/feed.xml ", PurposeFeed)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != "https://example.com/feed.xml" {
		t.Errorf("Expected trimmed URL back, got %q", got)
	}
}

func TestValidateRejectsEmptyURL(t *testing.T) {
	v := newTestValidator(nil)

	for _, raw := range []string{"", "   "} {
		_, err := v.Validate(context.Background(), raw, PurposeFeed)
		if !errors.Is(err, ErrEmptyURL) {
			t.Errorf("Validate(%q): expected ErrEmptyURL, got %v", raw, err)
		}
	}
}

func TestValidateRejectsBadScheme(t *testing.T) {
	v := newTestValidator(map[string][]string{"example.com": {"93.184.216.34"}})

	cases := []string{
		"ftp://example.com/x",
		"file:///etc/passwd",
		"gopher://example.com",
		"example.com/no-scheme",
	}
	for _, raw := range cases {
		_, err := v.Validate(context.Background(), raw, PurposeFeed)
		if !errors.Is(err, ErrInvalidScheme) {
			t.Errorf("Validate(%q): expected ErrInvalidScheme, got %v", raw, err)
		}
	}
}

func TestValidateRejectsMissingHost(t *testing.T) {
	v := newTestValidator(nil)

	_, err := v.Validate(context.Background(), "http:///path-only", PurposeFeed)
	if !errors.Is(err, ErrMissingHost) {
		t.Errorf("Expected ErrMissingHost, got %v", err)
	}
}

func TestValidateRejectsLocalhostAliases(t *testing.T) {
	v := newTestValidator(nil)

	aliases := []string{
		"http://localhost/feed",
		"http://LOCALHOST/feed",
		"http://127.0.0.1/feed",
		"http://[::1]/feed",
		"http://0.0.0.0/feed",
		"http://127.0.0.0/feed",
		"http://0/feed",
		"http://localhost.localdomain/feed",
	}
	for _, raw := range aliases {
		_, err := v.Validate(context.Background(), raw, PurposeWebhook)
		if !errors.Is(err, ErrBlockedHost) {
			t.Errorf("Validate(%q): expected ErrBlockedHost, got %v", raw, err)
		}
	}
}

func TestValidateRejectsPrivateResolution(t *testing.T) {
	v := newTestValidator(map[string][]string{
		"internal.example.com":  {"10.1.2.3"},
		"linklocal.example.com": {"169.254.169.254"},
		"loopback.example.com":  {"127.0.0.2"},
		"multicast.example.com": {"224.0.0.1"},
		"reserved.example.com":  {"240.0.0.1"},
		"cgnat.example.com":     {"100.64.0.1"},
		"v6private.example.com": {"fd00::1"},
		"mixed.example.com":     {"93.184.216.34", "192.168.1.1"},
	})

	hosts := []string{
		"internal.example.com",
		"linklocal.example.com",
		"loopback.example.com",
		"multicast.example.com",
		"reserved.example.com",
		"cgnat.example.com",
		"v6private.example.com",
		"mixed.example.com", // one private address among public ones is enough to reject
	}
	for _, host := range hosts {
		_, err := v.Validate(context.Background(), "https://"+host+"/feed", PurposeFeed)
		if !errors.Is(err, ErrPrivateAddress) {
			t.Errorf("Validate(%s): expected ErrPrivateAddress, got %v", host, err)
		}
	}
}

func TestValidateRejectsIPLiterals(t *testing.T) {
	v := newTestValidator(map[string][]string{
		"10.0.0.5":    {"10.0.0.5"},
		"192.168.0.1": {"192.168.0.1"},
	})

	for _, raw := range []string{"http://10.0.0.5/x", "https://192.168.0.1/x"} {
		_, err := v.Validate(context.Background(), raw, PurposeFeed)
		if !errors.Is(err, ErrPrivateAddress) {
			t.Errorf("Validate(%q): expected ErrPrivateAddress, got %v", raw, err)
		}
	}
}

func TestValidateRejectsUnresolvableHost(t *testing.T) {
	v := newTestValidator(map[string][]string{})

	_, err := v.Validate(context.Background(), "https://nxdomain.example.com/feed", PurposeFeed)
	if !errors.Is(err, ErrResolve) {
		t.Errorf("Expected ErrResolve, got %v", err)
	}
}

func TestValidateFailsClosedOnUnexpectedResolverError(t *testing.T) {
	v := NewWithResolver(&stubResolver{err: errors.New("resolver exploded")})

	_, err := v.Validate(context.Background(), "https://example.com/feed", PurposeFeed)
	if !errors.Is(err, ErrResolve) {
		t.Errorf("Expected ErrResolve on unexpected resolver failure, got %v", err)
	}
}

func TestErrorCategoriesAreDistinct(t *testing.T) {
	v := newTestValidator(map[string][]string{"internal.example.com": {"10.0.0.1"}})

	cases := []struct {
		raw  string
		want error
	}{
		{"", ErrEmptyURL},
		{"ftp://host/x", ErrInvalidScheme},
		{"file:///etc/passwd", ErrInvalidScheme},
		{"http:///nohost", ErrMissingHost},
		{"http://localhost/x", ErrBlockedHost},
		{"http://internal.example.com/x", ErrPrivateAddress},
		{"http://nxdomain.example.com/x", ErrResolve},
	}

	for _, tc := range cases {
		_, err := v.Validate(context.Background(), tc.raw, PurposeFeed)
		if !errors.Is(err, tc.want) {
			t.Errorf("Validate(%q): expected %v, got %v", tc.raw, tc.want, err)
		}
		for _, other := range cases {
			if other.want != tc.want && errors.Is(err, other.want) {
				t.Errorf("Validate(%q): error matched unrelated category %v", tc.raw, other.want)
			}
		}
	}
}
