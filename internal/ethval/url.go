package ethval

import (
	"fmt"
	"net/url"
)

// HttpUrl is a validated absolute http(s) URL with no embedded
// credentials (userinfo is rejected here; Basic Auth credentials are
// supplied out of band via EthEndpoint.Username/Password so they never
// leak into a URL that might be logged).
type HttpUrl struct {
	raw    string
	parsed *url.URL
}

// NewHttpUrl parses and validates s.
func NewHttpUrl(s string) (HttpUrl, error) {
	u, err := url.Parse(s)
	if err != nil {
		return HttpUrl{}, fmt.Errorf("ethval: invalid URL %q: %w", s, err)
	}
	if !u.IsAbs() {
		return HttpUrl{}, fmt.Errorf("ethval: URL %q is not absolute", s)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return HttpUrl{}, fmt.Errorf("ethval: URL %q has unsupported scheme %q", s, u.Scheme)
	}
	if u.User != nil {
		return HttpUrl{}, fmt.Errorf("ethval: URL %q must not embed credentials", s)
	}
	return HttpUrl{raw: s, parsed: u}, nil
}

// String returns the original URL string.
func (h HttpUrl) String() string { return h.raw }

// Host returns the URL's host (with port, if any) without the scheme,
// used for endpoint identity.
func (h HttpUrl) Host() string { return h.parsed.Host }

// CanonicalPath returns the URL path with a trailing slash removed
// (but "/" preserved), used together with Host to determine whether
// two endpoints are the same for duplicate-endpoint rejection.
func (h HttpUrl) CanonicalPath() string {
	p := h.parsed.Path
	if p == "" {
		return "/"
	}
	if len(p) > 1 && p[len(p)-1] == '/' {
		return p[:len(p)-1]
	}
	return p
}
