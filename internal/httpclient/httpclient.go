// Package httpclient constructs the toolkit's outbound HTTP clients.
//
// Construction is a pure function of (proxy configuration, environment
// snapshot, sandbox flag): configured proxies win over environment variables
// per scheme, and sandboxed execution forces every scheme direct. Nothing is
// cached across calls; callers wanting a shared client hold on to the one
// they were given.
package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"github.com/bastionhq/bastion/internal/config"
)

const defaultUserAgent = "bastion"

// Options configures a new client.
type Options struct {
	// Proxy is the explicitly configured proxy settings, or nil.
	Proxy *config.ProxyConfig

	// Environ is the environment snapshot consulted for proxy fallback.
	// Nil means the live process environment.
	Environ Environ

	// Sandboxed disables all proxying unconditionally when true.
	Sandboxed bool

	// UserAgent overrides the default identity string.
	UserAgent string

	// Timeout is the whole-request timeout. Zero means no timeout.
	Timeout time.Duration
}

// New builds an HTTP client with the effective proxy selection, default
// headers, and identity applied. A malformed configured proxy URL returns a
// *ConfigError and no client. The returned client is safe for concurrent use.
func New(opts Options) (*http.Client, error) {
	env := opts.Environ
	if env == nil {
		env = OSEnviron()
	}

	sel, err := Resolve(opts.Proxy, env, opts.Sandboxed)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{}
	if !sel.IsZero() {
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			return sel.ProxyFor(req.URL.Scheme), nil
		}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &identityTransport{
			base:      transport,
			userAgent: ua,
		},
	}, nil
}

// identityTransport stamps default headers onto every request before handing
// it to the underlying transport. Requests are cloned, not mutated, since
// RoundTrippers must not modify their input.
type identityTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *identityTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
