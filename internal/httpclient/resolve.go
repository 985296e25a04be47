package httpclient

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/bastionhq/bastion/internal/config"
	"github.com/bastionhq/bastion/internal/log"
)

// Environ is a read-only snapshot of the process environment. Passing it
// explicitly keeps resolution a pure function of its inputs instead of a
// hidden dependency on ambient state.
type Environ func(key string) string

// OSEnviron returns the live process environment.
func OSEnviron() Environ {
	return os.Getenv
}

// Environment variables consulted when the corresponding configuration field
// is absent. Uppercase is checked first, then the lowercase variant used by
// most Unix tooling.
const (
	envHTTPProxy  = "HTTP_PROXY"
	envHTTPSProxy = "HTTPS_PROXY"
	envSOCKSProxy = "SOCKS_PROXY"
)

var (
	httpSchemes  = []string{"http", "https"}
	socksSchemes = []string{"socks5", "socks5h"}
)

// ConfigError reports a malformed explicitly-configured proxy URL. It is
// fatal to client construction: no client is returned alongside it.
type ConfigError struct {
	Field string // offending configuration field, e.g. "proxy.http"
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid proxy URL %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Selection is the per-scheme proxy table resolved for one client
// construction. It is built fresh on every call and never cached; a nil slot
// means direct connection for that scheme.
type Selection struct {
	HTTP  *url.URL
	HTTPS *url.URL
	SOCKS *url.URL
}

// IsZero reports whether no scheme has a resolved proxy.
func (s Selection) IsZero() bool {
	return s.HTTP == nil && s.HTTPS == nil && s.SOCKS == nil
}

// ProxyFor returns the proxy endpoint for an outbound request scheme
// ("http" or "https"), or nil for a direct connection. The SOCKS slot serves
// as the fallback when the scheme-specific slot is empty.
func (s Selection) ProxyFor(scheme string) *url.URL {
	switch scheme {
	case "http":
		if s.HTTP != nil {
			return s.HTTP
		}
	case "https":
		if s.HTTPS != nil {
			return s.HTTPS
		}
	default:
		return nil
	}
	return s.SOCKS
}

// Resolve computes the effective proxy selection for one client construction.
//
// Precedence per scheme, highest to lowest: sandbox-disable, explicit
// configuration, environment variable, no proxy. A malformed configured URL
// is a hard *ConfigError; a malformed environment value is logged and treated
// as absent, since environment input must not block startup. Configured
// credentials are attached to configured URLs that carry no userinfo of their
// own.
func Resolve(proxy *config.ProxyConfig, env Environ, sandboxed bool) (Selection, error) {
	var sel Selection

	if proxy != nil {
		var creds *url.Userinfo
		if proxy.Username != "" {
			creds = url.UserPassword(proxy.Username, proxy.Password)
		}

		var err error
		if sel.HTTP, err = parseConfigured("proxy.http", proxy.HTTP, httpSchemes, creds); err != nil {
			return Selection{}, err
		}
		if sel.HTTPS, err = parseConfigured("proxy.https", proxy.HTTPS, httpSchemes, creds); err != nil {
			return Selection{}, err
		}
		if sel.SOCKS, err = parseConfigured("proxy.socks", proxy.SOCKS, socksSchemes, creds); err != nil {
			return Selection{}, err
		}
	}

	if env != nil {
		if sel.HTTP == nil {
			sel.HTTP = parseEnvironment(env, envHTTPProxy, httpSchemes)
		}
		if sel.HTTPS == nil {
			sel.HTTPS = parseEnvironment(env, envHTTPSProxy, httpSchemes)
		}
		if sel.SOCKS == nil {
			sel.SOCKS = parseEnvironment(env, envSOCKSProxy, socksSchemes)
		}
	}

	// The sandbox override is absolute: sandboxed execution never egresses
	// through a proxy, no matter what configuration or environment say.
	if sandboxed {
		if !sel.IsZero() {
			log.Info("sandbox mode active, ignoring proxy configuration",
				"http", sel.HTTP != nil,
				"https", sel.HTTPS != nil,
				"socks", sel.SOCKS != nil)
		}
		return Selection{}, nil
	}

	return sel, nil
}

// parseConfigured parses an explicitly configured proxy URL. An empty value
// means the slot is unset; anything unparseable is a *ConfigError.
func parseConfigured(field, raw string, schemes []string, creds *url.Userinfo) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := parseProxyURL(raw, schemes)
	if err != nil {
		return nil, &ConfigError{Field: field, Value: raw, Err: err}
	}
	if creds != nil && u.User == nil {
		u.User = creds
	}
	return u, nil
}

// parseEnvironment reads one environment variable (single read per variant)
// and parses it as a proxy endpoint. An invalid value resolves to nil with a
// warning, never an error.
func parseEnvironment(env Environ, name string, schemes []string) *url.URL {
	key := name
	raw := env(key)
	if raw == "" {
		key = strings.ToLower(name)
		raw = env(key)
	}
	if raw == "" {
		return nil
	}
	u, err := parseProxyURL(raw, schemes)
	if err != nil {
		log.Warn("ignoring invalid proxy environment variable", "name", key, "value", raw, "error", err)
		return nil
	}
	return u
}

func parseProxyURL(raw string, schemes []string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("must be an absolute URL (e.g. %s://host:port)", schemes[0])
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return u, nil
		}
	}
	return nil, fmt.Errorf("unsupported scheme %q (expected one of %v)", u.Scheme, schemes)
}
