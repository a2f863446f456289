// Package urlutil provides URL normalization, host extraction, and
// log-safe obfuscation for stream URLs.
package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// Normalize canonicalizes a stream URL for identity comparison:
// trimmed, scheme and host lowercased, internationalized hosts punycode
// encoded, default ports and fragments dropped, trailing slash on a
// bare path removed. Unparseable input falls back to a lowercased trim
// so comparison still sees a stable value.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	port := u.Port()
	if (u.Scheme == SchemeHTTP && port == "80") || (u.Scheme == SchemeHTTPS && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else {
		u.Host = host
	}

	u.Fragment = ""
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}
	return strings.ToLower(u.String())
}

// Host extracts the hostname of a URL without port, lowercased.
// Returns "" when the URL cannot be parsed.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsRemote reports whether the string is an http or https URL.
func IsRemote(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// SwapToHTTP rewrites an https URL to http. Non-https input is
// returned unchanged with ok=false.
func SwapToHTTP(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(trimmed), "https://") {
		return raw, false
	}
	return "http://" + trimmed[len("https://"):], true
}

// Validate checks that a URL parses and carries an http or https
// scheme with a host.
func Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case SchemeHTTP, SchemeHTTPS:
	case "":
		return fmt.Errorf("URL %q must include a scheme (http:// or https://)", raw)
	default:
		return fmt.Errorf("unsupported URL scheme %q (supported: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}

// sensitiveParams lists query parameter names whose values never reach
// the logs.
var sensitiveParams = []string{
	"password", "passwd", "pass", "pwd",
	"token", "api_key", "apikey", "key",
	"secret", "auth", "authorization",
	"credential", "credentials",
}

// Obfuscate masks credentials in a URL for logging: userinfo becomes
// ***, sensitive query parameter values become ***.
func Obfuscate(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	query := u.Query()
	for _, param := range sensitiveParams {
		if query.Has(param) {
			query.Set(param, "***")
		}
	}
	u.RawQuery = query.Encode()
	return u.String()
}
