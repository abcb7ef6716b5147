// Package wsurl derives websocket URLs from a configured base URL.
//
// The base may use ws/wss (an explicit websocket endpoint, possibly with a
// sub-path) or http/https (the application origin, whose path is an API
// prefix and not part of the websocket address).
package wsurl

import (
	"fmt"
	"net/url"
	"strings"
)

// Resolve maps (base URL, endpoint path) to a websocket URL.
//
// Rules:
//   - empty base: the path is returned as-is (relative URL, resolved by the
//     caller against its own origin);
//   - ws/wss base: returned unchanged when it already ends with path,
//     otherwise path is appended after stripping a trailing slash;
//   - http/https base: scheme is rewritten to ws/wss and only scheme+host are
//     kept, so the result is always origin + path.
//
// path must start with "/".
func Resolve(base, path string) (string, error) {
	if base == "" {
		return path, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse ws base url %q: %w", base, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("ws base url %q: missing host", base)
	}
	switch u.Scheme {
	case "ws", "wss":
		normalized := strings.TrimRight(u.String(), "/")
		if strings.HasSuffix(normalized, path) {
			return normalized, nil
		}
		return normalized + path, nil
	case "http":
		return "ws://" + u.Host + path, nil
	case "https":
		return "wss://" + u.Host + path, nil
	default:
		return "", fmt.Errorf("ws base url %q: unsupported scheme %q", base, u.Scheme)
	}
}

// Resolver is a base URL validated once at construction. Resolve never fails
// afterwards and is safe for concurrent use.
type Resolver struct {
	base string
}

// NewResolver validates base (empty is allowed and means "relative URLs").
func NewResolver(base string) (*Resolver, error) {
	if base != "" {
		if _, err := Resolve(base, "/"); err != nil {
			return nil, err
		}
	}
	return &Resolver{base: base}, nil
}

// Resolve returns the websocket URL for path.
func (r *Resolver) Resolve(path string) string {
	out, err := Resolve(r.base, path)
	if err != nil {
		// unreachable: base was validated in NewResolver
		return path
	}
	return out
}
