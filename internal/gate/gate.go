// Package gate decides whether a navigation proceeds or is redirected, based only on
// the request path and whether a session cookie is present.
//
// The cookie value is never decoded or verified here. A stale or forged non-empty
// value is allowed through; the backend rejects it on the first API call.
package gate

import "fmt"

type Decision int

const (
	Allow Decision = iota
	RedirectHome
	RedirectLogin
)

func (d Decision) String() string {
	switch d {
	case RedirectHome:
		return "redirect:/"
	case RedirectLogin:
		return "redirect:/login"
	default:
		return "allow"
	}
}

// Location is the redirect target, empty for Allow.
func (d Decision) Location() string {
	switch d {
	case RedirectHome:
		return "/"
	case RedirectLogin:
		return "/login"
	default:
		return ""
	}
}

// DefaultPublicPaths are the authentication pages. Anything else is protected.
var DefaultPublicPaths = []string{"/login", "/signup", "/verifyemail"}

type Gate struct {
	public  map[string]struct{}
	matcher *Matcher
}

// New builds a gate that only evaluates paths matching one of patterns.
func New(publicPaths, patterns []string) (*Gate, error) {
	m, err := NewMatcher(patterns)
	if err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &Gate{public: public, matcher: m}, nil
}

// Applies reports whether path is on the gate's allow-list.
func (g *Gate) Applies(path string) bool {
	return g.matcher.Match(path)
}

// IsPublic reports an exact match against the public set.
func (g *Gate) IsPublic(path string) bool {
	_, ok := g.public[path]
	return ok
}

// Decide classifies path and applies the redirect rules. It does not consult the
// allow-list; use Evaluate for the full check.
func (g *Gate) Decide(path, cookieValue string) Decision {
	authenticated := cookieValue != ""
	public := g.IsPublic(path)
	switch {
	case public && authenticated:
		return RedirectHome
	case !public && !authenticated:
		return RedirectLogin
	default:
		return Allow
	}
}

// Evaluate allows unmatched paths outright and decides matched ones.
func (g *Gate) Evaluate(path, cookieValue string) Decision {
	if !g.Applies(path) {
		return Allow
	}
	return g.Decide(path, cookieValue)
}
