package gate

import (
	"fmt"
	"strings"
)

type segKind int

const (
	segLiteral segKind = iota
	segParam           // :name
	segOptional        // :name?
	segZeroOrMore      // :name*
	segOneOrMore       // :name+
)

type segment struct {
	kind  segKind
	value string
}

type pattern struct {
	raw  string
	segs []segment
}

// Matcher holds route patterns in the style of "/update-product/:productId*".
type Matcher struct {
	patterns []pattern
}

func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, raw := range patterns {
		p, err := compile(raw)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

func compile(raw string) (pattern, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") {
		return pattern{}, fmt.Errorf("pattern %q must start with /", raw)
	}
	p := pattern{raw: raw}
	parts := splitPath(raw)
	for i, part := range parts {
		if !strings.HasPrefix(part, ":") {
			p.segs = append(p.segs, segment{kind: segLiteral, value: part})
			continue
		}
		name := part[1:]
		kind := segParam
		switch {
		case strings.HasSuffix(name, "*"):
			kind = segZeroOrMore
		case strings.HasSuffix(name, "+"):
			kind = segOneOrMore
		case strings.HasSuffix(name, "?"):
			kind = segOptional
		}
		if kind != segParam {
			name = name[:len(name)-1]
		}
		if name == "" {
			return pattern{}, fmt.Errorf("pattern %q has an unnamed parameter", raw)
		}
		if kind != segParam && i != len(parts)-1 {
			return pattern{}, fmt.Errorf("pattern %q: optional or repeating parameter must be last", raw)
		}
		p.segs = append(p.segs, segment{kind: kind, value: name})
	}
	return p, nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Match reports whether path matches any pattern.
func (m *Matcher) Match(path string) bool {
	parts := splitPath(path)
	for _, p := range m.patterns {
		if p.match(parts) {
			return true
		}
	}
	return false
}

func (p pattern) match(parts []string) bool {
	i := 0
	for _, s := range p.segs {
		switch s.kind {
		case segLiteral:
			if i >= len(parts) || parts[i] != s.value {
				return false
			}
			i++
		case segParam:
			if i >= len(parts) {
				return false
			}
			i++
		case segOptional:
			if i < len(parts) {
				i++
			}
		case segZeroOrMore:
			return true
		case segOneOrMore:
			return i < len(parts)
		}
	}
	return i == len(parts)
}
