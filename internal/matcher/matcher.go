// Package matcher matches template names against glob and regex patterns,
// as used by --template selectors.
package matcher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions.
	Regex
	// Auto detects the pattern type.
	Auto
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", int(pt))
	}
}

// Matcher matches strings against one pattern. It is immutable and safe
// for concurrent use.
type Matcher struct {
	pattern         string
	patternType     PatternType
	compiled        *regexp.Regexp
	glob            string
	caseInsensitive bool
}

// Options configures the matcher behavior.
type Options struct {
	// CaseInsensitive makes matching case-insensitive.
	CaseInsensitive bool
	// Anchored adds ^ and $ to regex patterns if not present.
	Anchored bool
}

// New creates a Matcher for pattern. A nil opts uses the zero Options.
func New(patternType PatternType, pattern string, opts *Options) (*Matcher, error) {
	if opts == nil {
		opts = &Options{}
	}
	if patternType == Auto {
		patternType = detectPatternType(pattern)
	}

	m := &Matcher{
		pattern:         pattern,
		patternType:     patternType,
		caseInsensitive: opts.CaseInsensitive,
	}

	switch patternType {
	case Glob:
		m.glob = pattern
		if opts.CaseInsensitive {
			m.glob = strings.ToLower(pattern)
		}
		if _, err := filepath.Match(m.glob, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
	case Regex:
		expr := pattern
		if opts.Anchored {
			if !strings.HasPrefix(expr, "^") {
				expr = "^" + expr
			}
			if !strings.HasSuffix(expr, "$") {
				expr += "$"
			}
		}
		if opts.CaseInsensitive && !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		m.compiled = compiled
	default:
		return nil, fmt.Errorf("unsupported pattern type: %v", patternType)
	}
	return m, nil
}

// Match reports whether input matches the pattern.
func (m *Matcher) Match(input string) bool {
	switch m.patternType {
	case Glob:
		if m.caseInsensitive {
			input = strings.ToLower(input)
		}
		matched, _ := filepath.Match(m.glob, input)
		return matched
	case Regex:
		return m.compiled.MatchString(input)
	default:
		return false
	}
}

// MatchAll returns the inputs that match, in order.
func (m *Matcher) MatchAll(inputs ...string) []string {
	var results []string
	for _, input := range inputs {
		if m.Match(input) {
			results = append(results, input)
		}
	}
	return results
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Type returns the pattern type in use.
func (m *Matcher) Type() PatternType {
	return m.patternType
}

// detectPatternType treats a pattern as a regex when it carries regex
// metacharacters that globs never use.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\D", "\\W", "\\S",
		"(?:", "(?i)", "(?m)", "(?s)",
		"{", "}", "+", "|", ".*",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}

// Selector selects names by exact name or by any of a list of patterns.
// An empty Selector selects everything.
type Selector struct {
	exact    map[string]bool
	matchers []*Matcher
	hits     map[string]int
}

// NewSelector compiles patterns with auto-detected types. Matching is
// case-insensitive; an exact name is always matched literally first.
func NewSelector(patterns ...string) (*Selector, error) {
	s := &Selector{exact: make(map[string]bool, len(patterns)), hits: make(map[string]int, len(patterns))}
	for _, p := range patterns {
		s.exact[p] = true
		m, err := New(Auto, p, &Options{CaseInsensitive: true, Anchored: true})
		if err != nil {
			return nil, err
		}
		s.matchers = append(s.matchers, m)
	}
	return s, nil
}

// Empty reports whether the selector has no patterns.
func (s *Selector) Empty() bool {
	return len(s.matchers) == 0
}

// Select reports whether name is selected and counts the hit. Select is
// not safe for concurrent use.
func (s *Selector) Select(name string) bool {
	if s.Empty() {
		return true
	}
	if s.exact[name] {
		s.hits[name]++
		return true
	}
	for _, m := range s.matchers {
		if m.Match(name) {
			s.hits[m.Pattern()]++
			return true
		}
	}
	return false
}

// Unmatched returns the patterns that selected nothing so far.
func (s *Selector) Unmatched() []string {
	var out []string
	for _, m := range s.matchers {
		if s.hits[m.Pattern()] == 0 {
			out = append(out, m.Pattern())
		}
	}
	return out
}
