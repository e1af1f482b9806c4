package engine

import (
	"regexp"

	"github.com/roach88/sift/internal/ruleset"
)

// Captures maps named capture groups to the text they matched.
type Captures map[string]string

// Matcher tests a string against a pattern and, on success, returns
// the named groups that participated in the match.
//
// Implemented by patternMatcher (production) and test fakes.
type Matcher interface {
	// Match searches text for the pattern. Matching is "search", not
	// "full-match": a pattern may match a substring. Groups that did
	// not participate (e.g. inside an unmatched alternation branch)
	// are omitted from the result, not bound to the empty string.
	Match(text string) (Captures, bool)
}

// patternMatcher is a Matcher backed by a pre-compiled regular
// expression. Compilation happened at rule-set load time; matching
// never compiles.
type patternMatcher struct {
	re *regexp.Regexp
}

// NewMatcher wraps a compiled pattern.
func NewMatcher(p *ruleset.Pattern) Matcher {
	return &patternMatcher{re: p.Regexp()}
}

// Match implements Matcher.
func (m *patternMatcher) Match(text string) (Captures, bool) {
	idx := m.re.FindStringSubmatchIndex(text)
	if idx == nil {
		return nil, false
	}

	names := m.re.SubexpNames()
	caps := make(Captures, len(names))
	for i, name := range names {
		if i == 0 || name == "" {
			continue
		}
		start, end := idx[2*i], idx[2*i+1]
		if start < 0 {
			// Group did not participate in the match.
			continue
		}
		caps[name] = text[start:end]
	}

	return caps, true
}
