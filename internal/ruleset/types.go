package ruleset

import "regexp"

// Kind identifies what a rule does when its pattern matches.
type Kind string

const (
	// KindSkip drops any line whose message matches the rule.
	KindSkip Kind = "skip"

	// KindPass emits any line whose message matches the rule unchanged.
	KindPass Kind = "pass"

	// KindRewrite replaces the message (or the whole line, depending on
	// Scope) with a rendered template.
	KindRewrite Kind = "rewrite"
)

// ValidKinds defines the allowed rule kinds.
var ValidKinds = map[Kind]bool{
	KindSkip:    true,
	KindPass:    true,
	KindRewrite: true,
}

// Scope controls what part of the output a rewrite replaces.
type Scope string

const (
	// ScopeMessage rewrites only the msg field; the output format still
	// applies to the result.
	ScopeMessage Scope = "message"

	// ScopeLine rewrites the entire output line, bypassing the output
	// format.
	ScopeLine Scope = "line"
)

// ValidScopes defines the allowed rewrite scopes.
var ValidScopes = map[Scope]bool{
	ScopeMessage: true,
	ScopeLine:    true,
}

// Disposition is the fallback action for lines no enabled rule matches.
type Disposition string

const (
	// DispositionPass emits unmatched lines.
	DispositionPass Disposition = "pass"

	// DispositionSkip drops unmatched lines.
	DispositionSkip Disposition = "skip"
)

// ValidDispositions defines the allowed unmatched dispositions.
var ValidDispositions = map[Disposition]bool{
	DispositionPass: true,
	DispositionSkip: true,
}

// Pattern is a compiled regular expression plus the flag letters it was
// declared with. Patterns are compiled exactly once, at load time, and
// reused for every line.
type Pattern struct {
	// Source is the regex as written in the document, without flags.
	Source string

	// Flags is the declared subset of "ims" (case-insensitive,
	// multiline, dot-matches-newline).
	Flags string

	re *regexp.Regexp
}

// Regexp returns the compiled expression.
func (p *Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// Rule is one compiled entry in the rule sequence.
//
// Replace and Scope are only meaningful for KindRewrite; the loader
// guarantees Replace is set and Scope is valid for rewrite rules.
type Rule struct {
	Kind        Kind
	Description string
	Enabled     bool
	When        *Pattern
	Replace     string
	Scope       Scope
}

// ReplacePair is one literal find/replace entry of global_replace.
type ReplacePair struct {
	Find    string
	Replace string
}

// RuleSet is the compiled form of one rule-set document.
//
// The Rules slice preserves declaration order. That order is
// load-bearing: evaluation is strictly first-match-wins across all
// rule kinds.
type RuleSet struct {
	Description string

	// Unmatched is the disposition applied when no enabled rule
	// matches a line.
	Unmatched Disposition

	// GlobalReplace holds literal find/replace pairs applied to every
	// raw line, in declaration order, before parsing and rules.
	GlobalReplace []ReplacePair

	// Input optionally parses each line into named fields. Its capture
	// group named "msg" is reserved for the message text; all other
	// group names become ordinary fields. Nil means the whole line is
	// the message.
	Input *Pattern

	// OutputFormat is the template emitted lines are rendered with.
	// Empty means lines are emitted verbatim.
	OutputFormat string

	Rules []Rule

	// Header and Footer are templates emitted once around the stream.
	// Empty means absent.
	Header string
	Footer string
}

// EnabledRules returns the rules with Enabled set, preserving
// declaration order. The second return value maps positions in the
// returned slice back to declared indices, for error and trace
// reporting.
func (rs *RuleSet) EnabledRules() ([]Rule, []int) {
	rules := make([]Rule, 0, len(rs.Rules))
	indices := make([]int, 0, len(rs.Rules))

	for i, r := range rs.Rules {
		if !r.Enabled {
			continue
		}
		rules = append(rules, r)
		indices = append(indices, i)
	}

	return rules, indices
}
