package engine

import (
	"fmt"

	"github.com/roach88/sift/internal/ruleset"
)

// DecisionKind is the resolved action for a line.
type DecisionKind string

const (
	// Drop produces no output line.
	Drop DecisionKind = "drop"

	// EmitUnchanged emits the line through the output format (or
	// verbatim when no format is configured).
	EmitUnchanged DecisionKind = "emit"

	// EmitRewritten emits text computed by a rewrite rule.
	EmitRewritten DecisionKind = "rewrite"
)

// Decision is the terminal state of evaluating one line.
type Decision struct {
	Kind DecisionKind

	// Text is the final rewritten line. Only set for EmitRewritten.
	Text string

	// RuleIndex is the declared index of the rule that matched, or -1
	// when the unmatched disposition applied.
	RuleIndex int

	// RuleDescription is the matched rule's description, if any.
	RuleDescription string
}

// Rule is one enabled rule prepared for evaluation.
type Rule struct {
	// Index is the rule's declared position in the rule set. Disabled
	// rules keep their positions, so indices in errors and traces line
	// up with the document.
	Index int

	Kind        ruleset.Kind
	Description string
	When        Matcher
	Replace     string
	Scope       ruleset.Scope
}

// RewriteFunc computes the final rewritten line for a matched rewrite
// rule, given the rule and its own captures. Supplied by the Pipeline,
// which owns context composition and rendering.
type RewriteFunc func(rule Rule, caps Captures) (string, error)

// Evaluator walks the enabled rules in declaration order and produces
// a Decision for one message.
type Evaluator struct {
	rules     []Rule
	unmatched ruleset.Disposition
}

// NewEvaluator builds an evaluator over the given enabled rules.
// The slice is copied; declaration order never changes afterwards.
func NewEvaluator(rules []Rule, unmatched ruleset.Disposition) *Evaluator {
	owned := make([]Rule, len(rules))
	copy(owned, rules)

	return &Evaluator{rules: owned, unmatched: unmatched}
}

// Evaluate finds the first rule matching msg and returns its decision.
//
// First match wins across all rule kinds: a skip rule earlier in the
// sequence silences a rewrite rule later that would otherwise have
// matched. When no rule matches, the configured unmatched disposition
// decides.
func (e *Evaluator) Evaluate(msg string, rewrite RewriteFunc) (Decision, error) {
	for _, r := range e.rules {
		caps, ok := r.When.Match(msg)
		if !ok {
			continue
		}

		switch r.Kind {
		case ruleset.KindSkip:
			return Decision{Kind: Drop, RuleIndex: r.Index, RuleDescription: r.Description}, nil

		case ruleset.KindPass:
			return Decision{Kind: EmitUnchanged, RuleIndex: r.Index, RuleDescription: r.Description}, nil

		case ruleset.KindRewrite:
			text, err := rewrite(r, caps)
			if err != nil {
				return Decision{}, err
			}
			return Decision{
				Kind:            EmitRewritten,
				Text:            text,
				RuleIndex:       r.Index,
				RuleDescription: r.Description,
			}, nil

		default:
			return Decision{}, &InvariantError{
				Message: fmt.Sprintf("rule %d has unknown kind %q", r.Index, r.Kind),
			}
		}
	}

	switch e.unmatched {
	case ruleset.DispositionSkip:
		return Decision{Kind: Drop, RuleIndex: -1}, nil
	case ruleset.DispositionPass:
		return Decision{Kind: EmitUnchanged, RuleIndex: -1}, nil
	default:
		return Decision{}, &InvariantError{
			Message: fmt.Sprintf("unknown unmatched disposition %q", e.unmatched),
		}
	}
}
