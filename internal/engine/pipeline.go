package engine

import (
	"strconv"
	"strings"

	"github.com/roach88/sift/internal/ruleset"
)

// LineDecision is the record of one processed line, as seen by an
// Observer. Input is the line after global replacements.
type LineDecision struct {
	LineNo          int64
	Input           string
	Kind            DecisionKind
	RuleIndex       int
	RuleDescription string
	Output          string
	Emitted         bool
}

// Observer receives one LineDecision per processed line. Used by the
// CLI layer to record decision traces; the engine itself keeps no
// per-line state.
type Observer interface {
	Decision(d LineDecision)
}

// Pipeline evaluates lines against one compiled rule set.
//
// A Pipeline owns the only cross-line mutable state in the engine:
// the monotonically increasing line counter. Everything else is
// constructed fresh per line and discarded after rendering.
type Pipeline struct {
	rs       *ruleset.RuleSet
	renderer Renderer
	observer Observer

	input Matcher // nil when the rule set has no input pattern
	eval  *Evaluator

	lineNo int64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRenderer substitutes the template renderer. Tests use this to
// inject deterministic fakes.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

// WithObserver registers an observer for per-line decisions.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// NewPipeline prepares a pipeline for the given rule set.
//
// Matchers wrap the patterns compiled at load time, and every template
// in the rule set is parsed here, so template syntax errors surface
// before any line is processed (and before the header is emitted).
func NewPipeline(rs *ruleset.RuleSet, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		rs:       rs,
		renderer: NewTemplateRenderer(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if rs.Input != nil {
		p.input = NewMatcher(rs.Input)
	}

	enabled, indices := rs.EnabledRules()
	rules := make([]Rule, len(enabled))
	for i, r := range enabled {
		rules[i] = Rule{
			Index:       indices[i],
			Kind:        r.Kind,
			Description: r.Description,
			When:        NewMatcher(r.When),
			Replace:     r.Replace,
			Scope:       r.Scope,
		}

		if r.Kind == ruleset.KindRewrite {
			if err := p.renderer.Parse(r.Replace); err != nil {
				return nil, &TemplateError{
					RuleIndex:       indices[i],
					RuleDescription: r.Description,
					Template:        "replace",
					Err:             err,
				}
			}
		}
	}
	p.eval = NewEvaluator(rules, rs.Unmatched)

	for _, t := range []struct {
		name string
		src  string
	}{
		{"output", rs.OutputFormat},
		{"header", rs.Header},
		{"footer", rs.Footer},
	} {
		if t.src == "" {
			continue
		}
		if err := p.renderer.Parse(t.src); err != nil {
			return nil, &TemplateError{RuleIndex: -1, Template: t.name, Err: err}
		}
	}

	return p, nil
}

// Header renders the header template, if configured. It fires on
// process start, before the first line, even if that line is
// ultimately dropped.
func (p *Pipeline) Header() (string, bool, error) {
	return p.renderBracket("header", p.rs.Header)
}

// Footer renders the footer template, if configured. It fires once
// after the last input line has been consumed, regardless of how many
// lines were emitted.
func (p *Pipeline) Footer() (string, bool, error) {
	return p.renderBracket("footer", p.rs.Footer)
}

// renderBracket renders a header or footer template. The context
// carries the rule-set description and the count of lines consumed so
// far (zero for the header, the final count for the footer).
func (p *Pipeline) renderBracket(name, src string) (string, bool, error) {
	if src == "" {
		return "", false, nil
	}

	ctx := Context{
		"description": p.rs.Description,
		FieldLineNo:   strconv.FormatInt(p.lineNo, 10),
	}
	out, err := p.renderer.Render(src, ctx)
	if err != nil {
		return "", false, &TemplateError{RuleIndex: -1, Template: name, Err: err}
	}

	return out, true, nil
}

// LinesRead reports how many lines this pipeline has consumed.
func (p *Pipeline) LinesRead() int64 {
	return p.lineNo
}

// ProcessLine evaluates one raw line (without its trailing newline)
// and returns the output line, if any. Each call advances the line
// counter by exactly one.
func (p *Pipeline) ProcessLine(raw string) (string, bool, error) {
	p.lineNo++

	// Global replacements are literal and ordered: each pair applies
	// over the result of the previous one, across the full line.
	line := raw
	for _, pair := range p.rs.GlobalReplace {
		if pair.Find == "" {
			continue
		}
		line = strings.ReplaceAll(line, pair.Find, pair.Replace)
	}

	// Input parse. No input pattern, or an input pattern that does not
	// match, binds the whole (replaced) line to msg with no extra
	// fields.
	msg := line
	var inputCaps Captures
	if p.input != nil {
		if caps, ok := p.input.Match(line); ok {
			inputCaps = caps
			if m, ok := caps[FieldMsg]; ok {
				msg = m
			}
		}
	}

	builtins := Builtins(msg, p.lineNo)

	decision, err := p.eval.Evaluate(msg, func(rule Rule, caps Captures) (string, error) {
		return p.rewrite(rule, caps, builtins, inputCaps)
	})
	if err != nil {
		return "", false, err
	}

	out, emitted, err := p.resolve(decision, line, builtins, inputCaps)
	if err != nil {
		return "", false, err
	}

	if p.observer != nil {
		p.observer.Decision(LineDecision{
			LineNo:          p.lineNo,
			Input:           line,
			Kind:            decision.Kind,
			RuleIndex:       decision.RuleIndex,
			RuleDescription: decision.RuleDescription,
			Output:          out,
			Emitted:         emitted,
		})
	}

	return out, emitted, nil
}

// rewrite computes the final text for a matched rewrite rule.
//
// Message scope renders the replace template, substitutes the result
// for msg in a recomposed context, and renders the output format over
// that (or emits the new msg directly when no format is configured).
// Line scope renders the replace template and uses the result
// verbatim, bypassing the output format entirely.
func (p *Pipeline) rewrite(rule Rule, caps Captures, builtins Context, inputCaps Captures) (string, error) {
	ctx := Compose(builtins, inputCaps, caps)

	rendered, err := p.renderer.Render(rule.Replace, ctx)
	if err != nil {
		return "", &TemplateError{
			LineNo:          p.lineNo,
			RuleIndex:       rule.Index,
			RuleDescription: rule.Description,
			Template:        "replace",
			Err:             err,
		}
	}

	if rule.Scope == ruleset.ScopeLine {
		return rendered, nil
	}

	if p.rs.OutputFormat == "" {
		return rendered, nil
	}

	newBuiltins := Context{
		FieldMsg:    rendered,
		FieldLineNo: builtins[FieldLineNo],
	}
	outCtx := Compose(newBuiltins, inputCaps, caps)

	out, err := p.renderer.Render(p.rs.OutputFormat, outCtx)
	if err != nil {
		return "", &TemplateError{
			LineNo:          p.lineNo,
			RuleIndex:       rule.Index,
			RuleDescription: rule.Description,
			Template:        "output",
			Err:             err,
		}
	}

	return out, nil
}

// resolve turns a terminal decision into zero or one output lines.
func (p *Pipeline) resolve(d Decision, line string, builtins Context, inputCaps Captures) (string, bool, error) {
	switch d.Kind {
	case Drop:
		return "", false, nil

	case EmitRewritten:
		return d.Text, true, nil

	case EmitUnchanged:
		if p.rs.OutputFormat == "" {
			return line, true, nil
		}

		ctx := Compose(builtins, inputCaps)
		out, err := p.renderer.Render(p.rs.OutputFormat, ctx)
		if err != nil {
			return "", false, &TemplateError{
				LineNo:          p.lineNo,
				RuleIndex:       d.RuleIndex,
				RuleDescription: d.RuleDescription,
				Template:        "output",
				Err:             err,
			}
		}
		return out, true, nil

	default:
		return "", false, &InvariantError{
			Message: "unknown decision kind " + string(d.Kind),
		}
	}
}
