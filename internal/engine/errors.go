package engine

import "fmt"

// TemplateError is a rendering fault during line processing: an
// undefined placeholder reference or any fault raised by the template
// engine. It is fatal for the run; the engine never emits a partial or
// best-effort line.
type TemplateError struct {
	// LineNo is the 1-based number of the line being processed.
	LineNo int64

	// RuleIndex is the declared index of the rule whose template
	// failed, or -1 when the failure is not attributable to a rule
	// (output format on an unmatched line, header, footer).
	RuleIndex int

	// RuleDescription is the offending rule's description, if any.
	RuleDescription string

	// Template names which template failed: "replace", "output",
	// "header", or "footer".
	Template string

	// Err is the underlying engine error.
	Err error
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	where := e.Template
	if e.RuleIndex >= 0 {
		desc := e.RuleDescription
		if desc == "" {
			desc = "unnamed"
		}
		where = fmt.Sprintf("%s template of rule %d (%s)", e.Template, e.RuleIndex, desc)
	} else {
		where = fmt.Sprintf("%s template", e.Template)
	}

	if e.LineNo > 0 {
		return fmt.Sprintf("line %d: %s: %v", e.LineNo, where, e.Err)
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

// Unwrap returns the underlying error.
func (e *TemplateError) Unwrap() error {
	return e.Err
}

// InvariantError reports a condition that cannot occur after a
// successful rule-set load, such as an unknown rule kind reaching
// dispatch. It indicates a bug, not a user error.
type InvariantError struct {
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return "internal invariant violated: " + e.Message
}
