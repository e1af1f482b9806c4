package ruleset

import "fmt"

// ErrorCode categorizes load errors.
type ErrorCode string

const (
	// ErrCodeRead indicates the document could not be read.
	ErrCodeRead ErrorCode = "READ_FAILED"

	// ErrCodeSchema indicates the document failed structural
	// validation against the rule-set schema.
	ErrCodeSchema ErrorCode = "SCHEMA_INVALID"

	// ErrCodeDecode indicates the document is not valid YAML or could
	// not be decoded into the document shape.
	ErrCodeDecode ErrorCode = "DECODE_FAILED"

	// ErrCodeBadPattern indicates a regular expression failed to
	// compile.
	ErrCodeBadPattern ErrorCode = "BAD_PATTERN"

	// ErrCodeBadFlags indicates a pattern declared a flag outside
	// "ims".
	ErrCodeBadFlags ErrorCode = "BAD_FLAGS"

	// ErrCodeBadValue indicates an enum field holds a value outside
	// its allowed set, or a required field is missing.
	ErrCodeBadValue ErrorCode = "BAD_VALUE"
)

// Error is a rule-set load error. Load errors are fatal: they are
// raised once, before any line is processed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field locates the offending document entry, e.g.
	// "rules[2].when.regex". Empty when the error concerns the whole
	// document.
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
