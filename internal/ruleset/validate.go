package ruleset

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// validateDocument checks the raw YAML document against the embedded
// CUE schema before it is decoded. This is where unknown enum values,
// bad flag strings, and missing required sub-keys are rejected, with
// positions pointing into the document.
func validateDocument(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a bug, not
		// a user error, but it still must not pass validation.
		return &Error{Code: ErrCodeSchema, Message: "compile embedded schema", Err: err}
	}

	file, err := cueyaml.Extract("ruleset.yaml", data)
	if err != nil {
		return &Error{Code: ErrCodeDecode, Message: "parse YAML document", Err: err}
	}

	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &Error{Code: ErrCodeDecode, Message: "build YAML document", Err: err}
	}

	unified := schema.LookupPath(cue.ParsePath("#Document")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &Error{
			Code:    ErrCodeSchema,
			Message: cueerrors.Details(err, &cueerrors.Config{Cwd: "."}),
			Err:     err,
		}
	}

	return nil
}
