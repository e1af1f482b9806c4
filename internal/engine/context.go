package engine

import "strconv"

// Reserved field names. These are always populated by the pipeline and
// can never be overridden by captures.
const (
	// FieldMsg holds the current message text.
	FieldMsg = "msg"

	// FieldLineNo holds the 1-based input line number, as a decimal
	// string.
	FieldLineNo = "line_no"
)

// Context is the per-line immutable lookup used for template
// rendering. It is constructed fresh per line and discarded after
// rendering.
type Context map[string]string

// Builtins constructs the reserved layer for one line.
func Builtins(msg string, lineNo int64) Context {
	return Context{
		FieldMsg:    msg,
		FieldLineNo: strconv.FormatInt(lineNo, 10),
	}
}

// Compose merges capture layers and builtins into one Context.
//
// Layers apply in the given order, later layers overwriting earlier
// ones for the same key. Builtins always win regardless of position:
// msg and line_no are reserved names. Compose is total; unknown
// placeholder lookups are the Renderer's concern.
func Compose(builtins Context, layers ...Captures) Context {
	size := len(builtins)
	for _, layer := range layers {
		size += len(layer)
	}

	ctx := make(Context, size)
	for _, layer := range layers {
		for k, v := range layer {
			ctx[k] = v
		}
	}
	for k, v := range builtins {
		ctx[k] = v
	}

	return ctx
}
