package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose_LaterLayersWin(t *testing.T) {
	ctx := Compose(
		Builtins("hello", 1),
		Captures{"level": "info", "host": "a"},
		Captures{"level": "warn"},
	)

	assert.Equal(t, "warn", ctx["level"], "later layers overwrite earlier ones")
	assert.Equal(t, "a", ctx["host"])
}

func TestCompose_BuiltinsNeverOverridable(t *testing.T) {
	ctx := Compose(
		Builtins("the message", 7),
		Captures{"msg": "hijacked", "line_no": "999"},
		Captures{"msg": "hijacked again"},
	)

	assert.Equal(t, "the message", ctx[FieldMsg])
	assert.Equal(t, "7", ctx[FieldLineNo])
}

func TestCompose_NoLayers(t *testing.T) {
	ctx := Compose(Builtins("m", 3))

	assert.Equal(t, Context{FieldMsg: "m", FieldLineNo: "3"}, ctx)
}

func TestCompose_NilLayersIgnored(t *testing.T) {
	ctx := Compose(Builtins("m", 1), nil, Captures{"k": "v"}, nil)

	assert.Equal(t, "v", ctx["k"])
	assert.Len(t, ctx, 3)
}

func TestBuiltins_LineNoIsDecimalString(t *testing.T) {
	assert.Equal(t, "12", Builtins("x", 12)[FieldLineNo])
}
