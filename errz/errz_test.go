package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
)

func TestErrorRendering(t *testing.T) {
	err := New(ErrSyntax, CodeMissingType, "Variable 'x' requires explicit type annotation")
	assert.Equal(t, err.Error(), "syntax error: Variable 'x' requires explicit type annotation")

	err = err.At(3, 7)
	assert.Equal(t, err.Error(), "syntax error: Variable 'x' requires explicit type annotation (3:7)")
}

func TestMachineFormat(t *testing.T) {
	err := Newf(ErrName, CodeUndefinedName, "Undefined local: %s", "x").At(2, 5)
	assert.Equal(t, err.MachineFormat(), "ERROR:UNDEFINED_NAME:2:5:Undefined local: x")
}

func TestMachineFormatDefaultsCode(t *testing.T) {
	err := &StructuredError{Kind: ErrSyntax, Message: "oops"}
	assert.Equal(t, err.MachineFormat(), "ERROR:PARSE_ERROR:0:0:oops")
}

func TestFriendlyErrorMessage(t *testing.T) {
	err := New(ErrSyntax, CodeParseError, "unexpected token").
		At(1, 5).
		WithSource("(fn x)")
	msg := err.FriendlyErrorMessage()
	assert.Contains(t, msg, "syntax error: unexpected token (1:5)")
	assert.Contains(t, msg, " | (fn x)\n")
	assert.Contains(t, msg, " |     ^\n")
}

func TestFriendlyErrorMessageWithoutSource(t *testing.T) {
	msg := New(ErrRuntime, CodeRuntimeError, "Division by zero").FriendlyErrorMessage()
	assert.Equal(t, msg, "runtime error: Division by zero\n")
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := New(ErrImport, CodeImportError, "Cannot load module 'x'").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestKindStrings(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrSyntax, "syntax error"},
		{ErrName, "name error"},
		{ErrArity, "arity error"},
		{ErrValue, "value error"},
		{ErrRuntime, "runtime error"},
		{ErrImport, "import error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind.String(), tt.want)
	}
}
