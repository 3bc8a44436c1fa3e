package token

import (
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
)

func TestLookupIdentifier(t *testing.T) {
	for key, val := range keywords {
		if LookupIdentifier(key) != val {
			t.Errorf("lookup of %s failed", key)
		}
	}
	// Builtin operation names are ordinary identifiers, not keywords.
	for _, name := range []string{"print", "array_push", "op_add_i64", "main"} {
		assert.Equal(t, LookupIdentifier(name), IDENT)
	}
}

func TestLookupIsCaseSensitive(t *testing.T) {
	// Legacy keywords are capitalized; uppercasing a current-dialect keyword
	// must not match it.
	assert.Equal(t, LookupIdentifier("mod"), MOD)
	assert.Equal(t, LookupIdentifier(strings.ToUpper("mod")), IDENT)
	assert.Equal(t, LookupIdentifier("While"), WHILE)
	assert.Equal(t, LookupIdentifier("while"), WHILE)
}

func TestTypeNamesShareOneTokenType(t *testing.T) {
	for _, name := range []string{"int", "i64", "f64", "string", "bool", "unit", "array", "map", "json"} {
		assert.Equal(t, LookupIdentifier(name), TYPENAME)
	}
}

func TestPosition(t *testing.T) {
	pos := Position{Char: 10, LineStart: 5, Line: 2, Column: 5, File: "main.aisl"}
	assert.Equal(t, pos.LineNumber(), 3)
	assert.Equal(t, pos.ColumnNumber(), 6)
	assert.True(t, pos.IsValid())
	assert.False(t, NoPos.IsValid())

	moved := pos.Advance(3)
	assert.Equal(t, moved.Char, 13)
	assert.Equal(t, moved.Column, 8)
	assert.Equal(t, moved.Line, pos.Line)
}
