package lexer

import (
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/aisl-lang/aisl/internal/token"
)

func TestSimpleFunction(t *testing.T) {
	input := `(mod demo (fn add (a i64) (b i64) -> i64 (ret (call op_add_i64 a b))))`
	tests := []struct {
		typ     token.Type
		literal string
	}{
		{token.LPAREN, "("},
		{token.MOD, "mod"},
		{token.IDENT, "demo"},
		{token.LPAREN, "("},
		{token.FN, "fn"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.TYPENAME, "i64"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.IDENT, "b"},
		{token.TYPENAME, "i64"},
		{token.RPAREN, ")"},
		{token.ARROW, "->"},
		{token.TYPENAME, "i64"},
		{token.LPAREN, "("},
		{token.RET, "ret"},
		{token.LPAREN, "("},
		{token.CALL, "call"},
		{token.IDENT, "op_add_i64"},
		{token.IDENT, "a"},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.EOF, ""},
	}
	l := New(input)
	for i, tt := range tests {
		tok, err := l.Next()
		assert.Nil(t, err)
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - type wrong, expected=%q, got=%q", i, tt.typ, tok.Type)
		}
		if tok.Literal != tt.literal {
			t.Fatalf("tests[%d] - literal wrong, expected=%q, got=%q", i, tt.literal, tok.Literal)
		}
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input   string
		typ     token.Type
		literal string
	}{
		{"42", token.INT, "42"},
		{"-7", token.INT, "-7"},
		{"3.14", token.FLOAT, "3.14"},
		{"-0.5", token.FLOAT, "-0.5"},
		{"0", token.INT, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok, err := New(tt.input).Next()
			assert.Nil(t, err)
			assert.Equal(t, tok.Type, tt.typ)
			assert.Equal(t, tok.Literal, tt.literal)
		})
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"quote \" end"`, `quote " end`},
		{`"back\\slash"`, `back\slash`},
		{`"unknown \q escape"`, `unknown \q escape`},
		{`""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok, err := New(tt.input).Next()
			assert.Nil(t, err)
			assert.Equal(t, tok.Type, token.STRING)
			assert.Equal(t, tok.Literal, tt.want)
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := New(`"no closing quote`).Next()
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unterminated string")
}

func TestIllegalCharacter(t *testing.T) {
	tok, err := New("@").Next()
	assert.NotNil(t, err)
	assert.Equal(t, tok.Type, token.ILLEGAL)
}

func TestArrowEndsIdentifier(t *testing.T) {
	tokens, err := Tokenize("a->int")
	assert.Nil(t, err)
	assert.Len(t, tokens, 4) // a, ->, int, EOF
	assert.Equal(t, tokens[0].Type, token.IDENT)
	assert.Equal(t, tokens[1].Type, token.ARROW)
	assert.Equal(t, tokens[2].Type, token.TYPENAME)
}

func TestHyphenatedKeywords(t *testing.T) {
	tokens, err := Tokenize("test-spec meta-note assert-fail some-name")
	assert.Nil(t, err)
	assert.Equal(t, tokens[0].Type, token.TEST_SPEC)
	assert.Equal(t, tokens[1].Type, token.META_NOTE)
	assert.Equal(t, tokens[2].Type, token.ASSERT_FAIL)
	assert.Equal(t, tokens[3].Type, token.IDENT)
	assert.Equal(t, tokens[3].Literal, "some-name")
}

func TestPositions(t *testing.T) {
	input := "(fn\n  add)"
	tokens, err := Tokenize(input, WithFile("demo.aisl"))
	assert.Nil(t, err)

	// "add" sits on line 2 at column 3.
	add := tokens[2]
	assert.Equal(t, add.Literal, "add")
	assert.Equal(t, add.StartPosition.LineNumber(), 2)
	assert.Equal(t, add.StartPosition.ColumnNumber(), 3)
	assert.Equal(t, add.StartPosition.File, "demo.aisl")
}

func TestLegacyKeywords(t *testing.T) {
	tokens, err := Tokenize("Module DefFn Let In If Then Else Apply Var LitInt Seq")
	assert.Nil(t, err)
	want := []token.Type{
		token.MODULE, token.DEFFN, token.LET, token.IN, token.IF, token.THEN,
		token.ELSE, token.APPLY, token.VAR, token.LIT_INT, token.SEQ, token.EOF,
	}
	assert.Len(t, tokens, len(want))
	for i, typ := range want {
		assert.Equal(t, tokens[i].Type, typ)
	}
}
