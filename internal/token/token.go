// Package token defines language keywords and tokens used when lexing AISL
// source code.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the file
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Advance returns a new Position advanced by n bytes.
// Note: This assumes the advance does not cross line boundaries.
func (p Position) Advance(n int) Position {
	return Position{
		Char:      p.Char + n,
		LineStart: p.LineStart,
		Line:      p.Line,
		Column:    p.Column + n,
		File:      p.File,
	}
}

// IsValid returns true if this position has been set.
func (p Position) IsValid() bool {
	return p.File != "" || p.Line > 0 || p.Column > 0 || p.Char > 0
}

// NoPos is the zero value Position, representing an invalid/unset position.
var NoPos = Position{}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Delimiters
	LPAREN   Type = "("
	RPAREN   Type = ")"
	LBRACKET Type = "["
	RBRACKET Type = "]"
	COLON    Type = ":"
	COMMA    Type = ","
	ASSIGN   Type = "="
	ARROW    Type = "->"

	// Literals and identifiers
	INT    Type = "INT"
	FLOAT  Type = "FLOAT"
	STRING Type = "STRING"
	IDENT  Type = "IDENT"

	// Legacy module dialect
	MODULE       Type = "Module"
	IMPORT       Type = "Import"
	EXPORT       Type = "Export"
	DEFFN        Type = "DefFn"
	DEFCONST     Type = "DefConst"
	LET          Type = "Let"
	IN           Type = "In"
	IF           Type = "If"
	THEN         Type = "Then"
	ELSE         Type = "Else"
	MATCH        Type = "Match"
	LAMBDA       Type = "Lambda"
	APPLY        Type = "Apply"
	VAR          Type = "Var"
	LIT_INT      Type = "LitInt"
	LIT_STRING   Type = "LitString"
	LIT_BOOL     Type = "LitBool"
	LIT_UNIT     Type = "LitUnit"
	ADD          Type = "Add"
	SUB          Type = "Sub"
	MUL          Type = "Mul"
	DIV          Type = "Div"
	EQ           Type = "Eq"
	LT           Type = "Lt"
	GT           Type = "Gt"
	LTE          Type = "Lte"
	GTE          Type = "Gte"
	SEQ          Type = "Seq"
	SPAWN        Type = "Spawn"
	AWAIT        Type = "Await"
	CHANNEL_NEW  Type = "ChannelNew"
	CHANNEL_SEND Type = "ChannelSend"
	CHANNEL_RECV Type = "ChannelRecv"
	IO_OPEN      Type = "IOOpen"
	IO_READ      Type = "IORead"
	IO_WRITE     Type = "IOWrite"
	IO_CLOSE     Type = "IOClose"
	DO           Type = "Do"

	// Current dialect
	MOD      Type = "mod"
	DEFS     Type = "defs"
	FN       Type = "fn"
	CALL     Type = "call"
	SET      Type = "set"
	RET      Type = "ret"
	OP       Type = "op"
	FOR      Type = "for"
	WHILE    Type = "while"
	LOOP     Type = "loop"
	BREAK    Type = "break"
	CONTINUE Type = "continue"

	// Boolean literals
	TRUE  Type = "true"
	FALSE Type = "false"

	// Type names. All type keywords share one token type; the Literal field
	// carries the specific name.
	TYPENAME Type = "TYPENAME"

	// Test framework vocabulary
	TEST_SPEC     Type = "test-spec"
	PROPERTY_SPEC Type = "property-spec"
	META_NOTE     Type = "meta-note"
	CASE          Type = "case"
	PROPERTY      Type = "property"
	INPUT         Type = "input"
	EXPECT        Type = "expect"
	SETUP         Type = "setup"
	MOCK          Type = "mock"
	FORALL        Type = "forall"
	CONSTRAINT    Type = "constraint"
	ASSERT        Type = "assert"
	ASSERT_FAIL   Type = "assert-fail"
	MATCH_RESULT  Type = "match-result"
	MATCH_OPTION  Type = "match-option"
	OK            Type = "ok"
	ERR           Type = "err"
	SOME          Type = "some"
	NONE          Type = "none"
)

// Reserved keywords
var keywords = map[string]Type{
	"Module":      MODULE,
	"Import":      IMPORT,
	"Export":      EXPORT,
	"DefFn":       DEFFN,
	"DefConst":    DEFCONST,
	"Let":         LET,
	"In":          IN,
	"If":          IF,
	"Then":        THEN,
	"Else":        ELSE,
	"Match":       MATCH,
	"Lambda":      LAMBDA,
	"Apply":       APPLY,
	"Var":         VAR,
	"LitInt":      LIT_INT,
	"LitString":   LIT_STRING,
	"LitBool":     LIT_BOOL,
	"LitUnit":     LIT_UNIT,
	"Add":         ADD,
	"Sub":         SUB,
	"Mul":         MUL,
	"Div":         DIV,
	"Eq":          EQ,
	"Lt":          LT,
	"Gt":          GT,
	"Lte":         LTE,
	"Gte":         GTE,
	"Seq":         SEQ,
	"Spawn":       SPAWN,
	"Await":       AWAIT,
	"ChannelNew":  CHANNEL_NEW,
	"ChannelSend": CHANNEL_SEND,
	"ChannelRecv": CHANNEL_RECV,
	"IOOpen":      IO_OPEN,
	"IORead":      IO_READ,
	"IOWrite":     IO_WRITE,
	"IOClose":     IO_CLOSE,
	"While":       WHILE,
	"Do":          DO,

	"mod":      MOD,
	"defs":     DEFS,
	"fn":       FN,
	"call":     CALL,
	"set":      SET,
	"ret":      RET,
	"op":       OP,
	"for":      FOR,
	"while":    WHILE,
	"loop":     LOOP,
	"break":    BREAK,
	"continue": CONTINUE,

	"true":  TRUE,
	"false": FALSE,

	"string": TYPENAME,
	"bool":   TYPENAME,
	"unit":   TYPENAME,
	"int":    TYPENAME,
	"float":  TYPENAME,
	"i8":     TYPENAME,
	"i16":    TYPENAME,
	"i32":    TYPENAME,
	"i64":    TYPENAME,
	"u8":     TYPENAME,
	"u16":    TYPENAME,
	"u32":    TYPENAME,
	"u64":    TYPENAME,
	"f32":    TYPENAME,
	"f64":    TYPENAME,
	"array":  TYPENAME,
	"map":    TYPENAME,
	"json":   TYPENAME,

	"test-spec":     TEST_SPEC,
	"property-spec": PROPERTY_SPEC,
	"meta-note":     META_NOTE,
	"case":          CASE,
	"property":      PROPERTY,
	"input":         INPUT,
	"expect":        EXPECT,
	"setup":         SETUP,
	"mock":          MOCK,
	"forall":        FORALL,
	"constraint":    CONSTRAINT,
	"assert":        ASSERT,
	"assert-fail":   ASSERT_FAIL,
	"match-result":  MATCH_RESULT,
	"match-option":  MATCH_OPTION,
	"ok":            OK,
	"err":           ERR,
	"some":          SOME,
	"none":          NONE,
}

// LookupIdentifier is used to determine whether an identifier is a keyword.
// Names like print or array_push are ordinary identifiers; the compiler, not
// the lexer, gives them meaning.
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}
