// Package lexer provides a lexer for AISL source code.
//
// The scanner recognizes the S-expression delimiters, integer, float, and
// string literals, identifiers, and the keyword vocabulary of both module
// dialects. It tracks byte offset, line, and column so every token carries
// start and end positions for diagnostics.
package lexer

import (
	"fmt"
	"strings"

	"github.com/aisl-lang/aisl/internal/token"
)

// Lexer tokenizes an immutable input string one token at a time.
type Lexer struct {
	input     string
	pos       int // byte offset of the current character
	line      int // 0-indexed current line
	lineStart int // byte offset of the start of the current line
	file      string
}

// Option is a function that configures a Lexer.
type Option func(*Lexer)

// WithFile sets the filename recorded on token positions.
func WithFile(name string) Option {
	return func(l *Lexer) {
		l.file = name
	}
}

// New returns a Lexer for the given input.
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{input: input}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tokenize runs the lexer over the whole input and returns all tokens up to
// and including EOF. The first lexical error stops the scan.
func Tokenize(input string, opts ...Option) ([]token.Token, error) {
	l := New(input, opts...)
	var tokens []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.file,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) advance() byte {
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.lineStart = l.pos
	}
	return c
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r', '\n', '\v', '\f':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) makeToken(typ token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.position(),
	}
}

// Next consumes and returns one token. At the end of the input it returns an
// EOF token; an unrecognized character yields an ILLEGAL token and an error.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	start := l.position()
	if l.pos >= len(l.input) {
		return l.makeToken(token.EOF, "", start), nil
	}
	c := l.peek()
	switch c {
	case '(':
		l.advance()
		return l.makeToken(token.LPAREN, "(", start), nil
	case ')':
		l.advance()
		return l.makeToken(token.RPAREN, ")", start), nil
	case '[':
		l.advance()
		return l.makeToken(token.LBRACKET, "[", start), nil
	case ']':
		l.advance()
		return l.makeToken(token.RBRACKET, "]", start), nil
	case ':':
		l.advance()
		return l.makeToken(token.COLON, ":", start), nil
	case ',':
		l.advance()
		return l.makeToken(token.COMMA, ",", start), nil
	case '=':
		l.advance()
		return l.makeToken(token.ASSIGN, "=", start), nil
	case '-':
		if l.peekAt(1) == '>' {
			l.advance()
			l.advance()
			return l.makeToken(token.ARROW, "->", start), nil
		}
		if isDigit(l.peekAt(1)) {
			return l.readNumber(start), nil
		}
		l.advance()
		tok := l.makeToken(token.ILLEGAL, "-", start)
		return tok, fmt.Errorf("unexpected character %q at line %d, column %d",
			c, start.LineNumber(), start.ColumnNumber())
	case '"':
		return l.readString(start)
	}
	if isDigit(c) {
		return l.readNumber(start), nil
	}
	if isLetter(c) {
		return l.readIdentifier(start), nil
	}
	l.advance()
	tok := l.makeToken(token.ILLEGAL, string(c), start)
	return tok, fmt.Errorf("unexpected character %q at line %d, column %d",
		c, start.LineNumber(), start.ColumnNumber())
}

func (l *Lexer) readNumber(start token.Position) token.Token {
	begin := l.pos
	if l.peek() == '-' {
		l.advance()
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
		return l.makeToken(token.FLOAT, l.input[begin:l.pos], start)
	}
	return l.makeToken(token.INT, l.input[begin:l.pos], start)
}

func (l *Lexer) readString(start token.Position) (token.Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			tok := l.makeToken(token.ILLEGAL, sb.String(), start)
			return tok, fmt.Errorf("unterminated string at line %d, column %d",
				start.LineNumber(), start.ColumnNumber())
		}
		c := l.advance()
		if c == '"' {
			return l.makeToken(token.STRING, sb.String(), start), nil
		}
		if c == '\\' && l.pos < len(l.input) {
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '0':
				sb.WriteByte(0)
			default:
				// Unknown escapes pass through unchanged.
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(c)
	}
}

func (l *Lexer) readIdentifier(start token.Position) token.Token {
	begin := l.pos
	for {
		c := l.peek()
		if isLetter(c) || isDigit(c) || c == '-' {
			// A "->" inside an identifier ends it: "a->int" lexes as
			// IDENT("a"), ARROW, TYPENAME("int").
			if c == '-' && l.peekAt(1) == '>' {
				break
			}
			l.advance()
			continue
		}
		break
	}
	literal := l.input[begin:l.pos]
	return l.makeToken(token.LookupIdentifier(literal), literal, start)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
