// Package parser parses AISL source text into an ast.Module.
//
// Two top-level grammars are supported, selected by the first keyword after
// the opening paren: the legacy dialect
//
//	(Module name [] [] [ (DefFn name [a : int] [] -> int body) ... ])
//
// and the current dialect
//
//	(mod name (fn name params... -> type stmt...) (test-spec ...) ...)
//
// The parser keeps one token of lookahead. Errors are accumulated rather
// than raised: Parse returns the best-effort module together with an
// *Errors value. A module that parsed with errors must not be compiled.
package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aisl-lang/aisl/ast"
	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/internal/lexer"
	"github.com/aisl-lang/aisl/internal/token"
)

const defaultMaxErrors = 10

// maxTestInputs bounds the literal inputs accepted for one test case.
const maxTestInputs = 100

// Parse is a convenience over New and Parser.Parse.
func Parse(ctx context.Context, input string, opts ...Option) (*ast.Module, error) {
	return New(input, opts...).Parse(ctx)
}

// Option configures a Parser.
type Option func(*Parser)

// WithFile sets the filename recorded on error positions.
func WithFile(name string) Option {
	return func(p *Parser) {
		p.file = name
	}
}

// WithMaxErrors bounds how many errors are collected before parsing stops.
func WithMaxErrors(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxErrors = n
		}
	}
}

// Parser holds the state of a single parse.
type Parser struct {
	l         *lexer.Lexer
	file      string
	lines     []string
	cur       token.Token
	peek      token.Token
	errs      []ParserError
	maxErrors int
	lexFailed bool
}

// New returns a Parser over the given input.
func New(input string, opts ...Option) *Parser {
	p := &Parser{
		lines:     strings.Split(input, "\n"),
		maxErrors: defaultMaxErrors,
	}
	for _, opt := range opts {
		opt(p)
	}
	var lexOpts []lexer.Option
	if p.file != "" {
		lexOpts = append(lexOpts, lexer.WithFile(p.file))
	}
	p.l = lexer.New(input, lexOpts...)
	p.next()
	p.next()
	return p
}

// Parse consumes the whole input and returns the module. The returned error
// is an *Errors when any parse error occurred.
func (p *Parser) Parse(ctx context.Context) (*ast.Module, error) {
	mod := p.parseModule(ctx)
	if err := ctx.Err(); err != nil {
		return mod, err
	}
	if len(p.errs) > 0 {
		return mod, NewErrors(p.errs)
	}
	return mod, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	tok, err := p.l.Next()
	if err != nil {
		if !p.lexFailed {
			p.lexFailed = true
			p.errorToken(errz.CodeParseError, tok, err.Error())
		}
		// Treat the rest of the input as exhausted.
		tok = token.Token{Type: token.EOF, StartPosition: tok.StartPosition}
	}
	p.peek = tok
}

func (p *Parser) failed() bool {
	return len(p.errs) >= p.maxErrors
}

func (p *Parser) sourceLine(pos token.Position) string {
	if pos.Line >= 0 && pos.Line < len(p.lines) {
		return p.lines[pos.Line]
	}
	return ""
}

func (p *Parser) errorToken(code string, tok token.Token, message string) {
	if p.failed() {
		return
	}
	p.errs = append(p.errs, NewSyntaxError(ErrorOpts{
		Code:          code,
		Message:       message,
		File:          p.file,
		StartPosition: tok.StartPosition,
		EndPosition:   tok.EndPosition,
		SourceCode:    p.sourceLine(tok.StartPosition),
	}))
}

func (p *Parser) errorf(code, format string, args ...any) {
	p.errorToken(code, p.cur, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(t token.Type) bool {
	if p.cur.Type != t {
		p.errorf(errz.CodeParseError, "expected %s, got %s",
			tokenTypeDescription(t), tokenDescription(p.cur))
		return false
	}
	p.next()
	return true
}

// name consumes the current token and returns its literal text, whatever its
// type. Function and variable names may collide with keywords.
func (p *Parser) name() string {
	lit := p.cur.Literal
	p.next()
	return lit
}

// skipBalanced consumes a parenthesized form whose opening paren is the
// current token, tracking nesting depth.
func (p *Parser) skipBalanced() {
	depth := 1
	p.next()
	for depth > 0 && p.cur.Type != token.EOF {
		switch p.cur.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		if depth > 0 {
			p.next()
		}
	}
	if p.cur.Type == token.RPAREN {
		p.next()
	}
}

func (p *Parser) parseModule(ctx context.Context) *ast.Module {
	modTok := p.cur
	p.expect(token.LPAREN)

	mod := &ast.Module{Token: modTok}
	switch p.cur.Type {
	case token.MODULE:
		p.parseLegacyModule(ctx, mod)
	case token.MOD:
		p.parseCurrentModule(ctx, mod)
	default:
		p.errorf(errz.CodeParseError, "expected 'Module' or 'mod', got %s",
			tokenDescription(p.cur))
	}
	return mod
}

// parseLegacyModule parses (Module name [] [] [defs...]). The two bracketed
// lists before the definitions (imports and exports) must be empty in this
// dialect.
func (p *Parser) parseLegacyModule(ctx context.Context, mod *ast.Module) {
	p.next() // Module
	mod.Name = p.name()

	p.expect(token.LBRACKET)
	p.expect(token.RBRACKET)
	p.expect(token.LBRACKET)
	p.expect(token.RBRACKET)

	p.expect(token.LBRACKET)
	for p.cur.Type == token.LPAREN && p.peek.Type == token.DEFFN && !p.failed() {
		if ctx.Err() != nil {
			return
		}
		mod.Defs = append(mod.Defs, p.parseLegacyDefFn())
	}
	p.expect(token.RBRACKET)
	p.expect(token.RPAREN)
}

// parseLegacyDefFn parses (DefFn name [a : int, b : int] [] -> type body).
func (p *Parser) parseLegacyDefFn() ast.Def {
	fnTok := p.cur
	p.expect(token.LPAREN)
	p.expect(token.DEFFN)

	fn := &ast.Function{Token: fnTok, Name: p.name()}

	p.expect(token.LBRACKET)
	for p.cur.Type != token.RBRACKET && p.cur.Type != token.EOF && !p.failed() {
		pname := p.name()
		p.expect(token.COLON)
		fn.Params = append(fn.Params, &ast.Param{Name: pname, Typ: p.parseType()})
		if p.cur.Type == token.COMMA {
			p.next()
		}
	}
	p.expect(token.RBRACKET)

	// Locals list is reserved and must be empty.
	p.expect(token.LBRACKET)
	p.expect(token.RBRACKET)

	p.expect(token.ARROW)
	fn.ReturnType = p.parseType()
	fn.Body = p.parseLegacyExpr()
	p.expect(token.RPAREN)
	return fn
}

func (p *Parser) parseType() *ast.Type {
	if p.cur.Type != token.TYPENAME {
		p.errorf(errz.CodeParseError, "expected type, got %s", tokenDescription(p.cur))
		return ast.NewType(ast.UnitType)
	}
	t := ast.TypeFromName(p.cur.Literal)
	p.next()
	return t
}

func litInt(tok token.Token, v int64) *ast.Int {
	e := &ast.Int{Token: tok, Value: v}
	e.SetType(ast.NewType(ast.IntType))
	return e
}

func litFloat(tok token.Token, v float64) *ast.Float {
	e := &ast.Float{Token: tok, Value: v}
	e.SetType(ast.NewType(ast.FloatType))
	return e
}

func litString(tok token.Token, v string) *ast.String_ {
	e := &ast.String_{Token: tok, Value: v}
	e.SetType(ast.NewType(ast.StringType))
	return e
}

func litBool(tok token.Token, v bool) *ast.Bool {
	e := &ast.Bool{Token: tok, Value: v}
	e.SetType(ast.NewType(ast.BoolType))
	return e
}

func litUnit(tok token.Token) *ast.Unit {
	e := &ast.Unit{Token: tok}
	e.SetType(ast.NewType(ast.UnitType))
	return e
}

func (p *Parser) parseInt() int64 {
	if p.cur.Type != token.INT {
		p.errorf(errz.CodeParseError, "expected integer, got %s", tokenDescription(p.cur))
		p.next()
		return 0
	}
	v, err := strconv.ParseInt(p.cur.Literal, 10, 64)
	if err != nil {
		p.errorf(errz.CodeParseError, "invalid integer literal %q", p.cur.Literal)
	}
	p.next()
	return v
}

// parseLegacyExpr parses one fully annotated legacy expression. Every form
// is parenthesized and carries a ": type" annotation.
func (p *Parser) parseLegacyExpr() ast.Expr {
	open := p.cur
	if !p.expect(token.LPAREN) {
		return litUnit(open)
	}
	tok := p.cur

	switch tok.Type {
	case token.LIT_INT:
		p.next()
		v := p.parseInt()
		p.expect(token.COLON)
		p.parseType()
		p.expect(token.RPAREN)
		return litInt(tok, v)

	case token.LIT_STRING:
		p.next()
		v := p.cur.Literal
		p.next()
		p.expect(token.COLON)
		p.parseType()
		p.expect(token.RPAREN)
		return litString(tok, v)

	case token.LIT_BOOL:
		p.next()
		v := p.cur.Type == token.TRUE
		p.next()
		p.expect(token.COLON)
		p.parseType()
		p.expect(token.RPAREN)
		return litBool(tok, v)

	case token.TRUE, token.FALSE:
		p.next()
		p.expect(token.RPAREN)
		return litBool(tok, tok.Type == token.TRUE)

	case token.LIT_UNIT:
		p.next()
		p.expect(token.COLON)
		p.parseType()
		p.expect(token.RPAREN)
		return litUnit(tok)

	case token.VAR:
		p.next()
		name := p.name()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		v := &ast.Var{Token: tok, Name: name}
		v.SetType(typ)
		return v

	case token.ADD, token.SUB, token.MUL, token.DIV,
		token.LT, token.GT, token.LTE, token.GTE, token.EQ:
		var op ast.BinaryOp
		switch tok.Type {
		case token.ADD:
			op = ast.OpAdd
		case token.SUB:
			op = ast.OpSub
		case token.MUL:
			op = ast.OpMul
		case token.DIV:
			op = ast.OpDiv
		case token.LT:
			op = ast.OpLt
		case token.GT:
			op = ast.OpGt
		case token.LTE:
			op = ast.OpLte
		case token.GTE:
			op = ast.OpGte
		default:
			op = ast.OpEq
		}
		p.next()
		p.expect(token.COLON)
		typ := p.parseType()
		left := p.parseLegacyExpr()
		right := p.parseLegacyExpr()
		p.expect(token.RPAREN)
		b := &ast.Binary{Token: tok, Op: op, Left: left, Right: right}
		b.SetType(typ)
		return b

	case token.IF:
		p.next()
		p.expect(token.COLON)
		typ := p.parseType()
		cond := p.parseLegacyExpr()
		p.expect(token.THEN)
		thenExpr := p.parseLegacyExpr()
		p.expect(token.ELSE)
		elseExpr := p.parseLegacyExpr()
		p.expect(token.RPAREN)
		e := &ast.If{Token: tok, Cond: cond, Then: thenExpr, Else: elseExpr}
		e.SetType(typ)
		return e

	case token.SEQ:
		p.next()
		p.expect(token.LBRACKET)
		exprs := p.parseLegacyExprList()
		p.expect(token.RBRACKET)
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.Seq{Token: tok, Exprs: exprs}
		e.SetType(typ)
		return e

	case token.LET:
		return p.parseLegacyLet(tok)

	case token.APPLY:
		p.next()
		fn := p.parseLegacyExpr()
		p.expect(token.LBRACKET)
		args := p.parseLegacyExprList()
		p.expect(token.RBRACKET)
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		v, ok := fn.(*ast.Var)
		if !ok {
			p.errorToken(errz.CodeParseError, tok,
				"Apply requires a variable in function position")
			return &ast.BadExpr{Token: tok}
		}
		c := &ast.Call{Token: tok, Name: v.Name, Args: args}
		c.SetType(typ)
		return c

	case token.WHILE:
		p.next()
		cond := p.parseLegacyExpr()
		p.expect(token.DO)
		body := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.While{Token: tok, Cond: cond, Body: []ast.Expr{body}}
		e.SetType(typ)
		return e

	case token.SPAWN:
		p.next()
		call := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.Spawn{Token: tok, Call: call}
		e.SetType(typ)
		return e

	case token.AWAIT:
		p.next()
		val := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.Await{Token: tok, Value: val}
		e.SetType(typ)
		return e

	case token.CHANNEL_NEW:
		p.next()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.ChannelNew{Token: tok}
		e.SetType(typ)
		return e

	case token.CHANNEL_SEND:
		p.next()
		ch := p.parseLegacyExpr()
		val := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.ChannelSend{Token: tok, Channel: ch, Value: val}
		e.SetType(typ)
		return e

	case token.CHANNEL_RECV:
		p.next()
		ch := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.ChannelRecv{Token: tok, Channel: ch}
		e.SetType(typ)
		return e

	case token.IO_OPEN:
		p.next()
		path := p.parseLegacyExpr()
		mode := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.IOOpen{Token: tok, Path: path, Mode: mode}
		e.SetType(typ)
		return e

	case token.IO_READ:
		p.next()
		handle := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.IORead{Token: tok, Handle: handle}
		e.SetType(typ)
		return e

	case token.IO_WRITE:
		p.next()
		handle := p.parseLegacyExpr()
		data := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.IOWrite{Token: tok, Handle: handle, Data: data}
		e.SetType(typ)
		return e

	case token.IO_CLOSE:
		p.next()
		handle := p.parseLegacyExpr()
		p.expect(token.COLON)
		typ := p.parseType()
		p.expect(token.RPAREN)
		e := &ast.IOClose{Token: tok, Handle: handle}
		e.SetType(typ)
		return e
	}

	p.errorf(errz.CodeParseError, "unknown expression starting with %s",
		tokenDescription(tok))
	p.expect(token.RPAREN)
	return litUnit(tok)
}

// parseLegacyExprList parses a comma-separated expression list up to the
// closing bracket.
func (p *Parser) parseLegacyExprList() []ast.Expr {
	var exprs []ast.Expr
	for p.cur.Type != token.RBRACKET && p.cur.Type != token.EOF && !p.failed() {
		exprs = append(exprs, p.parseLegacyExpr())
		if p.cur.Type == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	return exprs
}

// parseLegacyLet parses (Let [(name : type = expr), ...] In body : type).
// Multiple bindings nest, first binding outermost.
func (p *Parser) parseLegacyLet(tok token.Token) ast.Expr {
	p.next() // Let

	type binding struct {
		name  string
		value ast.Expr
	}
	var bindings []binding

	if p.cur.Type == token.LBRACKET {
		p.next()
		for p.cur.Type != token.RBRACKET && p.cur.Type != token.EOF && !p.failed() {
			p.expect(token.LPAREN)
			bname := p.name()
			p.expect(token.COLON)
			p.parseType()
			p.expect(token.ASSIGN)
			bvalue := p.parseLegacyExpr()
			p.expect(token.RPAREN)
			bindings = append(bindings, binding{name: bname, value: bvalue})
			if p.cur.Type == token.COMMA {
				p.next()
			}
		}
		if !p.expect(token.RBRACKET) {
			return litUnit(tok)
		}
	}

	if !p.expect(token.IN) {
		return litUnit(tok)
	}
	body := p.parseLegacyExpr()
	if !p.expect(token.COLON) {
		return litUnit(tok)
	}
	typ := p.parseType()
	if !p.expect(token.RPAREN) {
		return litUnit(tok)
	}

	result := body
	for i := len(bindings) - 1; i >= 0; i-- {
		result = &ast.Let{
			Token: tok,
			Name:  bindings[i].name,
			Value: bindings[i].value,
			Body:  result,
		}
	}
	result.SetType(typ)
	return result
}

// parseCurrentModule parses (mod name def...) where each def is a fn,
// test-spec, property-spec, meta-note, or import form. Unknown forms are
// skipped by depth-balanced paren matching.
func (p *Parser) parseCurrentModule(ctx context.Context, mod *ast.Module) {
	p.next() // mod
	mod.Name = p.name()

	for p.cur.Type == token.LPAREN && !p.failed() {
		if ctx.Err() != nil {
			return
		}
		switch {
		case p.peek.Type == token.FN:
			mod.Defs = append(mod.Defs, p.parseFunction())
		case p.peek.Type == token.TEST_SPEC:
			mod.Defs = append(mod.Defs, p.parseTestSpec())
		case p.peek.Type == token.PROPERTY_SPEC:
			mod.Defs = append(mod.Defs, p.parsePropertySpec())
		case p.peek.Type == token.META_NOTE:
			mod.Defs = append(mod.Defs, p.parseMetaNote())
		case p.peek.Type == token.IDENT && p.peek.Literal == "import":
			mod.Imports = append(mod.Imports, p.parseImport())
		default:
			p.skipBalanced()
		}
	}
	p.expect(token.RPAREN)
}

// effectNames are the annotations accepted (and recorded) between a
// function's return type and its body.
var effectNames = map[string]bool{
	"pure":   true,
	"io":     true,
	"net":    true,
	"fs":     true,
	"time":   true,
	"random": true,
	"panic":  true,
	"unsafe": true,
}

// parseFunction parses (fn name params -> type effects... stmts...).
// Parameters come in two forms: parenthesized pairs ((a int) (b int)) or
// flat pairs a int b int; the leading paren selects the form.
func (p *Parser) parseFunction() ast.Def {
	fnTok := p.cur
	p.expect(token.LPAREN)
	p.expect(token.FN)

	fn := &ast.Function{Token: fnTok, Name: p.name()}

	hasParamListParen := false
	if p.cur.Type == token.LPAREN {
		hasParamListParen = true
		p.next()
	}

	for p.cur.Type != token.ARROW && p.cur.Type != token.RPAREN &&
		p.cur.Type != token.EOF && !p.failed() {
		switch {
		case p.cur.Type == token.LPAREN:
			p.next()
			if !isParamName(p.cur.Type) {
				p.errorf(errz.CodeParseError, "expected parameter name, got %s",
					tokenDescription(p.cur))
			}
			pname := p.name()
			ptype := p.parseType()
			p.expect(token.RPAREN)
			fn.Params = append(fn.Params, &ast.Param{Name: pname, Typ: ptype})
		case isParamName(p.cur.Type):
			pname := p.name()
			fn.Params = append(fn.Params, &ast.Param{Name: pname, Typ: p.parseType()})
		default:
			p.errorf(errz.CodeParseError, "expected parameter definition, got %s",
				tokenDescription(p.cur))
			p.next()
		}
	}
	if hasParamListParen {
		p.expect(token.RPAREN)
	}

	if p.cur.Type == token.ARROW {
		p.next()
		fn.ReturnType = p.parseType()
	} else {
		p.errorToken(errz.CodeMissingReturnType, p.cur, fmt.Sprintf(
			"Function '%s' requires explicit return type. Use: (fn %s (...) -> <type> ...)",
			fn.Name, fn.Name))
		fn.ReturnType = ast.NewType(ast.UnitType)
	}

	for p.cur.Type == token.IDENT && effectNames[p.cur.Literal] {
		fn.Effects = append(fn.Effects, p.cur.Literal)
		p.next()
	}

	fn.Body = p.parseStatements()
	p.expect(token.RPAREN)
	return fn
}

// isParamName reports whether a token may serve as a parameter name. Test
// vocabulary words double as ordinary names in this position.
func isParamName(t token.Type) bool {
	return t == token.IDENT || t == token.INPUT || t == token.EXPECT
}

// parseStatements parses statement forms until the enclosing closing paren
// and wraps them in a seq. Recognized statements are call, set, ret
// (terminal), while, loop, break, and continue; anything else parenthesized
// is skipped by depth-balanced matching. An empty body becomes a seq holding
// a single unit.
func (p *Parser) parseStatements() *ast.Seq {
	seqTok := p.cur
	seq := &ast.Seq{Token: seqTok}
	seq.SetType(ast.NewType(ast.UnitType))

	for p.cur.Type == token.LPAREN && p.peek.Type != token.RPAREN && !p.failed() {
		switch p.peek.Type {
		case token.CALL:
			p.next() // (
			p.next() // call
			seq.Exprs = append(seq.Exprs, p.parseCallTail())

		case token.SET:
			stmt, ok := p.parseSet()
			if !ok {
				return &ast.Seq{Token: seqTok}
			}
			seq.Exprs = append(seq.Exprs, stmt)

		case token.RET:
			p.next() // (
			retTok := p.cur
			p.next() // ret
			var val ast.Expr
			if p.cur.Type != token.RPAREN {
				val = p.parseValueExpr()
			} else {
				val = litUnit(retTok)
			}
			p.expect(token.RPAREN)
			// ret ends the statement list.
			seq.Exprs = append(seq.Exprs, val)
			return seq

		case token.WHILE:
			p.next() // (
			whileTok := p.cur
			p.next() // while
			cond := p.parseValueExpr()
			body := p.parseStatements()
			p.expect(token.RPAREN)
			w := &ast.While{Token: whileTok, Cond: cond, Body: body.Exprs}
			w.SetType(ast.NewType(ast.UnitType))
			seq.Exprs = append(seq.Exprs, w)

		case token.LOOP:
			p.next() // (
			loopTok := p.cur
			p.next() // loop
			body := p.parseStatements()
			p.expect(token.RPAREN)
			w := &ast.While{Token: loopTok, Cond: litBool(loopTok, true), Body: body.Exprs}
			w.SetType(ast.NewType(ast.UnitType))
			seq.Exprs = append(seq.Exprs, w)

		case token.BREAK:
			p.next() // (
			brTok := p.cur
			p.next() // break
			p.expect(token.RPAREN)
			b := &ast.Break{Token: brTok}
			b.SetType(ast.NewType(ast.UnitType))
			seq.Exprs = append(seq.Exprs, b)

		case token.CONTINUE:
			p.next() // (
			contTok := p.cur
			p.next() // continue
			p.expect(token.RPAREN)
			c := &ast.Continue{Token: contTok}
			c.SetType(ast.NewType(ast.UnitType))
			seq.Exprs = append(seq.Exprs, c)

		default:
			p.skipBalanced()
		}
	}

	if len(seq.Exprs) == 0 {
		seq.Exprs = append(seq.Exprs, litUnit(seqTok))
	}
	return seq
}

// parseCallTail parses "name arg..." up to and including the closing paren,
// with the leading "(call" already consumed.
func (p *Parser) parseCallTail() *ast.Call {
	callTok := p.cur
	call := &ast.Call{Token: callTok, Name: p.name()}
	for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF && !p.failed() {
		call.Args = append(call.Args, p.parseValueExpr())
	}
	p.expect(token.RPAREN)
	call.SetType(ast.NewType(ast.UnitType))
	return call
}

// parseSet parses (set name type value). The type annotation is mandatory;
// omitting it is a MISSING_TYPE error and aborts the statement list. The
// statement is represented as a call to the synthetic setter set_<name>
// whose single argument carries the annotated type.
func (p *Parser) parseSet() (ast.Expr, bool) {
	p.next() // (
	setTok := p.cur
	p.next() // set

	varName := p.name()

	if p.cur.Type != token.TYPENAME {
		p.errorToken(errz.CodeMissingType, p.cur, fmt.Sprintf(
			"Variable '%s' requires explicit type annotation. Use: (set %s <type> <value>)",
			varName, varName))
		return nil, false
	}
	varType := p.parseType()

	value := p.parseValueExpr()
	p.expect(token.RPAREN)

	// The explicit annotation wins over the literal's natural type; the
	// compiler tracks variable types from it.
	value.SetType(varType)

	set := &ast.Call{Token: setTok, Name: "set_" + varName, Args: []ast.Expr{value}}
	set.SetType(varType)
	return set, true
}

// parseValueExpr parses one value-position expression: a literal, a variable,
// a typed literal form (LitInt <type> N) / (LitString "s"), or a nested
// (call name args...). Any other parenthesized form is consumed flat up to
// the next closing paren and yields unit.
func (p *Parser) parseValueExpr() ast.Expr {
	tok := p.cur

	if tok.Type == token.LPAREN {
		p.next()
		switch p.cur.Type {
		case token.LIT_INT:
			p.next()
			p.parseType()
			v := p.parseInt()
			p.expect(token.RPAREN)
			return litInt(tok, v)
		case token.LIT_STRING:
			p.next()
			v := p.cur.Literal
			p.next()
			p.expect(token.RPAREN)
			return litString(tok, v)
		case token.CALL:
			p.next()
			return p.parseCallTail()
		default:
			for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF {
				p.next()
			}
			if p.cur.Type == token.RPAREN {
				p.next()
			}
			return litUnit(tok)
		}
	}

	switch tok.Type {
	case token.INT:
		return litInt(tok, p.parseInt())
	case token.FLOAT:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorf(errz.CodeParseError, "invalid float literal %q", tok.Literal)
		}
		p.next()
		return litFloat(tok, v)
	case token.STRING:
		p.next()
		return litString(tok, tok.Literal)
	case token.TRUE, token.FALSE:
		p.next()
		return litBool(tok, tok.Type == token.TRUE)
	case token.IDENT:
		p.next()
		v := &ast.Var{Token: tok, Name: tok.Literal}
		v.SetType(ast.NewType(ast.UnitType))
		return v
	default:
		p.next()
		return litUnit(tok)
	}
}

// parseTestSpec parses (test-spec target (case ...) ...).
func (p *Parser) parseTestSpec() ast.Def {
	specTok := p.cur
	p.expect(token.LPAREN)
	p.expect(token.TEST_SPEC)

	spec := &ast.TestSpec{Token: specTok, Target: p.name()}
	for p.cur.Type == token.LPAREN && p.peek.Type == token.CASE && !p.failed() {
		tc := p.parseTestCase()
		if tc == nil {
			break
		}
		spec.Cases = append(spec.Cases, tc)
	}
	p.expect(token.RPAREN)
	return spec
}

// parseTestCase parses
//
//	(case "description" [(setup ...)] [(mock (fn args...) ret)]
//	      (input args...) (expect result))
//
// Setup forms are accepted and discarded.
func (p *Parser) parseTestCase() *ast.TestCase {
	p.expect(token.LPAREN)
	p.expect(token.CASE)

	if p.cur.Type != token.STRING {
		p.errorf(errz.CodeParseError, "expected test case description string, got %s",
			tokenDescription(p.cur))
		return nil
	}
	tc := &ast.TestCase{Description: p.cur.Literal}
	p.next()

	if p.cur.Type == token.LPAREN && p.peek.Type == token.SETUP {
		p.skipBalanced()
	}

	if p.cur.Type == token.LPAREN && p.peek.Type == token.MOCK {
		p.next() // (
		p.next() // mock
		p.expect(token.LPAREN)
		mock := &ast.MockSpec{FunctionName: p.name()}
		for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF && !p.failed() {
			mock.Inputs = append(mock.Inputs, p.parseValueExpr())
		}
		p.expect(token.RPAREN)
		mock.Return = p.parseValueExpr()
		p.expect(token.RPAREN)
		tc.Mocks = append(tc.Mocks, mock)
	}

	p.expect(token.LPAREN)
	if p.cur.Type != token.INPUT {
		p.errorf(errz.CodeParseError, "expected 'input' keyword in test case, got %s",
			tokenDescription(p.cur))
		return nil
	}
	p.next()
	for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF && !p.failed() {
		if len(tc.Inputs) >= maxTestInputs {
			p.errorf(errz.CodeParseError, "too many inputs in test case")
			return nil
		}
		tc.Inputs = append(tc.Inputs, p.parseValueExpr())
	}
	p.expect(token.RPAREN)

	p.expect(token.LPAREN)
	p.expect(token.EXPECT)
	tc.Expected = p.parseValueExpr()
	p.expect(token.RPAREN)

	p.expect(token.RPAREN)
	return tc
}

// parsePropertySpec parses
//
//	(property-spec target
//	  (property "description"
//	    (forall ((x int) (y int))
//	      [(constraint expr)]
//	      (assert expr))) ...)
func (p *Parser) parsePropertySpec() ast.Def {
	specTok := p.cur
	p.expect(token.LPAREN)
	p.expect(token.PROPERTY_SPEC)

	spec := &ast.PropertySpec{Token: specTok, Target: p.name()}
	for p.cur.Type == token.LPAREN && p.peek.Type == token.PROPERTY && !p.failed() {
		prop := p.parsePropertyTest()
		if prop == nil {
			break
		}
		spec.Properties = append(spec.Properties, prop)
	}
	p.expect(token.RPAREN)
	return spec
}

func (p *Parser) parsePropertyTest() *ast.PropertyTest {
	p.expect(token.LPAREN)
	p.expect(token.PROPERTY)

	if p.cur.Type != token.STRING {
		p.errorf(errz.CodeParseError, "expected property description string, got %s",
			tokenDescription(p.cur))
		return nil
	}
	prop := &ast.PropertyTest{Description: p.cur.Literal}
	p.next()

	p.expect(token.LPAREN)
	p.expect(token.FORALL)
	p.expect(token.LPAREN)
	for p.cur.Type == token.LPAREN && !p.failed() {
		p.next()
		vname := p.name()
		vtype := p.parseType()
		p.expect(token.RPAREN)
		prop.ForallVars = append(prop.ForallVars, &ast.Param{Name: vname, Typ: vtype})
	}
	p.expect(token.RPAREN)

	if p.cur.Type == token.LPAREN && p.peek.Type == token.CONSTRAINT {
		p.next()
		p.next()
		prop.Constraint = p.parseValueExpr()
		p.expect(token.RPAREN)
	}

	if p.cur.Type == token.LPAREN &&
		(p.peek.Type == token.ASSERT || p.peek.Type == token.ASSERT_FAIL) {
		p.next()
		p.next()
		prop.Assertion = p.parseValueExpr()
		p.expect(token.RPAREN)
	} else {
		prop.Assertion = p.parseValueExpr()
	}

	p.expect(token.RPAREN) // forall
	p.expect(token.RPAREN) // property
	return prop
}

// parseMetaNote parses (meta-note "text").
func (p *Parser) parseMetaNote() ast.Def {
	noteTok := p.cur
	p.expect(token.LPAREN)
	p.expect(token.META_NOTE)

	note := &ast.MetaNote{Token: noteTok}
	if p.cur.Type != token.STRING {
		p.errorf(errz.CodeParseError, "expected meta-note text string, got %s",
			tokenDescription(p.cur))
	} else {
		note.Text = p.cur.Literal
		p.next()
	}
	p.expect(token.RPAREN)
	return note
}

// parseImport parses the three import forms:
//
//	(import math)            full import
//	(import (math sqrt pow)) selective import
//	(import (math :as m))    aliased import
func (p *Parser) parseImport() *ast.Import {
	impTok := p.cur
	p.expect(token.LPAREN)
	p.next() // import

	imp := &ast.Import{Token: impTok}
	if p.cur.Type == token.LPAREN {
		p.next()
		imp.Module = p.name()
		if p.cur.Type == token.COLON {
			p.next()
			if p.cur.Type != token.IDENT || p.cur.Literal != "as" {
				p.errorf(errz.CodeParseError, "expected 'as' in aliased import, got %s",
					tokenDescription(p.cur))
			} else {
				p.next()
				imp.Alias = p.name()
			}
		} else {
			for p.cur.Type != token.RPAREN && p.cur.Type != token.EOF && !p.failed() {
				imp.Names = append(imp.Names, p.name())
			}
		}
		p.expect(token.RPAREN)
	} else {
		imp.Module = p.name()
	}
	p.expect(token.RPAREN)
	return imp
}
