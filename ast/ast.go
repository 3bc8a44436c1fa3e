// Package ast defines the abstract syntax tree produced by the parser and
// consumed by the desugarer and compiler.
//
// Expressions and definitions are closed sums expressed as marker interfaces
// over a fixed set of node structs. Every node carries the token that began
// it, so diagnostics can point back into the source. Expression nodes carry
// an optional type annotation set by the parser (from explicit annotations)
// and inspected by the compiler for type-directed operation dispatch.
package ast

import (
	"fmt"
	"strings"

	"github.com/aisl-lang/aisl/internal/token"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the position of the first token of the node.
	Pos() token.Position
	// End returns the position of the last token of the node.
	End() token.Position
	// String renders the node as an S-expression.
	String() string
}

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	// Type returns the static type annotation, or nil when unknown.
	Type() *Type
	// SetType records a static type annotation on the node.
	SetType(*Type)
	exprNode()
}

// Def is implemented by all top-level definition nodes.
type Def interface {
	Node
	DefName() string
	defNode()
}

// typed carries the optional static type annotation shared by all
// expression nodes.
type typed struct {
	typ *Type
}

func (t *typed) Type() *Type      { return t.typ }
func (t *typed) SetType(tt *Type) { t.typ = tt }

// Int is an integer literal.
type Int struct {
	typed
	Token token.Token
	Value int64
}

func (e *Int) exprNode()           {}
func (e *Int) Pos() token.Position { return e.Token.StartPosition }
func (e *Int) End() token.Position { return e.Token.EndPosition }
func (e *Int) String() string {
	return fmt.Sprintf("(lit_int %s %d)", e.typ.String(), e.Value)
}

// Float is a floating point literal.
type Float struct {
	typed
	Token token.Token
	Value float64
}

func (e *Float) exprNode()           {}
func (e *Float) Pos() token.Position { return e.Token.StartPosition }
func (e *Float) End() token.Position { return e.Token.EndPosition }
func (e *Float) String() string {
	return fmt.Sprintf("(lit_float %s %f)", e.typ.String(), e.Value)
}

// String_ is a string literal.
type String_ struct {
	typed
	Token token.Token
	Value string
}

func (e *String_) exprNode()           {}
func (e *String_) Pos() token.Position { return e.Token.StartPosition }
func (e *String_) End() token.Position { return e.Token.EndPosition }
func (e *String_) String() string {
	return fmt.Sprintf("(lit_string %q)", e.Value)
}

// Bool is a boolean literal.
type Bool struct {
	typed
	Token token.Token
	Value bool
}

func (e *Bool) exprNode()           {}
func (e *Bool) Pos() token.Position { return e.Token.StartPosition }
func (e *Bool) End() token.Position { return e.Token.EndPosition }
func (e *Bool) String() string {
	return fmt.Sprintf("(lit_bool %t)", e.Value)
}

// Unit is the unit literal.
type Unit struct {
	typed
	Token token.Token
}

func (e *Unit) exprNode()           {}
func (e *Unit) Pos() token.Position { return e.Token.StartPosition }
func (e *Unit) End() token.Position { return e.Token.EndPosition }
func (e *Unit) String() string      { return "(unit)" }

// Var is a variable reference.
type Var struct {
	typed
	Token token.Token
	Name  string
}

func (e *Var) exprNode()           {}
func (e *Var) Pos() token.Position { return e.Token.StartPosition }
func (e *Var) End() token.Position { return e.Token.EndPosition }
func (e *Var) String() string      { return fmt.Sprintf("(var %s)", e.Name) }

// Call is a direct application of a named function or builtin operation.
// Only bare-name callees exist at this layer; there are no first-class
// function values in the bytecode.
type Call struct {
	typed
	Token token.Token
	Name  string
	Args  []Expr
}

func (e *Call) exprNode()           {}
func (e *Call) Pos() token.Position { return e.Token.StartPosition }
func (e *Call) End() token.Position {
	if n := len(e.Args); n > 0 {
		return e.Args[n-1].End()
	}
	return e.Token.EndPosition
}

func (e *Call) String() string {
	var sb strings.Builder
	sb.WriteString("(call (var ")
	sb.WriteString(e.Name)
	sb.WriteString(")")
	for _, arg := range e.Args {
		sb.WriteString(" ")
		sb.WriteString(arg.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// BinaryOp enumerates the reduced operator set available to legacy
// expression nodes. The richer typed operation surface is reached through
// named builtin calls instead.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpLt
	OpGt
	OpLte
	OpGte
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpEq:
		return "eq"
	case OpLt:
		return "lt"
	case OpGt:
		return "gt"
	case OpLte:
		return "le"
	case OpGte:
		return "ge"
	default:
		return "unknown"
	}
}

// Binary is a two-operand arithmetic or comparison expression.
type Binary struct {
	typed
	Token token.Token
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *Binary) exprNode()           {}
func (e *Binary) Pos() token.Position { return e.Token.StartPosition }
func (e *Binary) End() token.Position { return e.Right.End() }
func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Op, e.Left, e.Right)
}

// If is a conditional expression. Else may be nil, in which case the else
// branch evaluates to unit.
type If struct {
	typed
	Token token.Token
	Cond  Expr
	Then  Expr
	Else  Expr
}

func (e *If) exprNode()           {}
func (e *If) Pos() token.Position { return e.Token.StartPosition }
func (e *If) End() token.Position {
	if e.Else != nil {
		return e.Else.End()
	}
	return e.Then.End()
}

func (e *If) String() string {
	elseStr := "(unit)"
	if e.Else != nil {
		elseStr = e.Else.String()
	}
	return fmt.Sprintf("(if %s %s %s)", e.Cond, e.Then, elseStr)
}

// Let binds a name to a value within a body expression.
type Let struct {
	typed
	Token token.Token
	Name  string
	Value Expr
	Body  Expr
}

func (e *Let) exprNode()           {}
func (e *Let) Pos() token.Position { return e.Token.StartPosition }
func (e *Let) End() token.Position { return e.Body.End() }
func (e *Let) String() string {
	return fmt.Sprintf("(let %s %s %s)", e.Name, e.Value, e.Body)
}

// Seq evaluates its expressions in order and yields the last value.
type Seq struct {
	typed
	Token token.Token
	Exprs []Expr
}

func (e *Seq) exprNode()           {}
func (e *Seq) Pos() token.Position { return e.Token.StartPosition }
func (e *Seq) End() token.Position {
	if n := len(e.Exprs); n > 0 {
		return e.Exprs[n-1].End()
	}
	return e.Token.EndPosition
}

func (e *Seq) String() string {
	var sb strings.Builder
	sb.WriteString("(seq")
	for _, expr := range e.Exprs {
		sb.WriteString("\n  ")
		sb.WriteString(expr.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// While is a pre-test loop. Removed by desugaring before compilation.
type While struct {
	typed
	Token token.Token
	Cond  Expr
	Body  []Expr
}

func (e *While) exprNode()           {}
func (e *While) Pos() token.Position { return e.Token.StartPosition }
func (e *While) End() token.Position {
	if n := len(e.Body); n > 0 {
		return e.Body[n-1].End()
	}
	return e.Cond.End()
}

func (e *While) String() string {
	var sb strings.Builder
	sb.WriteString("(while ")
	sb.WriteString(e.Cond.String())
	for _, expr := range e.Body {
		sb.WriteString(" ")
		sb.WriteString(expr.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Break exits the innermost enclosing loop. Removed by desugaring.
type Break struct {
	typed
	Token token.Token
}

func (e *Break) exprNode()           {}
func (e *Break) Pos() token.Position { return e.Token.StartPosition }
func (e *Break) End() token.Position { return e.Token.EndPosition }
func (e *Break) String() string      { return "(break)" }

// Continue restarts the innermost enclosing loop. Removed by desugaring.
type Continue struct {
	typed
	Token token.Token
}

func (e *Continue) exprNode()           {}
func (e *Continue) Pos() token.Position { return e.Token.StartPosition }
func (e *Continue) End() token.Position { return e.Token.EndPosition }
func (e *Continue) String() string      { return "(continue)" }

// Return yields a value from the enclosing function.
type Return struct {
	typed
	Token token.Token
	Value Expr
}

func (e *Return) exprNode()           {}
func (e *Return) Pos() token.Position { return e.Token.StartPosition }
func (e *Return) End() token.Position { return e.Value.End() }
func (e *Return) String() string {
	return fmt.Sprintf("(ret %s)", e.Value)
}

// Spawn runs a call on a separate execution context.
type Spawn struct {
	typed
	Token token.Token
	Call  Expr
}

func (e *Spawn) exprNode()           {}
func (e *Spawn) Pos() token.Position { return e.Token.StartPosition }
func (e *Spawn) End() token.Position { return e.Call.End() }
func (e *Spawn) String() string      { return fmt.Sprintf("(spawn %s)", e.Call) }

// Await blocks until a spawned task completes and yields its value.
type Await struct {
	typed
	Token token.Token
	Value Expr
}

func (e *Await) exprNode()           {}
func (e *Await) Pos() token.Position { return e.Token.StartPosition }
func (e *Await) End() token.Position { return e.Value.End() }
func (e *Await) String() string      { return fmt.Sprintf("(await %s)", e.Value) }

// ChannelNew creates a channel.
type ChannelNew struct {
	typed
	Token token.Token
}

func (e *ChannelNew) exprNode()           {}
func (e *ChannelNew) Pos() token.Position { return e.Token.StartPosition }
func (e *ChannelNew) End() token.Position { return e.Token.EndPosition }
func (e *ChannelNew) String() string      { return "(channel_new)" }

// ChannelSend sends a value on a channel.
type ChannelSend struct {
	typed
	Token   token.Token
	Channel Expr
	Value   Expr
}

func (e *ChannelSend) exprNode()           {}
func (e *ChannelSend) Pos() token.Position { return e.Token.StartPosition }
func (e *ChannelSend) End() token.Position { return e.Value.End() }
func (e *ChannelSend) String() string {
	return fmt.Sprintf("(channel_send %s %s)", e.Channel, e.Value)
}

// ChannelRecv receives a value from a channel.
type ChannelRecv struct {
	typed
	Token   token.Token
	Channel Expr
}

func (e *ChannelRecv) exprNode()           {}
func (e *ChannelRecv) Pos() token.Position { return e.Token.StartPosition }
func (e *ChannelRecv) End() token.Position { return e.Channel.End() }
func (e *ChannelRecv) String() string {
	return fmt.Sprintf("(channel_recv %s)", e.Channel)
}

// IOOpen opens a file and yields a handle.
type IOOpen struct {
	typed
	Token token.Token
	Path  Expr
	Mode  Expr
}

func (e *IOOpen) exprNode()           {}
func (e *IOOpen) Pos() token.Position { return e.Token.StartPosition }
func (e *IOOpen) End() token.Position { return e.Mode.End() }
func (e *IOOpen) String() string {
	return fmt.Sprintf("(io_open %s %s)", e.Path, e.Mode)
}

// IORead reads from an open handle.
type IORead struct {
	typed
	Token  token.Token
	Handle Expr
}

func (e *IORead) exprNode()           {}
func (e *IORead) Pos() token.Position { return e.Token.StartPosition }
func (e *IORead) End() token.Position { return e.Handle.End() }
func (e *IORead) String() string      { return fmt.Sprintf("(io_read %s)", e.Handle) }

// IOWrite writes to an open handle.
type IOWrite struct {
	typed
	Token  token.Token
	Handle Expr
	Data   Expr
}

func (e *IOWrite) exprNode()           {}
func (e *IOWrite) Pos() token.Position { return e.Token.StartPosition }
func (e *IOWrite) End() token.Position { return e.Data.End() }
func (e *IOWrite) String() string {
	return fmt.Sprintf("(io_write %s %s)", e.Handle, e.Data)
}

// IOClose closes an open handle.
type IOClose struct {
	typed
	Token  token.Token
	Handle Expr
}

func (e *IOClose) exprNode()           {}
func (e *IOClose) Pos() token.Position { return e.Token.StartPosition }
func (e *IOClose) End() token.Position { return e.Handle.End() }
func (e *IOClose) String() string      { return fmt.Sprintf("(io_close %s)", e.Handle) }

// BadExpr is a placeholder for an expression that could not be parsed.
type BadExpr struct {
	typed
	Token token.Token
}

func (e *BadExpr) exprNode()           {}
func (e *BadExpr) Pos() token.Position { return e.Token.StartPosition }
func (e *BadExpr) End() token.Position { return e.Token.EndPosition }
func (e *BadExpr) String() string      { return "(bad-expr)" }
