// Package desugar lowers surface control flow onto the compiler's core
// forms. Every while, loop, break, and continue node is replaced by
// combinations of the call-shaped label, goto, and ifnot forms the compiler
// already knows how to lower, so the compiler never sees a loop node.
//
//	(while cond body...)   =>  (label loop_start_N)
//	                           (call set__cond_N cond)
//	                           (ifnot _cond_N loop_end_N)
//	                           body...
//	                           (goto loop_start_N)
//	                           (label loop_end_N)
//	(loop body...)         =>  same without the condition check
//	(break)                =>  (goto loop_end_N)     of the enclosing loop
//	(continue)             =>  (goto loop_start_N)   of the enclosing loop
//
// Label numbering is monotonic within one Module call, so nested and
// sequential loops never collide.
package desugar

import (
	"fmt"

	"github.com/aisl-lang/aisl/ast"
	"github.com/aisl-lang/aisl/errz"
)

// Module rewrites every function body in place and returns the module.
func Module(mod *ast.Module) (*ast.Module, error) {
	d := &desugarer{}
	for _, fn := range mod.Functions() {
		body, err := d.expr(fn.Body, nil)
		if err != nil {
			return nil, err
		}
		fn.Body = body
	}
	return mod, nil
}

// Expr desugars a single expression tree with no enclosing loop.
func Expr(e ast.Expr) (ast.Expr, error) {
	d := &desugarer{}
	return d.expr(e, nil)
}

type desugarer struct {
	counter int
}

// loopContext tracks the labels of the innermost enclosing loop so break and
// continue know where to jump.
type loopContext struct {
	start  string
	end    string
	parent *loopContext
}

func (d *desugarer) genLabel(prefix string) string {
	label := fmt.Sprintf("%s_%d", prefix, d.counter)
	d.counter++
	return label
}

func unitType() *ast.Type { return ast.NewType(ast.UnitType) }

func nameRef(tok *ast.While, name string, kind ast.TypeKind) *ast.Var {
	v := &ast.Var{Name: name}
	if tok != nil {
		v.Token = tok.Token
	}
	v.SetType(ast.NewType(kind))
	return v
}

func makeLabel(w *ast.While, name string) *ast.Call {
	c := &ast.Call{Name: "label", Args: []ast.Expr{nameRef(w, name, ast.UnitType)}}
	if w != nil {
		c.Token = w.Token
	}
	c.SetType(unitType())
	return c
}

func makeGoto(w *ast.While, target string) *ast.Call {
	c := &ast.Call{Name: "goto", Args: []ast.Expr{nameRef(w, target, ast.UnitType)}}
	if w != nil {
		c.Token = w.Token
	}
	c.SetType(unitType())
	return c
}

func makeIfnot(w *ast.While, cond ast.Expr, target string) *ast.Call {
	c := &ast.Call{Name: "ifnot", Args: []ast.Expr{cond, nameRef(w, target, ast.UnitType)}}
	if w != nil {
		c.Token = w.Token
	}
	c.SetType(unitType())
	return c
}

func (d *desugarer) expr(e ast.Expr, ctx *loopContext) (ast.Expr, error) {
	switch n := e.(type) {
	case nil:
		return nil, nil

	case *ast.Break:
		if ctx == nil {
			return nil, errz.New(errz.ErrSyntax, errz.CodeMisplacedBreak,
				"break outside of loop")
		}
		return makeGoto(nil, ctx.end), nil

	case *ast.Continue:
		if ctx == nil {
			return nil, errz.New(errz.ErrSyntax, errz.CodeMisplacedContinue,
				"continue outside of loop")
		}
		return makeGoto(nil, ctx.start), nil

	case *ast.While:
		// A loop only makes sense where its expansion can splice into a
		// statement list.
		return nil, errz.New(errz.ErrSyntax, errz.CodeParseError,
			"loop must be in statement context")

	case *ast.Seq:
		exprs, err := d.stmts(n.Exprs, ctx)
		if err != nil {
			return nil, err
		}
		out := &ast.Seq{Token: n.Token, Exprs: exprs}
		out.SetType(n.Type())
		return out, nil

	case *ast.Call:
		args := make([]ast.Expr, 0, len(n.Args))
		for _, arg := range n.Args {
			desugared, err := d.expr(arg, ctx)
			if err != nil {
				return nil, err
			}
			args = append(args, desugared)
		}
		out := &ast.Call{Token: n.Token, Name: n.Name, Args: args}
		out.SetType(n.Type())
		return out, nil

	case *ast.If:
		cond, err := d.expr(n.Cond, ctx)
		if err != nil {
			return nil, err
		}
		thenExpr, err := d.expr(n.Then, ctx)
		if err != nil {
			return nil, err
		}
		elseExpr, err := d.expr(n.Else, ctx)
		if err != nil {
			return nil, err
		}
		out := &ast.If{Token: n.Token, Cond: cond, Then: thenExpr, Else: elseExpr}
		out.SetType(n.Type())
		return out, nil

	case *ast.Let:
		value, err := d.expr(n.Value, ctx)
		if err != nil {
			return nil, err
		}
		body, err := d.expr(n.Body, ctx)
		if err != nil {
			return nil, err
		}
		out := &ast.Let{Token: n.Token, Name: n.Name, Value: value, Body: body}
		out.SetType(n.Type())
		return out, nil

	case *ast.Binary:
		left, err := d.expr(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := d.expr(n.Right, ctx)
		if err != nil {
			return nil, err
		}
		out := &ast.Binary{Token: n.Token, Op: n.Op, Left: left, Right: right}
		out.SetType(n.Type())
		return out, nil

	default:
		// Literals, variables, IO, and concurrency forms pass through.
		return e, nil
	}
}

// stmts desugars a statement list, splicing loop expansions inline.
func (d *desugarer) stmts(list []ast.Expr, ctx *loopContext) ([]ast.Expr, error) {
	var out []ast.Expr
	for _, stmt := range list {
		if w, ok := stmt.(*ast.While); ok {
			expanded, err := d.while(w, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		desugared, err := d.expr(stmt, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, desugared)
	}
	return out, nil
}

// while expands one loop node. The condition lands in a synthetic local so
// the back-edge check reloads it on every iteration; an always-true literal
// condition skips the check entirely.
func (d *desugarer) while(w *ast.While, parent *loopContext) ([]ast.Expr, error) {
	startLabel := d.genLabel("loop_start")
	endLabel := d.genLabel("loop_end")

	var out []ast.Expr
	out = append(out, makeLabel(w, startLabel))

	if b, ok := w.Cond.(*ast.Bool); !ok || !b.Value {
		condVar := d.genLabel("_cond")
		cond, err := d.expr(w.Cond, parent)
		if err != nil {
			return nil, err
		}
		set := &ast.Call{Token: w.Token, Name: "set_" + condVar, Args: []ast.Expr{cond}}
		set.SetType(ast.NewType(ast.BoolType))
		out = append(out, set)
		out = append(out, makeIfnot(w, nameRef(w, condVar, ast.BoolType), endLabel))
	}

	loopCtx := &loopContext{start: startLabel, end: endLabel, parent: parent}
	body, err := d.stmts(w.Body, loopCtx)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)

	out = append(out, makeGoto(w, startLabel))
	out = append(out, makeLabel(w, endLabel))
	return out, nil
}
