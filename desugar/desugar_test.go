package desugar

import (
	"context"
	"errors"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisl-lang/aisl/ast"
	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/parser"
)

func desugared(t *testing.T, input string) *ast.Seq {
	t.Helper()
	mod, err := parser.Parse(context.Background(), input)
	require.NoError(t, err)
	mod, err = Module(mod)
	require.NoError(t, err)
	seq, ok := mod.Functions()[0].Body.(*ast.Seq)
	require.True(t, ok)
	return seq
}

func callName(t *testing.T, e ast.Expr) string {
	t.Helper()
	call, ok := e.(*ast.Call)
	require.True(t, ok, "expected *ast.Call, got %T", e)
	return call.Name
}

func labelTarget(t *testing.T, e ast.Expr) string {
	t.Helper()
	call, ok := e.(*ast.Call)
	require.True(t, ok, "expected *ast.Call, got %T", e)
	require.True(t, len(call.Args) >= 1)
	v, ok := call.Args[len(call.Args)-1].(*ast.Var)
	require.True(t, ok)
	return v.Name
}

func TestNoLoopFormsSurvive(t *testing.T) {
	mod, err := parser.Parse(context.Background(), `
		(mod demo
		  (fn main () -> i64
		    (while (call op_lt_i64 i 10)
		      (while true
		        (break))
		      (continue))
		    (ret 0)))`)
	require.NoError(t, err)
	mod, err = Module(mod)
	require.NoError(t, err)

	for _, fn := range mod.Functions() {
		assert.False(t, ast.ContainsSurfaceLoops(fn.Body),
			"loop form left in %s after lowering", fn.Name)
	}
}

func TestWhileExpansion(t *testing.T) {
	body := desugared(t, `
		(mod demo
		  (fn main () -> i64
		    (while (call op_lt_i64 i 10)
		      (call print i))
		    (ret 0)))`)

	// label, cond setter, ifnot, body stmt, back-edge goto, end label,
	// then the return value.
	require.Len(t, body.Exprs, 7)

	assert.Equal(t, callName(t, body.Exprs[0]), "label")
	assert.Equal(t, labelTarget(t, body.Exprs[0]), "loop_start_0")

	set, ok := body.Exprs[1].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, set.Name, "set__cond_2")
	require.Len(t, set.Args, 1)
	cond, ok := set.Args[0].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, cond.Name, "op_lt_i64")

	assert.Equal(t, callName(t, body.Exprs[2]), "ifnot")
	assert.Equal(t, labelTarget(t, body.Exprs[2]), "loop_end_1")

	assert.Equal(t, callName(t, body.Exprs[3]), "print")

	assert.Equal(t, callName(t, body.Exprs[4]), "goto")
	assert.Equal(t, labelTarget(t, body.Exprs[4]), "loop_start_0")

	assert.Equal(t, callName(t, body.Exprs[5]), "label")
	assert.Equal(t, labelTarget(t, body.Exprs[5]), "loop_end_1")
}

func TestLoopSkipsConditionCheck(t *testing.T) {
	body := desugared(t, `
		(mod demo
		  (fn main () -> i64
		    (loop (break))
		    (ret 0)))`)

	// An always-true condition needs no setter or ifnot.
	require.Len(t, body.Exprs, 5)
	assert.Equal(t, callName(t, body.Exprs[0]), "label")
	assert.Equal(t, labelTarget(t, body.Exprs[0]), "loop_start_0")

	// break becomes a goto to the end label.
	assert.Equal(t, callName(t, body.Exprs[1]), "goto")
	assert.Equal(t, labelTarget(t, body.Exprs[1]), "loop_end_1")

	assert.Equal(t, callName(t, body.Exprs[2]), "goto")
	assert.Equal(t, labelTarget(t, body.Exprs[2]), "loop_start_0")
	assert.Equal(t, callName(t, body.Exprs[3]), "label")
	assert.Equal(t, labelTarget(t, body.Exprs[3]), "loop_end_1")
}

func TestContinueJumpsToStart(t *testing.T) {
	body := desugared(t, `
		(mod demo
		  (fn main () -> i64
		    (loop (continue))
		    (ret 0)))`)
	assert.Equal(t, callName(t, body.Exprs[1]), "goto")
	assert.Equal(t, labelTarget(t, body.Exprs[1]), "loop_start_0")
}

func TestNestedLoopsGetDistinctLabels(t *testing.T) {
	body := desugared(t, `
		(mod demo
		  (fn main () -> i64
		    (loop
		      (loop (break))
		      (break))
		    (ret 0)))`)

	labels := map[string]bool{}
	for _, e := range body.Exprs {
		if call, ok := e.(*ast.Call); ok && call.Name == "label" {
			labels[labelTarget(t, e)] = true
		}
	}
	assert.Len(t, labels, 4)
	assert.True(t, labels["loop_start_0"])
	assert.True(t, labels["loop_end_1"])
	assert.True(t, labels["loop_start_2"])
	assert.True(t, labels["loop_end_3"])

	// The inner break targets the inner end label.
	inner, ok := body.Exprs[2].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, inner.Name, "goto")
	assert.Equal(t, labelTarget(t, inner), "loop_end_3")
}

func TestBreakInsideNestedLoopTargetsInnermost(t *testing.T) {
	body := desugared(t, `
		(mod demo
		  (fn main () -> i64
		    (while (call op_lt_i64 i 3)
		      (loop (break)))
		    (ret 0)))`)

	// Find the goto produced by the break and check it jumps to the inner
	// loop's end label, not the outer one.
	var gotos []string
	for _, e := range body.Exprs {
		if call, ok := e.(*ast.Call); ok && call.Name == "goto" {
			gotos = append(gotos, labelTarget(t, e))
		}
	}
	assert.Contains(t, gotos, "loop_end_4")
}

func TestBreakOutsideLoop(t *testing.T) {
	mod, err := parser.Parse(context.Background(), `
		(mod demo
		  (fn main () -> i64
		    (break)
		    (ret 0)))`)
	require.NoError(t, err)
	_, err = Module(mod)
	require.Error(t, err)

	var se *errz.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, se.Code, errz.CodeMisplacedBreak)
	assert.Equal(t, se.Message, "break outside of loop")
}

func TestContinueOutsideLoop(t *testing.T) {
	mod, err := parser.Parse(context.Background(), `
		(mod demo
		  (fn main () -> i64
		    (continue)
		    (ret 0)))`)
	require.NoError(t, err)
	_, err = Module(mod)
	require.Error(t, err)

	var se *errz.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, se.Code, errz.CodeMisplacedContinue)
}

func TestWhileInExpressionContext(t *testing.T) {
	w := &ast.While{Cond: &ast.Bool{Value: true}}
	call := &ast.Call{Name: "f", Args: []ast.Expr{w}}
	_, err := Expr(call)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loop must be in statement context")
}

func TestNonLoopExprsPassThrough(t *testing.T) {
	body := desugared(t, `
		(mod demo
		  (fn main () -> i64
		    (call print "hello")
		    (set x i64 5)
		    (ret x)))`)
	require.Len(t, body.Exprs, 3)
	assert.Equal(t, callName(t, body.Exprs[0]), "print")
	assert.Equal(t, callName(t, body.Exprs[1]), "set_x")
	_, ok := body.Exprs[2].(*ast.Var)
	assert.True(t, ok)
}

func TestCounterAdvancesAcrossFunctions(t *testing.T) {
	mod, err := parser.Parse(context.Background(), `
		(mod demo
		  (fn a () -> i64 (loop (break)) (ret 0))
		  (fn b () -> i64 (loop (break)) (ret 0)))`)
	require.NoError(t, err)
	mod, err = Module(mod)
	require.NoError(t, err)

	first := mod.Functions()[0].Body.(*ast.Seq)
	second := mod.Functions()[1].Body.(*ast.Seq)
	assert.Equal(t, labelTarget(t, first.Exprs[0]), "loop_start_0")
	assert.Equal(t, labelTarget(t, second.Exprs[0]), "loop_start_2")
}
