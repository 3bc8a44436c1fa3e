package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisl-lang/aisl/ast"
	"github.com/aisl-lang/aisl/errz"
)

func parse(t *testing.T, input string) *ast.Module {
	t.Helper()
	mod, err := Parse(context.Background(), input)
	require.NoError(t, err)
	return mod
}

func parseErrors(t *testing.T, input string) *Errors {
	t.Helper()
	_, err := Parse(context.Background(), input)
	require.Error(t, err)
	errs, ok := err.(*Errors)
	require.True(t, ok, "expected *Errors, got %T", err)
	return errs
}

func TestCurrentModule(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (fn add ((a i64) (b i64)) -> i64
		    (ret (call op_add_i64 a b))))`)
	assert.Equal(t, mod.Name, "demo")

	fns := mod.Functions()
	assert.Len(t, fns, 1)
	fn := fns[0]
	assert.Equal(t, fn.Name, "add")
	assert.Len(t, fn.Params, 2)
	assert.Equal(t, fn.Params[0].Name, "a")
	assert.Equal(t, fn.Params[0].Typ.Kind, ast.IntType)
	assert.Equal(t, fn.ReturnType.Kind, ast.IntType)
}

func TestFlatParamList(t *testing.T) {
	mod := parse(t, `(mod demo (fn add a i64 b i64 -> i64 (ret a)))`)
	fn := mod.Functions()[0]
	assert.Len(t, fn.Params, 2)
	assert.Equal(t, fn.Params[1].Name, "b")
}

func TestEffectAnnotations(t *testing.T) {
	mod := parse(t, `(mod demo (fn go () -> unit io fs (ret)))`)
	fn := mod.Functions()[0]
	assert.Equal(t, fn.Effects, []string{"io", "fs"})
}

func TestMissingReturnType(t *testing.T) {
	errs := parseErrors(t, `(mod demo (fn add ((a i64)) (ret a)))`)
	first := errs.First()
	assert.Equal(t, first.Code(), errz.CodeMissingReturnType)
	assert.Contains(t, first.Message(), "requires explicit return type")
}

func TestSetRequiresType(t *testing.T) {
	errs := parseErrors(t, `(mod demo (fn main () -> i64 (set x 5) (ret x)))`)
	first := errs.First()
	assert.Equal(t, first.Code(), errz.CodeMissingType)
	assert.Contains(t, first.Message(), "Variable 'x' requires explicit type annotation")
}

func TestSetBecomesSyntheticSetter(t *testing.T) {
	mod := parse(t, `(mod demo (fn main () -> i64 (set x i64 5) (ret x)))`)
	body, ok := mod.Functions()[0].Body.(*ast.Seq)
	require.True(t, ok)
	require.Len(t, body.Exprs, 2)
	call, ok := body.Exprs[0].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, call.Name, "set_x")
	assert.Len(t, call.Args, 1)
	assert.Equal(t, call.Args[0].Type().Kind, ast.IntType)
}

func TestRetYieldsValueExpr(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (fn main () -> i64
		    (call print 2)
		    (ret 1)))`)
	body, ok := mod.Functions()[0].Body.(*ast.Seq)
	require.True(t, ok)
	require.Len(t, body.Exprs, 2)
	lit, ok := body.Exprs[1].(*ast.Int)
	require.True(t, ok)
	assert.Equal(t, lit.Value, int64(1))
}

func TestEmptyBodyIsUnit(t *testing.T) {
	mod := parse(t, `(mod demo (fn main () -> unit))`)
	body, ok := mod.Functions()[0].Body.(*ast.Seq)
	require.True(t, ok)
	require.Len(t, body.Exprs, 1)
	_, ok = body.Exprs[0].(*ast.Unit)
	assert.True(t, ok)
}

func TestWhileAndLoop(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (fn main () -> i64
		    (while (call op_lt_i64 i 10)
		      (set i i64 (call op_add_i64 i 1)))
		    (loop
		      (break))
		    (ret 0)))`)
	body, ok := mod.Functions()[0].Body.(*ast.Seq)
	require.True(t, ok)
	require.Len(t, body.Exprs, 3)

	w, ok := body.Exprs[0].(*ast.While)
	require.True(t, ok)
	cond, ok := w.Cond.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, cond.Name, "op_lt_i64")

	l, ok := body.Exprs[1].(*ast.While)
	require.True(t, ok)
	b, ok := l.Cond.(*ast.Bool)
	require.True(t, ok)
	assert.True(t, b.Value)
	_, ok = l.Body[0].(*ast.Break)
	assert.True(t, ok)
}

func TestValueExprForms(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (fn main () -> i64
		    (call f 1 2.5 "hi" true x (LitInt i64 7) (LitString "s") (call g 1))
		    (ret 0)))`)
	body := mod.Functions()[0].Body.(*ast.Seq)
	call := body.Exprs[0].(*ast.Call)
	require.Len(t, call.Args, 8)

	assert.Equal(t, call.Args[0].(*ast.Int).Value, int64(1))
	assert.Equal(t, call.Args[1].(*ast.Float).Value, 2.5)
	assert.Equal(t, call.Args[2].(*ast.String_).Value, "hi")
	assert.True(t, call.Args[3].(*ast.Bool).Value)
	assert.Equal(t, call.Args[4].(*ast.Var).Name, "x")
	assert.Equal(t, call.Args[5].(*ast.Int).Value, int64(7))
	assert.Equal(t, call.Args[6].(*ast.String_).Value, "s")
	assert.Equal(t, call.Args[7].(*ast.Call).Name, "g")
}

func TestTestSpec(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (fn double ((n i64)) -> i64 (ret (call op_mul_i64 n 2)))
		  (test-spec double
		    (case "doubles two"
		      (input 2)
		      (expect 4))
		    (case "doubles zero"
		      (input 0)
		      (expect 0))))`)
	specs := mod.TestSpecs()
	require.Len(t, specs, 1)
	spec := specs[0]
	assert.Equal(t, spec.Target, "double")
	require.Len(t, spec.Cases, 2)
	assert.Equal(t, spec.Cases[0].Description, "doubles two")
	assert.Len(t, spec.Cases[0].Inputs, 1)
	assert.Equal(t, spec.Cases[0].Expected.(*ast.Int).Value, int64(4))
}

func TestTestCaseWithSetupAndMock(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (test-spec f
		    (case "mocked"
		      (setup (whatever nested (forms)))
		      (mock (g 1 2) 3)
		      (input 1)
		      (expect 3))))`)
	spec := mod.TestSpecs()[0]
	require.Len(t, spec.Cases, 1)
	tc := spec.Cases[0]
	require.Len(t, tc.Mocks, 1)
	assert.Equal(t, tc.Mocks[0].FunctionName, "g")
	assert.Len(t, tc.Mocks[0].Inputs, 2)
}

func TestPropertySpec(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (property-spec add
		    (property "commutative"
		      (forall ((x i64) (y i64))
		        (constraint (call op_lt_i64 x 100))
		        (assert (call op_eq_i64 (call add x y) (call add y x)))))))`)
	var spec *ast.PropertySpec
	for _, def := range mod.Defs {
		if ps, ok := def.(*ast.PropertySpec); ok {
			spec = ps
		}
	}
	require.NotNil(t, spec)
	assert.Equal(t, spec.Target, "add")
	require.Len(t, spec.Properties, 1)
	prop := spec.Properties[0]
	assert.Equal(t, prop.Description, "commutative")
	assert.Len(t, prop.ForallVars, 2)
	assert.NotNil(t, prop.Constraint)
	assert.NotNil(t, prop.Assertion)
}

func TestMetaNote(t *testing.T) {
	mod := parse(t, `(mod demo (meta-note "reviewed 2024-11"))`)
	var note *ast.MetaNote
	for _, def := range mod.Defs {
		if n, ok := def.(*ast.MetaNote); ok {
			note = n
		}
	}
	require.NotNil(t, note)
	assert.Equal(t, note.Text, "reviewed 2024-11")
}

func TestImports(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (import math)
		  (import (strutil trim split))
		  (import (netlib :as net))
		  (fn main () -> i64 (ret 0)))`)
	require.Len(t, mod.Imports, 3)
	assert.Equal(t, mod.Imports[0].Module, "math")
	assert.Equal(t, mod.Imports[1].Module, "strutil")
	assert.Equal(t, mod.Imports[1].Names, []string{"trim", "split"})
	assert.Equal(t, mod.Imports[2].Module, "netlib")
	assert.Equal(t, mod.Imports[2].Alias, "net")
}

func TestUnknownTopLevelFormsSkipped(t *testing.T) {
	mod := parse(t, `
		(mod demo
		  (unknown-form (deeply (nested stuff)))
		  (fn main () -> i64 (ret 0)))`)
	assert.Len(t, mod.Functions(), 1)
}

func TestLegacyModule(t *testing.T) {
	mod := parse(t, `
		(Module legacy [] [] [
		  (DefFn add [a : int, b : int] [] -> int
		    (Add : int (Var a : int) (Var b : int)))
		  (DefFn choose [] [] -> int
		    (If : int (LitBool true : bool)
		      Then (LitInt 1 : int)
		      Else (LitInt 2 : int)))
		])`)
	assert.Equal(t, mod.Name, "legacy")
	fns := mod.Functions()
	require.Len(t, fns, 2)

	add := fns[0]
	assert.Len(t, add.Params, 2)
	bin, ok := add.Body.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, bin.Op, ast.OpAdd)

	choose := fns[1]
	iff, ok := choose.Body.(*ast.If)
	require.True(t, ok)
	assert.NotNil(t, iff.Then)
	assert.NotNil(t, iff.Else)
}

func TestLegacyLetNests(t *testing.T) {
	mod := parse(t, `
		(Module legacy [] [] [
		  (DefFn f [] [] -> int
		    (Let [(x : int = (LitInt 1 : int)), (y : int = (LitInt 2 : int))]
		      In (Add : int (Var x : int) (Var y : int)) : int))
		])`)
	let, ok := mod.Functions()[0].Body.(*ast.Let)
	require.True(t, ok)
	assert.Equal(t, let.Name, "x")
	inner, ok := let.Body.(*ast.Let)
	require.True(t, ok)
	assert.Equal(t, inner.Name, "y")
}

func TestLegacyApply(t *testing.T) {
	mod := parse(t, `
		(Module legacy [] [] [
		  (DefFn g [n : int] [] -> int (Var n : int))
		  (DefFn f [] [] -> int
		    (Apply (Var g : int) [(LitInt 3 : int)] : int))
		])`)
	call, ok := mod.Functions()[1].Body.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, call.Name, "g")
	assert.Len(t, call.Args, 1)
}

func TestErrorsAccumulate(t *testing.T) {
	errs := parseErrors(t, `
		(mod demo
		  (fn a ((x i64)) (ret x))
		  (fn b ((y i64)) (ret y)))`)
	assert.Equal(t, errs.Count(), 2)
}

func TestMaxErrorsStopsParse(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("(mod demo\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("(fn f ((x i64)) (ret x))\n")
	}
	sb.WriteString(")")
	_, err := Parse(context.Background(), sb.String(), WithMaxErrors(3))
	require.Error(t, err)
	errs := err.(*Errors)
	assert.Equal(t, errs.Count(), 3)
}

func TestMachineFormat(t *testing.T) {
	errs := parseErrors(t, `(mod demo (fn add ((a i64)) (ret a)))`)
	mf := errs.MachineFormat()
	assert.True(t, strings.HasPrefix(mf, "ERROR:MISSING_RETURN_TYPE:"))
}

func TestBadTopLevel(t *testing.T) {
	_, err := Parse(context.Background(), `(nonsense)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 'Module' or 'mod'")
}
