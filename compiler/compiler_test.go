package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/desugar"
	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/op"
	"github.com/aisl-lang/aisl/parser"
)

func compile(t *testing.T, input string, opts ...Option) *bytecode.Program {
	t.Helper()
	prog, err := tryCompile(input, opts...)
	require.NoError(t, err)
	return prog
}

func tryCompile(input string, opts ...Option) (*bytecode.Program, error) {
	ctx := context.Background()
	mod, err := parser.Parse(ctx, input)
	if err != nil {
		return nil, err
	}
	mod, err = desugar.Module(mod)
	if err != nil {
		return nil, err
	}
	return Compile(ctx, mod, opts...)
}

func compileError(t *testing.T, input string, opts ...Option) *errz.StructuredError {
	t.Helper()
	_, err := tryCompile(input, opts...)
	require.Error(t, err)
	var se *errz.StructuredError
	require.True(t, errors.As(err, &se), "expected *errz.StructuredError, got %T", err)
	return se
}

func opcodes(p *bytecode.Program) []op.Code {
	codes := make([]op.Code, len(p.Instructions))
	for i, in := range p.Instructions {
		codes[i] = in.Op
	}
	return codes
}

func TestDeterministicOutput(t *testing.T) {
	src := `
		(mod m
		  (fn tally ((n i64)) -> i64
		    (set total i64 0)
		    (set i i64 0)
		    (while (call op_lt_i64 i n)
		      (set total i64 (call op_add_i64 total i))
		      (set i i64 (call op_add_i64 i 1)))
		    (ret total))
		  (fn main () -> i64
		    (call print "done")
		    (ret (call tally 10))))`

	first, err := compile(t, src).MarshalBinary()
	require.NoError(t, err)
	second, err := compile(t, src).MarshalBinary()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestSimpleFunction(t *testing.T) {
	prog := compile(t, `(mod m (fn main () -> i64 (ret 42)))`)

	require.Len(t, prog.Functions, 1)
	fn := prog.Functions[0]
	assert.Equal(t, fn.Name, "main")
	assert.Equal(t, fn.StartAddr, uint32(0))
	assert.Equal(t, fn.ParamCount, uint32(0))
	assert.Equal(t, fn.LocalCount, uint32(0))

	assert.Equal(t, opcodes(prog), []op.Code{op.PushInt, op.Return, op.Halt})
	assert.Equal(t, prog.Instructions[0].Int, int64(42))
}

func TestUserFunctionCall(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn add ((a i64) (b i64)) -> i64
		    (ret (call op_add_i64 a b)))
		  (fn main () -> i64
		    (ret (call add 1 2))))`)

	addIdx, ok := prog.FunctionIndex("add")
	require.True(t, ok)
	assert.Equal(t, prog.Functions[addIdx].ParamCount, uint32(2))
	assert.Equal(t, prog.Functions[addIdx].LocalCount, uint32(2))

	// add body: load both params, add, return.
	start := prog.Functions[addIdx].StartAddr
	assert.Equal(t, prog.Instructions[start].Op, op.LoadLocal)
	assert.Equal(t, prog.Instructions[start+1].Op, op.LoadLocal)
	assert.Equal(t, prog.Instructions[start+1].Index, uint32(1))
	assert.Equal(t, prog.Instructions[start+2].Op, op.AddInt)

	mainIdx, ok := prog.FunctionIndex("main")
	require.True(t, ok)
	mstart := prog.Functions[mainIdx].StartAddr
	call := prog.Instructions[mstart+2]
	assert.Equal(t, call.Op, op.Call)
	assert.Equal(t, call.FuncIndex, addIdx)
	assert.Equal(t, call.ArgCount, uint32(2))
}

func TestTypedDispatch(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn main () -> i64
		    (set x f64 1.5)
		    (call print x)
		    (call print "hi")
		    (set y i64 (call add x x))
		    (ret 0)))`)

	codes := opcodes(prog)
	assert.True(t, slices.Contains(codes, op.PrintFloat))
	assert.True(t, slices.Contains(codes, op.PrintStr))
	assert.True(t, slices.Contains(codes, op.AddFloat))
	assert.False(t, slices.Contains(codes, op.PrintInt))
}

func TestIfJumpPatching(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn main () -> i64
		    (ret (call if_i64 (call op_lt_i64 1 2) 10 20))))`)

	assert.Equal(t, opcodes(prog), []op.Code{
		op.PushInt, op.PushInt, op.LtInt,
		op.JumpIfFalse, op.PushInt, op.Jump,
		op.PushInt, op.Return, op.Halt,
	})
	assert.Equal(t, prog.Instructions[3].Target, uint32(6))
	assert.Equal(t, prog.Instructions[5].Target, uint32(7))
}

func TestWhileLoopCompiles(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn main () -> i64
		    (set i i64 0)
		    (while (call op_lt_i64 i 3)
		      (set i i64 (call op_add_i64 i 1)))
		    (ret i)))`)

	// Every jump must have been patched to a real target.
	for i, in := range prog.Instructions {
		info := op.GetInfo(in.Op)
		if info.Operand == op.OperandJump {
			assert.True(t, in.Target < uint32(len(prog.Instructions)),
				"instruction %d has unpatched target %d", i, in.Target)
		}
	}
	codes := opcodes(prog)
	assert.True(t, slices.Contains(codes, op.JumpIfFalse))
	assert.True(t, slices.Contains(codes, op.Jump))
}

func TestSetReusesLocalSlot(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn main () -> i64
		    (set i i64 1)
		    (set i i64 2)
		    (ret i)))`)
	fn := prog.Functions[0]
	assert.Equal(t, fn.LocalCount, uint32(1))
}

func TestUnknownFunction(t *testing.T) {
	se := compileError(t, `(mod m (fn main () -> i64 (ret (call nosuch 1))))`)
	assert.Equal(t, se.Code, errz.CodeUnknownFunction)
	assert.Equal(t, se.Message, "Unknown function: nosuch")
}

func TestArityMismatch(t *testing.T) {
	se := compileError(t, `(mod m (fn main () -> i64 (ret (call op_add_i64 1))))`)
	assert.Equal(t, se.Code, errz.CodeArityMismatch)
	assert.Equal(t, se.Message, "op_add_i64 expects 2 arguments, got 1")
}

func TestUndefinedLocal(t *testing.T) {
	se := compileError(t, `(mod m (fn main () -> i64 (ret x)))`)
	assert.Equal(t, se.Code, errz.CodeUndefinedName)
	assert.Equal(t, se.Message, "Undefined local: x")
}

func TestUndefinedLabel(t *testing.T) {
	se := compileError(t, `
		(mod m
		  (fn main () -> i64
		    (call goto nowhere)
		    (ret 0)))`)
	assert.Equal(t, se.Code, errz.CodeUndefinedLabel)
	assert.Equal(t, se.Message, "Undefined label 'nowhere' in function 'main'")
}

type stubLoader struct {
	sources map[string]string
}

func (l stubLoader) Load(_ context.Context, name string) (string, string, error) {
	src, ok := l.sources[name]
	if !ok {
		return "", "", fmt.Errorf("no module %q", name)
	}
	return src, name + ".aisl", nil
}

func TestImport(t *testing.T) {
	loader := stubLoader{sources: map[string]string{
		"mathx": `(mod mathx (fn square ((n i64)) -> i64 (ret (call op_mul_i64 n n))))`,
	}}
	prog := compile(t, `
		(mod m
		  (import mathx)
		  (fn main () -> i64 (ret (call square 3))))`,
		WithLoader(loader))

	sq, ok := prog.FunctionIndex("square")
	require.True(t, ok)
	assert.Equal(t, prog.Functions[sq].ParamCount, uint32(1))
}

func TestCircularImport(t *testing.T) {
	loader := stubLoader{sources: map[string]string{
		"a": `(mod a (import b) (fn fa () -> i64 (ret 1)))`,
		"b": `(mod b (import a) (fn fb () -> i64 (ret 2)))`,
	}}
	se := compileError(t, `
		(mod m
		  (import a)
		  (fn main () -> i64 (ret 0)))`,
		WithLoader(loader))
	assert.Equal(t, se.Code, errz.CodeImportError)
	assert.Equal(t, se.Message, "Circular import detected for module 'a'")
}

func TestImportWithoutLoader(t *testing.T) {
	se := compileError(t, `
		(mod m
		  (import missing)
		  (fn main () -> i64 (ret 0)))`)
	assert.Equal(t, se.Code, errz.CodeImportError)
	assert.Contains(t, se.Message, "no module loader configured")
}

func TestImportedModuleSharedOnce(t *testing.T) {
	loader := stubLoader{sources: map[string]string{
		"util": `(mod util (fn id ((n i64)) -> i64 (ret n)))`,
		"a":    `(mod a (import util) (fn fa () -> i64 (ret (call id 1))))`,
		"b":    `(mod b (import util) (fn fb () -> i64 (ret (call id 2))))`,
	}}
	prog := compile(t, `
		(mod m
		  (import a)
		  (import b)
		  (fn main () -> i64 (ret 0)))`,
		WithLoader(loader))

	count := 0
	for _, fn := range prog.Functions {
		if fn.Name == "id" {
			count++
		}
	}
	assert.Equal(t, count, 1)
}

func TestGeneratedTestMain(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn double ((n i64)) -> i64 (ret (call op_mul_i64 n 2)))
		  (test-spec double
		    (case "doubles two" (input 2) (expect 4))))`)

	mainIdx, ok := prog.FunctionIndex("main")
	require.True(t, ok)
	assert.Equal(t, prog.Functions[mainIdx].ParamCount, uint32(0))

	for _, s := range []string{"doubles two", " \n", "  - Expected: ", "4", ", Got: ", "\n"} {
		assert.True(t, slices.Contains(prog.Strings, s), "missing pool string %q", s)
	}

	codes := opcodes(prog)
	assert.True(t, slices.Contains(codes, op.Dup))
	assert.True(t, slices.Contains(codes, op.EqInt))
	assert.True(t, slices.Contains(codes, op.JumpIfFalse))

	doubleIdx, _ := prog.FunctionIndex("double")
	var called bool
	for _, in := range prog.Instructions {
		if in.Op == op.Call && in.FuncIndex == doubleIdx && in.ArgCount == 1 {
			called = true
		}
	}
	assert.True(t, called)
}

func TestTestMainNotGeneratedWhenMainExists(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn double ((n i64)) -> i64 (ret (call op_mul_i64 n 2)))
		  (fn main () -> i64 (ret 0))
		  (test-spec double
		    (case "doubles" (input 2) (expect 4))))`)

	count := 0
	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			count++
		}
	}
	assert.Equal(t, count, 1)
	assert.False(t, slices.Contains(prog.Strings, "doubles"))
}

func TestLegacyModuleCompiles(t *testing.T) {
	prog := compile(t, `
		(Module legacy [] [] [
		  (DefFn main [] [] -> int
		    (Let [(x : int = (LitInt 2 : int))]
		      In (Add : int (Var x : int) (LitInt 3 : int)) : int))
		])`)

	codes := opcodes(prog)
	assert.True(t, slices.Contains(codes, op.StoreLocal))
	assert.True(t, slices.Contains(codes, op.LoadLocal))
	assert.True(t, slices.Contains(codes, op.AddInt))
	assert.Equal(t, prog.Functions[0].LocalCount, uint32(1))
}

func TestArrayNewSpecialForm(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn main () -> i64
		    (set xs array (call array_new))
		    (ret 0)))`)
	codes := opcodes(prog)
	i := slices.Index(codes, op.ArrayNew)
	require.True(t, i > 0)
	assert.Equal(t, prog.Instructions[i-1].Op, op.PushInt)
	assert.Equal(t, prog.Instructions[i-1].Int, int64(defaultArrayCapacity))
}

func TestProgramValidates(t *testing.T) {
	prog := compile(t, `
		(mod m
		  (fn fib ((n i64)) -> i64
		    (ret (call if_i64 (call op_lt_i64 n 2)
		      n
		      (call op_add_i64 (call fib (call op_sub_i64 n 1)) (call fib (call op_sub_i64 n 2))))))
		  (fn main () -> i64 (ret (call fib 10))))`)
	assert.Nil(t, prog.Validate())
	assert.Equal(t, prog.Instructions[len(prog.Instructions)-1].Op, op.Halt)
}
