package vm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/compiler"
	"github.com/aisl-lang/aisl/desugar"
	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/op"
	"github.com/aisl-lang/aisl/parser"
)

func compileProgram(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	ctx := context.Background()
	mod, err := parser.Parse(ctx, src)
	require.NoError(t, err)
	mod, err = desugar.Module(mod)
	require.NoError(t, err)
	prog, err := compiler.Compile(ctx, mod)
	require.NoError(t, err)
	return prog
}

// run compiles and executes a module, returning its stdout and exit code.
func run(t *testing.T, src string, opts ...Option) (string, int) {
	t.Helper()
	prog := compileProgram(t, src)
	var out bytes.Buffer
	machine := New(prog, append([]Option{WithStdout(&out)}, opts...)...)
	code, err := machine.Run(context.Background())
	require.NoError(t, err)
	return out.String(), code
}

func TestArithmetic(t *testing.T) {
	out, code := run(t, `
		(mod m
		  (fn main () -> i64
		    (call print (call op_add_i64 2 3))
		    (call print (call op_mul_i64 4 5))
		    (ret 0)))`)
	assert.Equal(t, out, "520")
	assert.Equal(t, code, 0)
}

func TestExitCodeFromMain(t *testing.T) {
	_, code := run(t, `(mod m (fn main () -> i64 (ret 7)))`)
	assert.Equal(t, code, 7)
}

func TestDivisionByZero(t *testing.T) {
	prog := compileProgram(t, `
		(mod m
		  (fn main () -> i64
		    (ret (call op_div_i64 1 0))))`)
	code, err := New(prog).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero")
	assert.Equal(t, code, 1)
}

func TestOperandStackOverflow(t *testing.T) {
	p := bytecode.NewProgram()
	main := p.DeclareFunction("main", 0)
	p.SetFunctionStart(main, 0)
	for i := 0; i <= MaxStackDepth; i++ {
		p.Emit(bytecode.Instruction{Op: op.PushInt, Int: 1})
	}
	p.Emit(bytecode.Instruction{Op: op.Halt})
	require.NoError(t, p.Validate())

	code, err := New(p).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Stack overflow")
	var se *errz.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, se.Kind, errz.ErrRuntime)
	assert.Equal(t, code, 1)
}

func TestOperandStackUnderflow(t *testing.T) {
	p := bytecode.NewProgram()
	main := p.DeclareFunction("main", 0)
	p.SetFunctionStart(main, 0)
	p.Emit(bytecode.Instruction{Op: op.Pop})
	p.Emit(bytecode.Instruction{Op: op.Halt})
	require.NoError(t, p.Validate())

	code, err := New(p).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Stack underflow")
	var se *errz.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, se.Kind, errz.ErrRuntime)
	assert.Equal(t, code, 1)
}

func TestCallDepthExhaustion(t *testing.T) {
	prog := compileProgram(t, `
		(mod m
		  (fn spin () -> i64 (ret (call spin)))
		  (fn main () -> i64 (ret (call spin))))`)
	code, err := New(prog).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Call stack overflow")
	assert.Equal(t, code, 1)
}

func TestNoMainFunction(t *testing.T) {
	prog := compileProgram(t, `(mod m (fn helper () -> i64 (ret 1)))`)
	code, err := New(prog).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No 'main' function found")
	assert.Equal(t, code, 1)
}

func TestFloatAndBoolPrinting(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (call print 1.5)
		    (call print true)
		    (ret 0)))`)
	assert.Equal(t, out, "1.500000000000000true")
}

func TestPrintDebug(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (call print_int 42)
		    (ret 0)))`)
	assert.Equal(t, out, "[DEBUG] int: 42\n")
}

func TestStringOperations(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (set s string (call string_concat "foo" "bar"))
		    (call print s)
		    (call print (call string_length s))
		    (call io_print_str (call string_slice s 1 3))
		    (ret 0)))`)
	assert.Equal(t, out, "foobar6oob")
}

func TestWhileLoopSum(t *testing.T) {
	out, code := run(t, `
		(mod m
		  (fn main () -> i64
		    (set sum i64 0)
		    (set i i64 0)
		    (while (call op_lt_i64 i 10)
		      (set sum i64 (call op_add_i64 sum i))
		      (set i i64 (call op_add_i64 i 1)))
		    (call print sum)
		    (ret 0)))`)
	assert.Equal(t, out, "45")
	assert.Equal(t, code, 0)
}

func TestRecursion(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn fib ((n i64)) -> i64
		    (ret (call if_i64 (call op_lt_i64 n 2)
		      n
		      (call op_add_i64
		        (call fib (call op_sub_i64 n 1))
		        (call fib (call op_sub_i64 n 2))))))
		  (fn main () -> i64
		    (call print (call fib 10))
		    (ret 0)))`)
	assert.Equal(t, out, "55")
}

func TestArrays(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (set xs array (call array_new))
		    (set xs array (call array_push xs 1))
		    (set xs array (call array_push xs 2))
		    (call print (call array_get xs 0))
		    (call print (call array_length xs))
		    (ret 0)))`)
	assert.Equal(t, out, "12")
}

func TestMaps(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (set h map (call map_new))
		    (set h map (call map_set h "k" 7))
		    (call print (call map_get h "k"))
		    (set missing bool (call map_has h "x"))
		    (call print missing)
		    (ret 0)))`)
	assert.Equal(t, out, "7false")
}

func TestResults(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (call print (call result_unwrap (call result_ok 5)))
		    (set ok bool (call result_is_ok (call result_ok 1)))
		    (call print ok)
		    (ret 0)))`)
	assert.Equal(t, out, "5true")
}

func TestUnwrapErrorResult(t *testing.T) {
	prog := compileProgram(t, `
		(mod m
		  (fn main () -> i64
		    (ret (call result_unwrap (call result_err 3 "boom")))))`)
	_, err := New(prog).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unwrap of error result: boom")
}

func TestJSONRoundTrip(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (call io_print_str (call json_stringify (call json_parse "{\"a\":1}")))
		    (ret 0)))`)
	assert.Equal(t, out, `{"a":1}`)
}

func TestChannels(t *testing.T) {
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (set ch i64 (call channel_new 1))
		    (call channel_send ch 9)
		    (call print (call channel_recv ch))
		    (ret 0)))`)
	assert.Equal(t, out, "9")
}

func TestSpawnAndAwait(t *testing.T) {
	_, code := run(t, `
		(Module conc [] [] [
		  (DefFn work [] [] -> int (LitInt 21 : int))
		  (DefFn main [] [] -> int
		    (Await (Spawn (Apply (Var work : int) [] : int) : int) : int))
		])`)
	assert.Equal(t, code, 21)
}

func TestGeneratedTestMainOutput(t *testing.T) {
	out, code := run(t, `
		(mod m
		  (fn double ((n i64)) -> i64 (ret (call op_mul_i64 n 2)))
		  (test-spec double
		    (case "pass case" (input 2) (expect 4))
		    (case "fail case" (input 3) (expect 7))))`)
	assert.Equal(t, out, "pass case \nfail case  - Expected: 7, Got: 6\n")
	assert.Equal(t, code, 0)
}

func TestContextCancellation(t *testing.T) {
	prog := compileProgram(t, `
		(mod m
		  (fn main () -> i64
		    (loop (continue))
		    (ret 0)))`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	machine := New(prog, WithContextCheckInterval(10))
	code, err := machine.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, code, 1)
}

// fakeSyscalls overrides the file operations with an in-memory table. The
// embedded interface panics on anything a test does not stub.
type fakeSyscalls struct {
	Syscalls
	files map[string]string
}

func (f *fakeSyscalls) FileWrite(path, data string) error {
	f.files[path] = data
	return nil
}

func (f *fakeSyscalls) FileRead(path string) (string, error) {
	data, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return data, nil
}

func (f *fakeSyscalls) FileExists(path string) bool {
	_, ok := f.files[path]
	return ok
}

func TestFileOperationsThroughSyscalls(t *testing.T) {
	fake := &fakeSyscalls{files: map[string]string{}}
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (set ok bool (call file_write "/data/x" "payload"))
		    (call print ok)
		    (call io_print_str (call file_read "/data/x"))
		    (set missing bool (call file_exists "/nope"))
		    (call print missing)
		    (ret 0)))`,
		WithSyscalls(fake))
	assert.Equal(t, out, "truepayloadfalse")
	assert.Equal(t, fake.files["/data/x"], "payload")
}

func TestFileReadFailureYieldsEmptyString(t *testing.T) {
	fake := &fakeSyscalls{files: map[string]string{}}
	out, _ := run(t, `
		(mod m
		  (fn main () -> i64
		    (call io_print_str (call string_concat "<" (call string_concat (call file_read "/gone") ">")))
		    (ret 0)))`,
		WithSyscalls(fake))
	assert.Equal(t, out, "<>")
}
