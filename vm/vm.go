// Package vm provides a stack machine that executes compiled bytecode
// programs.
//
// Locals live on the value stack: a call frame records where its slots begin,
// parameters occupy the first slots, and the remaining slots are initialized
// to unit. The entry point must be a function named main; the machine runs
// until HALT, a return from the bottom frame, or context cancellation.
//
// Every operation with an OS effect goes through the Syscalls interface, so
// the dispatch loop itself has no direct OS dependencies.
package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/op"
)

const (
	MaxStackDepth = 4096
	MaxFrameDepth = 256

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000

	// defaultReadSize bounds one io_read from a byte-stream handle.
	defaultReadSize = 4096
)

// FFIHook dispatches a foreign function call on behalf of the ffi_*
// operations. Without a hook, ffi_load fails and ffi_available is false.
type FFIHook func(lib, fn string, args []Value) (Value, error)

type frame struct {
	returnAddr uint32
	base       int // stack index of local slot zero
	localCount uint32
	paramCount uint32
}

// VM executes one program. A VM may be reused for sequential runs but not
// concurrently.
type VM struct {
	program *bytecode.Program

	ip uint32
	sp int

	stack      [MaxStackDepth]Value
	frames     [MaxFrameDepth]frame
	frameCount int

	halt     int32
	trap     error
	running  bool
	runMutex sync.Mutex

	stdout  io.Writer
	sys     Syscalls
	logger  zerolog.Logger
	ffiHook FFIHook
	ffiLibs map[int64]string
	nextFFI int64

	contextCheckInterval int
	gcRuns               int64
}

// Option configures a VM.
type Option func(*VM)

// WithStdout redirects the typed print operations.
func WithStdout(w io.Writer) Option {
	return func(vm *VM) { vm.stdout = w }
}

// WithSyscalls substitutes the host surface, for tests or sandboxing.
func WithSyscalls(sys Syscalls) Option {
	return func(vm *VM) { vm.sys = sys }
}

// WithLogger sets the debug logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VM) { vm.logger = logger }
}

// WithContextCheckInterval sets how many instructions run between
// deterministic ctx.Done() checks. 0 disables the deterministic check,
// leaving only the background goroutine.
func WithContextCheckInterval(interval int) Option {
	return func(vm *VM) { vm.contextCheckInterval = interval }
}

// WithFFIHook registers the foreign call dispatcher.
func WithFFIHook(hook FFIHook) Option {
	return func(vm *VM) { vm.ffiHook = hook }
}

// New creates a VM for the given program.
func New(program *bytecode.Program, options ...Option) *VM {
	vm := &VM{
		program:              program,
		sp:                   -1,
		stdout:               os.Stdout,
		logger:               zerolog.Nop(),
		contextCheckInterval: DefaultContextCheckInterval,
		ffiLibs:              make(map[int64]string),
	}
	for _, opt := range options {
		opt(vm)
	}
	if vm.sys == nil {
		vm.sys = NewHostSyscalls()
	}
	return vm
}

// Run executes the program starting at main and returns the exit code: the
// value main returns when it is an int, otherwise 0.
func (vm *VM) Run(ctx context.Context) (int, error) {
	mainIdx, ok := vm.program.FunctionIndex("main")
	if !ok {
		return 1, errz.New(errz.ErrRuntime, errz.CodeRuntimeError,
			"No 'main' function found. Entry point must be named 'main'.")
	}

	vm.runMutex.Lock()
	if vm.running {
		vm.runMutex.Unlock()
		return 1, fmt.Errorf("vm is already running")
	}
	vm.running = true
	vm.runMutex.Unlock()
	defer func() {
		vm.runMutex.Lock()
		vm.running = false
		vm.runMutex.Unlock()
	}()

	vm.halt = 0
	vm.trap = nil
	if doneChan := ctx.Done(); doneChan != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-doneChan:
				atomic.StoreInt32(&vm.halt, 1)
			case <-stop:
			}
		}()
	}

	main := vm.program.Functions[mainIdx]
	vm.sp = -1
	vm.ip = main.StartAddr
	vm.frameCount = 1
	vm.frames[0] = frame{
		returnAddr: uint32(len(vm.program.Instructions)),
		base:       0,
		localCount: main.LocalCount,
		paramCount: main.ParamCount,
	}
	for i := uint32(0); i < main.LocalCount; i++ {
		vm.push(UnitValue())
	}

	vm.logger.Debug().
		Int("instructions", len(vm.program.Instructions)).
		Int("functions", len(vm.program.Functions)).
		Msg("vm start")

	if err := vm.eval(ctx); err != nil {
		return 1, err
	}

	exitCode := 0
	if vm.sp >= 0 && vm.stack[vm.sp].Kind == IntKind {
		exitCode = int(vm.stack[vm.sp].Int)
	}
	vm.logger.Debug().Int("exit_code", exitCode).Msg("vm stop")
	return exitCode, nil
}

// push and pop record limit violations as a trap instead of returning an
// error, so the opcode handlers keep their expression shape. eval surfaces
// the trap between instructions.
func (vm *VM) push(v Value) {
	if vm.sp+1 >= MaxStackDepth {
		vm.trap = runtimeError("Stack overflow")
		return
	}
	vm.sp++
	vm.stack[vm.sp] = v
}

func (vm *VM) pop() Value {
	if vm.sp < 0 {
		vm.trap = runtimeError("Stack underflow")
		return UnitValue()
	}
	v := vm.stack[vm.sp]
	vm.sp--
	return v
}

func (vm *VM) peek() Value {
	if vm.sp < 0 {
		vm.trap = runtimeError("Stack underflow")
		return UnitValue()
	}
	return vm.stack[vm.sp]
}

func (vm *VM) takeTrap() error {
	err := vm.trap
	vm.trap = nil
	return err
}

func (vm *VM) currentFrame() *frame {
	return &vm.frames[vm.frameCount-1]
}

func runtimeError(format string, args ...any) error {
	return errz.Newf(errz.ErrRuntime, errz.CodeRuntimeError, format, args...)
}

func (vm *VM) stringAt(index uint32) (string, error) {
	s, err := vm.program.StringAt(index)
	if err != nil {
		return "", runtimeError("%s", err)
	}
	return s, nil
}

// eval runs instructions until the program halts or the bottom frame
// returns.
func (vm *VM) eval(ctx context.Context) error {
	var instructionCount int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()
	instrs := vm.program.Instructions
	count := uint32(len(instrs))

	for vm.ip < count {
		if vm.trap != nil {
			return vm.takeTrap()
		}
		if atomic.LoadInt32(&vm.halt) == 1 {
			return ctx.Err()
		}
		if checkInterval > 0 && doneChan != nil {
			instructionCount++
			if instructionCount >= checkInterval {
				instructionCount = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return ctx.Err()
				default:
				}
			}
		}

		in := instrs[vm.ip]
		vm.ip++

		switch in.Op {
		case op.Nop:

		case op.PushInt:
			vm.push(IntValue(in.Int))
		case op.PushFloat:
			vm.push(FloatValue(in.Float))
		case op.PushBool:
			vm.push(BoolValue(in.Bool))
		case op.PushUnit:
			vm.push(UnitValue())
		case op.PushString:
			s, err := vm.stringAt(in.Index)
			if err != nil {
				return err
			}
			vm.push(StringValue(s))
		case op.PushDecimal:
			s, err := vm.stringAt(in.Index)
			if err != nil {
				return err
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return runtimeError("invalid decimal literal %q", s)
			}
			vm.push(DecimalValue(d))

		case op.Pop:
			vm.pop()
		case op.Dup:
			vm.push(vm.peek())

		case op.LoadLocal:
			f := vm.currentFrame()
			vm.push(vm.stack[f.base+int(in.Index)])
		case op.StoreLocal:
			f := vm.currentFrame()
			vm.stack[f.base+int(in.Index)] = vm.pop()
		case op.LoadGlobal:
			// Globals share the bottom frame's slots.
			vm.push(vm.stack[in.Index])
		case op.StoreGlobal:
			vm.stack[in.Index] = vm.pop()

		case op.Jump:
			vm.ip = in.Target
		case op.JumpIfFalse:
			if !vm.pop().IsTruthy() {
				vm.ip = in.Target
			}
		case op.JumpIfTrue:
			if vm.pop().IsTruthy() {
				vm.ip = in.Target
			}

		case op.Call:
			if err := vm.call(in.FuncIndex, in.ArgCount); err != nil {
				return err
			}
		case op.Return:
			if done := vm.ret(); done {
				return vm.takeTrap()
			}

		case op.Halt:
			return nil

		case op.AddInt, op.SubInt, op.MulInt, op.DivInt, op.ModInt, op.NegInt,
			op.EqInt, op.NeInt, op.LtInt, op.GtInt, op.LeInt, op.GeInt:
			if err := vm.execIntOp(in.Op); err != nil {
				return err
			}
		case op.AddFloat, op.SubFloat, op.MulFloat, op.DivFloat, op.NegFloat,
			op.EqFloat, op.NeFloat, op.LtFloat, op.GtFloat, op.LeFloat, op.GeFloat:
			vm.execFloatOp(in.Op)
		case op.AddDecimal, op.SubDecimal, op.MulDecimal, op.DivDecimal, op.NegDecimal,
			op.EqDecimal, op.NeDecimal, op.LtDecimal, op.GtDecimal, op.LeDecimal, op.GeDecimal:
			if err := vm.execDecimalOp(in.Op); err != nil {
				return err
			}
		case op.EqBool, op.NeBool, op.AndBool, op.OrBool, op.NotBool:
			vm.execBoolOp(in.Op)

		case op.CastIntFloat, op.CastFloatInt, op.CastIntDecimal, op.CastDecimalInt,
			op.CastFloatDecimal, op.CastDecimalFloat:
			vm.execCast(in.Op)

		case op.MathSqrtFloat, op.MathPowFloat, op.MathAbsInt, op.MathAbsFloat,
			op.MathMinInt, op.MathMinFloat, op.MathMaxInt, op.MathMaxFloat:
			vm.execMath(in.Op)

		case op.EqStr, op.NeStr, op.StrLen, op.StrConcat, op.StrSlice, op.StrGet,
			op.StrFromInt, op.StrFromFloat, op.StrFromDecimal, op.StrSplit,
			op.StrTrim, op.StrContains, op.StrReplace, op.StrStartsWith,
			op.StrEndsWith, op.StrToUpper, op.StrToLower:
			vm.execString(in.Op)

		case op.ArrayNew, op.ArrayPush, op.ArrayGet, op.ArraySet, op.ArrayLen,
			op.MapNew, op.MapSet, op.MapGet, op.MapHas, op.MapDelete,
			op.MapLen, op.MapKeys:
			vm.execCollection(in.Op)

		case op.JSONParse, op.JSONStringify, op.JSONNewObject, op.JSONNewArray,
			op.JSONGet, op.JSONSet, op.JSONHas, op.JSONDelete, op.JSONPush,
			op.JSONLength, op.JSONType:
			vm.execJSON(in.Op)

		case op.ResultOk, op.ResultErr, op.ResultIsOk, op.ResultIsErr,
			op.ResultUnwrap, op.ResultUnwrapOr, op.ResultErrorCode,
			op.ResultErrorMsg:
			if err := vm.execResult(in.Op); err != nil {
				return err
			}

		case op.IOOpen, op.IORead, op.IOWrite, op.IOClose,
			op.FileRead, op.FileWrite, op.FileAppend, op.FileExists,
			op.FileDelete, op.FileSize, op.FileMtime,
			op.FileReadResult, op.FileWriteResult, op.FileAppendResult,
			op.DirCreate, op.DirDelete, op.DirList,
			op.StdinRead, op.StdinReadAll:
			vm.execFile(in.Op)

		case op.TCPListen, op.TCPAccept, op.TCPConnect, op.TCPTLSConnect,
			op.TCPSend, op.TCPReceive, op.TCPClose,
			op.UDPSocket, op.UDPBind, op.UDPSendTo, op.UDPReceiveFrom,
			op.HTTPGet, op.HTTPPost, op.HTTPPut, op.HTTPDelete, op.HTTPRequest,
			op.HTTPGetStatus, op.HTTPGetBody, op.HTTPGetHeader, op.HTTPSetHeader,
			op.WSConnect, op.WSSend, op.WSReceive, op.WSClose:
			vm.execNet(in.Op)

		case op.ProcessExec, op.ProcessSpawn, op.ProcessRead, op.ProcessWrite,
			op.ProcessWait, op.ProcessKill, op.ProcessPipe:
			vm.execProcess(in.Op)

		case op.SQLiteOpen, op.SQLiteClose, op.SQLiteExec, op.SQLiteQuery,
			op.SQLitePrepare, op.SQLiteBind, op.SQLiteStep, op.SQLiteColumn,
			op.SQLiteReset, op.SQLiteFinalize:
			vm.execDB(in.Op)

		case op.RegexCompile, op.RegexMatch, op.RegexFind, op.RegexFindAll,
			op.RegexReplace,
			op.CryptoSHA256, op.CryptoMD5, op.CryptoHMACSHA256,
			op.Base64Encode, op.Base64Decode,
			op.TimeNow, op.TimeFormat, op.TimeParse,
			op.GCCollect, op.GCStats:
			if err := vm.execUtil(in.Op); err != nil {
				return err
			}

		case op.Spawn, op.AsyncSpawn, op.AsyncAwait, op.AsyncCreate,
			op.AsyncSleep, op.AsyncSelect,
			op.ChannelNew, op.ChannelSend, op.ChannelRecv:
			if err := vm.execAsync(ctx, in); err != nil {
				return err
			}

		case op.FFILoad, op.FFICall, op.FFIAvailable, op.FFIClose:
			if err := vm.execFFI(in.Op); err != nil {
				return err
			}

		case op.PrintDebug, op.PrintInt, op.PrintFloat, op.PrintStr,
			op.PrintBool, op.PrintDecimal, op.PrintArray, op.PrintMap:
			vm.execPrint(in.Op)

		default:
			return runtimeError("unimplemented opcode %s", in.Op.Name())
		}
	}
	return vm.takeTrap()
}

// call activates a function: the arguments already on the stack become the
// first locals, the remaining local slots are unit.
func (vm *VM) call(funcIndex, argCount uint32) error {
	if vm.frameCount >= MaxFrameDepth {
		return runtimeError("Call stack overflow")
	}
	if int(funcIndex) >= len(vm.program.Functions) {
		return runtimeError("invalid function index %d", funcIndex)
	}
	fn := vm.program.Functions[funcIndex]
	base := vm.sp + 1 - int(argCount)
	if base < 0 {
		return runtimeError("Stack underflow on call")
	}
	vm.frames[vm.frameCount] = frame{
		returnAddr: vm.ip,
		base:       base,
		localCount: fn.LocalCount,
		paramCount: fn.ParamCount,
	}
	vm.frameCount++
	for vm.sp+1 < base+int(fn.LocalCount) {
		vm.push(UnitValue())
	}
	vm.ip = fn.StartAddr
	return nil
}

// ret pops the current frame, leaving the return value on top of the
// caller's stack. Returns true when the bottom frame returned.
func (vm *VM) ret() bool {
	ret := vm.pop()
	vm.frameCount--
	f := vm.frames[vm.frameCount]
	vm.sp = f.base - 1
	vm.push(ret)
	if vm.frameCount == 0 {
		return true
	}
	vm.ip = f.returnAddr
	return false
}

func (vm *VM) execIntOp(code op.Code) error {
	if code == op.NegInt {
		v := vm.pop()
		vm.push(IntValue(-v.Int))
		return nil
	}
	b := vm.pop()
	a := vm.pop()
	switch code {
	case op.AddInt:
		vm.push(IntValue(a.Int + b.Int))
	case op.SubInt:
		vm.push(IntValue(a.Int - b.Int))
	case op.MulInt:
		vm.push(IntValue(a.Int * b.Int))
	case op.DivInt:
		if b.Int == 0 {
			return runtimeError("Division by zero")
		}
		vm.push(IntValue(a.Int / b.Int))
	case op.ModInt:
		if b.Int == 0 {
			return runtimeError("Modulo by zero")
		}
		vm.push(IntValue(a.Int % b.Int))
	case op.EqInt:
		vm.push(BoolValue(a.Int == b.Int))
	case op.NeInt:
		vm.push(BoolValue(a.Int != b.Int))
	case op.LtInt:
		vm.push(BoolValue(a.Int < b.Int))
	case op.GtInt:
		vm.push(BoolValue(a.Int > b.Int))
	case op.LeInt:
		vm.push(BoolValue(a.Int <= b.Int))
	case op.GeInt:
		vm.push(BoolValue(a.Int >= b.Int))
	}
	return nil
}

func (vm *VM) execFloatOp(code op.Code) {
	if code == op.NegFloat {
		v := vm.pop()
		vm.push(FloatValue(-v.Float))
		return
	}
	b := vm.pop()
	a := vm.pop()
	switch code {
	case op.AddFloat:
		vm.push(FloatValue(a.Float + b.Float))
	case op.SubFloat:
		vm.push(FloatValue(a.Float - b.Float))
	case op.MulFloat:
		vm.push(FloatValue(a.Float * b.Float))
	case op.DivFloat:
		vm.push(FloatValue(a.Float / b.Float))
	case op.EqFloat:
		vm.push(BoolValue(a.Float == b.Float))
	case op.NeFloat:
		vm.push(BoolValue(a.Float != b.Float))
	case op.LtFloat:
		vm.push(BoolValue(a.Float < b.Float))
	case op.GtFloat:
		vm.push(BoolValue(a.Float > b.Float))
	case op.LeFloat:
		vm.push(BoolValue(a.Float <= b.Float))
	case op.GeFloat:
		vm.push(BoolValue(a.Float >= b.Float))
	}
}

func (vm *VM) execDecimalOp(code op.Code) error {
	if code == op.NegDecimal {
		v := vm.pop()
		vm.push(DecimalValue(v.Dec.Neg()))
		return nil
	}
	b := vm.pop()
	a := vm.pop()
	switch code {
	case op.AddDecimal:
		vm.push(DecimalValue(a.Dec.Add(b.Dec)))
	case op.SubDecimal:
		vm.push(DecimalValue(a.Dec.Sub(b.Dec)))
	case op.MulDecimal:
		vm.push(DecimalValue(a.Dec.Mul(b.Dec)))
	case op.DivDecimal:
		if b.Dec.IsZero() {
			return runtimeError("Division by zero")
		}
		vm.push(DecimalValue(a.Dec.Div(b.Dec)))
	case op.EqDecimal:
		vm.push(BoolValue(a.Dec.Equal(b.Dec)))
	case op.NeDecimal:
		vm.push(BoolValue(!a.Dec.Equal(b.Dec)))
	case op.LtDecimal:
		vm.push(BoolValue(a.Dec.LessThan(b.Dec)))
	case op.GtDecimal:
		vm.push(BoolValue(a.Dec.GreaterThan(b.Dec)))
	case op.LeDecimal:
		vm.push(BoolValue(a.Dec.LessThanOrEqual(b.Dec)))
	case op.GeDecimal:
		vm.push(BoolValue(a.Dec.GreaterThanOrEqual(b.Dec)))
	}
	return nil
}

func (vm *VM) execBoolOp(code op.Code) {
	if code == op.NotBool {
		v := vm.pop()
		vm.push(BoolValue(!v.IsTruthy()))
		return
	}
	b := vm.pop()
	a := vm.pop()
	switch code {
	case op.EqBool:
		vm.push(BoolValue(a.Bool == b.Bool))
	case op.NeBool:
		vm.push(BoolValue(a.Bool != b.Bool))
	case op.AndBool:
		vm.push(BoolValue(a.IsTruthy() && b.IsTruthy()))
	case op.OrBool:
		vm.push(BoolValue(a.IsTruthy() || b.IsTruthy()))
	}
}

func (vm *VM) execCast(code op.Code) {
	v := vm.pop()
	switch code {
	case op.CastIntFloat:
		vm.push(FloatValue(float64(v.Int)))
	case op.CastFloatInt:
		vm.push(IntValue(int64(v.Float)))
	case op.CastIntDecimal:
		vm.push(DecimalValue(decimal.NewFromInt(v.Int)))
	case op.CastDecimalInt:
		vm.push(IntValue(v.Dec.IntPart()))
	case op.CastFloatDecimal:
		vm.push(DecimalValue(decimal.NewFromFloat(v.Float)))
	case op.CastDecimalFloat:
		vm.push(FloatValue(v.Dec.InexactFloat64()))
	}
}

func (vm *VM) execPrint(code op.Code) {
	if code == op.PrintDebug {
		v := vm.peek()
		fmt.Fprintf(vm.stdout, "[DEBUG] %s: %s\n", v.Kind, v.AsString())
		return
	}
	v := vm.pop()
	switch code {
	case op.PrintInt:
		fmt.Fprintf(vm.stdout, "%d", v.Int)
	case op.PrintFloat:
		fmt.Fprintf(vm.stdout, "%.15f", v.Float)
	case op.PrintStr:
		if v.Kind == StringKind {
			fmt.Fprint(vm.stdout, v.Str)
		} else {
			fmt.Fprint(vm.stdout, "[non-string]")
		}
	case op.PrintBool:
		if v.Bool {
			fmt.Fprint(vm.stdout, "true")
		} else {
			fmt.Fprint(vm.stdout, "false")
		}
	case op.PrintDecimal:
		if v.Kind == DecimalKind {
			fmt.Fprint(vm.stdout, v.Dec.String())
		} else {
			fmt.Fprint(vm.stdout, "[non-decimal]")
		}
	case op.PrintArray:
		if v.Kind == ArrayKind {
			fmt.Fprint(vm.stdout, v.renderArray())
		} else {
			fmt.Fprint(vm.stdout, "[non-array]")
		}
	case op.PrintMap:
		if v.Kind == MapKind {
			fmt.Fprint(vm.stdout, v.renderMap())
		} else {
			fmt.Fprint(vm.stdout, "[non-map]")
		}
	}
	vm.push(UnitValue())
}
