// Package compiler lowers desugared modules to bytecode programs.
//
// Compilation is two-pass per module: every function is declared into the
// function table first, then bodies are compiled, so forward references
// resolve without a separate link step. Imported modules are loaded, parsed,
// and compiled into the same program before the importing module, recursively,
// with in-progress markers to reject circular imports.
//
// Builtin operations compile to fixed opcodes via the builtins table. Short
// polymorphic names (add, eq, print, len, ...) resolve against the static
// type of their first argument before the table lookup; the default when no
// type is known is int. Control flow inside a function body uses the
// call-shaped label, goto, and ifnot forms emitted by the desugarer, with
// jump targets back-patched at the end of each function.
package compiler

import (
	"context"
	"strings"

	"github.com/aisl-lang/aisl/ast"
	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/desugar"
	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/op"
	"github.com/aisl-lang/aisl/parser"
)

// placeholderTarget marks a jump whose destination is patched later.
const placeholderTarget = 0xFFFFFFFF

// defaultArrayCapacity is pushed by the array_new special form.
const defaultArrayCapacity = 16

// Loader resolves an imported module name to its source text. The returned
// path is used in diagnostics only.
type Loader interface {
	Load(ctx context.Context, name string) (source string, path string, err error)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLoader sets the loader used to resolve imports. Without one, any
// import fails with an import error.
func WithLoader(l Loader) Option {
	return func(c *Compiler) { c.loader = l }
}

type local struct {
	name string
	kind ast.TypeKind
}

type pendingJump struct {
	instr uint32
	label string
}

type loopFrame struct {
	start  uint32
	breaks []uint32
	parent *loopFrame
}

type moduleState int

const (
	moduleCompiling moduleState = iota
	moduleCompiled
)

// Compiler holds the state of one compilation. A Compiler is good for a
// single Compile call.
type Compiler struct {
	program *bytecode.Program
	loader  Loader

	// Per-function state, reset by compileFunction.
	locals    []local
	maxLocals int
	fnName    string
	labels    map[string]uint32
	pending   []pendingJump
	loops     *loopFrame

	modules map[string]moduleState
}

// New returns a Compiler with the given options applied.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		modules: make(map[string]moduleState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile lowers a desugared module to a complete program ending in HALT.
func Compile(ctx context.Context, mod *ast.Module, opts ...Option) (*bytecode.Program, error) {
	return New(opts...).Compile(ctx, mod)
}

// Compile lowers the module and all of its imports into one program.
func (c *Compiler) Compile(ctx context.Context, mod *ast.Module) (*bytecode.Program, error) {
	c.program = bytecode.NewProgram()
	c.modules[mod.Name] = moduleCompiling
	if err := c.compileModule(ctx, mod); err != nil {
		return nil, err
	}
	c.modules[mod.Name] = moduleCompiled
	c.program.Emit(bytecode.Instruction{Op: op.Halt})
	if err := c.program.Validate(); err != nil {
		return nil, errz.Newf(errz.ErrRuntime, errz.CodeRuntimeError,
			"invalid program: %s", err).WithCause(err)
	}
	return c.program, nil
}

func (c *Compiler) compileModule(ctx context.Context, mod *ast.Module) error {
	for _, imp := range mod.Imports {
		if err := c.compileImport(ctx, imp.Module); err != nil {
			return err
		}
	}

	fns := mod.Functions()
	for _, fn := range fns {
		c.program.DeclareFunction(fn.Name, uint32(len(fn.Params)))
	}

	specs := mod.TestSpecs()
	if len(specs) > 0 && mod.Function("main") == nil {
		c.generateTestMain(specs)
	}

	for _, fn := range fns {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.compileFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// compileImport loads, parses, desugars, and compiles an imported module into
// the current program. Already-compiled modules are skipped; a module seen
// again while still compiling is a circular import.
func (c *Compiler) compileImport(ctx context.Context, name string) error {
	if state, seen := c.modules[name]; seen {
		if state == moduleCompiled {
			return nil
		}
		return errz.Newf(errz.ErrImport, errz.CodeImportError,
			"Circular import detected for module '%s'", name)
	}

	if c.loader == nil {
		return errz.Newf(errz.ErrImport, errz.CodeImportError,
			"Cannot load module '%s': no module loader configured", name)
	}
	source, path, err := c.loader.Load(ctx, name)
	if err != nil {
		return errz.Newf(errz.ErrImport, errz.CodeImportError,
			"Cannot load module '%s': %s", name, err).WithCause(err)
	}

	mod, err := parser.Parse(ctx, source, parser.WithFile(path))
	if err != nil {
		return errz.Newf(errz.ErrImport, errz.CodeImportError,
			"Error parsing module %s: %s", name, err).WithCause(err)
	}
	if mod, err = desugar.Module(mod); err != nil {
		return err
	}

	c.modules[name] = moduleCompiling
	if err := c.compileModule(ctx, mod); err != nil {
		return err
	}
	c.modules[name] = moduleCompiled
	return nil
}

func (c *Compiler) compileFunction(fn *ast.Function) error {
	idx, ok := c.program.FunctionIndex(fn.Name)
	if !ok {
		return errz.Newf(errz.ErrName, errz.CodeUnknownFunction,
			"Function not declared: %s", fn.Name)
	}

	c.locals = c.locals[:0]
	c.maxLocals = 0
	c.fnName = fn.Name
	c.labels = make(map[string]uint32)
	c.pending = nil
	c.loops = nil

	for _, p := range fn.Params {
		c.addLocal(p.Name, kindOf(p.Typ))
	}

	c.program.SetFunctionStart(idx, c.instrCount())
	if err := c.compileExpr(fn.Body); err != nil {
		return err
	}

	for _, pj := range c.pending {
		target, ok := c.labels[pj.label]
		if !ok {
			return errz.Newf(errz.ErrName, errz.CodeUndefinedLabel,
				"Undefined label '%s' in function '%s'", pj.label, fn.Name)
		}
		c.program.PatchJump(pj.instr, target)
	}
	c.labels = nil
	c.pending = nil

	c.program.Emit(bytecode.Instruction{Op: op.Return})
	c.program.SetFunctionLocals(idx, uint32(c.maxLocals), uint32(len(fn.Params)))
	return nil
}

func (c *Compiler) instrCount() uint32 {
	return uint32(len(c.program.Instructions))
}

func (c *Compiler) findLocal(name string) (local, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i], true
		}
	}
	return local{}, false
}

func (c *Compiler) localIndex(name string) (uint32, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return uint32(i), true
		}
	}
	return 0, false
}

func (c *Compiler) addLocal(name string, kind ast.TypeKind) uint32 {
	c.locals = append(c.locals, local{name: name, kind: kind})
	if len(c.locals) > c.maxLocals {
		c.maxLocals = len(c.locals)
	}
	return uint32(len(c.locals) - 1)
}

func kindOf(t *ast.Type) ast.TypeKind {
	if t == nil {
		return ast.UnitType
	}
	return t.Kind
}

// valueKind picks the static type recorded for a binding: the value's own
// annotation when it carries one, otherwise the annotation of the enclosing
// form, otherwise int.
func valueKind(value ast.Expr, enclosing ast.Expr) ast.TypeKind {
	if t := value.Type(); t != nil && t.Kind != ast.UnitType {
		return t.Kind
	}
	switch value.(type) {
	case *ast.Int:
		return ast.IntType
	case *ast.Float:
		return ast.FloatType
	case *ast.String_:
		return ast.StringType
	case *ast.Bool:
		return ast.BoolType
	}
	if enclosing != nil {
		if t := enclosing.Type(); t != nil && t.Kind != ast.UnitType {
			return t.Kind
		}
	}
	return ast.IntType
}

func (c *Compiler) compileExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Int:
		c.program.Emit(bytecode.Instruction{Op: op.PushInt, Int: n.Value})
	case *ast.Float:
		c.program.Emit(bytecode.Instruction{Op: op.PushFloat, Float: n.Value})
	case *ast.String_:
		idx := c.program.AddString(n.Value)
		c.program.Emit(bytecode.Instruction{Op: op.PushString, Index: idx})
	case *ast.Bool:
		c.program.Emit(bytecode.Instruction{Op: op.PushBool, Bool: n.Value})
	case *ast.Unit:
		c.program.Emit(bytecode.Instruction{Op: op.PushUnit})

	case *ast.Var:
		idx, ok := c.localIndex(n.Name)
		if !ok {
			return errz.Newf(errz.ErrName, errz.CodeUndefinedName,
				"Undefined local: %s", n.Name)
		}
		c.program.Emit(bytecode.Instruction{Op: op.LoadLocal, Index: idx})

	case *ast.Binary:
		return c.compileBinary(n)
	case *ast.If:
		return c.compileIf(n)
	case *ast.Let:
		return c.compileLet(n)
	case *ast.Seq:
		return c.compileSeq(n.Exprs)
	case *ast.Call:
		return c.compileCall(n)
	case *ast.While:
		return c.compileWhile(n)

	case *ast.Break:
		if c.loops == nil {
			return errz.New(errz.ErrSyntax, errz.CodeMisplacedBreak,
				"break outside of loop")
		}
		idx := c.program.Emit(bytecode.Instruction{Op: op.Jump, Target: placeholderTarget})
		c.loops.breaks = append(c.loops.breaks, idx)

	case *ast.Continue:
		if c.loops == nil {
			return errz.New(errz.ErrSyntax, errz.CodeMisplacedContinue,
				"continue outside of loop")
		}
		c.program.Emit(bytecode.Instruction{Op: op.Jump, Target: c.loops.start})

	case *ast.Return:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.Return})

	case *ast.Spawn:
		return c.compileSpawn(n)
	case *ast.Await:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.AsyncAwait})

	case *ast.ChannelNew:
		c.program.Emit(bytecode.Instruction{Op: op.PushInt, Int: 0})
		c.program.Emit(bytecode.Instruction{Op: op.ChannelNew})
	case *ast.ChannelSend:
		if err := c.compileExpr(n.Channel); err != nil {
			return err
		}
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.ChannelSend})
	case *ast.ChannelRecv:
		if err := c.compileExpr(n.Channel); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.ChannelRecv})

	case *ast.IOOpen:
		if err := c.compileExpr(n.Path); err != nil {
			return err
		}
		if err := c.compileExpr(n.Mode); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.IOOpen})
	case *ast.IORead:
		if err := c.compileExpr(n.Handle); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.IORead})
	case *ast.IOWrite:
		if err := c.compileExpr(n.Handle); err != nil {
			return err
		}
		if err := c.compileExpr(n.Data); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.IOWrite})
	case *ast.IOClose:
		if err := c.compileExpr(n.Handle); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.IOClose})

	case *ast.BadExpr:
		return errz.New(errz.ErrSyntax, errz.CodeParseError,
			"cannot compile expression with parse errors")
	default:
		return errz.Newf(errz.ErrSyntax, errz.CodeParseError,
			"unsupported expression %T", e)
	}
	return nil
}

// compileBinary emits the integer opcode family. The legacy dialect this
// node comes from has no type annotations on operators; typed arithmetic
// goes through the named operations instead.
func (c *Compiler) compileBinary(n *ast.Binary) error {
	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	if err := c.compileExpr(n.Right); err != nil {
		return err
	}
	var code op.Code
	switch n.Op {
	case ast.OpAdd:
		code = op.AddInt
	case ast.OpSub:
		code = op.SubInt
	case ast.OpMul:
		code = op.MulInt
	case ast.OpDiv:
		code = op.DivInt
	case ast.OpEq:
		code = op.EqInt
	case ast.OpLt:
		code = op.LtInt
	case ast.OpGt:
		code = op.GtInt
	case ast.OpLte:
		code = op.LeInt
	case ast.OpGte:
		code = op.GeInt
	default:
		return errz.Newf(errz.ErrSyntax, errz.CodeParseError,
			"unsupported binary operator %s", n.Op)
	}
	c.program.Emit(bytecode.Instruction{Op: code})
	return nil
}

func (c *Compiler) compileIf(n *ast.If) error {
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	toElse := c.program.Emit(bytecode.Instruction{Op: op.JumpIfFalse, Target: placeholderTarget})
	if err := c.compileExpr(n.Then); err != nil {
		return err
	}
	toEnd := c.program.Emit(bytecode.Instruction{Op: op.Jump, Target: placeholderTarget})
	c.program.PatchJump(toElse, c.instrCount())
	if n.Else != nil {
		if err := c.compileExpr(n.Else); err != nil {
			return err
		}
	} else {
		c.program.Emit(bytecode.Instruction{Op: op.PushUnit})
	}
	c.program.PatchJump(toEnd, c.instrCount())
	return nil
}

// compileLet binds a value to a fresh local slot visible in the body only.
// The slot itself is not reclaimed; maxLocals already accounts for it.
func (c *Compiler) compileLet(n *ast.Let) error {
	saved := len(c.locals)
	if err := c.compileExpr(n.Value); err != nil {
		return err
	}
	idx := c.addLocal(n.Name, valueKind(n.Value, n))
	c.program.Emit(bytecode.Instruction{Op: op.StoreLocal, Index: idx})
	if err := c.compileExpr(n.Body); err != nil {
		return err
	}
	c.locals = c.locals[:saved]
	return nil
}

func (c *Compiler) compileSeq(exprs []ast.Expr) error {
	if len(exprs) == 0 {
		c.program.Emit(bytecode.Instruction{Op: op.PushUnit})
		return nil
	}
	for i, e := range exprs {
		if err := c.compileExpr(e); err != nil {
			return err
		}
		if i < len(exprs)-1 {
			c.program.Emit(bytecode.Instruction{Op: op.Pop})
		}
	}
	return nil
}

func (c *Compiler) compileWhile(n *ast.While) error {
	start := c.instrCount()
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	exit := c.program.Emit(bytecode.Instruction{Op: op.JumpIfFalse, Target: placeholderTarget})

	c.loops = &loopFrame{start: start, parent: c.loops}
	for _, e := range n.Body {
		if err := c.compileExpr(e); err != nil {
			return err
		}
		c.program.Emit(bytecode.Instruction{Op: op.Pop})
	}
	c.program.Emit(bytecode.Instruction{Op: op.Jump, Target: start})

	end := c.instrCount()
	c.program.PatchJump(exit, end)
	for _, b := range c.loops.breaks {
		c.program.PatchJump(b, end)
	}
	c.loops = c.loops.parent

	c.program.Emit(bytecode.Instruction{Op: op.PushUnit})
	return nil
}

func (c *Compiler) compileSpawn(n *ast.Spawn) error {
	call, ok := n.Call.(*ast.Call)
	if !ok {
		return errz.New(errz.ErrSyntax, errz.CodeParseError,
			"spawn requires a function call")
	}
	idx, ok := c.program.FunctionIndex(call.Name)
	if !ok {
		return errz.Newf(errz.ErrName, errz.CodeUnknownFunction,
			"Unknown function: %s", call.Name)
	}
	for _, arg := range call.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.program.Emit(bytecode.Instruction{
		Op:        op.Spawn,
		FuncIndex: idx,
		ArgCount:  uint32(len(call.Args)),
	})
	return nil
}

// labelArg extracts the bare name argument of a label, goto, or ifnot form.
func labelArg(form string, arg ast.Expr) (string, error) {
	v, ok := arg.(*ast.Var)
	if !ok {
		return "", errz.Newf(errz.ErrSyntax, errz.CodeParseError,
			"%s expects a label name", form)
	}
	return v.Name, nil
}

func (c *Compiler) compileCall(call *ast.Call) error {
	name := call.Name
	args := call.Args

	switch name {
	case "label":
		if len(args) != 1 {
			return arityError(name, 1, len(args))
		}
		label, err := labelArg(name, args[0])
		if err != nil {
			return err
		}
		c.labels[label] = c.instrCount()
		c.program.Emit(bytecode.Instruction{Op: op.PushUnit})
		return nil

	case "goto":
		if len(args) != 1 {
			return arityError(name, 1, len(args))
		}
		label, err := labelArg(name, args[0])
		if err != nil {
			return err
		}
		idx := c.program.Emit(bytecode.Instruction{Op: op.Jump, Target: placeholderTarget})
		c.pending = append(c.pending, pendingJump{instr: idx, label: label})
		c.program.Emit(bytecode.Instruction{Op: op.PushUnit})
		return nil

	case "ifnot":
		if len(args) != 2 {
			return arityError(name, 2, len(args))
		}
		label, err := labelArg(name, args[1])
		if err != nil {
			return err
		}
		if err := c.compileExpr(args[0]); err != nil {
			return err
		}
		idx := c.program.Emit(bytecode.Instruction{Op: op.JumpIfFalse, Target: placeholderTarget})
		c.pending = append(c.pending, pendingJump{instr: idx, label: label})
		c.program.Emit(bytecode.Instruction{Op: op.PushUnit})
		return nil

	case "seq":
		return c.compileSeq(args)

	case "if_i64", "if_f64", "if_string":
		if len(args) != 3 {
			return arityError(name, 3, len(args))
		}
		cond := &ast.If{Token: call.Token, Cond: args[0], Then: args[1], Else: args[2]}
		return c.compileIf(cond)

	case "while_loop":
		if len(args) < 1 {
			return arityError(name, 1, len(args))
		}
		loop := &ast.While{Token: call.Token, Cond: args[0], Body: args[1:]}
		return c.compileWhile(loop)

	case "array_new":
		if len(args) != 0 {
			return arityError(name, 0, len(args))
		}
		c.program.Emit(bytecode.Instruction{Op: op.PushInt, Int: defaultArrayCapacity})
		c.program.Emit(bytecode.Instruction{Op: op.ArrayNew})
		return nil

	case "ffi_call":
		// (call ffi_call handle fn_name args...): the extra argument count
		// rides the stack ahead of the FFI_CALL.
		if len(args) < 2 {
			return arityError(name, 2, len(args))
		}
		for _, arg := range args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
		}
		c.program.Emit(bytecode.Instruction{Op: op.PushInt, Int: int64(len(args) - 2)})
		c.program.Emit(bytecode.Instruction{Op: op.FFICall})
		return nil
	}

	// Assignment forms come out of the parser as set_<name> calls.
	if varName, ok := strings.CutPrefix(name, "set_"); ok && varName != "" {
		if len(args) != 1 {
			return arityError(name, 1, len(args))
		}
		if err := c.compileExpr(args[0]); err != nil {
			return err
		}
		idx, ok := c.localIndex(varName)
		if !ok {
			idx = c.addLocal(varName, valueKind(args[0], call))
		}
		c.program.Emit(bytecode.Instruction{Op: op.StoreLocal, Index: idx})
		c.program.Emit(bytecode.Instruction{Op: op.PushUnit})
		return nil
	}

	if polymorphic[name] && len(args) > 0 {
		kind, err := c.firstArgType(args[0])
		if err != nil {
			return err
		}
		name = typedOperation(name, kind)
	}

	if b, ok := builtins[name]; ok {
		if len(args) != b.Arity {
			return arityError(name, b.Arity, len(args))
		}
		for _, arg := range args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
		}
		c.program.Emit(bytecode.Instruction{Op: b.Op})
		return nil
	}

	idx, ok := c.program.FunctionIndex(name)
	if !ok {
		return errz.Newf(errz.ErrName, errz.CodeUnknownFunction,
			"Unknown function: %s", name)
	}
	for _, arg := range args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.program.Emit(bytecode.Instruction{
		Op:        op.Call,
		FuncIndex: idx,
		ArgCount:  uint32(len(args)),
	})
	return nil
}

func arityError(name string, want, got int) error {
	return errz.Newf(errz.ErrArity, errz.CodeArityMismatch,
		"%s expects %d arguments, got %d", name, want, got)
}
