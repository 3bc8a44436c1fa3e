package vm

import (
	"context"
	"time"

	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/op"
)

// spawnCall runs a function in its own machine on a fresh goroutine and
// returns a future for its result. The child shares the program, syscall
// surface, and output writer but has its own stack.
func (vm *VM) spawnCall(ctx context.Context, funcIndex, argCount uint32) (*Future, error) {
	if int(funcIndex) >= len(vm.program.Functions) {
		return nil, runtimeError("spawn of undefined function index %d", funcIndex)
	}
	fn := vm.program.Functions[funcIndex]

	args := make([]Value, argCount)
	for i := int(argCount) - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}

	child := New(vm.program,
		WithStdout(vm.stdout),
		WithSyscalls(vm.sys),
		WithLogger(vm.logger),
		WithFFIHook(vm.ffiHook),
		WithContextCheckInterval(vm.contextCheckInterval),
	)
	child.ip = fn.StartAddr
	child.frameCount = 1
	child.frames[0] = frame{
		returnAddr: uint32(len(vm.program.Instructions)),
		base:       0,
		localCount: fn.LocalCount,
		paramCount: fn.ParamCount,
	}
	for _, arg := range args {
		child.push(arg)
	}
	for i := uint32(len(args)); i < fn.LocalCount; i++ {
		child.push(UnitValue())
	}

	fut := newFuture()
	go func() {
		if err := child.eval(ctx); err != nil {
			vm.logger.Debug().Err(err).Str("function", fn.Name).Msg("spawned call failed")
			fut.complete(UnitValue())
			return
		}
		if child.sp >= 0 {
			fut.complete(child.stack[child.sp])
			return
		}
		fut.complete(UnitValue())
	}()
	return fut, nil
}

// execAsync handles futures, channels, and sleeping. Blocking operations
// unblock on context cancellation.
func (vm *VM) execAsync(ctx context.Context, in bytecode.Instruction) error {
	switch in.Op {
	case op.Spawn, op.AsyncSpawn:
		fut, err := vm.spawnCall(ctx, in.FuncIndex, in.ArgCount)
		if err != nil {
			return err
		}
		vm.push(FutureValue(fut))

	case op.AsyncCreate:
		// Wraps a value in an already-completed future.
		fut := newFuture()
		fut.complete(vm.pop())
		vm.push(FutureValue(fut))

	case op.AsyncAwait:
		v := vm.pop()
		if v.Kind != FutureKind {
			vm.push(v)
			return nil
		}
		select {
		case <-v.Fut.done:
			vm.push(v.Fut.val)
		case <-ctx.Done():
			return runtimeError("await interrupted: %s", ctx.Err())
		}

	case op.AsyncSleep:
		ms := vm.pop().Int
		timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return runtimeError("sleep interrupted: %s", ctx.Err())
		}
		vm.push(UnitValue())

	case op.AsyncSelect:
		// Blocks until any future in the array completes and yields its
		// index. Non-future elements count as already complete.
		arrVal := vm.pop()
		if arrVal.Kind != ArrayKind || len(arrVal.Arr.Elems) == 0 {
			vm.push(IntValue(-1))
			return nil
		}
		for {
			for i, elem := range arrVal.Arr.Elems {
				if elem.Kind != FutureKind {
					vm.push(IntValue(int64(i)))
					return nil
				}
				select {
				case <-elem.Fut.done:
					vm.push(IntValue(int64(i)))
					return nil
				default:
				}
			}
			select {
			case <-ctx.Done():
				return runtimeError("select interrupted: %s", ctx.Err())
			case <-time.After(time.Millisecond):
			}
		}

	case op.ChannelNew:
		capacity := vm.pop().Int
		if capacity < 0 {
			capacity = 0
		}
		vm.push(ChannelValue(make(chan Value, capacity)))

	case op.ChannelSend:
		val := vm.pop()
		chVal := vm.pop()
		if chVal.Kind != ChannelKind {
			return runtimeError("send on non-channel value")
		}
		select {
		case chVal.Ch <- val:
		case <-ctx.Done():
			return runtimeError("channel send interrupted: %s", ctx.Err())
		}
		vm.push(UnitValue())

	case op.ChannelRecv:
		chVal := vm.pop()
		if chVal.Kind != ChannelKind {
			return runtimeError("receive on non-channel value")
		}
		select {
		case val := <-chVal.Ch:
			vm.push(val)
		case <-ctx.Done():
			return runtimeError("channel receive interrupted: %s", ctx.Err())
		}
	}
	return nil
}
