package vm

import "github.com/aisl-lang/aisl/op"

// execFFI handles foreign function operations. All dispatch goes through the
// registered FFIHook; without one, loads yield -1 and calls fail.
func (vm *VM) execFFI(code op.Code) error {
	switch code {
	case op.FFILoad:
		lib := vm.pop().Str
		if vm.ffiHook == nil {
			vm.push(IntValue(-1))
			return nil
		}
		vm.nextFFI++
		vm.ffiLibs[vm.nextFFI] = lib
		vm.push(IntValue(vm.nextFFI))

	case op.FFICall:
		argc := vm.pop().Int
		args := make([]Value, argc)
		for i := int(argc) - 1; i >= 0; i-- {
			args[i] = vm.pop()
		}
		fn := vm.pop().Str
		handle := vm.pop().Int
		if vm.ffiHook == nil {
			return runtimeError("ffi_call without a foreign call hook")
		}
		lib, ok := vm.ffiLibs[handle]
		if !ok {
			return runtimeError("ffi_call on invalid library handle %d", handle)
		}
		result, err := vm.ffiHook(lib, fn, args)
		if err != nil {
			return runtimeError("ffi_call %s.%s: %s", lib, fn, err)
		}
		vm.push(result)

	case op.FFIAvailable:
		vm.pop() // library name, availability is hook-wide
		vm.push(BoolValue(vm.ffiHook != nil))

	case op.FFIClose:
		handle := vm.pop().Int
		delete(vm.ffiLibs, handle)
		vm.push(UnitValue())
	}
	return nil
}
