package vm

import "github.com/aisl-lang/aisl/op"

// execProcess handles subprocess operations. Exec and wait yield the exit
// code, spawn yields a process handle, read yields captured stdout.
func (vm *VM) execProcess(code op.Code) {
	switch code {
	case op.ProcessExec:
		args := vm.pop().Str
		cmd := vm.pop().Str
		exitCode, err := vm.sys.ProcessExec(cmd, args)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(exitCode))

	case op.ProcessSpawn:
		args := vm.pop().Str
		cmd := vm.pop().Str
		vm.pushHandle(vm.sys.ProcessSpawn(cmd, args))

	case op.ProcessRead:
		proc := vm.pop().Int
		data, err := vm.sys.ProcessRead(proc)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(data))

	case op.ProcessWrite:
		data := vm.pop().Str
		proc := vm.pop().Int
		vm.push(BoolValue(vm.sys.ProcessWrite(proc, data) == nil))

	case op.ProcessWait:
		proc := vm.pop().Int
		exitCode, err := vm.sys.ProcessWait(proc)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(exitCode))

	case op.ProcessKill:
		signal := vm.pop().Int
		proc := vm.pop().Int
		vm.push(BoolValue(vm.sys.ProcessKill(proc, signal) == nil))

	case op.ProcessPipe:
		vm.pushHandle(vm.sys.ProcessPipe())
	}
}
