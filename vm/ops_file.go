package vm

import "github.com/aisl-lang/aisl/op"

// execFile handles the file, directory, byte-stream handle, and stdin
// families. Failures follow the non-result contract: reads yield empty
// strings, writes yield false, sizes yield -1. The *_result variants wrap
// the outcome in a result value instead.
func (vm *VM) execFile(code op.Code) {
	switch code {
	case op.IOOpen:
		mode := vm.pop().Str
		path := vm.pop().Str
		h, err := vm.sys.Open(path, mode)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(h))

	case op.IORead:
		h := vm.pop().Int
		data, err := vm.sys.Read(h, defaultReadSize)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(data))

	case op.IOWrite:
		data := vm.pop()
		h := vm.pop().Int
		if data.Kind == StringKind {
			vm.sys.Write(h, data.Str) //nolint:errcheck
		}
		vm.push(UnitValue())

	case op.IOClose:
		h := vm.pop().Int
		vm.sys.CloseHandle(h) //nolint:errcheck
		vm.push(UnitValue())

	case op.FileRead:
		path := vm.pop().Str
		content, err := vm.sys.FileRead(path)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(content))

	case op.FileWrite:
		content := vm.pop().Str
		path := vm.pop().Str
		vm.push(BoolValue(vm.sys.FileWrite(path, content) == nil))

	case op.FileAppend:
		content := vm.pop().Str
		path := vm.pop().Str
		vm.push(BoolValue(vm.sys.FileAppend(path, content) == nil))

	case op.FileExists:
		path := vm.pop().Str
		vm.push(BoolValue(vm.sys.FileExists(path)))

	case op.FileDelete:
		path := vm.pop().Str
		vm.push(BoolValue(vm.sys.FileDelete(path) == nil))

	case op.FileSize:
		path := vm.pop().Str
		size, err := vm.sys.FileSize(path)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(size))

	case op.FileMtime:
		path := vm.pop().Str
		mtime, err := vm.sys.FileMtime(path)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(mtime))

	case op.FileReadResult:
		path := vm.pop().Str
		content, err := vm.sys.FileRead(path)
		if err != nil {
			vm.push(ErrResult(1, err.Error()))
			return
		}
		vm.push(OkResult(StringValue(content)))

	case op.FileWriteResult:
		content := vm.pop().Str
		path := vm.pop().Str
		if err := vm.sys.FileWrite(path, content); err != nil {
			vm.push(ErrResult(1, err.Error()))
			return
		}
		vm.push(OkResult(UnitValue()))

	case op.FileAppendResult:
		content := vm.pop().Str
		path := vm.pop().Str
		if err := vm.sys.FileAppend(path, content); err != nil {
			vm.push(ErrResult(1, err.Error()))
			return
		}
		vm.push(OkResult(UnitValue()))

	case op.DirCreate:
		path := vm.pop().Str
		vm.push(BoolValue(vm.sys.DirCreate(path) == nil))

	case op.DirDelete:
		path := vm.pop().Str
		vm.push(BoolValue(vm.sys.DirDelete(path) == nil))

	case op.DirList:
		path := vm.pop().Str
		names, err := vm.sys.DirList(path)
		if err != nil {
			vm.push(ArrayValue(&Array{}))
			return
		}
		arr := &Array{Elems: make([]Value, len(names))}
		for i, name := range names {
			arr.Elems[i] = StringValue(name)
		}
		vm.push(ArrayValue(arr))

	case op.StdinRead:
		line, err := vm.sys.StdinRead()
		if err != nil && line == "" {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(line))

	case op.StdinReadAll:
		data, err := vm.sys.StdinReadAll()
		if err != nil && data == "" {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(data))
	}
}
