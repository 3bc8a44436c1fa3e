package vm

import "github.com/aisl-lang/aisl/op"

func (vm *VM) execResult(code op.Code) error {
	switch code {
	case op.ResultOk:
		vm.push(OkResult(vm.pop()))

	case op.ResultErr:
		msg := vm.pop()
		codeVal := vm.pop()
		vm.push(ErrResult(codeVal.Int, msg.Str))

	case op.ResultIsOk:
		v := vm.pop()
		vm.push(BoolValue(v.Kind == ResultKind && v.Res.OK))

	case op.ResultIsErr:
		v := vm.pop()
		vm.push(BoolValue(v.Kind == ResultKind && !v.Res.OK))

	case op.ResultUnwrap:
		v := vm.pop()
		if v.Kind != ResultKind {
			return runtimeError("unwrap of non-result value")
		}
		if !v.Res.OK {
			return runtimeError("unwrap of error result: %s", v.Res.Msg)
		}
		vm.push(v.Res.Value)

	case op.ResultUnwrapOr:
		fallback := vm.pop()
		v := vm.pop()
		if v.Kind == ResultKind && v.Res.OK {
			vm.push(v.Res.Value)
		} else {
			vm.push(fallback)
		}

	case op.ResultErrorCode:
		v := vm.pop()
		if v.Kind == ResultKind && !v.Res.OK {
			vm.push(IntValue(v.Res.Code))
		} else {
			vm.push(IntValue(0))
		}

	case op.ResultErrorMsg:
		v := vm.pop()
		if v.Kind == ResultKind && !v.Res.OK {
			vm.push(StringValue(v.Res.Msg))
		} else {
			vm.push(StringValue(""))
		}
	}
	return nil
}
