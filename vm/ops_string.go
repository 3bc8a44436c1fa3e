package vm

import (
	"strconv"
	"strings"

	"github.com/aisl-lang/aisl/op"
)

func (vm *VM) execString(code op.Code) {
	switch code {
	case op.EqStr:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolValue(a.Str == b.Str))
	case op.NeStr:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolValue(a.Str != b.Str))
	case op.StrLen:
		v := vm.pop()
		vm.push(IntValue(int64(len(v.Str))))
	case op.StrConcat:
		b := vm.pop()
		a := vm.pop()
		vm.push(StringValue(a.Str + b.Str))

	case op.StrSlice:
		// (string, start, length) with clamping at both ends.
		lengthVal := vm.pop()
		startVal := vm.pop()
		str := vm.pop().Str
		start := startVal.Int
		length := lengthVal.Int
		if start < 0 {
			start = 0
		}
		if length < 0 {
			length = 0
		}
		if start > int64(len(str)) {
			start = int64(len(str))
		}
		if start+length > int64(len(str)) {
			length = int64(len(str)) - start
		}
		vm.push(StringValue(str[start : start+length]))

	case op.StrGet:
		// Byte value at the index, -1 when out of range.
		idx := vm.pop().Int
		str := vm.pop().Str
		if idx >= 0 && idx < int64(len(str)) {
			vm.push(IntValue(int64(str[idx])))
		} else {
			vm.push(IntValue(-1))
		}

	case op.StrFromInt:
		v := vm.pop()
		vm.push(StringValue(strconv.FormatInt(v.Int, 10)))
	case op.StrFromFloat:
		v := vm.pop()
		vm.push(StringValue(strconv.FormatFloat(v.Float, 'g', -1, 64)))
	case op.StrFromDecimal:
		vm.push(StringValue(vm.pop().AsString()))

	case op.StrSplit:
		sep := vm.pop().Str
		str := vm.pop().Str
		parts := strings.Split(str, sep)
		arr := &Array{Elems: make([]Value, len(parts))}
		for i, p := range parts {
			arr.Elems[i] = StringValue(p)
		}
		vm.push(ArrayValue(arr))
	case op.StrTrim:
		vm.push(StringValue(strings.TrimSpace(vm.pop().Str)))
	case op.StrContains:
		sub := vm.pop().Str
		str := vm.pop().Str
		vm.push(BoolValue(strings.Contains(str, sub)))
	case op.StrReplace:
		with := vm.pop().Str
		old := vm.pop().Str
		str := vm.pop().Str
		vm.push(StringValue(strings.ReplaceAll(str, old, with)))
	case op.StrStartsWith:
		prefix := vm.pop().Str
		str := vm.pop().Str
		vm.push(BoolValue(strings.HasPrefix(str, prefix)))
	case op.StrEndsWith:
		suffix := vm.pop().Str
		str := vm.pop().Str
		vm.push(BoolValue(strings.HasSuffix(str, suffix)))
	case op.StrToUpper:
		vm.push(StringValue(strings.ToUpper(vm.pop().Str)))
	case op.StrToLower:
		vm.push(StringValue(strings.ToLower(vm.pop().Str)))
	}
}
