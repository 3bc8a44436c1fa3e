package vm

import (
	"strconv"

	"github.com/aisl-lang/aisl/op"
)

// mapKey converts a key value to the string form maps are keyed by. Ints
// convert to their decimal rendering; other kinds are unsupported.
func mapKey(v Value) (string, bool) {
	switch v.Kind {
	case StringKind:
		return v.Str, true
	case IntKind:
		return strconv.FormatInt(v.Int, 10), true
	default:
		return "", false
	}
}

func (vm *VM) execCollection(code op.Code) {
	switch code {
	case op.ArrayNew:
		capacity := vm.pop().Int
		if capacity < 1 {
			capacity = 1
		}
		vm.push(ArrayValue(&Array{Elems: make([]Value, 0, capacity)}))

	case op.ArrayPush:
		// Mutates in place and leaves the array on the stack.
		val := vm.pop()
		arrVal := vm.pop()
		arrVal.Arr.Elems = append(arrVal.Arr.Elems, val)
		vm.push(arrVal)

	case op.ArrayGet:
		// Out-of-range reads yield unit.
		idx := vm.pop().Int
		arrVal := vm.pop()
		if idx >= 0 && idx < int64(len(arrVal.Arr.Elems)) {
			vm.push(arrVal.Arr.Elems[idx])
		} else {
			vm.push(UnitValue())
		}

	case op.ArraySet:
		// Out-of-range writes are ignored; the array stays on the stack.
		val := vm.pop()
		idx := vm.pop().Int
		arrVal := vm.pop()
		if idx >= 0 && idx < int64(len(arrVal.Arr.Elems)) {
			arrVal.Arr.Elems[idx] = val
		}
		vm.push(arrVal)

	case op.ArrayLen:
		arrVal := vm.pop()
		vm.push(IntValue(int64(len(arrVal.Arr.Elems))))

	case op.MapNew:
		vm.push(MapValue(NewMap()))

	case op.MapSet:
		val := vm.pop()
		keyVal := vm.pop()
		mapVal := vm.pop()
		if key, ok := mapKey(keyVal); ok {
			mapVal.Map.Set(key, val)
		}
		vm.push(mapVal)

	case op.MapGet:
		// Missing keys yield unit.
		keyVal := vm.pop()
		mapVal := vm.pop()
		if key, ok := mapKey(keyVal); ok {
			if val, exists := mapVal.Map.Entries[key]; exists {
				vm.push(val)
				return
			}
		}
		vm.push(UnitValue())

	case op.MapHas:
		keyVal := vm.pop()
		mapVal := vm.pop()
		if key, ok := mapKey(keyVal); ok {
			_, exists := mapVal.Map.Entries[key]
			vm.push(BoolValue(exists))
		} else {
			vm.push(BoolValue(false))
		}

	case op.MapDelete:
		keyVal := vm.pop()
		mapVal := vm.pop()
		if key, ok := mapKey(keyVal); ok {
			mapVal.Map.Delete(key)
		}
		vm.push(mapVal)

	case op.MapLen:
		mapVal := vm.pop()
		vm.push(IntValue(int64(len(mapVal.Map.Entries))))

	case op.MapKeys:
		mapVal := vm.pop()
		arr := &Array{Elems: make([]Value, len(mapVal.Map.Keys))}
		for i, key := range mapVal.Map.Keys {
			arr.Elems[i] = StringValue(key)
		}
		vm.push(ArrayValue(arr))
	}
}
