package vm

import (
	"encoding/json"
	"math"

	"github.com/aisl-lang/aisl/op"
)

// jsonToValue converts a decoded JSON node to a runtime value. Scalars map
// onto native kinds; objects and arrays stay wrapped as JSON values.
func jsonToValue(v any) Value {
	switch n := v.(type) {
	case nil:
		return UnitValue()
	case bool:
		return BoolValue(n)
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return IntValue(int64(n))
		}
		return FloatValue(n)
	case string:
		return StringValue(n)
	default:
		return JSONValue(v)
	}
}

// valueToJSON converts a runtime value to a JSON-encodable node.
func valueToJSON(v Value) any {
	switch v.Kind {
	case UnitKind:
		return nil
	case IntKind:
		return v.Int
	case FloatKind:
		return v.Float
	case BoolKind:
		return v.Bool
	case StringKind:
		return v.Str
	case DecimalKind:
		return v.Dec.String()
	case JSONKind:
		return v.JSON
	case ArrayKind:
		out := make([]any, len(v.Arr.Elems))
		for i, e := range v.Arr.Elems {
			out[i] = valueToJSON(e)
		}
		return out
	case MapKind:
		out := make(map[string]any, len(v.Map.Entries))
		for k, e := range v.Map.Entries {
			out[k] = valueToJSON(e)
		}
		return out
	default:
		return v.AsString()
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

func (vm *VM) execJSON(code op.Code) {
	switch code {
	case op.JSONParse:
		// Parse failures yield unit.
		str := vm.pop().Str
		var decoded any
		if err := json.Unmarshal([]byte(str), &decoded); err != nil {
			vm.push(UnitValue())
			return
		}
		vm.push(JSONValue(decoded))

	case op.JSONStringify:
		v := vm.pop()
		data, err := json.Marshal(valueToJSON(v))
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(string(data)))

	case op.JSONNewObject:
		vm.push(JSONValue(map[string]any{}))
	case op.JSONNewArray:
		vm.push(JSONValue([]any{}))

	case op.JSONGet:
		// Objects index by string key, arrays by int index; misses yield
		// unit.
		keyVal := vm.pop()
		target := vm.pop()
		switch node := target.JSON.(type) {
		case map[string]any:
			if v, ok := node[keyVal.AsString()]; ok {
				vm.push(jsonToValue(v))
				return
			}
		case []any:
			if keyVal.Kind == IntKind && keyVal.Int >= 0 && keyVal.Int < int64(len(node)) {
				vm.push(jsonToValue(node[keyVal.Int]))
				return
			}
		}
		vm.push(UnitValue())

	case op.JSONSet:
		val := vm.pop()
		keyVal := vm.pop()
		target := vm.pop()
		switch node := target.JSON.(type) {
		case map[string]any:
			node[keyVal.AsString()] = valueToJSON(val)
		case []any:
			if keyVal.Kind == IntKind && keyVal.Int >= 0 && keyVal.Int < int64(len(node)) {
				node[keyVal.Int] = valueToJSON(val)
			}
		}
		vm.push(target)

	case op.JSONHas:
		keyVal := vm.pop()
		target := vm.pop()
		if node, ok := target.JSON.(map[string]any); ok {
			_, exists := node[keyVal.AsString()]
			vm.push(BoolValue(exists))
			return
		}
		vm.push(BoolValue(false))

	case op.JSONDelete:
		keyVal := vm.pop()
		target := vm.pop()
		if node, ok := target.JSON.(map[string]any); ok {
			delete(node, keyVal.AsString())
		}
		vm.push(target)

	case op.JSONPush:
		val := vm.pop()
		target := vm.pop()
		if node, ok := target.JSON.([]any); ok {
			target.JSON = append(node, valueToJSON(val))
		}
		vm.push(target)

	case op.JSONLength:
		target := vm.pop()
		switch node := target.JSON.(type) {
		case []any:
			vm.push(IntValue(int64(len(node))))
		case map[string]any:
			vm.push(IntValue(int64(len(node))))
		case string:
			vm.push(IntValue(int64(len(node))))
		default:
			vm.push(IntValue(0))
		}

	case op.JSONType:
		target := vm.pop()
		if target.Kind == JSONKind {
			vm.push(StringValue(jsonTypeName(target.JSON)))
		} else {
			vm.push(StringValue(target.Kind.String()))
		}
	}
}
