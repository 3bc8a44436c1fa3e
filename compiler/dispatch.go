package compiler

import (
	"github.com/aisl-lang/aisl/ast"
	"github.com/aisl-lang/aisl/errz"
)

// polymorphic is the set of short operation names that resolve to a typed
// builtin based on the static type of their first argument.
var polymorphic = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true, "mod": true,
	"neg": true,
	"eq": true, "ne": true, "lt": true, "gt": true, "le": true, "ge": true,
	"abs": true, "min": true, "max": true, "sqrt": true, "pow": true,
	"print": true, "len": true,
	"push": true, "get": true, "set": true,
	"concat": true, "slice": true,
	"from_i64": true, "from_f64": true, "from_bool": true,
}

// comparisonName reports whether a short operation name yields a boolean.
// Used when inferring the type of a nested call argument.
func comparisonName(name string) bool {
	switch name {
	case "lt", "gt", "le", "ge", "eq", "ne":
		return true
	}
	return false
}

// typedOperation resolves a polymorphic operation name to its typed builtin
// given the type of the first argument. Names that do not dispatch on type
// come back unchanged.
func typedOperation(name string, kind ast.TypeKind) string {
	switch name {
	case "concat":
		return "string_concat"
	case "slice":
		return "string_slice"
	case "from_i64":
		return "string_from_i64"
	case "from_f64":
		return "string_from_f64"
	case "from_bool":
		return "string_from_bool"
	case "print":
		switch kind {
		case ast.FloatType:
			return "io_print_f64"
		case ast.BoolType:
			return "io_print_bool"
		case ast.StringType:
			return "io_print_str"
		case ast.ArrayType, ast.ListType:
			return "io_print_array"
		case ast.MapType:
			return "io_print_map"
		case ast.DecimalType:
			return "io_print_decimal"
		default:
			return "io_print_i64"
		}
	case "len":
		if kind == ast.StringType {
			return "string_length"
		}
		return "array_length"
	case "push":
		return "array_push"
	case "get":
		return "array_get"
	case "set":
		return "array_set"
	}

	var suffix string
	switch kind {
	case ast.IntType:
		suffix = "_i64"
	case ast.FloatType:
		suffix = "_f64"
	case ast.DecimalType:
		suffix = "_decimal"
	default:
		return name
	}

	switch name {
	case "add", "sub", "mul", "div", "mod", "neg",
		"eq", "ne", "lt", "gt", "le", "ge":
		return "op_" + name + suffix
	case "abs", "min", "max", "sqrt", "pow":
		return "math_" + name + suffix
	}
	return name
}

// firstArgType infers the static type of an operation's first argument for
// typed dispatch. Variables must be bound locals; literals carry their
// natural types; a nested call is assumed boolean when the callee is a
// comparison and integer otherwise; anything without a usable annotation
// defaults to integer.
func (c *Compiler) firstArgType(arg ast.Expr) (ast.TypeKind, error) {
	switch n := arg.(type) {
	case *ast.Var:
		local, ok := c.findLocal(n.Name)
		if !ok {
			return ast.IntType, errz.Newf(errz.ErrName, errz.CodeUndefinedName,
				"Undefined variable in operation: %s", n.Name)
		}
		return local.kind, nil
	case *ast.Int:
		return ast.IntType, nil
	case *ast.Float:
		return ast.FloatType, nil
	case *ast.String_:
		return ast.StringType, nil
	case *ast.Bool:
		return ast.BoolType, nil
	case *ast.Call:
		if comparisonName(n.Name) {
			return ast.BoolType, nil
		}
		return ast.IntType, nil
	default:
		if t := arg.Type(); t != nil && t.Kind != ast.UnitType {
			return t.Kind, nil
		}
		return ast.IntType, nil
	}
}
