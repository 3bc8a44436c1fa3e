package ast

import "strings"

// TypeKind enumerates the primitive and composite type categories.
type TypeKind int

const (
	UnitType TypeKind = iota
	IntType
	FloatType
	StringType
	BoolType
	BytesType
	DecimalType
	ArrayType
	ListType
	MapType
	JSONType
	OptionType
	ResultType
	ChannelType
	FutureType
	TupleType
	RecordType
	VariantType
	RefType
	FunctionType
	GenericType
)

// Type is a static type annotation. Elem is set for arrays, lists, maps,
// options, results, channels, futures, and refs; Params and Return for
// function types; Name for generics and named records or variants.
type Type struct {
	Kind   TypeKind
	Elem   *Type
	Params []*Type
	Return *Type
	Name   string
}

// NewType returns a Type of the given kind with no element type.
func NewType(kind TypeKind) *Type {
	return &Type{Kind: kind}
}

// TypeFromName maps a source-level type name onto a Type. Sized integer and
// float names collapse onto the int and float kinds; an unrecognized name
// becomes a generic type carrying the name.
func TypeFromName(name string) *Type {
	switch name {
	case "unit":
		return NewType(UnitType)
	case "int", "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64":
		return NewType(IntType)
	case "float", "f32", "f64":
		return NewType(FloatType)
	case "string":
		return NewType(StringType)
	case "bool":
		return NewType(BoolType)
	case "bytes":
		return NewType(BytesType)
	case "decimal":
		return NewType(DecimalType)
	case "array":
		return NewType(ArrayType)
	case "list":
		return NewType(ListType)
	case "map":
		return NewType(MapType)
	case "json":
		return NewType(JSONType)
	case "option":
		return NewType(OptionType)
	case "result":
		return NewType(ResultType)
	case "channel":
		return NewType(ChannelType)
	case "future":
		return NewType(FutureType)
	default:
		return &Type{Kind: GenericType, Name: name}
	}
}

// Equal reports whether two types are structurally equal. Nil types compare
// equal only to nil.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind || t.Name != other.Name {
		return false
	}
	if !t.Elem.Equal(other.Elem) {
		return false
	}
	if len(t.Params) != len(other.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(other.Params[i]) {
			return false
		}
	}
	if (t.Return == nil) != (other.Return == nil) {
		return false
	}
	if t.Return != nil && !t.Return.Equal(other.Return) {
		return false
	}
	return true
}

func (t *Type) String() string {
	if t == nil {
		return "unit"
	}
	switch t.Kind {
	case UnitType:
		return "unit"
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case BytesType:
		return "bytes"
	case DecimalType:
		return "decimal"
	case ArrayType:
		return "array"
	case ListType:
		return "list"
	case MapType:
		return "map"
	case JSONType:
		return "json"
	case OptionType:
		return "option"
	case ResultType:
		return "result"
	case ChannelType:
		return "channel"
	case FutureType:
		return "future"
	case TupleType:
		return "tuple"
	case RecordType:
		if t.Name != "" {
			return t.Name
		}
		return "record"
	case VariantType:
		if t.Name != "" {
			return t.Name
		}
		return "variant"
	case RefType:
		return "ref"
	case FunctionType:
		var sb strings.Builder
		sb.WriteString("(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteString(") -> ")
		sb.WriteString(t.Return.String())
		return sb.String()
	case GenericType:
		if t.Name != "" {
			return t.Name
		}
		return "any"
	default:
		return "unknown"
	}
}
