package vm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies the runtime type of a Value.
type Kind uint8

const (
	UnitKind Kind = iota
	IntKind
	FloatKind
	BoolKind
	StringKind
	DecimalKind
	ArrayKind
	MapKind
	JSONKind
	ResultKind
	ChannelKind
	FutureKind
	RegexKind
)

func (k Kind) String() string {
	switch k {
	case UnitKind:
		return "unit"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case BoolKind:
		return "bool"
	case StringKind:
		return "string"
	case DecimalKind:
		return "decimal"
	case ArrayKind:
		return "array"
	case MapKind:
		return "map"
	case JSONKind:
		return "json"
	case ResultKind:
		return "result"
	case ChannelKind:
		return "channel"
	case FutureKind:
		return "future"
	case RegexKind:
		return "regex"
	default:
		return "unknown"
	}
}

// Array is a growable value sequence.
type Array struct {
	Elems []Value
}

// Map is a string-keyed value table. Keys records insertion order so
// map_keys and printing are deterministic.
type Map struct {
	Entries map[string]Value
	Keys    []string
}

// NewMap returns an empty map value payload.
func NewMap() *Map {
	return &Map{Entries: make(map[string]Value)}
}

// Set inserts or replaces a key.
func (m *Map) Set(key string, v Value) {
	if _, exists := m.Entries[key]; !exists {
		m.Keys = append(m.Keys, key)
	}
	m.Entries[key] = v
}

// Delete removes a key if present.
func (m *Map) Delete(key string) {
	if _, exists := m.Entries[key]; !exists {
		return
	}
	delete(m.Entries, key)
	for i, k := range m.Keys {
		if k == key {
			m.Keys = append(m.Keys[:i], m.Keys[i+1:]...)
			break
		}
	}
}

// Result is an ok/error pair. Err results carry a numeric code and message.
type Result struct {
	OK    bool
	Value Value
	Code  int64
	Msg   string
}

// Future is the placeholder for a spawned function's eventual result.
type Future struct {
	done chan struct{}
	val  Value
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(v Value) {
	f.val = v
	close(f.done)
}

// Await blocks until the future resolves and returns its value.
func (f *Future) Await() Value {
	<-f.done
	return f.val
}

// Value is the tagged runtime value. Only the payload named by Kind is
// meaningful. Handles for files, sockets, processes, databases, and regexes
// are plain int values indexing host-side tables.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Dec   decimal.Decimal
	Arr   *Array
	Map   *Map
	JSON  any
	Res   *Result
	Ch    chan Value
	Fut   *Future
	Re    *regexp.Regexp
}

func UnitValue() Value           { return Value{Kind: UnitKind} }
func IntValue(i int64) Value     { return Value{Kind: IntKind, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: FloatKind, Float: f} }
func BoolValue(b bool) Value     { return Value{Kind: BoolKind, Bool: b} }
func StringValue(s string) Value { return Value{Kind: StringKind, Str: s} }

func DecimalValue(d decimal.Decimal) Value { return Value{Kind: DecimalKind, Dec: d} }
func ArrayValue(a *Array) Value            { return Value{Kind: ArrayKind, Arr: a} }
func MapValue(m *Map) Value                { return Value{Kind: MapKind, Map: m} }
func JSONValue(v any) Value                { return Value{Kind: JSONKind, JSON: v} }
func ResultValue(r *Result) Value          { return Value{Kind: ResultKind, Res: r} }
func ChannelValue(ch chan Value) Value     { return Value{Kind: ChannelKind, Ch: ch} }
func FutureValue(f *Future) Value          { return Value{Kind: FutureKind, Fut: f} }
func RegexValue(re *regexp.Regexp) Value   { return Value{Kind: RegexKind, Re: re} }

// OkResult wraps a value in an ok result.
func OkResult(v Value) Value {
	return ResultValue(&Result{OK: true, Value: v})
}

// ErrResult builds an error result with a code and message.
func ErrResult(code int64, msg string) Value {
	return ResultValue(&Result{Code: code, Msg: msg})
}

// IsTruthy reports the boolean interpretation used by conditional jumps.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case BoolKind:
		return v.Bool
	case IntKind:
		return v.Int != 0
	case UnitKind:
		return false
	default:
		return true
	}
}

// AsString converts the value to its string form. Strings come back as-is;
// everything else renders the way the typed print operations render it.
func (v Value) AsString() string {
	switch v.Kind {
	case StringKind:
		return v.Str
	case DecimalKind:
		return v.Dec.String()
	case IntKind:
		return strconv.FormatInt(v.Int, 10)
	case FloatKind:
		return strconv.FormatFloat(v.Float, 'f', 15, 64)
	case BoolKind:
		return strconv.FormatBool(v.Bool)
	case UnitKind:
		return "unit"
	case ArrayKind:
		return v.renderArray()
	case MapKind:
		return v.renderMap()
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

func renderElem(sb *strings.Builder, item Value) {
	switch item.Kind {
	case StringKind:
		sb.WriteString(strconv.Quote(item.Str))
	case IntKind, FloatKind, BoolKind, DecimalKind:
		sb.WriteString(item.AsString())
	default:
		sb.WriteString("?")
	}
}

func (v Value) renderArray() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, item := range v.Arr.Elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		renderElem(&sb, item)
	}
	sb.WriteString("]")
	return sb.String()
}

func (v Value) renderMap() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, key := range v.Map.Keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(key))
		sb.WriteString(": ")
		renderElem(&sb, v.Map.Entries[key])
	}
	sb.WriteString("}")
	return sb.String()
}

// Equal reports deep equality for the comparable kinds. Reference kinds
// compare by identity.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case UnitKind:
		return true
	case IntKind:
		return v.Int == other.Int
	case FloatKind:
		return v.Float == other.Float
	case BoolKind:
		return v.Bool == other.Bool
	case StringKind:
		return v.Str == other.Str
	case DecimalKind:
		return v.Dec.Equal(other.Dec)
	case ArrayKind:
		return v.Arr == other.Arr
	case MapKind:
		return v.Map == other.Map
	case ResultKind:
		return v.Res == other.Res
	case ChannelKind:
		return v.Ch == other.Ch
	case FutureKind:
		return v.Fut == other.Fut
	case RegexKind:
		return v.Re == other.Re
	default:
		return false
	}
}
