package ast

import (
	"fmt"
	"strings"

	"github.com/aisl-lang/aisl/internal/token"
)

// Param is one function parameter: a name with a mandatory type annotation.
type Param struct {
	Name string
	Typ  *Type
}

func (p *Param) String() string {
	return fmt.Sprintf("(%s %s)", p.Name, p.Typ)
}

// Function is a top-level function definition.
type Function struct {
	Token      token.Token
	Name       string
	Params     []*Param
	ReturnType *Type
	Effects    []string
	Body       Expr
}

func (d *Function) defNode()            {}
func (d *Function) DefName() string     { return d.Name }
func (d *Function) Pos() token.Position { return d.Token.StartPosition }
func (d *Function) End() token.Position { return d.Body.End() }

func (d *Function) String() string {
	var sb strings.Builder
	sb.WriteString("(fn ")
	sb.WriteString(d.Name)
	sb.WriteString(" (")
	for i, p := range d.Params {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(d.ReturnType.String())
	sb.WriteString("\n  ")
	sb.WriteString(d.Body.String())
	sb.WriteString(")\n")
	return sb.String()
}

// Const is a top-level constant definition.
type Const struct {
	Token token.Token
	Name  string
	Typ   *Type
	Value Expr
}

func (d *Const) defNode()            {}
func (d *Const) DefName() string     { return d.Name }
func (d *Const) Pos() token.Position { return d.Token.StartPosition }
func (d *Const) End() token.Position { return d.Value.End() }
func (d *Const) String() string {
	return fmt.Sprintf("(const %s %s %s)\n", d.Name, d.Typ, d.Value)
}

// MockSpec substitutes a fixed return value for a function call within a
// test case.
type MockSpec struct {
	FunctionName string
	Inputs       []Expr
	Return       Expr
}

// TestCase is one example-based test: literal inputs, an expected literal
// result, and optional mocks.
type TestCase struct {
	Description string
	Inputs      []Expr
	Expected    Expr
	Mocks       []*MockSpec
}

// TestSpec is a top-level example-based test declaration targeting one
// function.
type TestSpec struct {
	Token  token.Token
	Target string
	Cases  []*TestCase
}

func (d *TestSpec) defNode()            {}
func (d *TestSpec) DefName() string     { return d.Target }
func (d *TestSpec) Pos() token.Position { return d.Token.StartPosition }
func (d *TestSpec) End() token.Position { return d.Token.EndPosition }

func (d *TestSpec) String() string {
	var sb strings.Builder
	sb.WriteString("(test-spec ")
	sb.WriteString(d.Target)
	sb.WriteString("\n")
	for _, tc := range d.Cases {
		sb.WriteString(fmt.Sprintf("    (case %q\n", tc.Description))
		for _, mock := range tc.Mocks {
			sb.WriteString("      (mock (")
			sb.WriteString(mock.FunctionName)
			for _, arg := range mock.Inputs {
				sb.WriteString(" ")
				sb.WriteString(arg.String())
			}
			sb.WriteString(") ")
			sb.WriteString(mock.Return.String())
			sb.WriteString(")\n")
		}
		sb.WriteString("      (input")
		for _, in := range tc.Inputs {
			sb.WriteString(" ")
			sb.WriteString(in.String())
		}
		sb.WriteString(")\n")
		sb.WriteString("      (expect ")
		sb.WriteString(tc.Expected.String())
		sb.WriteString("))\n")
	}
	sb.WriteString("  )\n")
	return sb.String()
}

// PropertyTest is one universally quantified assertion over typed variables,
// with an optional constraint narrowing the domain.
type PropertyTest struct {
	Description string
	ForallVars  []*Param
	Constraint  Expr
	Assertion   Expr
}

// PropertySpec is a top-level property-based test declaration targeting one
// function.
type PropertySpec struct {
	Token      token.Token
	Target     string
	Properties []*PropertyTest
}

func (d *PropertySpec) defNode()            {}
func (d *PropertySpec) DefName() string     { return d.Target }
func (d *PropertySpec) Pos() token.Position { return d.Token.StartPosition }
func (d *PropertySpec) End() token.Position { return d.Token.EndPosition }

func (d *PropertySpec) String() string {
	var sb strings.Builder
	sb.WriteString("(property-spec ")
	sb.WriteString(d.Target)
	sb.WriteString("\n")
	for _, prop := range d.Properties {
		sb.WriteString(fmt.Sprintf("    (property %q\n", prop.Description))
		sb.WriteString("      (forall (")
		for i, v := range prop.ForallVars {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(v.String())
		}
		sb.WriteString(")\n")
		if prop.Constraint != nil {
			sb.WriteString("        (constraint ")
			sb.WriteString(prop.Constraint.String())
			sb.WriteString(")\n")
		}
		sb.WriteString("        ")
		sb.WriteString(prop.Assertion.String())
		sb.WriteString("))\n")
	}
	sb.WriteString("  )\n")
	return sb.String()
}

// MetaNote is a free-form annotation preserved through parsing for tooling.
type MetaNote struct {
	Token token.Token
	Text  string
}

func (d *MetaNote) defNode()            {}
func (d *MetaNote) DefName() string     { return "" }
func (d *MetaNote) Pos() token.Position { return d.Token.StartPosition }
func (d *MetaNote) End() token.Position { return d.Token.EndPosition }
func (d *MetaNote) String() string {
	return fmt.Sprintf("(meta-note %q)\n", d.Text)
}

// BadDef is a placeholder for a definition that could not be parsed.
type BadDef struct {
	Token token.Token
}

func (d *BadDef) defNode()            {}
func (d *BadDef) DefName() string     { return "" }
func (d *BadDef) Pos() token.Position { return d.Token.StartPosition }
func (d *BadDef) End() token.Position { return d.Token.EndPosition }
func (d *BadDef) String() string      { return "(bad-def)\n" }

// Import records one module import: the full module by default, selected
// names when Names is set, under a different binding when Alias is set.
type Import struct {
	Token  token.Token
	Module string
	Names  []string
	Alias  string
}

func (i *Import) String() string {
	if len(i.Names) > 0 {
		return fmt.Sprintf("(import %s (%s))", i.Module, strings.Join(i.Names, " "))
	}
	if i.Alias != "" {
		return fmt.Sprintf("(import %s as %s)", i.Module, i.Alias)
	}
	return fmt.Sprintf("(import %s)", i.Module)
}

// Module is a parsed source file: a name, imports, and an ordered list of
// definitions. Definition order is source order.
type Module struct {
	Token   token.Token
	Name    string
	Imports []*Import
	Defs    []Def
}

func (m *Module) Pos() token.Position { return m.Token.StartPosition }
func (m *Module) End() token.Position {
	if n := len(m.Defs); n > 0 {
		return m.Defs[n-1].End()
	}
	return m.Token.EndPosition
}

func (m *Module) String() string {
	var sb strings.Builder
	sb.WriteString("(mod ")
	sb.WriteString(m.Name)
	sb.WriteString("\n")
	for _, def := range m.Defs {
		sb.WriteString("  ")
		sb.WriteString(def.String())
	}
	sb.WriteString(")\n")
	return sb.String()
}

// Functions returns the function definitions in source order.
func (m *Module) Functions() []*Function {
	var fns []*Function
	for _, def := range m.Defs {
		if fn, ok := def.(*Function); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// TestSpecs returns the test-spec definitions in source order.
func (m *Module) TestSpecs() []*TestSpec {
	var specs []*TestSpec
	for _, def := range m.Defs {
		if spec, ok := def.(*TestSpec); ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// Function returns the named function definition, or nil.
func (m *Module) Function(name string) *Function {
	for _, def := range m.Defs {
		if fn, ok := def.(*Function); ok && fn.Name == name {
			return fn
		}
	}
	return nil
}
