// Package bytecode defines the compiled program artifact: a linear
// instruction array, a function table, and a string constant pool.
//
// Programs are built append-only by the compiler through Emit, AddString,
// and the function-table methods, then serialized to either a binary or a
// text format. Construction assumes a single writer; a Program must not be
// mutated concurrently.
package bytecode

import (
	"fmt"

	"github.com/aisl-lang/aisl/op"
)

// Instruction is one opcode with its inline operand. Only the field named
// by the opcode's OperandKind is meaningful; the rest stay zero.
type Instruction struct {
	Op        op.Code
	Int       int64   // OperandInt immediate
	Float     float64 // OperandFloat immediate
	Bool      bool    // OperandBool immediate
	Index     uint32  // OperandUInt / OperandString index
	Target    uint32  // OperandJump absolute instruction index
	FuncIndex uint32  // OperandCall function table index
	ArgCount  uint32  // OperandCall argument count
}

func (in Instruction) String() string {
	info := op.GetInfo(in.Op)
	switch info.Operand {
	case op.OperandInt:
		return fmt.Sprintf("%s %d", info.Name, in.Int)
	case op.OperandFloat:
		return fmt.Sprintf("%s %g", info.Name, in.Float)
	case op.OperandBool:
		return fmt.Sprintf("%s %t", info.Name, in.Bool)
	case op.OperandUInt, op.OperandString:
		return fmt.Sprintf("%s %d", info.Name, in.Index)
	case op.OperandJump:
		return fmt.Sprintf("%s %d", info.Name, in.Target)
	case op.OperandCall:
		return fmt.Sprintf("%s %d %d", info.Name, in.FuncIndex, in.ArgCount)
	default:
		return info.Name
	}
}

// Function is one function table entry.
type Function struct {
	Name       string
	StartAddr  uint32
	LocalCount uint32
	ParamCount uint32
}

// Program is a compiled bytecode program.
type Program struct {
	Instructions []Instruction
	Strings      []string
	Functions    []Function
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		Instructions: make([]Instruction, 0, 1024),
		Strings:      make([]string, 0, 64),
		Functions:    make([]Function, 0, 16),
	}
}

// Emit appends an instruction and returns its index.
func (p *Program) Emit(in Instruction) uint32 {
	p.Instructions = append(p.Instructions, in)
	return uint32(len(p.Instructions) - 1)
}

// AddString appends a string to the constant pool and returns its index.
// Strings are not deduplicated; repeated literals may produce repeated
// entries.
func (p *Program) AddString(s string) uint32 {
	p.Strings = append(p.Strings, s)
	return uint32(len(p.Strings) - 1)
}

// DeclareFunction appends a function table entry with a placeholder start
// address and returns its index.
func (p *Program) DeclareFunction(name string, paramCount uint32) uint32 {
	p.Functions = append(p.Functions, Function{
		Name:       name,
		ParamCount: paramCount,
	})
	return uint32(len(p.Functions) - 1)
}

// SetFunctionStart records the entry instruction index of a declared
// function.
func (p *Program) SetFunctionStart(index, startAddr uint32) {
	p.Functions[index].StartAddr = startAddr
}

// SetFunctionLocals records the local slot count of a declared function.
// The count includes parameters, which occupy the first slots.
func (p *Program) SetFunctionLocals(index, localCount, paramCount uint32) {
	p.Functions[index].LocalCount = localCount
	p.Functions[index].ParamCount = paramCount
}

// PatchJump overwrites the jump target of a previously emitted instruction.
func (p *Program) PatchJump(instrIndex, target uint32) {
	p.Instructions[instrIndex].Target = target
}

// FunctionIndex returns the index of the named function.
func (p *Program) FunctionIndex(name string) (uint32, bool) {
	for i, fn := range p.Functions {
		if fn.Name == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// StringAt returns the pool entry at the given index, or an error when out
// of bounds.
func (p *Program) StringAt(index uint32) (string, error) {
	if int(index) >= len(p.Strings) {
		return "", fmt.Errorf("string index %d out of range (pool size %d)",
			index, len(p.Strings))
	}
	return p.Strings[index], nil
}

// Validate checks the structural invariants that must hold once compilation
// and jump patching complete: every jump lands inside the instruction array,
// every call names a valid function table entry, every function starts at a
// valid instruction, and every string operand indexes the pool.
func (p *Program) Validate() error {
	count := uint32(len(p.Instructions))
	for i, in := range p.Instructions {
		info := op.GetInfo(in.Op)
		switch info.Operand {
		case op.OperandJump:
			if in.Target >= count {
				return fmt.Errorf("instruction %d: jump target %d out of range (%d instructions)",
					i, in.Target, count)
			}
		case op.OperandCall:
			if int(in.FuncIndex) >= len(p.Functions) {
				return fmt.Errorf("instruction %d: call to invalid function index %d (%d functions)",
					i, in.FuncIndex, len(p.Functions))
			}
		case op.OperandString:
			if int(in.Index) >= len(p.Strings) {
				return fmt.Errorf("instruction %d: string index %d out of range (pool size %d)",
					i, in.Index, len(p.Strings))
			}
		}
	}
	for i, fn := range p.Functions {
		if fn.StartAddr >= count && count > 0 {
			return fmt.Errorf("function %q (index %d): start address %d out of range (%d instructions)",
				fn.Name, i, fn.StartAddr, count)
		}
	}
	return nil
}

// Stats summarizes a program for reporting.
type Stats struct {
	InstructionCount int
	FunctionCount    int
	StringCount      int
}

// Stats returns summary counts for the program.
func (p *Program) Stats() Stats {
	return Stats{
		InstructionCount: len(p.Instructions),
		FunctionCount:    len(p.Functions),
		StringCount:      len(p.Strings),
	}
}
