// Package dis renders compiled programs in a human-readable listing: a
// function-table summary followed by one instruction per line.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/op"
)

// Fprint writes the disassembly of a program to w.
func Fprint(w io.Writer, p *bytecode.Program) error {
	if _, err := fmt.Fprintf(w, "functions: %d\n", len(p.Functions)); err != nil {
		return err
	}
	for i, fn := range p.Functions {
		_, err := fmt.Fprintf(w, "  [%d] %s start=%d params=%d locals=%d\n",
			i, fn.Name, fn.StartAddr, fn.ParamCount, fn.LocalCount)
		if err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "instructions: %d\n", len(p.Instructions)); err != nil {
		return err
	}
	for i, in := range p.Instructions {
		if _, err := fmt.Fprintf(w, "%6d  %s\n", i, Instruction(p, in)); err != nil {
			return err
		}
	}
	return nil
}

// Sprint returns the disassembly of a program as a string.
func Sprint(p *bytecode.Program) string {
	var b strings.Builder
	Fprint(&b, p) //nolint:errcheck
	return b.String()
}

// Instruction renders one instruction with its operand resolved against the
// program: string operands appear quoted, call operands as func=N args=M.
func Instruction(p *bytecode.Program, in bytecode.Instruction) string {
	info := op.GetInfo(in.Op)
	switch info.Operand {
	case op.OperandInt:
		return fmt.Sprintf("%s %d", info.Name, in.Int)
	case op.OperandFloat:
		return fmt.Sprintf("%s %g", info.Name, in.Float)
	case op.OperandBool:
		return fmt.Sprintf("%s %t", info.Name, in.Bool)
	case op.OperandUInt:
		return fmt.Sprintf("%s %d", info.Name, in.Index)
	case op.OperandString:
		s, err := p.StringAt(in.Index)
		if err != nil {
			return fmt.Sprintf("%s <bad string %d>", info.Name, in.Index)
		}
		return fmt.Sprintf("%s %s", info.Name, strconv.Quote(s))
	case op.OperandJump:
		return fmt.Sprintf("%s %d", info.Name, in.Target)
	case op.OperandCall:
		return fmt.Sprintf("%s func=%d args=%d", info.Name, in.FuncIndex, in.ArgCount)
	default:
		return info.Name
	}
}
