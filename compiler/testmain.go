package compiler

import (
	"strconv"

	"github.com/aisl-lang/aisl/ast"
	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/op"
)

// generateTestMain synthesizes a main function that runs every test case of
// every test-spec: print the description, call the target with the literal
// inputs, compare against the expected literal with the typed equality
// opcode, and print either a pass marker or an
// "  - Expected: <e>, Got: <actual>" line. Returns 0.
//
// A string expected value means the target returns a decimal; the actual
// value is converted with STR_FROM_DECIMAL before comparing and printing.
func (c *Compiler) generateTestMain(specs []*ast.TestSpec) {
	mainIdx := c.program.DeclareFunction("main", 0)
	c.program.SetFunctionStart(mainIdx, c.instrCount())

	for _, spec := range specs {
		funcIdx, ok := c.program.FunctionIndex(spec.Target)
		if !ok {
			continue
		}
		paramCount := c.program.Functions[funcIdx].ParamCount

		for _, tc := range spec.Cases {
			c.emitPushString(tc.Description)
			c.program.Emit(bytecode.Instruction{Op: op.PrintStr})

			for _, arg := range tc.Inputs {
				c.emitTestLiteral(arg)
			}
			c.program.Emit(bytecode.Instruction{
				Op:        op.Call,
				FuncIndex: funcIdx,
				ArgCount:  paramCount,
			})

			// Keep a copy of the result for the failure message.
			c.program.Emit(bytecode.Instruction{Op: op.Dup})
			c.emitExpectedCompare(tc.Expected)

			c.program.Emit(bytecode.Instruction{Op: op.Dup})
			// The pass path is exactly five instructions long.
			failAddr := c.instrCount() + 6
			c.program.Emit(bytecode.Instruction{Op: op.JumpIfFalse, Target: failAddr})

			// Pass: drop the comparison bool and the saved result.
			c.program.Emit(bytecode.Instruction{Op: op.Pop})
			c.program.Emit(bytecode.Instruction{Op: op.Pop})
			c.emitPushString(" \n")
			c.program.Emit(bytecode.Instruction{Op: op.PrintStr})
			overFail := c.program.Emit(bytecode.Instruction{Op: op.Jump, Target: placeholderTarget})

			c.emitTestFailure(tc.Expected)
			c.program.PatchJump(overFail, c.instrCount())
		}
	}

	c.program.Emit(bytecode.Instruction{Op: op.PushInt, Int: 0})
	c.program.Emit(bytecode.Instruction{Op: op.Return})
}

func (c *Compiler) emitPushString(s string) {
	idx := c.program.AddString(s)
	c.program.Emit(bytecode.Instruction{Op: op.PushString, Index: idx})
}

// emitTestLiteral pushes one literal test input. Non-literal inputs are
// skipped; the parser only produces literals here.
func (c *Compiler) emitTestLiteral(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Int:
		c.program.Emit(bytecode.Instruction{Op: op.PushInt, Int: n.Value})
	case *ast.Float:
		c.program.Emit(bytecode.Instruction{Op: op.PushFloat, Float: n.Value})
	case *ast.String_:
		c.emitPushString(n.Value)
	case *ast.Bool:
		c.program.Emit(bytecode.Instruction{Op: op.PushBool, Bool: n.Value})
	}
}

// emitExpectedCompare consumes the duplicated result and leaves a bool above
// the original result.
func (c *Compiler) emitExpectedCompare(expected ast.Expr) {
	switch n := expected.(type) {
	case *ast.String_:
		c.program.Emit(bytecode.Instruction{Op: op.StrFromDecimal})
		c.emitPushString(n.Value)
		c.program.Emit(bytecode.Instruction{Op: op.EqStr})
	case *ast.Bool:
		c.program.Emit(bytecode.Instruction{Op: op.PushBool, Bool: n.Value})
		c.program.Emit(bytecode.Instruction{Op: op.EqBool})
	case *ast.Int:
		c.program.Emit(bytecode.Instruction{Op: op.PushInt, Int: n.Value})
		c.program.Emit(bytecode.Instruction{Op: op.EqInt})
	case *ast.Float:
		c.program.Emit(bytecode.Instruction{Op: op.PushFloat, Float: n.Value})
		c.program.Emit(bytecode.Instruction{Op: op.EqFloat})
	default:
		// Unsupported expected type always fails.
		c.program.Emit(bytecode.Instruction{Op: op.PushBool, Bool: false})
		c.program.Emit(bytecode.Instruction{Op: op.Pop})
	}
}

// emitTestFailure prints "  - Expected: <e>, Got: <actual>\n" and consumes
// the leftover comparison bool and the saved result.
func (c *Compiler) emitTestFailure(expected ast.Expr) {
	c.program.Emit(bytecode.Instruction{Op: op.Pop})

	c.emitPushString("  - Expected: ")
	c.program.Emit(bytecode.Instruction{Op: op.PrintStr})
	c.program.Emit(bytecode.Instruction{Op: op.Pop})

	c.emitPushString(expectedString(expected))
	c.program.Emit(bytecode.Instruction{Op: op.PrintStr})
	c.program.Emit(bytecode.Instruction{Op: op.Pop})

	c.emitPushString(", Got: ")
	c.program.Emit(bytecode.Instruction{Op: op.PrintStr})
	c.program.Emit(bytecode.Instruction{Op: op.Pop})

	switch expected.(type) {
	case *ast.Bool:
		c.program.Emit(bytecode.Instruction{Op: op.PrintBool})
	case *ast.Float:
		c.program.Emit(bytecode.Instruction{Op: op.PrintFloat})
	case *ast.String_:
		c.program.Emit(bytecode.Instruction{Op: op.StrFromDecimal})
		c.program.Emit(bytecode.Instruction{Op: op.PrintStr})
	default:
		c.program.Emit(bytecode.Instruction{Op: op.PrintInt})
	}
	c.program.Emit(bytecode.Instruction{Op: op.Pop})

	c.emitPushString("\n")
	c.program.Emit(bytecode.Instruction{Op: op.PrintStr})
	c.program.Emit(bytecode.Instruction{Op: op.Pop})
}

func expectedString(expected ast.Expr) string {
	switch n := expected.(type) {
	case *ast.Int:
		return strconv.FormatInt(n.Value, 10)
	case *ast.Bool:
		return strconv.FormatBool(n.Value)
	case *ast.Float:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *ast.String_:
		return n.Value
	default:
		return "(unknown)"
	}
}
