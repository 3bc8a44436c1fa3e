package dis

import (
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"

	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/op"
)

func sampleProgram() *bytecode.Program {
	p := bytecode.NewProgram()
	hi := p.AddString("hi")
	mainIdx := p.DeclareFunction("main", 0)
	p.DeclareFunction("helper", 2)

	p.Emit(bytecode.Instruction{Op: op.PushInt, Int: 42})
	p.Emit(bytecode.Instruction{Op: op.PushString, Index: hi})
	p.Emit(bytecode.Instruction{Op: op.Call, FuncIndex: 1, ArgCount: 2})
	p.Emit(bytecode.Instruction{Op: op.Jump, Target: 4})
	p.Emit(bytecode.Instruction{Op: op.Halt})
	p.SetFunctionLocals(mainIdx, 1, 0)
	return p
}

func TestSprint(t *testing.T) {
	out := Sprint(sampleProgram())

	assert.Contains(t, out, "functions: 2\n")
	assert.Contains(t, out, "  [0] main start=0 params=0 locals=1\n")
	assert.Contains(t, out, "  [1] helper start=0 params=2 locals=0\n")
	assert.Contains(t, out, "instructions: 5\n")
	assert.Contains(t, out, "     0  PUSH_INT 42\n")
	assert.Contains(t, out, `PUSH_STRING "hi"`)
	assert.Contains(t, out, "CALL func=1 args=2")
	assert.Contains(t, out, "JUMP 4")
	assert.True(t, strings.HasSuffix(out, "HALT\n"))
}

func TestInstructionOperands(t *testing.T) {
	p := sampleProgram()
	tests := []struct {
		in   bytecode.Instruction
		want string
	}{
		{bytecode.Instruction{Op: op.PushFloat, Float: 2.5}, "PUSH_FLOAT 2.5"},
		{bytecode.Instruction{Op: op.PushBool, Bool: false}, "PUSH_BOOL false"},
		{bytecode.Instruction{Op: op.LoadLocal, Index: 3}, "LOAD_LOCAL 3"},
		{bytecode.Instruction{Op: op.Return}, "RETURN"},
	}
	for _, tt := range tests {
		assert.Equal(t, Instruction(p, tt.in), tt.want)
	}
}

func TestBadStringIndex(t *testing.T) {
	p := bytecode.NewProgram()
	out := Instruction(p, bytecode.Instruction{Op: op.PushString, Index: 9})
	assert.Equal(t, out, "PUSH_STRING <bad string 9>")
}
