package op

import (
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(PushInt)
	assert.Equal(t, info.Name, "PUSH_INT")
	assert.Equal(t, info.Operand, OperandInt)

	assert.Equal(t, GetInfo(Call).Operand, OperandCall)
	assert.Equal(t, GetInfo(Jump).Operand, OperandJump)
	assert.Equal(t, GetInfo(Halt).Operand, OperandNone)
}

func TestEveryOpcodeHasInfo(t *testing.T) {
	for c := Code(0); c < CodeCount; c++ {
		info := GetInfo(c)
		if info.Name == "" || info.Name == "UNKNOWN" {
			t.Errorf("opcode %d has no registered info", c)
		}
	}
}

func TestMnemonicsRoundTrip(t *testing.T) {
	for c := Code(0); c < CodeCount; c++ {
		got, ok := FromMnemonic(c.Name())
		assert.True(t, ok, "mnemonic %s not resolvable", c.Name())
		assert.Equal(t, got, c)
	}
}

func TestLegacyMnemonics(t *testing.T) {
	tests := []struct {
		name string
		want Code
	}{
		{"PUSH_I64", PushInt},
		{"PUSH_I32", PushInt},
		{"PUSH_F64", PushFloat},
	}
	for _, tt := range tests {
		got, ok := FromMnemonic(tt.name)
		assert.True(t, ok)
		assert.Equal(t, got, tt.want)
	}
}

func TestUnknownMnemonic(t *testing.T) {
	_, ok := FromMnemonic("NOT_AN_OP")
	assert.False(t, ok)
}
