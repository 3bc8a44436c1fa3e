package bytecode

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisl-lang/aisl/op"
)

// sampleProgram exercises every operand kind the wire formats carry.
func sampleProgram() *Program {
	p := NewProgram()
	greeting := p.AddString("hello world\n")
	name := p.AddString("quoted \"text\"")

	mainIdx := p.DeclareFunction("main", 0)
	p.DeclareFunction("helper", 2)

	p.SetFunctionStart(mainIdx, 0)
	p.Emit(Instruction{Op: op.PushInt, Int: -42})
	p.Emit(Instruction{Op: op.PushFloat, Float: 2.5})
	p.Emit(Instruction{Op: op.PushBool, Bool: true})
	p.Emit(Instruction{Op: op.PushString, Index: greeting})
	p.Emit(Instruction{Op: op.PushString, Index: name})
	p.Emit(Instruction{Op: op.LoadLocal, Index: 1})
	p.Emit(Instruction{Op: op.Jump, Target: 7})
	p.Emit(Instruction{Op: op.Call, FuncIndex: 1, ArgCount: 2})
	p.Emit(Instruction{Op: op.Return})
	p.Emit(Instruction{Op: op.Halt})
	p.SetFunctionLocals(mainIdx, 3, 0)
	return p
}

func TestBinaryRoundTrip(t *testing.T) {
	p := sampleProgram()
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	got := NewProgram()
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, got.Instructions, p.Instructions)
	assert.Equal(t, got.Strings, p.Strings)
	assert.Equal(t, got.Functions, p.Functions)
}

func TestTextRoundTrip(t *testing.T) {
	p := sampleProgram()
	data, err := p.MarshalText()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), TextHeader+"\n"))

	got := NewProgram()
	require.NoError(t, got.UnmarshalText(data))
	assert.Equal(t, got.Instructions, p.Instructions)
	assert.Equal(t, got.Strings, p.Strings)
	assert.Equal(t, got.Functions, p.Functions)
}

func TestSaveAndLoad(t *testing.T) {
	p := sampleProgram()
	path := filepath.Join(t.TempDir(), "prog.aislc")
	require.NoError(t, p.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, got.Instructions, p.Instructions)
	assert.Equal(t, got.Functions, p.Functions)
}

func TestLoadRejectsInvalidProgram(t *testing.T) {
	p := NewProgram()
	main := p.DeclareFunction("main", 0)
	p.SetFunctionStart(main, 0)
	p.Emit(Instruction{Op: op.Jump, Target: 99})
	p.Emit(Instruction{Op: op.Halt})

	path := filepath.Join(t.TempDir(), "corrupt.aislc")
	require.NoError(t, p.Save(path))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jump target 99 out of range")
}

func TestLoadDetectsTextFormat(t *testing.T) {
	p := sampleProgram()
	data, err := p.MarshalText()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "prog.aisltxt")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, got.Instructions, p.Instructions)
}

func TestBadMagic(t *testing.T) {
	err := NewProgram().UnmarshalBinary(make([]byte, 16))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestBadVersion(t *testing.T) {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint32(data, Magic)
	binary.LittleEndian.PutUint16(data[4:], 99)
	err := NewProgram().UnmarshalBinary(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported bytecode format version 99")
}

func TestUnknownOpcode(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data, Magic)
	binary.LittleEndian.PutUint16(data[4:], 1)
	binary.LittleEndian.PutUint32(data[6:], 1) // one instruction
	binary.LittleEndian.PutUint16(data[10:], 0xFFFF)
	err := NewProgram().UnmarshalBinary(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown opcode")
}

func TestTruncatedBinary(t *testing.T) {
	data, err := sampleProgram().MarshalBinary()
	require.NoError(t, err)
	err = NewProgram().UnmarshalBinary(data[:len(data)/2])
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestLegacyMnemonics(t *testing.T) {
	text := strings.Join([]string{
		TextHeader,
		"strings 0",
		"functions 1",
		"main 0 0 0",
		"instructions 2",
		"PUSH_I64 7",
		"HALT",
		"",
	}, "\n")

	p := NewProgram()
	require.NoError(t, p.UnmarshalText([]byte(text)))
	require.Len(t, p.Instructions, 2)
	assert.Equal(t, p.Instructions[0].Op, op.PushInt)
	assert.Equal(t, p.Instructions[0].Int, int64(7))
	assert.Equal(t, p.Instructions[1].Op, op.Halt)
}

func TestUnknownMnemonicRejected(t *testing.T) {
	text := TextHeader + "\nstrings 0\nfunctions 0\ninstructions 1\nBOGUS_OP 1\n"
	err := NewProgram().UnmarshalText([]byte(text))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mnemonic "BOGUS_OP"`)
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Instruction{Op: op.PushInt, Int: -3}, "PUSH_INT -3"},
		{Instruction{Op: op.PushFloat, Float: 2.5}, "PUSH_FLOAT 2.5"},
		{Instruction{Op: op.PushBool, Bool: true}, "PUSH_BOOL true"},
		{Instruction{Op: op.PushString, Index: 2}, "PUSH_STRING 2"},
		{Instruction{Op: op.Jump, Target: 9}, "JUMP 9"},
		{Instruction{Op: op.Call, FuncIndex: 1, ArgCount: 2}, "CALL 1 2"},
		{Instruction{Op: op.Return}, "RETURN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.in.String(), tt.want)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.Nil(t, sampleProgram().Validate())
	})

	t.Run("jump out of range", func(t *testing.T) {
		p := NewProgram()
		p.Emit(Instruction{Op: op.Jump, Target: 5})
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jump target 5 out of range")
	})

	t.Run("call to invalid function", func(t *testing.T) {
		p := NewProgram()
		p.Emit(Instruction{Op: op.Call, FuncIndex: 3})
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid function index 3")
	})

	t.Run("string index out of range", func(t *testing.T) {
		p := NewProgram()
		p.Emit(Instruction{Op: op.PushString, Index: 1})
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "string index 1 out of range")
	})

	t.Run("function start out of range", func(t *testing.T) {
		p := NewProgram()
		p.Emit(Instruction{Op: op.Halt})
		idx := p.DeclareFunction("main", 0)
		p.SetFunctionStart(idx, 10)
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "start address 10 out of range")
	})
}

func TestStringAt(t *testing.T) {
	p := NewProgram()
	idx := p.AddString("abc")
	s, err := p.StringAt(idx)
	assert.Nil(t, err)
	assert.Equal(t, s, "abc")

	_, err = p.StringAt(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string index 5 out of range")
}

func TestStats(t *testing.T) {
	stats := sampleProgram().Stats()
	assert.Equal(t, stats.InstructionCount, 10)
	assert.Equal(t, stats.FunctionCount, 2)
	assert.Equal(t, stats.StringCount, 2)
}
