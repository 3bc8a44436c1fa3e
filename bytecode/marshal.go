package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/aisl-lang/aisl/op"
)

// Magic identifies a binary AISL bytecode file ("AISL" big-endian).
const Magic uint32 = 0x4149534C

// formatVersion is bumped whenever the binary layout changes. A program
// saved by one toolchain version is only loadable by the same version.
const formatVersion uint16 = 1

// WriteTo serializes the program in binary form.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	le := binary.LittleEndian

	writeU32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	writeU16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf.Write(b[:])
	}
	writeU64 := func(v uint64) {
		var b [8]byte
		le.PutUint64(b[:], v)
		buf.Write(b[:])
	}
	writeString := func(s string) {
		writeU32(uint32(len(s)))
		buf.WriteString(s)
	}

	writeU32(Magic)
	writeU16(formatVersion)

	writeU32(uint32(len(p.Instructions)))
	for _, in := range p.Instructions {
		writeU16(uint16(in.Op))
		switch op.GetInfo(in.Op).Operand {
		case op.OperandInt:
			writeU64(uint64(in.Int))
		case op.OperandFloat:
			writeU64(math.Float64bits(in.Float))
		case op.OperandBool:
			if in.Bool {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		case op.OperandUInt, op.OperandString:
			writeU32(in.Index)
		case op.OperandJump:
			writeU32(in.Target)
		case op.OperandCall:
			writeU32(in.FuncIndex)
			writeU32(in.ArgCount)
		}
	}

	writeU32(uint32(len(p.Strings)))
	for _, s := range p.Strings {
		writeString(s)
	}

	writeU32(uint32(len(p.Functions)))
	for _, fn := range p.Functions {
		writeString(fn.Name)
		writeU32(fn.StartAddr)
		writeU32(fn.LocalCount)
		writeU32(fn.ParamCount)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// MarshalBinary serializes the program in binary form.
func (p *Program) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type binaryReader struct {
	data []byte
	pos  int
}

func (r *binaryReader) remaining() int { return len(r.data) - r.pos }

func (r *binaryReader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *binaryReader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *binaryReader) u64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *binaryReader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *binaryReader) string() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if r.remaining() < int(n) {
		return "", io.ErrUnexpectedEOF
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// UnmarshalBinary deserializes a binary program.
func (p *Program) UnmarshalBinary(data []byte) error {
	r := &binaryReader{data: data}

	magic, err := r.u32()
	if err != nil {
		return err
	}
	if magic != Magic {
		return fmt.Errorf("invalid bytecode file: bad magic 0x%08X", magic)
	}
	version, err := r.u16()
	if err != nil {
		return err
	}
	if version != formatVersion {
		return fmt.Errorf("unsupported bytecode format version %d (expected %d)",
			version, formatVersion)
	}

	instrCount, err := r.u32()
	if err != nil {
		return err
	}
	p.Instructions = make([]Instruction, 0, instrCount)
	for i := uint32(0); i < instrCount; i++ {
		rawOp, err := r.u16()
		if err != nil {
			return err
		}
		code := op.Code(rawOp)
		if code >= op.CodeCount {
			return fmt.Errorf("instruction %d: unknown opcode %d", i, rawOp)
		}
		in := Instruction{Op: code}
		switch op.GetInfo(code).Operand {
		case op.OperandInt:
			v, err := r.u64()
			if err != nil {
				return err
			}
			in.Int = int64(v)
		case op.OperandFloat:
			v, err := r.u64()
			if err != nil {
				return err
			}
			in.Float = math.Float64frombits(v)
		case op.OperandBool:
			b, err := r.byte()
			if err != nil {
				return err
			}
			in.Bool = b != 0
		case op.OperandUInt, op.OperandString:
			v, err := r.u32()
			if err != nil {
				return err
			}
			in.Index = v
		case op.OperandJump:
			v, err := r.u32()
			if err != nil {
				return err
			}
			in.Target = v
		case op.OperandCall:
			fi, err := r.u32()
			if err != nil {
				return err
			}
			ac, err := r.u32()
			if err != nil {
				return err
			}
			in.FuncIndex = fi
			in.ArgCount = ac
		}
		p.Instructions = append(p.Instructions, in)
	}

	stringCount, err := r.u32()
	if err != nil {
		return err
	}
	p.Strings = make([]string, 0, stringCount)
	for i := uint32(0); i < stringCount; i++ {
		s, err := r.string()
		if err != nil {
			return err
		}
		p.Strings = append(p.Strings, s)
	}

	funcCount, err := r.u32()
	if err != nil {
		return err
	}
	p.Functions = make([]Function, 0, funcCount)
	for i := uint32(0); i < funcCount; i++ {
		name, err := r.string()
		if err != nil {
			return err
		}
		start, err := r.u32()
		if err != nil {
			return err
		}
		locals, err := r.u32()
		if err != nil {
			return err
		}
		params, err := r.u32()
		if err != nil {
			return err
		}
		p.Functions = append(p.Functions, Function{
			Name:       name,
			StartAddr:  start,
			LocalCount: locals,
			ParamCount: params,
		})
	}
	return nil
}

// Save writes the program to a file in binary form.
func (p *Program) Save(path string) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a program from a file. Files beginning with the text header
// are parsed as the text format; anything else must carry the binary magic.
// The loaded program must pass Validate before it is returned, so jump
// targets, call indices, and string indices are in range when the VM runs it.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := NewProgram()
	if bytes.HasPrefix(data, []byte(TextHeader)) {
		err = p.UnmarshalText(data)
	} else {
		err = p.UnmarshalBinary(data)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return p, nil
}
