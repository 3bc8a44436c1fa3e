package bytecode

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/aisl-lang/aisl/op"
)

// TextHeader begins every text-format bytecode file.
const TextHeader = "AISLTEXT1"

// MarshalText serializes the program in the line-oriented text format:
//
//	AISLTEXT1
//	strings N
//	"..." (one quoted string per line)
//	functions N
//	name start locals params (one per line)
//	instructions N
//	MNEMONIC [operands] (one per line)
func (p *Program) MarshalText() ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(TextHeader)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "strings %d\n", len(p.Strings))
	for _, s := range p.Strings {
		sb.WriteString(strconv.Quote(s))
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "functions %d\n", len(p.Functions))
	for _, fn := range p.Functions {
		fmt.Fprintf(&sb, "%s %d %d %d\n", fn.Name, fn.StartAddr, fn.LocalCount, fn.ParamCount)
	}

	fmt.Fprintf(&sb, "instructions %d\n", len(p.Instructions))
	for _, in := range p.Instructions {
		sb.WriteString(in.String())
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}

// textScanner yields whitespace-separated tokens, treating a double-quoted
// run (with Go escape syntax) as one token.
type textScanner struct {
	data []byte
	pos  int
}

func (s *textScanner) next() (string, bool) {
	for s.pos < len(s.data) && isSpace(s.data[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.data) {
		return "", false
	}
	if s.data[s.pos] == '"' {
		start := s.pos
		s.pos++
		for s.pos < len(s.data) {
			c := s.data[s.pos]
			if c == '\\' {
				s.pos += 2
				continue
			}
			s.pos++
			if c == '"' {
				break
			}
		}
		if s.pos > len(s.data) {
			s.pos = len(s.data)
		}
		raw := string(s.data[start:s.pos])
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return raw, true
		}
		return unquoted, true
	}
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos]), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func (s *textScanner) expect(want string) error {
	tok, ok := s.next()
	if !ok {
		return fmt.Errorf("unexpected end of input, expected %q", want)
	}
	if tok != want {
		return fmt.Errorf("expected %q, got %q", want, tok)
	}
	return nil
}

func (s *textScanner) uint32() (uint32, error) {
	tok, ok := s.next()
	if !ok {
		return 0, fmt.Errorf("unexpected end of input, expected number")
	}
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("expected number, got %q", tok)
	}
	return uint32(v), nil
}

// UnmarshalText parses the text format. Legacy width-suffixed mnemonics are
// canonicalized onto the current opcodes; an unknown mnemonic fails the
// load.
func (p *Program) UnmarshalText(data []byte) error {
	if !bytes.HasPrefix(data, []byte(TextHeader)) {
		return fmt.Errorf("missing %s header", TextHeader)
	}
	s := &textScanner{data: data}
	if err := s.expect(TextHeader); err != nil {
		return err
	}

	if err := s.expect("strings"); err != nil {
		return err
	}
	stringCount, err := s.uint32()
	if err != nil {
		return err
	}
	p.Strings = make([]string, 0, stringCount)
	for i := uint32(0); i < stringCount; i++ {
		tok, ok := s.next()
		if !ok {
			return fmt.Errorf("unexpected end of input in string pool")
		}
		p.Strings = append(p.Strings, tok)
	}

	if err := s.expect("functions"); err != nil {
		return err
	}
	funcCount, err := s.uint32()
	if err != nil {
		return err
	}
	p.Functions = make([]Function, 0, funcCount)
	for i := uint32(0); i < funcCount; i++ {
		name, ok := s.next()
		if !ok {
			return fmt.Errorf("unexpected end of input in function table")
		}
		start, err := s.uint32()
		if err != nil {
			return err
		}
		locals, err := s.uint32()
		if err != nil {
			return err
		}
		params, err := s.uint32()
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

	if err := s.expect("instructions"); err != nil {
		return err
	}
	instrCount, err := s.uint32()
	if err != nil {
		return err
	}
	p.Instructions = make([]Instruction, 0, instrCount)
	for i := uint32(0); i < instrCount; i++ {
		mnemonic, ok := s.next()
		if !ok {
			return fmt.Errorf("unexpected end of input in instructions")
		}
		code, ok := op.FromMnemonic(mnemonic)
		if !ok {
			return fmt.Errorf("instruction %d: unknown mnemonic %q", i, mnemonic)
		}
		in := Instruction{Op: code}
		switch op.GetInfo(code).Operand {
		case op.OperandInt:
			tok, ok := s.next()
			if !ok {
				return fmt.Errorf("instruction %d: missing operand", i)
			}
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return fmt.Errorf("instruction %d: invalid int operand %q", i, tok)
			}
			in.Int = v
		case op.OperandFloat:
			tok, ok := s.next()
			if !ok {
				return fmt.Errorf("instruction %d: missing operand", i)
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("instruction %d: invalid float operand %q", i, tok)
			}
			in.Float = v
		case op.OperandBool:
			tok, ok := s.next()
			if !ok {
				return fmt.Errorf("instruction %d: missing operand", i)
			}
			in.Bool = tok == "true" || tok == "1"
		case op.OperandUInt, op.OperandString:
			v, err := s.uint32()
			if err != nil {
				return fmt.Errorf("instruction %d: %w", i, err)
			}
			in.Index = v
		case op.OperandJump:
			v, err := s.uint32()
			if err != nil {
				return fmt.Errorf("instruction %d: %w", i, err)
			}
			in.Target = v
		case op.OperandCall:
			fi, err := s.uint32()
			if err != nil {
				return fmt.Errorf("instruction %d: %w", i, err)
			}
			ac, err := s.uint32()
			if err != nil {
				return fmt.Errorf("instruction %d: %w", i, err)
			}
			in.FuncIndex = fi
			in.ArgCount = ac
		}
		p.Instructions = append(p.Instructions, in)
	}
	return nil
}
