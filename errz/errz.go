// Package errz defines the structured error types shared by every phase of
// the toolchain. Each error carries a stable machine-readable code, a human
// message, and a source location, and can render itself in either a
// human-friendly form or the machine format
// ERROR:<code>:<line>:<col>:<message> consumed by tooling.
package errz

import (
	"bytes"
	"fmt"
	"strings"
)

// ErrorKind categorizes an error by the phase or condition that produced it.
type ErrorKind int

const (
	// ErrSyntax indicates a lexical or parse error.
	ErrSyntax ErrorKind = iota
	// ErrName indicates an undefined variable, function, or label.
	ErrName
	// ErrArity indicates a wrong argument count to a builtin operation.
	ErrArity
	// ErrValue indicates an invalid value for an operation.
	ErrValue
	// ErrRuntime indicates a virtual machine execution error.
	ErrRuntime
	// ErrImport indicates a module resolution or import error.
	ErrImport
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax error"
	case ErrName:
		return "name error"
	case ErrArity:
		return "arity error"
	case ErrValue:
		return "value error"
	case ErrRuntime:
		return "runtime error"
	case ErrImport:
		return "import error"
	default:
		return "error"
	}
}

// Stable machine-readable error codes.
const (
	CodeParseError        = "PARSE_ERROR"
	CodeMissingType       = "MISSING_TYPE"
	CodeMissingReturnType = "MISSING_RETURN_TYPE"
	CodeUndefinedName     = "UNDEFINED_NAME"
	CodeUnknownFunction   = "UNKNOWN_FUNCTION"
	CodeArityMismatch     = "ARITY_MISMATCH"
	CodeMisplacedBreak    = "MISPLACED_BREAK"
	CodeMisplacedContinue = "MISPLACED_CONTINUE"
	CodeUndefinedLabel    = "UNDEFINED_LABEL"
	CodeRuntimeError      = "RUNTIME_ERROR"
	CodeImportError       = "IMPORT_ERROR"
)

// StructuredError is an error with a stable code, a source location, and an
// optional source snippet for caret rendering.
type StructuredError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Line    int // 1-indexed, 0 when unknown
	Column  int // 1-indexed, 0 when unknown
	Source  string
	Cause   error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (%d:%d)", e.Kind, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// WithCause wraps the error with a cause.
func (e *StructuredError) WithCause(cause error) *StructuredError {
	e.Cause = cause
	return e
}

// MachineFormat renders the error as a single parseable line:
// ERROR:<code>:<line>:<col>:<message>.
func (e *StructuredError) MachineFormat() string {
	code := e.Code
	if code == "" {
		code = CodeParseError
	}
	return fmt.Sprintf("ERROR:%s:%d:%d:%s", code, e.Line, e.Column, e.Message)
}

// FriendlyErrorMessage returns a human-friendly message with a source
// snippet and caret when a source line is available.
func (e *StructuredError) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	msg.WriteString(e.Error())
	msg.WriteString("\n")
	if e.Source != "" {
		msg.WriteString(" | ")
		msg.WriteString(e.Source)
		msg.WriteString("\n")
		if e.Column > 0 {
			msg.WriteString(" | ")
			msg.WriteString(strings.Repeat(" ", e.Column-1))
			msg.WriteString("^\n")
		}
	}
	return msg.String()
}

// New creates a StructuredError.
func New(kind ErrorKind, code, message string) *StructuredError {
	return &StructuredError{Kind: kind, Code: code, Message: message}
}

// Newf creates a StructuredError with a formatted message.
func Newf(kind ErrorKind, code, format string, args ...any) *StructuredError {
	return &StructuredError{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// At attaches a 1-indexed source location.
func (e *StructuredError) At(line, column int) *StructuredError {
	e.Line = line
	e.Column = column
	return e
}

// WithSource attaches the relevant source line for caret rendering.
func (e *StructuredError) WithSource(line string) *StructuredError {
	e.Source = line
	return e
}

// FriendlyError is implemented by errors that can render a human-friendly
// multi-line message.
type FriendlyError interface {
	error
	FriendlyErrorMessage() string
}

// MachineError is implemented by errors that can render the machine format.
type MachineError interface {
	error
	MachineFormat() string
}
