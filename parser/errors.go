package parser

import (
	"fmt"

	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/internal/token"
)

// ErrorOpts is a struct that holds a variety of error data. All fields are
// optional, although one of Code or Message is recommended.
type ErrorOpts struct {
	Code          string
	Message       string
	Cause         error
	File          string
	StartPosition token.Position
	EndPosition   token.Position
	SourceCode    string
}

// ParserError is an interface that all parser errors implement.
type ParserError interface {
	Code() string
	Message() string
	Cause() error
	File() string
	StartPosition() token.Position
	EndPosition() token.Position
	SourceCode() string
	Error() string
	errz.FriendlyError
	errz.MachineError
}

// NewSyntaxError returns a new SyntaxError populated with the given error
// data.
func NewSyntaxError(opts ErrorOpts) *SyntaxError {
	if opts.Code == "" {
		opts.Code = errz.CodeParseError
	}
	return &SyntaxError{
		code:          opts.Code,
		message:       opts.Message,
		cause:         opts.Cause,
		file:          opts.File,
		startPosition: opts.StartPosition,
		endPosition:   opts.EndPosition,
		sourceCode:    opts.SourceCode,
	}
}

// SyntaxError is an error produced while parsing. It carries a stable
// machine-readable code alongside the position and source line.
type SyntaxError struct {
	code          string
	message       string
	cause         error
	file          string
	startPosition token.Position
	endPosition   token.Position
	sourceCode    string
}

// ToStructured converts the error into the shared structured form used for
// rendering.
func (e *SyntaxError) ToStructured() *errz.StructuredError {
	msg := e.message
	if e.cause != nil {
		msg = e.cause.Error()
	}
	s := errz.New(errz.ErrSyntax, e.code, msg)
	s.Line = e.startPosition.LineNumber()
	s.Column = e.startPosition.ColumnNumber()
	s.Source = e.sourceCode
	s.Cause = e.cause
	return s
}

func (e *SyntaxError) Error() string {
	return e.ToStructured().Error()
}

// FriendlyErrorMessage renders the error with its source line and caret.
func (e *SyntaxError) FriendlyErrorMessage() string {
	return e.ToStructured().FriendlyErrorMessage()
}

// MachineFormat renders ERROR:<code>:<line>:<col>:<message>.
func (e *SyntaxError) MachineFormat() string {
	return e.ToStructured().MachineFormat()
}

func (e *SyntaxError) Code() string { return e.code }

func (e *SyntaxError) Message() string { return e.message }

func (e *SyntaxError) Cause() error { return e.cause }

func (e *SyntaxError) Unwrap() error { return e.cause }

func (e *SyntaxError) File() string { return e.file }

func (e *SyntaxError) StartPosition() token.Position { return e.startPosition }

func (e *SyntaxError) EndPosition() token.Position { return e.endPosition }

func (e *SyntaxError) SourceCode() string { return e.sourceCode }

func tokenTypeDescription(t token.Type) string {
	switch t {
	case token.EOF:
		return "end of file"
	case token.IDENT:
		return "identifier"
	default:
		return string(t)
	}
}

func tokenDescription(t token.Token) string {
	switch t.Type {
	case token.EOF:
		return "end of file"
	default:
		if t.Literal == "" {
			return string(t.Type)
		}
		return t.Literal
	}
}

// Errors wraps multiple parser errors for multi-error reporting. It
// implements the error interface so it can be returned from Parse.
type Errors struct {
	errs []ParserError
}

// NewErrors creates an Errors from a slice of ParserError. Returns nil for
// an empty slice.
func NewErrors(errs []ParserError) *Errors {
	if len(errs) == 0 {
		return nil
	}
	return &Errors{errs: errs}
}

// Error implements the error interface. Returns the first error message.
func (e *Errors) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.errs[0].Error(), len(e.errs)-1)
}

// Errors returns the underlying slice of parser errors.
func (e *Errors) Errors() []ParserError {
	return e.errs
}

// Count returns the number of errors.
func (e *Errors) Count() int {
	return len(e.errs)
}

// First returns the first error, or nil if empty.
func (e *Errors) First() ParserError {
	if len(e.errs) == 0 {
		return nil
	}
	return e.errs[0]
}

// FriendlyErrorMessage returns a formatted message showing all errors.
func (e *Errors) FriendlyErrorMessage() string {
	var out string
	for i, err := range e.errs {
		if i > 0 {
			out += "\n"
		}
		out += err.FriendlyErrorMessage()
	}
	return out
}

// MachineFormat renders the first error in machine format.
func (e *Errors) MachineFormat() string {
	return e.errs[0].MachineFormat()
}

// Unwrap returns the underlying errors for use with errors.Is/As.
func (e *Errors) Unwrap() []error {
	result := make([]error, len(e.errs))
	for i, err := range e.errs {
		result[i] = err
	}
	return result
}
