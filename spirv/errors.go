package spirv

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes structural SPIR-V errors.
type ErrorKind uint8

const (
	// ErrBadMagic indicates word 0 is not the SPIR-V magic number in either
	// byte order.
	ErrBadMagic ErrorKind = iota

	// ErrUnaligned indicates a buffer whose length is not a multiple of 4.
	ErrUnaligned

	// ErrTruncatedHeader indicates a buffer shorter than the 5-word header.
	ErrTruncatedHeader

	// ErrZeroWordCount indicates an instruction header declaring 0 words.
	ErrZeroWordCount

	// ErrTruncatedInstruction indicates an instruction running past the end
	// of the module.
	ErrTruncatedInstruction

	// ErrShortOperands indicates an instruction with fewer operands than its
	// opcode requires.
	ErrShortOperands

	// ErrBadEdit indicates a staged edit outside the module or overlapping
	// another removal.
	ErrBadEdit
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrBadMagic:
		return "BadMagic"
	case ErrUnaligned:
		return "Unaligned"
	case ErrTruncatedHeader:
		return "TruncatedHeader"
	case ErrZeroWordCount:
		return "ZeroWordCount"
	case ErrTruncatedInstruction:
		return "TruncatedInstruction"
	case ErrShortOperands:
		return "ShortOperands"
	case ErrBadEdit:
		return "BadEdit"
	default:
		return "Unknown"
	}
}

// Error represents a malformed module or an invalid edit.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Offset is the word index the error refers to, or -1.
	Offset int

	// Opcode is the opcode of the offending instruction, if any.
	Opcode OpCode

	// Message provides details about the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("spirv %s at word %d: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("spirv %s: %s", e.Kind, e.Message)
}

// newError creates an error without an instruction context.
func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: -1, Message: fmt.Sprintf(format, args...)}
}

// instructionError creates an error attached to the instruction at offset.
func instructionError(kind ErrorKind, offset int, op OpCode, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Opcode: op, Message: fmt.Sprintf(format, args...)}
}

// IsMalformed reports whether err (or anything it wraps) describes a
// corrupt module rather than a bad edit.
func IsMalformed(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind != ErrBadEdit
}

// At attaches a word offset to a decoder error that has none. Other errors
// are returned unchanged.
func At(pos int, err error) error {
	var e *Error
	if errors.As(err, &e) && e.Offset < 0 {
		located := *e
		located.Offset = pos
		return &located
	}
	return err
}
