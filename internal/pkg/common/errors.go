package common

import (
	"fmt"
	"mvir-compiler/internal/pkg/ast"
	"runtime"
)

// ErrorKind classifies user-facing compilation errors. The driver
// aggregates errors across independent modules but each kind aborts
// the unit it was raised in.
type ErrorKind uint8

const (
	errorKindNone ErrorKind = iota
	UnboundModule
	UnboundStruct
	UnboundFunction
	UnboundConstant
	UnboundTypeVariable
	DuplicateImport
	DuplicateDefinition
	AbilityMismatch
	BreakOutsideLoop
	ContinueOutsideLoop
	LabelNotFound
	ArityMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case UnboundModule:
		return "unbound module"
	case UnboundStruct:
		return "unbound struct"
	case UnboundFunction:
		return "unbound function"
	case UnboundConstant:
		return "unbound constant"
	case UnboundTypeVariable:
		return "unbound type variable"
	case DuplicateImport:
		return "duplicate import"
	case DuplicateDefinition:
		return "duplicate definition"
	case AbilityMismatch:
		return "ability mismatch"
	case BreakOutsideLoop:
		return "break outside loop"
	case ContinueOutsideLoop:
		return "continue outside loop"
	case LabelNotFound:
		return "label not found"
	case ArityMismatch:
		return "arity mismatch"
	}
	return "error"
}

type Error struct {
	Kind     ErrorKind
	Location ast.Location
	Message  string
}

func (e Error) Error() string {
	cursorString := e.Location.CursorString()
	if cursorString == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", cursorString, e.Kind, e.Message)
}

func NewError(kind ErrorKind, loc ast.Location, format string, args ...any) error {
	return Error{Kind: kind, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of a compilation error, errorKindNone for
// anything else.
func KindOf(err error) ErrorKind {
	if e, ok := err.(Error); ok {
		return e.Kind
	}
	return errorKindNone
}

func NewSystemError(err error) error {
	return systemError{inner: err}
}

type systemError struct {
	inner error
}

func (e systemError) Error() string {
	return fmt.Sprintf("system error: %v", e.inner)
}

func (e systemError) Unwrap() error {
	return e.inner
}

// NewCompilerError marks an internal invariant violation. These are
// defects, never user diagnostics, and callers panic with them.
func NewCompilerError(message string) error {
	_, file, line, _ := runtime.Caller(1)
	return compilerError{message: message, file: file, line: line}
}

type compilerError struct {
	message string
	file    string
	line    int
}

func (e compilerError) Error() string {
	return fmt.Sprintf("%s at %s:%d", e.message, e.file, e.line)
}
