package model

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnknownCompiler
	KindMissingField
	KindCompileFailure
	KindRunFault
	KindStagingFault
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindUnknownCompiler:
		return "unknown_compiler"
	case KindMissingField:
		return "missing_field"
	case KindCompileFailure:
		return "compile_failure"
	case KindRunFault:
		return "run_fault"
	case KindStagingFault:
		return "staging_fault"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error is the engine's single error type. Message is safe to send to a
// client; Err may carry host paths and is only meant for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func UnknownCompiler(name string) *Error {
	return &Error{Kind: KindUnknownCompiler, Message: fmt.Sprintf("undefined compilerName %q", name)}
}

func MissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Message: field + " not given"}
}

// CompileFailure carries the compiler's diagnostics as its message.
func CompileFailure(diagnostics string) *Error {
	return &Error{Kind: KindCompileFailure, Message: diagnostics}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the client-facing text for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
