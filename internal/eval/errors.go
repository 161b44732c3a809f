package eval

import (
	"fmt"

	"nickandperla.net/flang/internal/token"
)

// ErrorKind classifies runtime errors.
type ErrorKind int

const (
	KindArity ErrorKind = iota
	KindType
	KindDivisionByZero
	KindEmptyList
	KindNotCallable
	KindUnbound
	KindControl
	KindEval
)

var kindNames = [...]string{
	"arity", "type", "division by zero", "empty list", "not callable", "unbound", "control", "eval",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// RuntimeError aborts evaluation of the current top-level form.
type RuntimeError struct {
	Kind ErrorKind
	Msg  string
	Span token.Span
	// Err is the underlying error for KindEval failures.
	Err error
}

func (e *RuntimeError) Error() string {
	if e.Span.IsZero() {
		return "runtime error: " + e.Msg
	}
	return fmt.Sprintf("runtime error at %s: %s", e.Span, e.Msg)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func runtimeErrorf(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// at attaches span to err when it is a RuntimeError without position.
func at(err error, span token.Span) error {
	if re, ok := err.(*RuntimeError); ok && re.Span.IsZero() && !span.IsZero() {
		cp := *re
		cp.Span = span
		return &cp
	}
	return err
}
