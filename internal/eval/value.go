// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"math"
	"strconv"
	"strings"

	"nickandperla.net/flang/internal/expr"
	"nickandperla.net/flang/internal/sem"
)

// Value is a runtime value. Values are immutable once built.
type Value interface {
	value()
}

type (
	Integer int64
	Real    float64
	Bool    bool
	// Null is the single null value; compare with == Null{}.
	Null struct{}
	// List never aliases another list's storage after construction.
	List []Value
	// Atom is a bare name produced by quoting.
	Atom string
)

// Function is a user function or lambda together with the frame it closes over.
type Function struct {
	Name    string
	Params  []string
	Body    sem.Expr
	Closure *Environment
}

// BuiltinFunc is the signature for builtin functions.
type BuiltinFunc func(e *Evaluator, args []Value) (Value, error)

// Builtin is a primitive function.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

func (Integer) value()   {}
func (Real) value()      {}
func (Bool) value()      {}
func (Null) value()      {}
func (List) value()      {}
func (Atom) value()      {}
func (*Function) value() {}
func (*Builtin) value()  {}

// TypeName returns the name of v's type as used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Bool:
		return "bool"
	case Null:
		return "null"
	case List:
		return "list"
	case Atom:
		return "atom"
	case *Function:
		return "function"
	case *Builtin:
		return "builtin"
	}
	return "unknown"
}

// Format renders v for display. It reports false for values that have no
// textual form (functions).
func Format(v Value) (string, bool) {
	switch v := v.(type) {
	case *Function, *Builtin:
		return "", false
	case Atom:
		return "'" + string(v), true
	case List:
		return "'" + formatDatum(v), true
	}
	return formatDatum(v), true
}

func formatDatum(v Value) string {
	switch v := v.(type) {
	case Integer:
		return strconv.FormatInt(int64(v), 10)
	case Real:
		return expr.FormatReal(float64(v))
	case Bool:
		return strconv.FormatBool(bool(v))
	case Null:
		return "null"
	case Atom:
		return string(v)
	case List:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatDatum(e)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *Function:
		return "<function>"
	case *Builtin:
		return "<builtin " + v.Name + ">"
	}
	return "?"
}

// Describe renders v with its type, for debugging output.
func Describe(v Value) string {
	switch v := v.(type) {
	case Integer:
		return "Integer: " + formatDatum(v)
	case Real:
		return "Real: " + formatDatum(v)
	case Bool:
		return "Bool: " + formatDatum(v)
	case Null:
		return "Null"
	case Atom:
		return "Atom: " + string(v)
	case List:
		return "List: '" + formatDatum(v)
	case *Function:
		return "Function with params: (" + strings.Join(v.Params, " ") + ")"
	case *Builtin:
		return "Builtin: " + v.Name
	}
	return "Unknown"
}

// epsilon is the tolerance for numeric equality involving a real.
const epsilon = 1e-9

// Equal reports structural equality. Integers and reals compare across
// types within epsilon; functions compare by identity.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Integer:
		switch b := b.(type) {
		case Integer:
			return a == b
		case Real:
			return math.Abs(float64(a)-float64(b)) < epsilon
		}
	case Real:
		switch b := b.(type) {
		case Integer:
			return math.Abs(float64(a)-float64(b)) < epsilon
		case Real:
			return a == b || math.Abs(float64(a)-float64(b)) < epsilon
		}
	case Bool:
		b, ok := b.(Bool)
		return ok && a == b
	case Null:
		_, ok := b.(Null)
		return ok
	case Atom:
		b, ok := b.(Atom)
		return ok && a == b
	case List:
		b, ok := b.(List)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case *Function:
		b, ok := b.(*Function)
		return ok && a == b
	case *Builtin:
		b, ok := b.(*Builtin)
		return ok && a.Name == b.Name
	}
	return false
}
