// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr defines raw F syntax nodes as produced by the parser.
package expr

import (
	"math"
	"strconv"
	"strings"

	"nickandperla.net/flang/internal/token"
)

// Node is the interface all raw syntax nodes implement.
type Node interface {
	// String returns the source representation of the node.
	String() string
	// Pos returns the span of the node's first token.
	Pos() token.Span
	node()
}

// List is a parenthesized sequence.
type List struct {
	Elems []Node
	Span  token.Span
}

// Quote is 'x or the datum of (quote x).
type Quote struct {
	Datum Node
	Span  token.Span
}

// Ident is a bare identifier.
type Ident struct {
	Name string
	Span token.Span
}

// SpecialForm is one of the special-form keywords.
type SpecialForm struct {
	Form token.Form
	Span token.Span
}

// Null is the null literal.
type Null struct {
	Span token.Span
}

// Integer is an integer literal.
type Integer struct {
	Value int64
	Span  token.Span
}

// Real is a real literal.
type Real struct {
	Value float64
	Span  token.Span
}

// Bool is a boolean literal.
type Bool struct {
	Value bool
	Span  token.Span
}

func (List) node()        {}
func (Quote) node()       {}
func (Ident) node()       {}
func (SpecialForm) node() {}
func (Null) node()        {}
func (Integer) node()     {}
func (Real) node()        {}
func (Bool) node()        {}

func (l List) Pos() token.Span        { return l.Span }
func (q Quote) Pos() token.Span       { return q.Span }
func (i Ident) Pos() token.Span       { return i.Span }
func (s SpecialForm) Pos() token.Span { return s.Span }
func (n Null) Pos() token.Span        { return n.Span }
func (i Integer) Pos() token.Span     { return i.Span }
func (r Real) Pos() token.Span        { return r.Span }
func (b Bool) Pos() token.Span        { return b.Span }

func (l List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, e := range l.Elems {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (q Quote) String() string       { return "'" + q.Datum.String() }
func (i Ident) String() string       { return i.Name }
func (s SpecialForm) String() string { return s.Form.String() }
func (Null) String() string          { return "null" }
func (i Integer) String() string     { return strconv.FormatInt(i.Value, 10) }
func (r Real) String() string        { return FormatReal(r.Value) }
func (b Bool) String() string        { return strconv.FormatBool(b.Value) }

// FormatReal renders a real so that it always reads back as a real.
func FormatReal(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// NewList creates a List with no position.
func NewList(elems ...Node) List {
	return List{Elems: elems}
}

// Join renders a sequence of top-level nodes, one per line.
func Join(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, "\n")
}
