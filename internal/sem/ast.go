// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package sem implements semantic analysis: it checks raw syntax against
// lexical scopes and special-form shapes and produces the typed program
// tree consumed by the optimizer and the evaluator.
package sem

import (
	"nickandperla.net/flang/internal/expr"
	"nickandperla.net/flang/internal/token"
)

// Builtins lists the primitive function names visible in every global scope.
var Builtins = []string{
	"plus", "minus", "times", "divide", "modulo", "abs", "sqrt",
	"head", "tail", "cons",
	"equal", "nonequal", "less", "lesseq", "greater", "greatereq",
	"isint", "isreal", "isbool", "isnull", "isatom", "islist",
	"and", "or", "xor", "not", "eval",
}

var builtinSet = func() map[string]bool {
	m := make(map[string]bool, len(Builtins))
	for _, b := range Builtins {
		m[b] = true
	}
	return m
}()

// IsBuiltin reports whether name is one of the primitive functions.
func IsBuiltin(name string) bool {
	return builtinSet[name]
}

// Elem is any typed node. Only Expr nodes may appear where a value is
// required; Fun and Break are statements.
type Elem interface {
	Pos() token.Span
	elem()
}

// Expr is a typed node that produces a value.
type Expr interface {
	Elem
	expr()
}

type (
	// Setq declares or assigns Name.
	Setq struct {
		Name  *Ident
		Value Expr
	}

	// Fun declares a named function.
	Fun struct {
		Name   *Ident
		Params []*Ident
		Body   Expr
	}

	Lambda struct {
		Params []*Ident
		Body   Expr
		Span   token.Span
	}

	// Prog runs Body for effect in a fresh frame holding Vars, then
	// yields Last.
	Prog struct {
		Vars []*Ident
		Body []Elem
		Last Expr
		Span token.Span
	}

	// Cond has a nil Else when the else branch is omitted.
	Cond struct {
		Cond Expr
		Then Expr
		Else Expr
		Span token.Span
	}

	While struct {
		Cond Expr
		Body Expr
		Span token.Span
	}

	Return struct {
		Value Expr
		Span  token.Span
	}

	Break struct {
		Span token.Span
	}

	FunApp struct {
		Callee Expr
		Args   []Expr
		Span   token.Span
	}

	// Quote holds unanalyzed raw syntax.
	Quote struct {
		Datum expr.Node
		Span  token.Span
	}

	Integer struct {
		Value int64
		Span  token.Span
	}

	Real struct {
		Value float64
		Span  token.Span
	}

	Bool struct {
		Value bool
		Span  token.Span
	}

	Null struct {
		Span token.Span
	}

	Ident struct {
		Name string
		Span token.Span
	}
)

func (*Setq) elem()    {}
func (*Fun) elem()     {}
func (*Lambda) elem()  {}
func (*Prog) elem()    {}
func (*Cond) elem()    {}
func (*While) elem()   {}
func (*Return) elem()  {}
func (*Break) elem()   {}
func (*FunApp) elem()  {}
func (*Quote) elem()   {}
func (*Integer) elem() {}
func (*Real) elem()    {}
func (*Bool) elem()    {}
func (*Null) elem()    {}
func (*Ident) elem()   {}

func (*Setq) expr()    {}
func (*Lambda) expr()  {}
func (*Prog) expr()    {}
func (*Cond) expr()    {}
func (*While) expr()   {}
func (*Return) expr()  {}
func (*FunApp) expr()  {}
func (*Quote) expr()   {}
func (*Integer) expr() {}
func (*Real) expr()    {}
func (*Bool) expr()    {}
func (*Null) expr()    {}
func (*Ident) expr()   {}

func (n *Setq) Pos() token.Span    { return n.Name.Span }
func (n *Fun) Pos() token.Span     { return n.Name.Span }
func (n *Lambda) Pos() token.Span  { return n.Span }
func (n *Prog) Pos() token.Span    { return n.Span }
func (n *Cond) Pos() token.Span    { return n.Span }
func (n *While) Pos() token.Span   { return n.Span }
func (n *Return) Pos() token.Span  { return n.Span }
func (n *Break) Pos() token.Span   { return n.Span }
func (n *FunApp) Pos() token.Span  { return n.Span }
func (n *Quote) Pos() token.Span   { return n.Span }
func (n *Integer) Pos() token.Span { return n.Span }
func (n *Real) Pos() token.Span    { return n.Span }
func (n *Bool) Pos() token.Span    { return n.Span }
func (n *Null) Pos() token.Span    { return n.Span }
func (n *Ident) Pos() token.Span   { return n.Span }

// IsLiteral reports whether e is an integer, real, bool or null literal.
func IsLiteral(e Elem) bool {
	switch e.(type) {
	case *Integer, *Real, *Bool, *Null:
		return true
	}
	return false
}
