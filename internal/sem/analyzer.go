// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package sem

import (
	"fmt"

	"nickandperla.net/flang/internal/expr"
	"nickandperla.net/flang/internal/token"
)

// Error is a semantic error. Span is zero when no position is known.
type Error struct {
	Msg  string
	Span token.Span
}

func (e *Error) Error() string {
	if e.Span.IsZero() {
		return "semantic error: " + e.Msg
	}
	return fmt.Sprintf("semantic error at %s: %s", e.Span, e.Msg)
}

func errorf(span token.Span, format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...), Span: span}
}

// Analyzer turns raw forms into typed nodes. Its global scope persists
// across calls so that later forms see earlier declarations.
type Analyzer struct {
	global  *Scope
	current *Scope
	// names the form under analysis added to the global frame
	added []string
}

// NewAnalyzer creates an Analyzer with a fresh global scope.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithScope(NewGlobalScope())
}

// NewAnalyzerWithScope creates an Analyzer over an existing global scope.
func NewAnalyzerWithScope(global *Scope) *Analyzer {
	return &Analyzer{global: global, current: global}
}

// Global returns the persistent global scope.
func (a *Analyzer) Global() *Scope {
	return a.global
}

// Declare registers name in the global scope outside of any form.
func (a *Analyzer) Declare(name string) {
	a.global.TryAdd(name)
}

// Analyze analyzes a whole program. The first error aborts, and the
// global names of every form of the program are removed again.
func (a *Analyzer) Analyze(nodes []expr.Node) ([]Elem, error) {
	var added []string
	elems := make([]Elem, 0, len(nodes))
	for _, n := range nodes {
		e, err := a.AnalyzeForm(n)
		if err != nil {
			for _, name := range added {
				a.global.Remove(name)
			}
			return nil, err
		}
		added = append(added, a.added...)
		elems = append(elems, e)
	}
	return elems, nil
}

// AnalyzeForm analyzes one top-level form. On failure every global name
// the form registered is removed again.
func (a *Analyzer) AnalyzeForm(n expr.Node) (Elem, error) {
	a.current = a.global
	a.added = a.added[:0]
	e, err := a.element(n)
	if err != nil {
		for _, name := range a.added {
			a.global.Remove(name)
		}
	}
	a.current = a.global
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (a *Analyzer) register(s *Scope, name string) bool {
	if !s.TryAdd(name) {
		return false
	}
	if s == a.global {
		a.added = append(a.added, name)
	}
	return true
}

// element analyzes n in statement position.
func (a *Analyzer) element(n expr.Node) (Elem, error) {
	if l, ok := n.(expr.List); ok {
		return a.list(l)
	}
	return a.expression(n)
}

func (a *Analyzer) expression(n expr.Node) (Expr, error) {
	switch n := n.(type) {
	case expr.List:
		el, err := a.list(n)
		if err != nil {
			return nil, err
		}
		e, ok := el.(Expr)
		if !ok {
			return nil, errorf(n.Span, "%s is not allowed where a value is expected", statementName(el))
		}
		return e, nil
	case expr.Quote:
		return &Quote{Datum: n.Datum, Span: n.Span}, nil
	case expr.Ident:
		if !a.current.Contains(n.Name) {
			return nil, errorf(n.Span, "identifier '%s' is not declared in current scope", n.Name)
		}
		return &Ident{Name: n.Name, Span: n.Span}, nil
	case expr.SpecialForm:
		return nil, errorf(n.Span, "unexpected special form %s", n.Form)
	case expr.Integer:
		return &Integer{Value: n.Value, Span: n.Span}, nil
	case expr.Real:
		return &Real{Value: n.Value, Span: n.Span}, nil
	case expr.Bool:
		return &Bool{Value: n.Value, Span: n.Span}, nil
	case expr.Null:
		return &Null{Span: n.Span}, nil
	}
	return nil, errorf(n.Pos(), "unexpected node %T", n)
}

func statementName(e Elem) string {
	switch e.(type) {
	case *Fun:
		return "func"
	case *Break:
		return "break"
	}
	return "statement"
}

func (a *Analyzer) list(l expr.List) (Elem, error) {
	if len(l.Elems) == 0 {
		return nil, errorf(l.Span, "() is invalid")
	}
	if sf, ok := l.Elems[0].(expr.SpecialForm); ok {
		return a.specialForm(sf.Form, l.Elems[1:], l.Span)
	}
	callee, err := a.expression(l.Elems[0])
	if err != nil {
		return nil, err
	}
	args, err := a.expressions(l.Elems[1:])
	if err != nil {
		return nil, err
	}
	return &FunApp{Callee: callee, Args: args, Span: l.Span}, nil
}

func (a *Analyzer) expressions(nodes []expr.Node) ([]Expr, error) {
	out := make([]Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := a.expression(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (a *Analyzer) specialForm(form token.Form, args []expr.Node, span token.Span) (Elem, error) {
	switch form {
	case token.Setq:
		return a.setq(args, span)
	case token.Func:
		return a.fun(args, span)
	case token.Lambda:
		return a.lambda(args, span)
	case token.Prog:
		return a.prog(args, span)
	case token.Cond:
		return a.cond(args, span)
	case token.While:
		return a.while(args, span)
	case token.Return:
		return a.ret(args, span)
	case token.Break:
		if len(args) != 0 {
			return nil, errorf(span, "break takes no arguments")
		}
		if !a.current.IsIn(LoopScope) {
			return nil, errorf(span, "break outside loop")
		}
		return &Break{Span: span}, nil
	case token.Quote:
		if len(args) != 1 {
			return nil, errorf(span, "quote requires exactly 1 argument")
		}
		return &Quote{Datum: args[0], Span: span}, nil
	}
	return nil, errorf(span, "unknown special form %s", form)
}

func (a *Analyzer) setq(args []expr.Node, span token.Span) (Elem, error) {
	if len(args) != 2 {
		return nil, errorf(span, "setq requires exactly 2 arguments")
	}
	id, ok := args[0].(expr.Ident)
	if !ok {
		return nil, errorf(args[0].Pos(), "setq first argument must be an identifier")
	}
	a.register(a.current, id.Name)
	value, err := a.expression(args[1])
	if err != nil {
		return nil, err
	}
	return &Setq{Name: &Ident{Name: id.Name, Span: id.Span}, Value: value}, nil
}

func (a *Analyzer) fun(args []expr.Node, span token.Span) (Elem, error) {
	if len(args) != 3 {
		return nil, errorf(span, "func requires exactly 3 arguments")
	}
	id, ok := args[0].(expr.Ident)
	if !ok {
		return nil, errorf(args[0].Pos(), "func name must be an identifier")
	}
	params, err := identList(args[1], "function parameter")
	if err != nil {
		return nil, err
	}
	if !a.register(a.current, id.Name) {
		return nil, errorf(id.Span, "function '%s' is already declared", id.Name)
	}
	body, err := a.withScope(NewScope(id.Name, FunctionScope, a.current), params, func() (Expr, error) {
		return a.expression(args[2])
	})
	if err != nil {
		return nil, err
	}
	return &Fun{Name: &Ident{Name: id.Name, Span: id.Span}, Params: params, Body: body}, nil
}

func (a *Analyzer) lambda(args []expr.Node, span token.Span) (Elem, error) {
	if len(args) != 2 {
		return nil, errorf(span, "lambda requires exactly 2 arguments")
	}
	params, err := identList(args[0], "lambda parameter")
	if err != nil {
		return nil, err
	}
	body, err := a.withScope(NewScope("lambda", FunctionScope, a.current), params, func() (Expr, error) {
		return a.expression(args[1])
	})
	if err != nil {
		return nil, err
	}
	return &Lambda{Params: params, Body: body, Span: span}, nil
}

func (a *Analyzer) prog(args []expr.Node, span token.Span) (Elem, error) {
	if len(args) < 2 {
		return nil, errorf(span, "prog requires a variable list and at least one expression")
	}
	vars, err := identList(args[0], "prog variable")
	if err != nil {
		return nil, err
	}
	var (
		body []Elem
		last Expr
	)
	_, err = a.withScope(NewScope("prog", ProgScope, a.current), vars, func() (Expr, error) {
		for _, n := range args[1 : len(args)-1] {
			e, err := a.element(n)
			if err != nil {
				return nil, err
			}
			body = append(body, e)
		}
		var err error
		last, err = a.expression(args[len(args)-1])
		return last, err
	})
	if err != nil {
		return nil, err
	}
	return &Prog{Vars: vars, Body: body, Last: last, Span: span}, nil
}

func (a *Analyzer) cond(args []expr.Node, span token.Span) (Elem, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, errorf(span, "cond requires 2 or 3 arguments")
	}
	parts, err := a.expressions(args)
	if err != nil {
		return nil, err
	}
	c := &Cond{Cond: parts[0], Then: parts[1], Span: span}
	if len(parts) == 3 {
		c.Else = parts[2]
	}
	return c, nil
}

func (a *Analyzer) while(args []expr.Node, span token.Span) (Elem, error) {
	if len(args) != 2 {
		return nil, errorf(span, "while requires exactly 2 arguments")
	}
	var cond, body Expr
	_, err := a.withScope(NewScope("while", LoopScope, a.current), nil, func() (Expr, error) {
		var err error
		if cond, err = a.expression(args[0]); err != nil {
			return nil, err
		}
		body, err = a.expression(args[1])
		return body, err
	})
	if err != nil {
		return nil, err
	}
	return &While{Cond: cond, Body: body, Span: span}, nil
}

func (a *Analyzer) ret(args []expr.Node, span token.Span) (Elem, error) {
	if len(args) != 1 {
		return nil, errorf(span, "return requires exactly 1 argument")
	}
	if !a.current.IsIn(FunctionScope) {
		return nil, errorf(span, "return outside function")
	}
	value, err := a.expression(args[0])
	if err != nil {
		return nil, err
	}
	return &Return{Value: value, Span: span}, nil
}

// withScope runs fn with s as the current scope, registering names in it first.
func (a *Analyzer) withScope(s *Scope, names []*Ident, fn func() (Expr, error)) (Expr, error) {
	for _, n := range names {
		s.TryAdd(n.Name)
	}
	saved := a.current
	a.current = s
	defer func() { a.current = saved }()
	return fn()
}

func identList(n expr.Node, what string) ([]*Ident, error) {
	l, ok := n.(expr.List)
	if !ok {
		return nil, errorf(n.Pos(), "%s list must be a list", what)
	}
	ids := make([]*Ident, 0, len(l.Elems))
	seen := make(map[string]bool, len(l.Elems))
	for _, e := range l.Elems {
		id, ok := e.(expr.Ident)
		if !ok {
			return nil, errorf(e.Pos(), "%s must be an identifier", what)
		}
		if seen[id.Name] {
			return nil, errorf(id.Span, "duplicate %s '%s'", what, id.Name)
		}
		seen[id.Name] = true
		ids = append(ids, &Ident{Name: id.Name, Span: id.Span})
	}
	return ids, nil
}
