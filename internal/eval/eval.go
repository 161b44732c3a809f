// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval implements the F evaluator: a tree-walking interpreter
// over analyzed programs with closures and builtins.
package eval

import (
	"nickandperla.net/flang/internal/log"
	"nickandperla.net/flang/internal/sem"
)

// Flow says how evaluation of a node ended.
type Flow int

const (
	Normal Flow = iota
	// Returning unwinds to the nearest function call.
	Returning
	// Breaking unwinds to the nearest while loop.
	Breaking
)

func (f Flow) String() string {
	switch f {
	case Normal:
		return "normal"
	case Returning:
		return "returning"
	case Breaking:
		return "breaking"
	}
	return "unknown"
}

// Outcome is the result of evaluating a node. Control signals travel
// here, never through the error return.
type Outcome struct {
	Flow  Flow
	Value Value
}

func normal(v Value) Outcome { return Outcome{Flow: Normal, Value: v} }

// Evaluator interprets analyzed programs against a global environment
// that persists across calls.
type Evaluator struct {
	global *Environment
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithGlobal evaluates against an existing global environment. Builtins
// are only installed for names it does not bind yet.
func WithGlobal(env *Environment) Option {
	return func(e *Evaluator) { e.global = env }
}

// New creates an Evaluator with every builtin bound in its global frame.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.global == nil {
		e.global = NewEnvironment(nil)
	}
	for _, name := range sem.Builtins {
		if e.global.Has(name) {
			continue
		}
		e.global.Define(name, &Builtin{Name: name, Fn: getBuiltin(name)})
	}
	return e
}

// Global returns the global environment.
func (e *Evaluator) Global() *Environment {
	return e.global
}

// Interpret evaluates one top-level element.
func (e *Evaluator) Interpret(elem sem.Elem) (Value, error) {
	if log.Log.Enabled(log.TRACE) {
		log.Trace("eval: %s", sem.Format(elem))
	}
	return e.top(elem, e.global)
}

// InterpretAll evaluates elements in order, stopping at the first error.
func (e *Evaluator) InterpretAll(elems []sem.Elem) ([]Value, error) {
	out := make([]Value, 0, len(elems))
	for _, elem := range elems {
		v, err := e.Interpret(elem)
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Evaluator) top(elem sem.Elem, env *Environment) (Value, error) {
	out, err := e.eval(elem, env)
	if err != nil {
		return nil, err
	}
	if out.Flow == Breaking {
		return nil, &RuntimeError{Kind: KindControl, Msg: "break outside loop", Span: elem.Pos()}
	}
	return out.Value, nil
}

func (e *Evaluator) eval(elem sem.Elem, env *Environment) (Outcome, error) {
	switch n := elem.(type) {
	case *sem.Integer:
		return normal(Integer(n.Value)), nil
	case *sem.Real:
		return normal(Real(n.Value)), nil
	case *sem.Bool:
		return normal(Bool(n.Value)), nil
	case *sem.Null:
		return normal(Null{}), nil
	case *sem.Quote:
		return normal(FromNode(n.Datum)), nil
	case *sem.Ident:
		v, ok := env.Get(n.Name)
		if !ok {
			return Outcome{}, &RuntimeError{Kind: KindUnbound, Msg: "unbound identifier " + n.Name, Span: n.Span}
		}
		return normal(v), nil
	case *sem.Setq:
		out, err := e.eval(n.Value, env)
		if err != nil || out.Flow != Normal {
			return out, err
		}
		if !env.Set(n.Name.Name, out.Value) {
			env.Define(n.Name.Name, out.Value)
		}
		return out, nil
	case *sem.Fun:
		fn := &Function{
			Name:    n.Name.Name,
			Params:  paramNames(n.Params),
			Body:    n.Body,
			Closure: NewEnvironment(env),
		}
		env.Define(fn.Name, fn)
		return normal(fn), nil
	case *sem.Lambda:
		return normal(&Function{Params: paramNames(n.Params), Body: n.Body, Closure: NewEnvironment(env)}), nil
	case *sem.Prog:
		return e.evalProg(n, env)
	case *sem.Cond:
		return e.evalCond(n, env)
	case *sem.While:
		return e.evalWhile(n, env)
	case *sem.Return:
		out, err := e.eval(n.Value, env)
		if err != nil || out.Flow != Normal {
			return out, err
		}
		return Outcome{Flow: Returning, Value: out.Value}, nil
	case *sem.Break:
		return Outcome{Flow: Breaking, Value: Null{}}, nil
	case *sem.FunApp:
		return e.evalApp(n, env)
	}
	return Outcome{}, runtimeErrorf(KindType, "cannot evaluate %T", elem)
}

func (e *Evaluator) evalProg(n *sem.Prog, env *Environment) (Outcome, error) {
	local := NewEnvironment(env)
	for _, v := range n.Vars {
		local.Define(v.Name, Null{})
	}
	for _, stmt := range n.Body {
		out, err := e.eval(stmt, local)
		if err != nil || out.Flow != Normal {
			return out, err
		}
	}
	return e.eval(n.Last, local)
}

func (e *Evaluator) evalCond(n *sem.Cond, env *Environment) (Outcome, error) {
	out, err := e.eval(n.Cond, env)
	if err != nil || out.Flow != Normal {
		return out, err
	}
	b, ok := out.Value.(Bool)
	if !ok {
		return Outcome{}, &RuntimeError{Kind: KindType, Msg: "cond expects a bool, got " + TypeName(out.Value), Span: n.Span}
	}
	if b {
		return e.eval(n.Then, env)
	}
	if n.Else != nil {
		return e.eval(n.Else, env)
	}
	return normal(Null{}), nil
}

func (e *Evaluator) evalWhile(n *sem.While, env *Environment) (Outcome, error) {
	local := NewEnvironment(env)
	for {
		out, err := e.eval(n.Cond, local)
		if err != nil || out.Flow != Normal {
			return out, err
		}
		// anything but true ends the loop
		if b, ok := out.Value.(Bool); !ok || !bool(b) {
			break
		}
		out, err = e.eval(n.Body, local)
		if err != nil {
			return out, err
		}
		if out.Flow == Breaking {
			break
		}
		if out.Flow == Returning {
			return out, nil
		}
	}
	return normal(Null{}), nil
}

func (e *Evaluator) evalApp(n *sem.FunApp, env *Environment) (Outcome, error) {
	out, err := e.eval(n.Callee, env)
	if err != nil || out.Flow != Normal {
		return out, err
	}
	callee := out.Value
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		out, err := e.eval(a, env)
		if err != nil || out.Flow != Normal {
			return out, err
		}
		args = append(args, out.Value)
	}
	v, err := e.Apply(callee, args)
	if err != nil {
		return Outcome{}, at(err, n.Span)
	}
	return normal(v), nil
}

// Apply calls fn with already evaluated arguments.
func (e *Evaluator) Apply(fn Value, args []Value) (Value, error) {
	switch fn := fn.(type) {
	case *Builtin:
		return fn.Fn(e, args)
	case *Function:
		if len(args) != len(fn.Params) {
			return nil, runtimeErrorf(KindArity, "%s expects %d arguments, got %d", fn.displayName(), len(fn.Params), len(args))
		}
		local := NewEnvironment(fn.Closure)
		for i, p := range fn.Params {
			local.Define(p, args[i])
		}
		out, err := e.eval(fn.Body, local)
		if err != nil {
			return nil, err
		}
		if out.Flow == Breaking {
			return nil, runtimeErrorf(KindControl, "break outside loop")
		}
		return out.Value, nil
	}
	s, _ := Format(fn)
	return nil, runtimeErrorf(KindNotCallable, "attempt to call non-function %s", s)
}

func (fn *Function) displayName() string {
	if fn.Name == "" {
		return "lambda"
	}
	return fn.Name
}

func paramNames(ids []*sem.Ident) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Name
	}
	return out
}
