// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package optimize rewrites analyzed programs: it removes dead
// declarations, inlines small non-recursive functions and folds
// arithmetic on literals. Rewrites never change the result of a
// well-scoped program.
package optimize

import (
	"nickandperla.net/flang/internal/log"
	"nickandperla.net/flang/internal/sem"
)

// DefaultRounds bounds how often the pass pipeline is repeated. Programs
// reach a fixpoint well before it: recursive functions are never inlined
// and a function can only call functions declared before it.
const DefaultRounds = 64

// Stats counts what the last Optimize call did.
type Stats struct {
	Rounds  int
	Removed int
	Inlined int
	Folded  int
}

// Optimizer holds rewrite settings.
type Optimizer struct {
	rounds          int
	pruneTopLevel   bool
	shadowedOutside map[string]bool
	stats           Stats
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithRounds sets the maximum number of pipeline rounds.
func WithRounds(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.rounds = n
		}
	}
}

// WithTopLevelPruning controls removal of unused top-level declarations.
// An interactive session turns it off because later input may use them.
func WithTopLevelPruning(on bool) Option {
	return func(o *Optimizer) {
		o.pruneTopLevel = on
	}
}

// WithShadowedBuiltins names builtins rebound by code outside the
// program being optimized, such as earlier REPL input.
func WithShadowedBuiltins(names ...string) Option {
	return func(o *Optimizer) {
		for _, n := range names {
			o.shadowedOutside[n] = true
		}
	}
}

// New creates an Optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		rounds:          DefaultRounds,
		pruneTopLevel:   true,
		shadowedOutside: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize rewrites prog with default settings.
func Optimize(prog []sem.Elem, opts ...Option) []sem.Elem {
	return New(opts...).Optimize(prog)
}

// Stats returns the counters of the last Optimize call.
func (o *Optimizer) Stats() Stats {
	return o.stats
}

// Optimize runs rounds of the pipeline until the program stops changing
// or the round limit is reached. The input is not modified.
func (o *Optimizer) Optimize(prog []sem.Elem) []sem.Elem {
	o.stats = Stats{}
	text := sem.FormatAll(prog)
	for o.stats.Rounds < o.rounds {
		prog = o.round(prog)
		o.stats.Rounds++
		next := sem.FormatAll(prog)
		if next == text {
			break
		}
		text = next
	}
	log.Debug("optimizer: %d rounds, %d removed, %d inlined, %d folded",
		o.stats.Rounds, o.stats.Removed, o.stats.Inlined, o.stats.Folded)
	return prog
}

func (o *Optimizer) round(prog []sem.Elem) []sem.Elem {
	prog = o.removeUnused(prog, collect(prog, o.shadowedOutside))
	prog = o.inline(prog, collect(prog, o.shadowedOutside))
	f := collect(prog, o.shadowedOutside)
	prog = o.removeUnused(prog, f)
	out := make([]sem.Elem, len(prog))
	for i, e := range prog {
		out[i] = o.fold(e, f)
	}
	return out
}

// rebuild returns a copy of e whose direct children are replaced by fn.
func rebuild(e sem.Elem, fn func(sem.Elem) sem.Elem) sem.Elem {
	ex := func(x sem.Expr) sem.Expr {
		if x == nil {
			return nil
		}
		return fn(x).(sem.Expr)
	}
	switch n := e.(type) {
	case *sem.Setq:
		return &sem.Setq{Name: n.Name, Value: ex(n.Value)}
	case *sem.Fun:
		return &sem.Fun{Name: n.Name, Params: n.Params, Body: ex(n.Body)}
	case *sem.Lambda:
		return &sem.Lambda{Params: n.Params, Body: ex(n.Body), Span: n.Span}
	case *sem.Prog:
		body := make([]sem.Elem, len(n.Body))
		for i, b := range n.Body {
			body[i] = fn(b)
		}
		return &sem.Prog{Vars: n.Vars, Body: body, Last: ex(n.Last), Span: n.Span}
	case *sem.Cond:
		return &sem.Cond{Cond: ex(n.Cond), Then: ex(n.Then), Else: ex(n.Else), Span: n.Span}
	case *sem.While:
		return &sem.While{Cond: ex(n.Cond), Body: ex(n.Body), Span: n.Span}
	case *sem.Return:
		return &sem.Return{Value: ex(n.Value), Span: n.Span}
	case *sem.FunApp:
		args := make([]sem.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = ex(a)
		}
		return &sem.FunApp{Callee: ex(n.Callee), Args: args, Span: n.Span}
	}
	return e
}
