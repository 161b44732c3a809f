// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package flang provides the public API for the F interpreter.
package flang

import (
	"fmt"
	"io"
	"os"
	"strings"

	"nickandperla.net/flang/internal/eval"
	"nickandperla.net/flang/internal/expr"
	"nickandperla.net/flang/internal/log"
	"nickandperla.net/flang/internal/optimize"
	"nickandperla.net/flang/internal/parser"
	"nickandperla.net/flang/internal/sem"
	"nickandperla.net/flang/internal/stdlib"
	"nickandperla.net/flang/internal/store"
)

// Session is an F interpreter session. It owns the analysis scope and the
// global environment, so definitions persist from one call to the next.
type Session struct {
	analyzer  *sem.Analyzer
	evaluator *eval.Evaluator
	store     store.Store
	out       io.Writer

	optimize    bool
	rounds      int
	prelude     string // Custom prelude source (if empty, uses stdlib.Prelude)
	noStdlib    bool   // If true, skip loading prelude
	persistMode store.PersistMode

	// source of the latest top-level definition of each name
	defs map[string]string
	// builtins that user code has rebound
	shadowed map[string]bool
	// set while the prelude loads, so its definitions are never auto-persisted
	inPrelude bool

	err error
}

// New creates a Session with the given options. Errors while opening the
// store or loading the prelude are reported by Err.
func New(opts ...Option) *Session {
	s := &Session{
		analyzer:  sem.NewAnalyzer(),
		evaluator: eval.New(),
		optimize:  true,
		rounds:    optimize.DefaultRounds,
		defs:      make(map[string]string),
		shadowed:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.noStdlib {
		prelude := s.prelude
		if prelude == "" {
			prelude = stdlib.Prelude
		}
		// A prelude saved in the database takes precedence.
		if ms, ok := s.store.(store.MetadataStore); ok {
			if saved, err := ms.GetMetadata(preludeKey); err == nil && saved != "" {
				prelude = saved
			}
		}
		s.inPrelude = true
		if _, err := s.Eval(prelude); err != nil {
			s.fail(fmt.Errorf("prelude: %w", err))
		}
		s.inPrelude = false
	}
	return s
}

func (s *Session) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Err returns the first error met while setting up the session.
func (s *Session) Err() error {
	return s.err
}

// Lookup returns the global binding of name.
func (s *Session) Lookup(name string) (eval.Value, bool) {
	return s.evaluator.Global().Get(name)
}

// Eval evaluates src one top-level form at a time, the way an interactive
// session does, and returns the printed results joined by newlines. It
// stops at the first failing form; forms before it keep their effects.
func (s *Session) Eval(src string) (string, error) {
	values, err := s.EvalValues(src)
	return formatValues(values), err
}

// EvalValues is Eval returning the values of the evaluated forms.
func (s *Session) EvalValues(src string) ([]eval.Value, error) {
	nodes, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	var values []eval.Value
	for _, n := range nodes {
		v, err := s.evalForm(n)
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (s *Session) evalForm(n expr.Node) (eval.Value, error) {
	elem, err := s.analyzer.AnalyzeForm(n)
	if err != nil {
		return nil, err
	}
	s.noteShadowed([]sem.Elem{elem})
	prog := []sem.Elem{elem}
	if s.optimize {
		prog = s.optimizer(false).Optimize(prog)
	}
	var v eval.Value = eval.Null{}
	for _, e := range prog {
		if v, err = s.evaluator.Interpret(e); err != nil {
			return nil, err
		}
	}
	if err := s.define(elem); err != nil {
		return v, err
	}
	return v, nil
}

// Run evaluates src as one program: every form is analyzed first, the
// program is optimized as a unit, then interpreted. Results are printed to
// the session output.
func (s *Session) Run(src string) ([]eval.Value, error) {
	elems, err := s.program(src, s.analyzer)
	if err != nil {
		return nil, err
	}
	s.noteShadowed(elems)
	original := elems
	if s.optimize {
		elems = s.optimizer(true).Optimize(elems)
	}
	values := make([]eval.Value, 0, len(elems))
	for _, e := range elems {
		v, err := s.evaluator.Interpret(e)
		if err != nil {
			return values, err
		}
		values = append(values, v)
		s.print(v)
	}
	kept := make(map[string]bool)
	for _, e := range elems {
		if name, ok := definedName(e); ok {
			kept[name] = true
		}
	}
	for _, e := range original {
		if name, ok := definedName(e); ok && !kept[name] {
			s.forgetPruned(name)
			continue
		}
		if err := s.define(e); err != nil {
			return values, err
		}
	}
	return values, nil
}

// forgetPruned drops a name whose every declaration the optimizer removed,
// so later input sees it as undeclared rather than unbound at run time.
func (s *Session) forgetPruned(name string) {
	if _, bound := s.evaluator.Global().Get(name); bound {
		return
	}
	s.analyzer.Global().Remove(name)
	log.Debug("pruned %s", name)
}

// RunFile runs the program in the file at path.
func (s *Session) RunFile(path string) ([]eval.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Run(string(src))
}

// LoadFile evaluates the file at path form by form for its definitions,
// discarding the results.
func (s *Session) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := s.EvalValues(string(src)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Debug("loaded %s", path)
	return nil
}

// Program analyzes and, when enabled, optimizes src without evaluating it
// or changing the session.
func (s *Session) Program(src string) ([]sem.Elem, error) {
	scope := sem.NewGlobalScope()
	for _, name := range s.evaluator.Global().Names() {
		scope.TryAdd(name)
	}
	elems, err := s.program(src, sem.NewAnalyzerWithScope(scope))
	if err != nil {
		return nil, err
	}
	if s.optimize {
		elems = s.optimizer(true).Optimize(elems)
	}
	return elems, nil
}

func (s *Session) program(src string, a *sem.Analyzer) ([]sem.Elem, error) {
	nodes, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return a.Analyze(nodes)
}

func (s *Session) optimizer(pruneTopLevel bool) *optimize.Optimizer {
	shadowed := make([]string, 0, len(s.shadowed))
	for name := range s.shadowed {
		shadowed = append(shadowed, name)
	}
	return optimize.New(
		optimize.WithRounds(s.rounds),
		optimize.WithTopLevelPruning(pruneTopLevel),
		optimize.WithShadowedBuiltins(shadowed...),
	)
}

// noteShadowed records builtins that elems rebind, so that later input is
// not folded or inlined against the original builtin.
func (s *Session) noteShadowed(elems []sem.Elem) {
	for _, name := range boundBuiltins(elems) {
		s.shadowed[name] = true
	}
}

func boundBuiltins(elems []sem.Elem) []string {
	var out []string
	mark := func(id *sem.Ident) {
		if sem.IsBuiltin(id.Name) {
			out = append(out, id.Name)
		}
	}
	usesEval := false
	var quoted []string
	for _, elem := range elems {
		sem.Inspect(elem, func(e sem.Elem) bool {
			switch n := e.(type) {
			case *sem.Setq:
				mark(n.Name)
			case *sem.Fun:
				mark(n.Name)
				for _, p := range n.Params {
					mark(p)
				}
			case *sem.Lambda:
				for _, p := range n.Params {
					mark(p)
				}
			case *sem.Prog:
				for _, v := range n.Vars {
					mark(v)
				}
			case *sem.Ident:
				if n.Name == "eval" {
					usesEval = true
				}
			case *sem.Quote:
				sem.QuotedIdents(n.Datum, func(name string) {
					if sem.IsBuiltin(name) {
						quoted = append(quoted, name)
					}
				})
			}
			return true
		})
	}
	if usesEval {
		out = append(out, quoted...)
	}
	return out
}

func (s *Session) print(v eval.Value) {
	if s.out == nil {
		return
	}
	if text, ok := eval.Format(v); ok {
		fmt.Fprintln(s.out, text)
	}
}

func formatValues(values []eval.Value) string {
	var lines []string
	for _, v := range values {
		if text, ok := eval.Format(v); ok {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// Close releases resources.
func (s *Session) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
