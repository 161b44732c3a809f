// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package sem

// ScopeKind tags a lexical frame.
type ScopeKind int

const (
	GlobalScope ScopeKind = iota
	FunctionScope
	LoopScope
	ProgScope
)

func (k ScopeKind) String() string {
	switch k {
	case GlobalScope:
		return "global"
	case FunctionScope:
		return "function"
	case LoopScope:
		return "loop"
	case ProgScope:
		return "prog"
	}
	return "unknown"
}

// Scope is one compile-time frame. The parent link is used only for
// upward lookup.
type Scope struct {
	Name    string
	Kind    ScopeKind
	parent  *Scope
	symbols map[string]struct{}
}

// NewScope creates a frame below parent (nil for the global frame).
func NewScope(name string, kind ScopeKind, parent *Scope) *Scope {
	return &Scope{
		Name:    name,
		Kind:    kind,
		parent:  parent,
		symbols: make(map[string]struct{}),
	}
}

// NewGlobalScope creates a global frame with every builtin registered.
func NewGlobalScope() *Scope {
	s := NewScope("global", GlobalScope, nil)
	for _, name := range Builtins {
		s.TryAdd(name)
	}
	return s
}

// TryAdd registers name in this frame. It reports false if the name
// was already present here.
func (s *Scope) TryAdd(name string) bool {
	if _, ok := s.symbols[name]; ok {
		return false
	}
	s.symbols[name] = struct{}{}
	return true
}

// Remove drops name from this frame only.
func (s *Scope) Remove(name string) {
	delete(s.symbols, name)
}

// Has reports whether name is registered in this frame.
func (s *Scope) Has(name string) bool {
	_, ok := s.symbols[name]
	return ok
}

// Contains reports whether name resolves anywhere up the chain.
func (s *Scope) Contains(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.Has(name) {
			return true
		}
	}
	return false
}

// IsIn reports whether a frame of the given kind encloses s (s included).
func (s *Scope) IsIn(kind ScopeKind) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.Kind == kind {
			return true
		}
	}
	return false
}

// Len returns the number of names registered in this frame.
func (s *Scope) Len() int {
	return len(s.symbols)
}
