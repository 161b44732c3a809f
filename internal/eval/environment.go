// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

// Environment is one runtime frame. Frames are shared by every closure
// that captured them and live as long as the longest holder.
type Environment struct {
	parent *Environment
	vars   map[string]Value
	order  []string
}

// NewEnvironment creates a frame below parent (nil for the global frame).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent: parent,
		vars:   make(map[string]Value),
	}
}

// Define binds name in this frame, replacing any existing binding here.
func (env *Environment) Define(name string, v Value) {
	if _, ok := env.vars[name]; !ok {
		env.order = append(env.order, name)
	}
	env.vars[name] = v
}

// Set updates the innermost visible binding of name. It reports false
// when name is not bound anywhere in the chain.
func (env *Environment) Set(name string, v Value) bool {
	for cur := env; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return true
		}
	}
	return false
}

// Get looks name up from this frame outwards.
func (env *Environment) Get(name string) (Value, bool) {
	for cur := env; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether name is bound in this frame only.
func (env *Environment) Has(name string) bool {
	_, ok := env.vars[name]
	return ok
}

// Names returns the names bound in this frame in definition order.
func (env *Environment) Names() []string {
	out := make([]string, len(env.order))
	copy(out, env.order)
	return out
}
