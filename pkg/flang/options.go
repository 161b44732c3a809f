package flang

import (
	"io"

	"nickandperla.net/flang/internal/store"
)

// Option configures a Session.
type Option func(*Session)

// WithStore uses s for persisted definitions. The session closes it.
func WithStore(s Store) Option {
	return func(r *Session) {
		r.store = s
	}
}

// WithSQLiteStore configures SQLite persistence at the given path. An
// open failure is reported by Err.
func WithSQLiteStore(path string) Option {
	return func(r *Session) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.fail(err)
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Session) {
		r.store = store.NewMemory()
	}
}

// WithOptimize turns the optimizer on or off.
func WithOptimize(on bool) Option {
	return func(r *Session) {
		r.optimize = on
	}
}

// WithRounds bounds the optimizer's pipeline repetitions.
func WithRounds(n int) Option {
	return func(r *Session) {
		if n > 0 {
			r.rounds = n
		}
	}
}

// WithOutput sets where Run and RunFile print top-level results.
func WithOutput(w io.Writer) Option {
	return func(r *Session) {
		r.out = w
	}
}

// WithPrelude sets a custom prelude source to be loaded on startup.
// If not set, the embedded standard prelude is used.
func WithPrelude(source string) Option {
	return func(r *Session) {
		r.prelude = source
	}
}

// WithNoStdlib disables loading the prelude.
func WithNoStdlib() Option {
	return func(r *Session) {
		r.noStdlib = true
	}
}

// WithPersistMode sets the persistence mode.
func WithPersistMode(mode PersistMode) Option {
	return func(r *Session) {
		r.persistMode = mode
	}
}

// Store interface for custom stores.
type Store = store.Store

// VersionEntry is one stored version of a definition.
type VersionEntry = store.VersionEntry

// PersistMode controls when definitions are persisted.
type PersistMode = store.PersistMode

// Persist mode constants.
const (
	PersistOnDemand = store.PersistOnDemand
	PersistAlways   = store.PersistAlways
	PersistNever    = store.PersistNever
)

// ParsePersistMode parses a string into a PersistMode.
func ParsePersistMode(s string) (PersistMode, error) {
	return store.ParsePersistMode(s)
}
