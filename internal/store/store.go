// Package store persists named top-level definitions as F source text.
package store

import (
	"fmt"
	"strings"
)

// Store is the interface for definition persistence.
type Store interface {
	// Get retrieves the source of a definition. Returns "" if not found.
	Get(name string) (string, error)
	// Put stores a definition's source by name, overwriting if it exists.
	Put(name, source string) error
	// Delete removes a definition and its history.
	Delete(name string) error
	// Names lists stored definitions in the order they were first stored.
	Names() ([]string, error)
	// Close releases resources.
	Close() error
}

// VersionEntry represents a single version of a persisted definition.
type VersionEntry struct {
	Version int
	Source  string
	Ts      string
}

// HistoryStore extends Store with version history queries.
type HistoryStore interface {
	// GetHistory returns versions newest first. A limit of 0 means all.
	GetHistory(name string, limit int) ([]VersionEntry, error)
}

// MetadataStore holds key/value metadata next to the definitions.
type MetadataStore interface {
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// PersistMode controls when definitions are persisted.
type PersistMode int

const (
	// PersistOnDemand is the default: only explicit Persist calls write.
	PersistOnDemand PersistMode = iota
	// PersistAlways saves every evaluated top-level func or setq.
	PersistAlways
	// PersistNever makes Persist a no-op.
	PersistNever
)

func (m PersistMode) String() string {
	switch m {
	case PersistOnDemand:
		return "on_demand"
	case PersistAlways:
		return "always"
	case PersistNever:
		return "never"
	default:
		return "unknown"
	}
}

// ParsePersistMode parses a persist mode name, case insensitively.
func ParsePersistMode(s string) (PersistMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "on_demand", "ondemand":
		return PersistOnDemand, nil
	case "always":
		return PersistAlways, nil
	case "never":
		return PersistNever, nil
	}
	return PersistOnDemand, fmt.Errorf("unknown persist mode %q (want on_demand, always or never)", s)
}
