package flang

import (
	"errors"
	"fmt"

	"nickandperla.net/flang/internal/log"
	"nickandperla.net/flang/internal/sem"
	"nickandperla.net/flang/internal/store"
)

// metadata key of a prelude saved in the store
const preludeKey = "prelude"

// ErrNoStore is returned by persistence operations on a session without a store.
var ErrNoStore = errors.New("no store configured")

// definedName returns the name a top-level form defines, if any.
func definedName(e sem.Elem) (string, bool) {
	switch n := e.(type) {
	case *sem.Fun:
		return n.Name.Name, true
	case *sem.Setq:
		return n.Name.Name, true
	}
	return "", false
}

// define records the source of a top-level definition and saves it when
// the session persists everything.
func (s *Session) define(e sem.Elem) error {
	name, ok := definedName(e)
	if !ok {
		return nil
	}
	src := sem.Format(e)
	s.defs[name] = src
	if s.persistMode != store.PersistAlways || s.store == nil || s.inPrelude {
		return nil
	}
	return s.put(name, src)
}

func (s *Session) put(name, src string) error {
	if err := s.store.Put(name, src); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	log.Debug("persisted %s", name)
	return nil
}

// Persist saves the latest top-level definition of name. It is a no-op
// in PersistNever mode.
func (s *Session) Persist(name string) error {
	if s.persistMode == store.PersistNever {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	src, ok := s.defs[name]
	if !ok {
		return fmt.Errorf("no top-level definition of %s", name)
	}
	return s.put(name, src)
}

// Restore evaluates every stored definition in the order they were first
// stored and returns how many were restored. Names the session already
// binds are skipped.
func (s *Session) Restore() (int, error) {
	if s.store == nil {
		return 0, ErrNoStore
	}
	names, err := s.store.Names()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, name := range names {
		if _, bound := s.Lookup(name); bound {
			log.Debug("restore: %s already bound, skipped", name)
			continue
		}
		src, err := s.store.Get(name)
		if err != nil {
			return n, err
		}
		if src == "" {
			continue
		}
		if _, err := s.EvalValues(src); err != nil {
			return n, fmt.Errorf("restore %s: %w", name, err)
		}
		n++
	}
	return n, nil
}

// History returns the stored versions of name, newest first. A limit of
// 0 returns all of them.
func (s *Session) History(name string, limit int) ([]VersionEntry, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	hs, ok := s.store.(store.HistoryStore)
	if !ok {
		return nil, fmt.Errorf("store does not keep history")
	}
	return hs.GetHistory(name, limit)
}

// SavePrelude stores src as the prelude of later sessions on the same
// store. An empty src restores the embedded prelude.
func (s *Session) SavePrelude(src string) error {
	ms, ok := s.store.(store.MetadataStore)
	if !ok {
		return ErrNoStore
	}
	return ms.SetMetadata(preludeKey, src)
}
