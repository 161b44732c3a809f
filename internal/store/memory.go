package store

import (
	"sync"
	"time"
)

// Memory is an in-memory store, used by tests and sessions without a database.
type Memory struct {
	mu       sync.RWMutex
	order    []string
	versions map[string][]VersionEntry
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		versions: make(map[string][]VersionEntry),
		metadata: make(map[string]string),
	}
}

// Get retrieves a definition's source by name.
func (m *Memory) Get(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[name]
	if len(vs) == 0 {
		return "", nil
	}
	return vs[len(vs)-1].Source, nil
}

// Put stores a definition, appending a version unless the source is unchanged.
func (m *Memory) Put(name, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs, ok := m.versions[name]
	if !ok {
		m.order = append(m.order, name)
	}
	if len(vs) > 0 && vs[len(vs)-1].Source == source {
		return nil
	}
	m.versions[name] = append(vs, VersionEntry{
		Version: len(vs) + 1,
		Source:  source,
		Ts:      time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// Delete removes a definition and its history.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.versions[name]; !ok {
		return nil
	}
	delete(m.versions, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Names returns stored names in first-stored order.
func (m *Memory) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return nil, nil
	}
	return append([]string(nil), m.order...), nil
}

// GetHistory returns versions newest first.
func (m *Memory) GetHistory(name string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[name]
	if len(vs) == 0 {
		return nil, nil
	}
	out := make([]VersionEntry, 0, len(vs))
	for i := len(vs) - 1; i >= 0; i-- {
		out = append(out, vs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}

var (
	_ Store         = (*Memory)(nil)
	_ HistoryStore  = (*Memory)(nil)
	_ MetadataStore = (*Memory)(nil)
)
