package winreg

import (
	"strings"
	"sync"
)

// MemStore is an in-memory Store. It backs tests on every platform and is
// the stand-in implementation on non-Windows builds. Key paths and value
// names are case-insensitive, matching registry semantics.
type MemStore struct {
	mu     sync.Mutex
	keys   map[string]map[string]Value // normalized path -> name -> value
	labels map[string]string           // normalized path -> original spelling
}

// NewMemStore returns an empty in-memory registry.
func NewMemStore() *MemStore {
	return &MemStore{
		keys:   make(map[string]map[string]Value),
		labels: make(map[string]string),
	}
}

func normPath(path string) string {
	return strings.ToLower(strings.TrimSuffix(strings.ReplaceAll(path, "/", `\`), `\`))
}

func (m *MemStore) GetValue(path, name string) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals, ok := m.keys[normPath(path)]
	if !ok {
		return Value{}, ErrNotExist
	}
	v, ok := vals[strings.ToLower(name)]
	if !ok {
		return Value{}, ErrNotExist
	}
	return v, nil
}

func (m *MemStore) SetValue(path, name string, v Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureKeyLocked(path)
	m.keys[normPath(path)][strings.ToLower(name)] = v
	return nil
}

func (m *MemStore) DeleteValue(path, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vals, ok := m.keys[normPath(path)]; ok {
		delete(vals, strings.ToLower(name))
	}
	return nil
}

func (m *MemStore) KeyExists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[normPath(path)]
	return ok, nil
}

func (m *MemStore) CreateKey(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureKeyLocked(path)
	return nil
}

func (m *MemStore) DeleteKey(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, normPath(path))
	delete(m.labels, normPath(path))
	return nil
}

func (m *MemStore) ensureKeyLocked(path string) {
	np := normPath(path)
	if _, ok := m.keys[np]; !ok {
		m.keys[np] = make(map[string]Value)
		m.labels[np] = path
	}
}
