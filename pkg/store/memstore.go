package store

import "sync"

// MemProvider is an in-memory Provider for tests and ephemeral setups.
type MemProvider struct {
	mu         sync.Mutex
	namespaces map[string]*memStore
}

// NewMemProvider creates an empty in-memory provider.
func NewMemProvider() *MemProvider {
	return &MemProvider{namespaces: make(map[string]*memStore)}
}

// Open implements Provider. Reopening a namespace returns the same records.
func (p *MemProvider) Open(namespace string) (Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.namespaces[namespace]; ok {
		return s, nil
	}
	s := &memStore{
		bytes: make(map[string][]byte),
		bools: make(map[string]bool),
	}
	p.namespaces[namespace] = s
	return s, nil
}

type memStore struct {
	mu    sync.Mutex
	bytes map[string][]byte
	bools map[string]bool
}

func (m *memStore) GetBytes(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.bytes[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memStore) PutBytes(name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes[name] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) GetBool(name string, def bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.bools[name]; ok {
		return v
	}
	return def
}

func (m *memStore) PutBool(name string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bools[name] = value
	return nil
}
