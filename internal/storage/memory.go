package storage

import (
	"context"
	"sync"
	"time"
)

// Memory keeps values per namespace and remembers when each namespace was
// last read or written so idle ones can be swept.
type Memory struct {
	mu       sync.Mutex
	data     map[string]map[string][]byte
	lastUsed map[string]time.Time
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		data:     map[string]map[string][]byte{},
		lastUsed: map[string]time.Time{},
		now:      time.Now,
	}
}

func (m *Memory) Load(_ context.Context, namespace, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[namespace]
	if !ok {
		return nil, false, nil
	}
	m.lastUsed[namespace] = m.now()
	val, ok := bucket[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (m *Memory) Save(_ context.Context, namespace, key string, value []byte) error {
	if err := keyError(namespace, key); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[namespace]
	if !ok {
		bucket = map[string][]byte{}
		m.data[namespace] = bucket
	}
	bucket[key] = stored
	m.lastUsed[namespace] = m.now()
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bucket, ok := m.data[namespace]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			m.drop(namespace)
		}
	}
	return nil
}

func (m *Memory) Clear(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop(namespace)
	return nil
}

// Sweep drops namespaces untouched for at least idle and returns how many.
func (m *Memory) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	dropped := 0
	for ns, at := range m.lastUsed {
		if now.Sub(at) < idle {
			continue
		}
		m.drop(ns)
		dropped++
	}
	return dropped
}

func (m *Memory) drop(namespace string) {
	delete(m.data, namespace)
	delete(m.lastUsed, namespace)
}
