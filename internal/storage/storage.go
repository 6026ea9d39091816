// Package storage is a key/value store with two scopes: persistent values
// survive restarts when a durable backend is configured, session values live
// in memory only. Values are kept as JSON text.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skufu/risklens/internal/logger"
)

type Scope string

const (
	ScopePersistent Scope = "local"
	ScopeSession    Scope = "session"
)

// ErrUnknownScope is returned by ParseScope for names other than "local",
// "persistent" and "session".
var ErrUnknownScope = errors.New("unknown storage scope")

// ParseScope maps "local" and "persistent" to the persistent scope and
// "session" to the session scope.
func ParseScope(raw string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ScopePersistent), "persistent":
		return ScopePersistent, nil
	case string(ScopeSession):
		return ScopeSession, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, raw)
}

type Backend interface {
	Load(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Save(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Clear(ctx context.Context, namespace string) error
}

// Manager never returns errors; failures are logged and reported as false.
type Manager struct {
	persistent Backend
	session    Backend
}

// NewManager falls back to memory for any nil backend.
func NewManager(persistent, session Backend) *Manager {
	if persistent == nil {
		persistent = NewMemory()
	}
	if session == nil {
		session = NewMemory()
	}
	return &Manager{persistent: persistent, session: session}
}

func (m *Manager) backend(scope Scope) Backend {
	if scope == ScopeSession {
		return m.session
	}
	return m.persistent
}

func (m *Manager) Set(ctx context.Context, namespace string, scope Scope, key string, value any) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Errorf("storage error: encode %s/%s: %v", scope, key, err)
		return false
	}
	if err := m.backend(scope).Save(ctx, namespace, key, raw); err != nil {
		logger.Errorf("storage error: save %s/%s: %v", scope, key, err)
		return false
	}
	return true
}

// Get decodes the stored value into dst. It reports false when the key is
// missing or the value cannot be read.
func (m *Manager) Get(ctx context.Context, namespace string, scope Scope, key string, dst any) bool {
	raw, ok, err := m.backend(scope).Load(ctx, namespace, key)
	if err != nil {
		logger.Errorf("storage error: load %s/%s: %v", scope, key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Errorf("storage error: decode %s/%s: %v", scope, key, err)
		return false
	}
	return true
}

// GetRaw returns the stored JSON text.
func (m *Manager) GetRaw(ctx context.Context, namespace string, scope Scope, key string) (json.RawMessage, bool) {
	raw, ok, err := m.backend(scope).Load(ctx, namespace, key)
	if err != nil {
		logger.Errorf("storage error: load %s/%s: %v", scope, key, err)
		return nil, false
	}
	return raw, ok
}

func (m *Manager) Remove(ctx context.Context, namespace string, scope Scope, key string) bool {
	if err := m.backend(scope).Delete(ctx, namespace, key); err != nil {
		logger.Errorf("storage error: delete %s/%s: %v", scope, key, err)
		return false
	}
	return true
}

func (m *Manager) Clear(ctx context.Context, namespace string, scope Scope) bool {
	if err := m.backend(scope).Clear(ctx, namespace); err != nil {
		logger.Errorf("storage error: clear %s: %v", scope, err)
		return false
	}
	return true
}

// SweepSession drops session-scope namespaces idle for at least idle when the
// session backend supports it.
func (m *Manager) SweepSession(idle time.Duration) int {
	sw, ok := m.session.(interface{ Sweep(time.Duration) int })
	if !ok {
		return 0
	}
	return sw.Sweep(idle)
}

func keyError(namespace, key string) error {
	if namespace == "" {
		return fmt.Errorf("empty namespace")
	}
	if key == "" {
		return fmt.Errorf("empty key")
	}
	return nil
}
