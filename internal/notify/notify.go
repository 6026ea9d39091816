// Package notify keeps transient user-facing banners. Each client has its own
// ordered list; entries remove themselves when their timer fires.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return true
	}
	return false
}

type Notification struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type entry struct {
	n     Notification
	timer *time.Timer
}

type Manager struct {
	mu       sync.Mutex
	items    []*entry
	duration time.Duration
	now      func() time.Time
}

// NewManager uses duration for the Success/Error/Warning/Info shortcuts.
func NewManager(duration time.Duration) *Manager {
	return &Manager{duration: duration, now: time.Now}
}

// Show appends a notification. A non-positive duration keeps it until removed.
func (m *Manager) Show(kind Kind, message string, duration time.Duration) Notification {
	if !kind.Valid() {
		kind = KindInfo
	}
	now := m.now()
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
	}
	if duration > 0 {
		exp := now.Add(duration)
		n.ExpiresAt = &exp
	}
	e := &entry{n: n}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, e)
	if duration > 0 {
		id := n.ID
		e.timer = time.AfterFunc(duration, func() { m.Remove(id) })
	}
	return n
}

func (m *Manager) Success(message string) Notification {
	return m.Show(KindSuccess, message, m.duration)
}

func (m *Manager) Error(message string) Notification {
	return m.Show(KindError, message, m.duration)
}

func (m *Manager) Warning(message string) Notification {
	return m.Show(KindWarning, message, m.duration)
}

func (m *Manager) Info(message string) Notification {
	return m.Show(KindInfo, message, m.duration)
}

// Remove reports whether id was still present.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.items {
		if e.n.ID != id {
			continue
		}
		if e.timer != nil {
			e.timer.Stop()
		}
		m.items = append(m.items[:i], m.items[i+1:]...)
		return true
	}
	return false
}

// List returns the live notifications, oldest first.
func (m *Manager) List() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, 0, len(m.items))
	for _, e := range m.items {
		out = append(out, e.n)
	}
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	m.items = nil
}

// Center hands out one Manager per client id.
type Center struct {
	mu       sync.Mutex
	managers map[string]*held
	duration time.Duration
	now      func() time.Time
}

type held struct {
	m        *Manager
	lastUsed time.Time
}

func NewCenter(duration time.Duration) *Center {
	return &Center{managers: map[string]*held{}, duration: duration, now: time.Now}
}

// For returns the client's manager and marks it as used.
func (c *Center) For(clientID string) *Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.managers[clientID]
	if !ok {
		h = &held{m: NewManager(c.duration)}
		c.managers[clientID] = h
	}
	h.lastUsed = c.now()
	return h.m
}

// Prune drops managers that hold nothing and have not been asked for within
// idle, and returns how many went. A manager handed out less than idle ago is
// never dropped, so callers may keep using it for the rest of a request.
func (c *Center) Prune(idle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	dropped := 0
	for id, h := range c.managers {
		if now.Sub(h.lastUsed) < idle || h.m.Len() > 0 {
			continue
		}
		delete(c.managers, id)
		dropped++
	}
	return dropped
}
