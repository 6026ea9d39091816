// Package progress drives the loader overlay. There is no real signal from
// the network layer; callers advance through fixed milestones.
package progress

import (
	"sync"
	"time"
)

const (
	Sent     = 30
	Received = 70
	Done     = 100

	DefaultMessage = "Analyse par IA en cours..."
	FadeDelay      = 300 * time.Millisecond
)

type Snapshot struct {
	Visible bool   `json:"visible"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

type Bar struct {
	mu    sync.Mutex
	snap  Snapshot
	fade  time.Duration
	timer *time.Timer
	gen   uint64
}

func NewBar(fade time.Duration) *Bar {
	return &Bar{fade: fade}
}

// Start shows the overlay at 0%, replacing any loader already visible.
func (b *Bar) Start(message string) {
	if message == "" {
		message = DefaultMessage
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimer()
	b.snap = Snapshot{Visible: true, Message: message}
}

func (b *Bar) Set(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	b.mu.Lock()
	b.snap.Percent = percent
	b.mu.Unlock()
}

// Finish jumps to 100% and hides after the fade delay.
func (b *Bar) Finish() {
	b.Set(Done)
	b.Hide()
}

// Hide fades the overlay out without touching the percentage.
func (b *Bar) Hide() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimer()
	if b.fade <= 0 {
		b.snap.Visible = false
		return
	}
	gen := b.gen
	b.timer = time.AfterFunc(b.fade, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.gen != gen {
			return
		}
		b.snap.Visible = false
		b.timer = nil
	})
}

func (b *Bar) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}

func (b *Bar) stopTimer() {
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// Registry keeps one Bar per client.
type Registry struct {
	mu   sync.Mutex
	bars map[string]*tracked
	fade time.Duration
	now  func() time.Time
}

type tracked struct {
	bar      *Bar
	lastUsed time.Time
}

func NewRegistry(fade time.Duration) *Registry {
	return &Registry{bars: map[string]*tracked{}, fade: fade, now: time.Now}
}

func (r *Registry) For(clientID string) *Bar {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.bars[clientID]
	if !ok {
		t = &tracked{bar: NewBar(r.fade)}
		r.bars[clientID] = t
	}
	t.lastUsed = r.now()
	return t.bar
}

// Prune drops hidden bars not asked for within idle.
func (r *Registry) Prune(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	dropped := 0
	for id, t := range r.bars {
		if now.Sub(t.lastUsed) < idle || t.bar.Snapshot().Visible {
			continue
		}
		delete(r.bars, id)
		dropped++
	}
	return dropped
}
