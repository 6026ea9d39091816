// Package analytics records UI events in memory, one log per client session.
// Nothing is persisted or sent anywhere; Export is the only way events leave
// the process.
package analytics

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Skufu/risklens/internal/logger"
)

type Event struct {
	Name        string         `json:"name"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data"`
	SessionTime int64          `json:"sessionTime"`
}

type Tracker struct {
	mu     sync.Mutex
	events []Event
	start  time.Time
	now    func() time.Time
}

func NewTracker() *Tracker {
	return newTrackerWithClock(time.Now)
}

func newTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{start: now(), now: now}
}

// TrackEvent appends an event stamped with milliseconds since the session started.
func (t *Tracker) TrackEvent(name string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	now := t.now()

	t.mu.Lock()
	ev := Event{
		Name:        name,
		Timestamp:   now.UTC(),
		Data:        data,
		SessionTime: now.Sub(t.start).Milliseconds(),
	}
	t.events = append(t.events, ev)
	t.mu.Unlock()

	logger.Debugf("event tracked: %s %v (+%dms)", ev.Name, ev.Data, ev.SessionTime)
	return ev
}

func (t *Tracker) TrackPageView(page string) Event {
	return t.TrackEvent("pageview", map[string]any{"page": page})
}

func (t *Tracker) TrackClick(elementID string) Event {
	return t.TrackEvent("click", map[string]any{"elementId": elementID})
}

func (t *Tracker) TrackFormSubmit(formID string) Event {
	return t.TrackEvent("form_submit", map[string]any{"formId": formID})
}

// Events returns a copy of the log in insertion order.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

func (t *Tracker) SessionDuration() time.Duration {
	return t.now().Sub(t.start)
}

func (t *Tracker) Export() ([]byte, error) {
	return json.MarshalIndent(t.Events(), "", "  ")
}

func (t *Tracker) Clear() {
	t.mu.Lock()
	t.events = nil
	t.mu.Unlock()
}

// Registry keeps one Tracker per client. A tracker's session starts when the
// client is first seen.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*session
	now      func() time.Time
}

type session struct {
	t        *Tracker
	lastUsed time.Time
}

func NewRegistry() *Registry {
	return &Registry{trackers: map[string]*session{}, now: time.Now}
}

func (r *Registry) For(clientID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.trackers[clientID]
	if !ok {
		s = &session{t: newTrackerWithClock(r.now)}
		r.trackers[clientID] = s
	}
	s.lastUsed = r.now()
	return s.t
}

// Prune ends sessions not seen within idle; their events are discarded.
func (r *Registry) Prune(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	dropped := 0
	for id, s := range r.trackers {
		if now.Sub(s.lastUsed) < idle {
			continue
		}
		delete(r.trackers, id)
		dropped++
	}
	return dropped
}
