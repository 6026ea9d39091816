package analytics

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestEventsCarrySessionTime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	tr := newTrackerWithClock(clock.Now)

	tr.TrackPageView("/")
	clock.Advance(1500 * time.Millisecond)
	tr.TrackClick("generate-report-btn")
	clock.Advance(500 * time.Millisecond)
	tr.TrackFormSubmit("cancerForm")

	events := tr.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "pageview", events[0].Name)
	assert.Equal(t, int64(0), events[0].SessionTime)
	assert.Equal(t, "click", events[1].Name)
	assert.Equal(t, int64(1500), events[1].SessionTime)
	assert.Equal(t, "generate-report-btn", events[1].Data["elementId"])
	assert.Equal(t, int64(2000), events[2].SessionTime)
	assert.Equal(t, 2*time.Second, tr.SessionDuration())
}

func TestExportAndClear(t *testing.T) {
	tr := NewTracker()
	tr.TrackEvent("custom", nil)

	raw, err := tr.Export()
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "custom", decoded[0]["name"])
	assert.Equal(t, map[string]any{}, decoded[0]["data"])

	tr.Clear()
	assert.Empty(t, tr.Events())
}

func TestEventsReturnsCopy(t *testing.T) {
	tr := NewTracker()
	tr.TrackEvent("a", nil)
	events := tr.Events()
	events[0].Name = "mutated"
	assert.Equal(t, "a", tr.Events()[0].Name)
}

func TestRegistrySeparatesClients(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	r := NewRegistry()
	r.now = clock.Now

	r.For("alice").TrackPageView("/")
	clock.Advance(10 * time.Second)
	bob := r.For("bob")
	clock.Advance(250 * time.Millisecond)
	ev := bob.TrackClick("generate-report-btn")
	assert.Equal(t, int64(250), ev.SessionTime)

	r.For("bob").Clear()
	assert.Empty(t, r.For("bob").Events())
	assert.Len(t, r.For("alice").Events(), 1)
}

func TestRegistryPruneIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	r := NewRegistry()
	r.now = clock.Now

	old := r.For("old")
	old.TrackEvent("x", nil)
	clock.Advance(time.Hour)
	r.For("fresh")

	assert.Equal(t, 1, r.Prune(30*time.Minute))
	assert.NotSame(t, old, r.For("old"))
	assert.Empty(t, r.For("old").Events())
}
