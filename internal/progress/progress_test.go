package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilestones(t *testing.T) {
	b := NewBar(0)
	b.Start("")
	assert.Equal(t, Snapshot{Visible: true, Message: DefaultMessage}, b.Snapshot())

	b.Set(Sent)
	assert.Equal(t, 30, b.Snapshot().Percent)
	b.Set(Received)
	assert.Equal(t, 70, b.Snapshot().Percent)

	b.Finish()
	snap := b.Snapshot()
	assert.Equal(t, 100, snap.Percent)
	assert.False(t, snap.Visible)
}

func TestSetClamps(t *testing.T) {
	b := NewBar(0)
	b.Set(150)
	assert.Equal(t, 100, b.Snapshot().Percent)
	b.Set(-3)
	assert.Equal(t, 0, b.Snapshot().Percent)
}

func TestHideAfterFade(t *testing.T) {
	b := NewBar(20 * time.Millisecond)
	b.Start("Génération...")
	b.Hide()
	assert.True(t, b.Snapshot().Visible)
	require.Eventually(t, func() bool { return !b.Snapshot().Visible }, time.Second, 5*time.Millisecond)
}

func TestStartCancelsPendingFade(t *testing.T) {
	b := NewBar(20 * time.Millisecond)
	b.Start("first")
	b.Hide()
	b.Start("second")
	time.Sleep(50 * time.Millisecond)
	snap := b.Snapshot()
	assert.True(t, snap.Visible)
	assert.Equal(t, "second", snap.Message)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(0)
	r.For("a").Start("x")
	r.For("b")
	assert.Same(t, r.For("a"), r.For("a"))
	assert.Equal(t, 1, r.Prune(0))
}

func TestRegistryPruneWaitsForIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(0)
	r.now = func() time.Time { return now }

	bar := r.For("client")
	assert.Zero(t, r.Prune(time.Minute))
	bar.Start("")
	bar.Set(Sent)
	assert.Equal(t, Sent, r.For("client").Snapshot().Percent)

	bar.Hide()
	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Prune(time.Minute))
}
