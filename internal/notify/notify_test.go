package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowKeepsOrder(t *testing.T) {
	m := NewManager(0)
	a := m.Show(KindSuccess, "saved", 0)
	b := m.Show(KindError, "failed", 0)
	c := m.Show(Kind("bogus"), "fallback", 0)

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, KindInfo, list[2].Kind)
	assert.Nil(t, list[0].ExpiresAt)
}

func TestRemoveIndividually(t *testing.T) {
	m := NewManager(time.Hour)
	a := m.Warning("one")
	b := m.Info("two")

	assert.True(t, m.Remove(a.ID))
	assert.False(t, m.Remove(a.ID))
	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	require.NotNil(t, list[0].ExpiresAt)
}

func TestAutoDismiss(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	m.Error("transient")
	m.Show(KindInfo, "sticky", 0)

	require.Eventually(t, func() bool { return m.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "sticky", m.List()[0].Message)
}

func TestClearAll(t *testing.T) {
	m := NewManager(time.Hour)
	m.Success("a")
	m.Success("b")
	m.ClearAll()
	assert.Empty(t, m.List())
}

func TestCenterPerClient(t *testing.T) {
	c := NewCenter(0)
	c.For("alice").Info("hi")
	assert.Same(t, c.For("alice"), c.For("alice"))
	assert.Empty(t, c.For("bob").List())

	assert.Equal(t, 1, c.Prune(0))
	assert.Len(t, c.For("alice").List(), 1)
}

func TestCenterPruneKeepsRecentlyHandedOut(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCenter(0)
	c.now = func() time.Time { return now }

	held := c.For("client")
	assert.Zero(t, c.Prune(time.Minute))
	held.Error("backend down")
	assert.Len(t, c.For("client").List(), 1)

	held.ClearAll()
	now = now.Add(30 * time.Second)
	assert.Zero(t, c.Prune(time.Minute))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, c.Prune(time.Minute))
	assert.NotSame(t, held, c.For("client"))
}
