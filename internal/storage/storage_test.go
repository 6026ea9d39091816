package storage

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string            `json:"name"`
	Age   int               `json:"age"`
	Tags  []string          `json:"tags"`
	Extra map[string]string `json:"extra"`
}

func TestRoundTripBothScopes(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, nil)
	in := profile{Name: "A", Age: 52, Tags: []string{"x", "y"}, Extra: map[string]string{"k": "v"}}

	for _, scope := range []Scope{ScopePersistent, ScopeSession} {
		require.True(t, m.Set(ctx, "client-1", scope, "profile", in))
		var out profile
		require.True(t, m.Get(ctx, "client-1", scope, "profile", &out))
		assert.Equal(t, in, out)
	}
}

func TestScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemory(), NewMemory())
	require.True(t, m.Set(ctx, "c", ScopeSession, "theme", "dark"))

	var v string
	assert.False(t, m.Get(ctx, "c", ScopePersistent, "theme", &v))
	assert.False(t, m.Get(ctx, "other", ScopeSession, "theme", &v))
	assert.True(t, m.Get(ctx, "c", ScopeSession, "theme", &v))
	assert.Equal(t, "dark", v)
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, nil)
	m.Set(ctx, "c", ScopePersistent, "a", 1)
	m.Set(ctx, "c", ScopePersistent, "b", 2)

	assert.True(t, m.Remove(ctx, "c", ScopePersistent, "a"))
	var n int
	assert.False(t, m.Get(ctx, "c", ScopePersistent, "a", &n))
	assert.True(t, m.Get(ctx, "c", ScopePersistent, "b", &n))

	assert.True(t, m.Clear(ctx, "c", ScopePersistent))
	assert.False(t, m.Get(ctx, "c", ScopePersistent, "b", &n))
}

func TestSerializationFailureReportsFalse(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, nil)
	assert.False(t, m.Set(ctx, "c", ScopePersistent, "bad", math.NaN()))
	assert.False(t, m.Set(ctx, "c", ScopePersistent, "ch", make(chan int)))

	require.True(t, m.Set(ctx, "c", ScopePersistent, "text", "hello"))
	var n int
	assert.False(t, m.Get(ctx, "c", ScopePersistent, "text", &n))
}

type failingBackend struct{ err error }

func (f failingBackend) Load(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, f.err
}
func (f failingBackend) Save(context.Context, string, string, []byte) error { return f.err }
func (f failingBackend) Delete(context.Context, string, string) error      { return f.err }
func (f failingBackend) Clear(context.Context, string) error               { return f.err }

func TestBackendFailureReportsFalse(t *testing.T) {
	ctx := context.Background()
	m := NewManager(failingBackend{err: errors.New("disk full")}, nil)
	var v string
	assert.False(t, m.Set(ctx, "c", ScopePersistent, "k", "v"))
	assert.False(t, m.Get(ctx, "c", ScopePersistent, "k", &v))
	assert.False(t, m.Remove(ctx, "c", ScopePersistent, "k"))
	assert.False(t, m.Clear(ctx, "c", ScopePersistent))
	assert.True(t, m.Set(ctx, "c", ScopeSession, "k", "v"))
}

func TestEmptyKeyRejected(t *testing.T) {
	m := NewManager(nil, nil)
	assert.False(t, m.Set(context.Background(), "", ScopePersistent, "k", 1))
	assert.False(t, m.Set(context.Background(), "c", ScopePersistent, "", 1))
}

func TestParseScope(t *testing.T) {
	for raw, want := range map[string]Scope{
		"session":    ScopeSession,
		"local":      ScopePersistent,
		"persistent": ScopePersistent,
		" Session ":  ScopeSession,
	} {
		got, err := ParseScope(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseScope("cloud")
	assert.ErrorIs(t, err, ErrUnknownScope)
	_, err = ParseScope("")
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestSweepSessionDropsIdleNamespaces(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := NewMemory()
	session.now = func() time.Time { return now }
	m := NewManager(nil, session)

	require.True(t, m.Set(ctx, "gone", ScopeSession, "lastForm", map[string]string{"BMI": "24"}))
	require.True(t, m.Set(ctx, "gone", ScopePersistent, "theme", "dark"))
	now = now.Add(20 * time.Minute)
	require.True(t, m.Set(ctx, "active", ScopeSession, "lastForm", map[string]string{"BMI": "31"}))
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, m.SweepSession(30*time.Minute))

	var v map[string]string
	assert.False(t, m.Get(ctx, "gone", ScopeSession, "lastForm", &v))
	assert.True(t, m.Get(ctx, "active", ScopeSession, "lastForm", &v))
	var theme string
	assert.True(t, m.Get(ctx, "gone", ScopePersistent, "theme", &theme))
}

func TestSweepSessionReadKeepsAlive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := NewMemory()
	session.now = func() time.Time { return now }
	m := NewManager(nil, session)

	require.True(t, m.Set(ctx, "c", ScopeSession, "k", 1))
	now = now.Add(25 * time.Minute)
	var n int
	require.True(t, m.Get(ctx, "c", ScopeSession, "k", &n))
	now = now.Add(25 * time.Minute)
	assert.Zero(t, m.SweepSession(30*time.Minute))
}
