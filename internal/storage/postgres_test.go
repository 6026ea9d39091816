package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

// fakeDB mimics the client_storage table with a map keyed by namespace/key.
type fakeDB struct {
	rows  map[string]string
	execs []string
	err   error
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[string]string{}}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		f.rows[args[0].(string)+"/"+args[1].(string)] = args[2].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(sql, "AND key"):
		delete(f.rows, args[0].(string)+"/"+args[1].(string))
	case strings.HasPrefix(sql, "DELETE"):
		prefix := args[0].(string) + "/"
		for k := range f.rows {
			if strings.HasPrefix(k, prefix) {
				delete(f.rows, k)
			}
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	v, ok := f.rows[args[0].(string)+"/"+args[1].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func TestPostgresBackend(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	pg := NewPostgres(db)
	require.NoError(t, pg.EnsureSchema(ctx))
	assert.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS client_storage")

	m := NewManager(pg, nil)
	require.True(t, m.Set(ctx, "c", ScopePersistent, "theme", "dark"))
	require.True(t, m.Set(ctx, "c", ScopePersistent, "other", 1))

	var theme string
	require.True(t, m.Get(ctx, "c", ScopePersistent, "theme", &theme))
	assert.Equal(t, "dark", theme)

	require.True(t, m.Remove(ctx, "c", ScopePersistent, "theme"))
	assert.False(t, m.Get(ctx, "c", ScopePersistent, "theme", &theme))

	require.True(t, m.Clear(ctx, "c", ScopePersistent))
	var n int
	assert.False(t, m.Get(ctx, "c", ScopePersistent, "other", &n))
}

func TestPostgresErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	db.err = errors.New("connection reset")
	pg := NewPostgres(db)

	require.Error(t, pg.EnsureSchema(ctx))
	_, _, err := pg.Load(ctx, "c", "k")
	require.Error(t, err)
	require.Error(t, pg.Save(ctx, "c", "k", []byte(`1`)))
}
