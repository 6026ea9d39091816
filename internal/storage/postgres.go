package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the Postgres backend needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS client_storage (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

type Postgres struct {
	db DB
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the storage table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create client_storage: %w", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	var value string
	err := p.db.QueryRow(ctx,
		`SELECT value::text FROM client_storage WHERE namespace = $1 AND key = $2`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (p *Postgres) Save(ctx context.Context, namespace, key string, value []byte) error {
	if err := keyError(namespace, key); err != nil {
		return err
	}
	_, err := p.db.Exec(ctx,
		`INSERT INTO client_storage (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3::jsonb, now())
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		namespace, key, string(value),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, namespace, key string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM client_storage WHERE namespace = $1 AND key = $2`, namespace, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context, namespace string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM client_storage WHERE namespace = $1`, namespace); err != nil {
		return fmt.Errorf("clear namespace: %w", err)
	}
	return nil
}
