package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const upsertQuery = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, NOW())` +
	` ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

// PostgresStore keeps values in the kv_entries table created by the
// migrations in internal/kv/migrations.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := p.db.ExecContext(ctx, upsertQuery, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Update holds a transaction-scoped advisory lock on key while it reads,
// applies fn and writes back. The advisory lock also covers keys that have
// no row yet, which SELECT ... FOR UPDATE cannot.
func (p *PostgresStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", key, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	var current []byte
	err = tx.GetContext(ctx, &current, `SELECT value FROM kv_entries WHERE key = $1`, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("select %s: %w", key, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		current = nil
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next != nil {
		if _, err := tx.ExecContext(ctx, upsertQuery, key, next); err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}
