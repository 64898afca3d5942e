package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

type kvEntry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PostgresStore keeps values in the kv_entries table.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates kv_entries when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("ensure kv schema: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM kv_entries WHERE key = $1`
	var value string
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get kv entry %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Store.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	const query = `INSERT INTO kv_entries (key, value, updated_at)
VALUES (:key, :value, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	entry := kvEntry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	if _, err := s.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert kv entry %s: %w", key, err)
	}
	return nil
}

// RemoveMany implements Store.
func (s *PostgresStore) RemoveMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM kv_entries WHERE key IN (%s)`, placeholders(len(keys)))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete kv entries: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}
