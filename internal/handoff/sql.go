package handoff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_storage (
	session_id  TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	payload     TEXT NOT NULL,
	expires_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, storage_key)
)`

// SQLStore keeps entries in the session_storage table. Queries are written with
// '?' placeholders and rebound for the driver, so the same store runs on
// Postgres (pgx) and SQLite.
type SQLStore struct {
	db *sqlx.DB
}

type storageRow struct {
	Payload   string    `db:"payload"`
	ExpiresAt time.Time `db:"expires_at"`
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the storage table when it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create session_storage: %w", err)
	}
	return nil
}

func (s *SQLStore) Put(ctx context.Context, visitorID, key string, value []byte, expiresAt time.Time) error {
	q := s.db.Rebind(`
		INSERT INTO session_storage (session_id, storage_key, payload, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, storage_key) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, q, visitorID, key, string(value), expiresAt.UTC(), time.Now().UTC()); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, visitorID, key string, now time.Time) ([]byte, error) {
	q := s.db.Rebind(`
		SELECT payload, expires_at
		FROM session_storage
		WHERE session_id = ? AND storage_key = ?
	`)
	var row storageRow
	if err := s.db.GetContext(ctx, &row, q, visitorID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if !now.Before(row.ExpiresAt) {
		return nil, ErrNotFound
	}
	return []byte(row.Payload), nil
}

func (s *SQLStore) Purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM session_storage WHERE expires_at <= ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge session_storage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge session_storage: %w", err)
	}
	return n, nil
}
