package thread

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresStore persists thread state as a single row per storage key.
type PostgresStore struct {
	db  *sql.DB
	key string
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, key: StorageKey}
}

// NewTenantStore scopes the storage key per tenant so each tenant carries
// its own conversation thread.
func NewTenantStore(db *sql.DB, tenant string) *PostgresStore {
	return &PostgresStore{db: db, key: StorageKey + "." + tenant}
}

func (s *PostgresStore) Get(ctx context.Context) ([]byte, error) {
	var raw []byte
	query := `SELECT payload FROM threads WHERE storage_key = $1`
	err := s.db.QueryRowContext(ctx, query, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *PostgresStore) Set(ctx context.Context, raw []byte) error {
	query := `
		INSERT INTO threads (storage_key, payload, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (storage_key) DO UPDATE SET payload = $2, updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query, s.key, raw)
	return err
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	query := `DELETE FROM threads WHERE storage_key = $1`
	_, err := s.db.ExecContext(ctx, query, s.key)
	return err
}
