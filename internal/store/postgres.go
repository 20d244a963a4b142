package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresSlot stores slots as rows of profile_slots. The value column is
// TEXT so whatever was written is returned byte for byte.
type PostgresSlot struct {
	db *sql.DB
}

func NewPostgresSlot(db *sql.DB) *PostgresSlot {
	return &PostgresSlot{db: db}
}

func (s *PostgresSlot) DB() *sql.DB {
	return s.db
}

func (s *PostgresSlot) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM profile_slots WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *PostgresSlot) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile_slots (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func (s *PostgresSlot) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
