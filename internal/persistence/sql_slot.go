package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"assistance-wizard/internal/common/database"
)

const (
	createSnapshotTable = `CREATE TABLE IF NOT EXISTS wizard_snapshots (
	slot_key   TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

	selectSnapshot = `SELECT payload FROM wizard_snapshots WHERE slot_key = $1`

	upsertSnapshot = `INSERT INTO wizard_snapshots (slot_key, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (slot_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	deleteSnapshot = `DELETE FROM wizard_snapshots WHERE slot_key = $1`
)

// SQLSlot keeps one row per key in wizard_snapshots.
type SQLSlot struct {
	client *database.PostgresClient
	now    func() time.Time
}

func NewSQLSlot(client *database.PostgresClient) *SQLSlot {
	return &SQLSlot{client: client, now: time.Now}
}

// EnsureSchema creates the table if it does not exist.
func (s *SQLSlot) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.Exec(ctx, createSnapshotTable); err != nil {
		return fmt.Errorf("create wizard_snapshots: %w", err)
	}
	return nil
}

func (s *SQLSlot) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.client.QueryRow(ctx, selectSnapshot, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return payload, nil
}

func (s *SQLSlot) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.client.Exec(ctx, upsertSnapshot, key, value, s.now().UTC()); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *SQLSlot) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Exec(ctx, deleteSnapshot, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func (s *SQLSlot) Name() string { return "postgres" }
