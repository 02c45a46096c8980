package persistence

import (
	"context"
	"fmt"

	"assistance-wizard/internal/common/config"
	"assistance-wizard/internal/common/database"
)

// Open builds the configured slot. The returned close func releases any
// connection the slot holds.
func Open(ctx context.Context, cfg config.PersistenceConfig) (Slot, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemorySlot(), noop, nil

	case config.BackendFile, "":
		slot, err := NewFileSlot(cfg.File.Dir)
		if err != nil {
			return nil, nil, err
		}
		return slot, noop, nil

	case config.BackendRedis:
		client, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return NewRedisSlot(client), client.Close, nil

	case config.BackendPostgres:
		client, err := database.NewPostgres(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		slot := NewSQLSlot(client)
		if err := slot.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return slot, client.Close, nil
	}

	return nil, nil, fmt.Errorf("unsupported persistence backend %q", cfg.Backend)
}
