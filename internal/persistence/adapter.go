// internal/persistence/adapter.go
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/common/metrics"
	"assistance-wizard/internal/models"
)

// DefaultKey is the slot key used when none is configured.
const DefaultKey = "financial-assistance-form"

// Adapter reads and writes whole session snapshots to a Slot.
type Adapter struct {
	slot   Slot
	key    string
	logger logger.Logger
}

func NewAdapter(slot Slot, key string, log logger.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{
		slot: slot,
		key:  key,
		logger: log.WithFields(map[string]interface{}{
			"backend": slot.Name(),
			"key":     key,
		}),
	}
}

// Load returns the persisted snapshot, or a fresh one when nothing usable is
// stored. It never fails.
func (a *Adapter) Load(ctx context.Context) models.SessionSnapshot {
	data, err := a.slot.Get(ctx, a.key)
	if errors.Is(err, ErrSlotEmpty) {
		a.logger.Debug("no persisted session", nil)
		return models.NewSessionSnapshot()
	}
	if err != nil {
		a.fail("load", err)
		return models.NewSessionSnapshot()
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		a.logger.WithError(err).Warn("discarding corrupt session snapshot", nil)
		metrics.PersistenceFailures.WithLabelValues(a.slot.Name(), "decode").Inc()
		return models.NewSessionSnapshot()
	}
	return snap
}

// Save writes the whole snapshot. The error is returned only so callers can
// keep their dirty flag; it has already been logged.
func (a *Adapter) Save(ctx context.Context, snap models.SessionSnapshot) error {
	snap.Version = models.SnapshotVersion
	data, err := json.Marshal(snap)
	if err != nil {
		a.fail("encode", err)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := a.slot.Set(ctx, a.key, data); err != nil {
		a.fail("save", err)
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Clear deletes the persisted snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.slot.Delete(ctx, a.key); err != nil {
		a.fail("clear", err)
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func (a *Adapter) fail(op string, err error) {
	a.logger.WithError(err).Error("persistence operation failed", map[string]interface{}{"op": op})
	metrics.PersistenceFailures.WithLabelValues(a.slot.Name(), op).Inc()
}

func decodeSnapshot(data []byte) (models.SessionSnapshot, error) {
	var snap models.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.SessionSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != models.SnapshotVersion {
		return models.SessionSnapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if _, err := models.ParseStep(string(snap.CurrentStep)); err != nil {
		return models.SessionSnapshot{}, err
	}
	return snap, nil
}
