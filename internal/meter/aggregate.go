package meter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aimeter/internal/models"
	"aimeter/internal/storage"
)

// bumpAggregates applies the record's delta to every scope it touches:
// global and model always, user and model+user only when a user is attached.
func (m *Meter) bumpAggregates(ctx context.Context, rec *models.UsageRecord) error {
	delta := models.DeltaFor(rec)

	if err := m.bump(ctx, aggGlobalKey, delta); err != nil {
		return err
	}
	if err := m.bump(ctx, aggModelKey(rec.Model), delta); err != nil {
		return err
	}

	if rec.UserID != "" {
		if err := m.bump(ctx, aggUserKey(rec.UserID), delta); err != nil {
			return err
		}
		if err := m.bump(ctx, aggModelUserKey(rec.Model, rec.UserID), delta); err != nil {
			return err
		}
	}

	return nil
}

// bump adds delta to the counter at key and stamps UpdatedAt. A missing
// counter starts from all zeros.
func (m *Meter) bump(ctx context.Context, key string, delta models.Delta) error {
	unlock := m.locks.lock(key)
	defer unlock()

	agg, err := m.readAggregate(ctx, key)
	if err != nil {
		return err
	}

	agg.Add(delta)
	agg.UpdatedAt = time.Now().UTC().Format(models.TimeFormat)

	data, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate for key %s: %w", key, err)
	}
	return m.kv.Set(ctx, key, string(data))
}

// readAggregate parses the counter at key. An absent key yields a zero
// counter with a fresh UpdatedAt; a value that does not parse is a
// corruption fault.
func (m *Meter) readAggregate(ctx context.Context, key string) (models.Aggregate, error) {
	raw, ok, err := m.kv.Get(ctx, key)
	if err != nil {
		return models.Aggregate{}, err
	}
	if !ok || raw == "" {
		return models.Aggregate{UpdatedAt: time.Now().UTC().Format(models.TimeFormat)}, nil
	}

	var agg models.Aggregate
	if err := json.Unmarshal([]byte(raw), &agg); err != nil {
		return models.Aggregate{}, fmt.Errorf("%w: key %s: %v", storage.ErrCorruptValue, key, err)
	}
	return agg, nil
}
