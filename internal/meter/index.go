package meter

import (
	"context"
	"encoding/json"
	"fmt"

	"aimeter/internal/models"
	"aimeter/internal/storage"
)

// Indices and catalogs are JSON string arrays stored as opaque KV values.
// Every mutation is a read-modify-write serialized through the per-key
// locks; the store itself offers no list primitives.

// updateIndexes appends the record id to the all-ids, kind, and model
// indices, to the user index when a user is attached, and registers the
// dimensions in the catalogs.
func (m *Meter) updateIndexes(ctx context.Context, rec *models.UsageRecord) error {
	if err := m.appendID(ctx, indexAllKey, rec.ID); err != nil {
		return err
	}
	if err := m.appendID(ctx, indexKindKey(rec.Kind), rec.ID); err != nil {
		return err
	}
	if err := m.appendID(ctx, indexModelKey(rec.Model), rec.ID); err != nil {
		return err
	}
	if err := m.appendUnique(ctx, catalogModelsKey, rec.Model); err != nil {
		return err
	}

	if rec.UserID != "" {
		if err := m.appendID(ctx, indexUserKey(rec.UserID), rec.ID); err != nil {
			return err
		}
		if err := m.appendUnique(ctx, catalogUsersKey, rec.UserID); err != nil {
			return err
		}
	}

	return nil
}

// appendID appends id to the list at key. Never deduplicates; index order is
// insertion order and every recorded id lands exactly once per index.
func (m *Meter) appendID(ctx context.Context, key, id string) error {
	unlock := m.locks.lock(key)
	defer unlock()

	ids, err := m.readList(ctx, key)
	if err != nil {
		return err
	}
	return m.writeList(ctx, key, append(ids, id))
}

// appendUnique appends value to the catalog at key only if absent.
func (m *Meter) appendUnique(ctx context.Context, key, value string) error {
	unlock := m.locks.lock(key)
	defer unlock()

	values, err := m.readList(ctx, key)
	if err != nil {
		return err
	}
	for _, v := range values {
		if v == value {
			return nil
		}
	}
	return m.writeList(ctx, key, append(values, value))
}

// readList parses the JSON array at key. An absent key is an empty list; a
// value that does not parse is a corruption fault.
func (m *Meter) readList(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := m.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", storage.ErrCorruptValue, key, err)
	}
	return values, nil
}

func (m *Meter) writeList(ctx context.Context, key string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal list for key %s: %w", key, err)
	}
	return m.kv.Set(ctx, key, string(data))
}
