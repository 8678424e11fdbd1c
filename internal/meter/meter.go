package meter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"aimeter/internal/models"
	"aimeter/internal/pricing"
	"aimeter/internal/storage"
	"aimeter/internal/utils"
)

// Archiver receives every new record for best-effort archival. Failures are
// logged and never affect the write path.
type Archiver interface {
	Archive(ctx context.Context, rec *models.UsageRecord) error
}

// Meter records billable model invocations in a flat KV store and answers
// filtered listings and multi-dimensional cost summaries over them. Writes
// maintain four index families, two catalogs, and four aggregate scopes;
// reads never mutate state and price records against the injected table at
// the moment of the query.
type Meter struct {
	kv      storage.KV
	prices  *pricing.Table
	archive Archiver
	locks   keyLocks
	logger  *utils.Logger
}

// NewMeter creates a meter over kv, pricing costs with prices. archive may
// be nil to disable archival.
func NewMeter(kv storage.KV, prices *pricing.Table, archive Archiver) *Meter {
	return &Meter{
		kv:      kv,
		prices:  prices,
		archive: archive,
		logger:  utils.NewLogger("meter"),
	}
}

// Record writes an immutable usage record and updates every index, catalog,
// and aggregate it belongs to. The writes are separate KV operations: a
// store failure mid-sequence propagates immediately and can leave later
// structures not yet updated for this record.
func (m *Meter) Record(ctx context.Context, params models.RecordParams) (*models.UsageRecord, error) {
	if params.Kind == "" {
		return nil, fmt.Errorf("kind is required")
	}
	if params.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	rec := &models.UsageRecord{
		ID:               newRecordID(),
		Kind:             params.Kind,
		Model:            params.Model,
		UserID:           params.UserID,
		UserName:         params.UserName,
		RequestID:        params.RequestID,
		CallName:         params.CallName,
		PromptTokens:     params.PromptTokens,
		CompletionTokens: params.CompletionTokens,
		CachedTokens:     params.CachedTokens,
		TotalTokens:      params.TotalTokens,
		CreatedAt:        time.Now().UTC().Format(models.TimeFormat),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := m.kv.Set(ctx, recordKey(rec.ID), string(data)); err != nil {
		return nil, fmt.Errorf("failed to write record: %w", err)
	}

	if err := m.updateIndexes(ctx, rec); err != nil {
		return nil, err
	}
	if err := m.bumpAggregates(ctx, rec); err != nil {
		return nil, err
	}

	if m.archive != nil {
		if err := m.archive.Archive(ctx, rec); err != nil {
			m.logger.Warn("Record not archived", "id", rec.ID, "error", err)
		}
	}

	return rec, nil
}

// newRecordID generates an id that is unique under single-writer conditions
// and sorts in wall-clock order: a zero-padded nanosecond timestamp plus a
// random suffix to break same-nanosecond ties.
func newRecordID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%020d-%s", time.Now().UnixNano(), suffix)
}

// getRecord loads one record by id. Absent records report ok=false; a value
// that does not parse is a corruption fault.
func (m *Meter) getRecord(ctx context.Context, id string) (*models.UsageRecord, bool, error) {
	key := recordKey(id)
	raw, ok, err := m.kv.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	var rec models.UsageRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false, fmt.Errorf("%w: key %s: %v", storage.ErrCorruptValue, key, err)
	}
	return &rec, true, nil
}
