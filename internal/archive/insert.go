package archive

import (
	"context"
	"fmt"

	"aimeter/internal/models"
)

// InsertRecords writes a batch of records in one transaction. Replayed
// records upsert on id, so a retried batch never duplicates rows.
func (db *DB) InsertRecords(ctx context.Context, recs []*models.UsageRecord) error {
	if len(recs) == 0 {
		return nil
	}

	const query = `
		INSERT INTO usage_records (
			id, kind, model, user_id, user_name, request_id, call_name,
			prompt_tokens, completion_tokens, cached_tokens, total_tokens, created_at
		) VALUES (
			:id, :kind, :model, :user_id, :user_name, :request_id, :call_name,
			:prompt_tokens, :completion_tokens, :cached_tokens, :total_tokens, :created_at
		)
		ON CONFLICT (id) DO NOTHING
	`

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
			return fmt.Errorf("failed to insert usage record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}
	return nil
}
