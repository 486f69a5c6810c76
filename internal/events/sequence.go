package events

import (
	"context"
	"database/sql"
	"fmt"
)

// SequenceStore hands out producer-side monotonic sequences per
// partition key, backed by an upsert on event_sequence.
type SequenceStore interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type sequenceStore struct {
	db *sql.DB
}

func NewSequenceStore(db *sql.DB) SequenceStore {
	return &sequenceStore{db: db}
}

func (s *sequenceStore) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO event_sequence (partition_key, last_sequence, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (partition_key)
		DO UPDATE SET last_sequence = event_sequence.last_sequence + 1, updated_at = NOW()
		RETURNING last_sequence
	`, partitionKey).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
