// Package audit records domain activity into an append-only audit log.
// Recording is fire-and-forget: entries pass through a bounded in-memory
// queue and a background drain task, and a failure to persist never
// reaches the operation that produced the entry.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one audit log record.
type Entry struct {
	TenantID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Detail     map[string]any
	RecordedAt time.Time
}

// Recorder persists audit entries. Defined as an interface so sink tests
// can substitute a fake.
type Recorder interface {
	InsertBatch(ctx context.Context, entries []Entry) error
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertBatch writes a batch of entries in a single round trip.
func (r *Repository) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		detailJSON, err := json.Marshal(entry.Detail)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO audit_log (id, tenant_id, actor_id, action, entity_type, entity_id, detail, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), entry.TenantID, entry.ActorID, entry.Action,
			entry.EntityType, entry.EntityID, detailJSON, entry.RecordedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Compile-time check that the pgx implementation satisfies the contract.
var _ Recorder = (*Repository)(nil)
