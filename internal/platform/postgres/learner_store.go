package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/muselang/progression-api/internal/domain"
	"github.com/muselang/progression-api/internal/store"
)

// Migrations holds the embedded SQL migrations for the goose runner.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// PostgresLearnerStore implements the store.LearnerStore interface using a
// PostgreSQL database as the storage backend.
type PostgresLearnerStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresLearnerStore creates a new PostgreSQL implementation of the
// LearnerStore interface. If logger is nil, a default logger will be used.
func NewPostgresLearnerStore(db *sql.DB, logger *slog.Logger) *PostgresLearnerStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLearnerStore{
		db:     db,
		logger: logger.With(slog.String("component", "learner_store")),
	}
}

// Ensure PostgresLearnerStore implements store.LearnerStore interface
var _ store.LearnerStore = (*PostgresLearnerStore)(nil)

// LoadLearnerState implements store.LearnerStore.LoadLearnerState.
// Returns store.ErrLearnerNotFound if the learner has no persisted state.
func (s *PostgresLearnerStore) LoadLearnerState(
	ctx context.Context,
	learnerID uuid.UUID,
) (*domain.LearnerSnapshot, error) {
	var (
		version int64
		raw     []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, snapshot FROM learner_state WHERE learner_id = $1`,
		learnerID,
	).Scan(&version, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLearnerNotFound
		}
		return nil, store.NewStoreError("learner_state", "load", "query failed", MapError(err))
	}

	var snapshot domain.LearnerSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, store.NewStoreError("learner_state", "load", "corrupt snapshot", err)
	}
	snapshot.Version = version

	return &snapshot, nil
}

// SaveLearnerState implements store.LearnerStore.SaveLearnerState.
// The snapshot upsert and the event-record appends run in one transaction:
// a failure anywhere leaves nothing behind, so the caller may retry the
// whole submission with the same idempotency key.
func (s *PostgresLearnerStore) SaveLearnerState(
	ctx context.Context,
	snapshot *domain.LearnerSnapshot,
	records []*domain.EventRecord,
) error {
	// The row is written with the successor version; the in-memory snapshot
	// is left untouched so a failed save has no observable effect.
	next := *snapshot
	next.Version = snapshot.Version + 1

	raw, err := json.Marshal(&next)
	if err != nil {
		return store.NewStoreError("learner_state", "save", "marshal snapshot", err)
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.writeSnapshot(ctx, tx, &next, raw); err != nil {
			return err
		}
		for _, rec := range records {
			if err := s.appendEvent(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresLearnerStore) writeSnapshot(
	ctx context.Context,
	q store.DBTX,
	snapshot *domain.LearnerSnapshot,
	raw []byte,
) error {
	if snapshot.Version == 1 {
		_, err := q.ExecContext(ctx,
			`INSERT INTO learner_state (learner_id, version, snapshot, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			snapshot.LearnerID, snapshot.Version, raw, snapshot.CreatedAt, snapshot.UpdatedAt,
		)
		if err != nil {
			mapped := MapError(err)
			if errors.Is(mapped, store.ErrDuplicate) {
				// Another process provisioned this learner concurrently.
				return fmt.Errorf("%w: %v", store.ErrVersionConflict, err)
			}
			return store.NewStoreError("learner_state", "save", "insert failed", mapped)
		}
		return nil
	}

	res, err := q.ExecContext(ctx,
		`UPDATE learner_state SET version = $1, snapshot = $2, updated_at = $3
		 WHERE learner_id = $4 AND version = $5`,
		snapshot.Version, raw, snapshot.UpdatedAt, snapshot.LearnerID, snapshot.Version-1,
	)
	if err != nil {
		return store.NewStoreError("learner_state", "save", "update failed", MapError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return store.NewStoreError("learner_state", "save", "rows affected", err)
	}
	if affected == 0 {
		return store.ErrVersionConflict
	}
	return nil
}

func (s *PostgresLearnerStore) appendEvent(
	ctx context.Context,
	q store.DBTX,
	rec *domain.EventRecord,
) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO progression_events
		 (learner_id, server_sequence, idempotency_key, event_type, payload, client_timestamp, applied_at, effect)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.LearnerID, rec.ServerSequence, rec.IdempotencyKey, rec.Type,
		[]byte(rec.Payload), rec.ClientTimestamp, rec.AppliedAt, rec.Effect,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			return fmt.Errorf("%w: %v", store.ErrEventKeyExists, err)
		}
		return store.NewStoreError("progression_events", "append", "insert failed", mapped)
	}
	return nil
}
