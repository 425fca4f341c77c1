package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgx methods the stores need, satisfied by both
// *pgxpool.Pool and pgx.Tx so the matcher can run its commit atomically.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txPool is the pool surface Store needs, satisfied by *pgxpool.Pool.
type txPool interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store bundles the persistent document stores over one connection pool.
type Store struct {
	pool  txPool
	Rooms *RoomStore
	Queue *QueueStore
}

// New creates the store facade.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:  pool,
		Rooms: NewRoomStore(pool),
		Queue: NewQueueStore(pool),
	}
}

// WithTx runs fn inside a transaction, handing it tx-scoped stores. The
// transaction rolls back when fn errors, so a partial matcher commit never
// leaves a player matched-without-room or room-without-matched-entries.
func (s *Store) WithTx(ctx context.Context, fn func(rooms *RoomStore, queue *QueueStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRoomStore(tx), NewQueueStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func fromPGUUID(v pgtype.UUID) uuid.UUID {
	return uuid.UUID(v.Bytes)
}
