package game

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palavraduelo/arena/internal/duel"
	"github.com/palavraduelo/arena/internal/matchmaking"
	"github.com/palavraduelo/arena/internal/store"
)

// execScriptDB scripts the command tags successive Exec calls return.
type execScriptDB struct {
	tags  []string
	calls int
}

func (d *execScriptDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tag := "INSERT 0 1"
	if d.calls < len(d.tags) {
		tag = d.tags[d.calls]
	}
	d.calls++
	return pgconn.NewCommandTag(tag), nil
}

func (d *execScriptDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (d *execScriptDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return missRow{}
}

// missRow scans as an absent row.
type missRow struct{}

func (missRow) Scan(dest ...any) error { return pgx.ErrNoRows }

// rowSeqDB hands scripted rows to successive QueryRow calls.
type rowSeqDB struct {
	rows  []pgx.Row
	calls int
}

func (d *rowSeqDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	row := d.rows[d.calls]
	d.calls++
	return row
}

func (d *rowSeqDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected exec")
}

func (d *rowSeqDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

// queueRow replays one queue entry as a pgx row.
type queueRow struct {
	entry matchmaking.QueueEntry
}

func (r queueRow) Scan(dest ...any) error {
	meta, err := json.Marshal(r.entry.Metadata)
	if err != nil {
		return err
	}
	*dest[0].(*pgtype.UUID) = pgtype.UUID{Bytes: r.entry.ID, Valid: true}
	*dest[1].(*pgtype.UUID) = pgtype.UUID{Bytes: r.entry.UserID, Valid: true}
	*dest[2].(*string) = r.entry.GameType
	*dest[3].(*int) = r.entry.RatingSnapshot
	*dest[4].(*string) = r.entry.SkillBracket
	*dest[5].(*string) = r.entry.Region
	*dest[6].(*string) = r.entry.Status
	*dest[7].(*[]byte) = meta
	*dest[8].(*time.Time) = r.entry.JoinedAt
	*dest[9].(**time.Time) = r.entry.MatchedAt
	return nil
}

func storeOver(db store.DB) *store.Store {
	return &store.Store{Rooms: store.NewRoomStore(db), Queue: store.NewQueueStore(db)}
}

func TestCommitPairFailsWhenEntryAlreadyConsumed(t *testing.T) {
	now := time.Now().UTC()
	hostEntry := matchmaking.QueueEntry{ID: uuid.New(), UserID: uuid.New(), GameType: duel.GameTicTacToe, Status: matchmaking.EntryStatusQueued, JoinedAt: now}
	guestEntry := matchmaking.QueueEntry{ID: uuid.New(), UserID: uuid.New(), GameType: duel.GameTicTacToe, Status: matchmaking.EntryStatusQueued, JoinedAt: now}
	pair := matchmaking.MatchPair{Host: hostEntry, Guest: guestEntry, Reason: matchmaking.ReasonStrict}
	room := playingRoom(hostEntry.UserID, guestEntry.UserID)

	// Room insert lands, then the host entry's status guard loses: another
	// pass consumed the entry first. The error propagates so the enclosing
	// transaction rolls the room insert back.
	db := &execScriptDB{tags: []string{"INSERT 0 1", "UPDATE 0"}}
	svc := &Service{}

	err := svc.commitPair(context.Background(), store.NewRoomStore(db), store.NewQueueStore(db), pair, &roomCreation{room: room}, now)
	require.ErrorIs(t, err, store.ErrEntryNotFound)
	assert.Equal(t, 2, db.calls, "the guest entry is never touched after the host mark fails")
}

func newReconcileService(db store.DB) *Service {
	return NewService(storeOver(db), nil, nil, nil, nil, nil, nil, zerolog.Nop())
}

func TestReconcileFindsQueuedEntry(t *testing.T) {
	entry := matchmaking.QueueEntry{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		GameType: duel.GameTicTacToe,
		Status:   matchmaking.EntryStatusQueued,
		JoinedAt: time.Now().UTC(),
	}
	db := &rowSeqDB{rows: []pgx.Row{queueRow{entry: entry}}}

	got, room, err := newReconcileService(db).Reconcile(context.Background(), entry.UserID, entry.GameType)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.ID, got.ID)
	assert.Nil(t, room)
}

func TestReconcileFindsActiveRoom(t *testing.T) {
	host, guest := uuid.New(), uuid.New()
	room := playingRoom(host, guest)
	db := &rowSeqDB{rows: []pgx.Row{missRow{}, roomRow{room: room}}}

	entry, got, err := newReconcileService(db).Reconcile(context.Background(), host, duel.GameTicTacToe)
	require.NoError(t, err)
	assert.Nil(t, entry)
	require.NotNil(t, got)
	assert.Equal(t, room.ID, got.ID)
}

func TestReconcileNothingLanded(t *testing.T) {
	db := &rowSeqDB{rows: []pgx.Row{missRow{}, missRow{}}}

	entry, room, err := newReconcileService(db).Reconcile(context.Background(), uuid.New(), duel.GameTicTacToe)
	assert.ErrorIs(t, err, store.ErrRoomNotFound)
	assert.Nil(t, entry)
	assert.Nil(t, room)
}
