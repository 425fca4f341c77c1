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
	"github.com/palavraduelo/arena/internal/store"
)

// roomRow replays one room as a pgx row.
type roomRow struct {
	room *duel.Room
}

func (r roomRow) Scan(dest ...any) error {
	state, err := json.Marshal(r.room.State)
	if err != nil {
		return err
	}
	*dest[0].(*pgtype.UUID) = pgtype.UUID{Bytes: r.room.ID, Valid: true}
	*dest[1].(*pgtype.UUID) = pgtype.UUID{Bytes: r.room.HostID, Valid: true}
	*dest[2].(*string) = r.room.GameType
	*dest[3].(*string) = r.room.PuzzleID
	*dest[4].(*string) = r.room.Status
	*dest[5].(*int) = r.room.MaxPlayers
	*dest[6].(*[]byte) = state
	*dest[7].(*int64) = r.room.StateVersion
	*dest[8].(**time.Time) = r.room.StartedAt
	*dest[9].(**time.Time) = r.room.FinishedAt
	*dest[10].(*time.Time) = r.room.CreatedAt
	return nil
}

// conflictDB serves one room and scripts how many conditional updates lose
// the version check before one lands.
type conflictDB struct {
	room     *duel.Room
	loseNext int
	gets     int
	execs    int
}

func (d *conflictDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	d.gets++
	return roomRow{room: d.room}
}

func (d *conflictDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs++
	if d.execs <= d.loseNext {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (d *conflictDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func playingRoom(host, guest uuid.UUID) *duel.Room {
	now := time.Now().UTC()
	return &duel.Room{
		ID:         uuid.New(),
		HostID:     host,
		GameType:   duel.GameTicTacToe,
		Status:     duel.RoomStatusPlaying,
		MaxPlayers: duel.DefaultMaxPlayers,
		State: &duel.GameState{
			GameType: duel.GameTicTacToe,
			Phase:    duel.PhasePlaying,
			Participants: []duel.Participant{
				{UserID: host, Seat: duel.SeatHost},
				{UserID: guest, Seat: duel.SeatGuest},
			},
			TicTacToe: duel.NewTicTacToeState(),
		},
		StateVersion: 5,
		StartedAt:    &now,
		CreatedAt:    now,
	}
}

func newTestSynchronizer(t *testing.T, db store.DB, roomID, userID uuid.UUID) *Synchronizer {
	t.Helper()
	notifier := store.NewNotifier(newTestRedis(t), zerolog.Nop())
	return NewSynchronizer(store.NewRoomStore(db), notifier, nil, zerolog.Nop(), roomID, userID)
}

func TestSynchronizerRetriesLostVersionCheck(t *testing.T) {
	host, guest := uuid.New(), uuid.New()
	room := playingRoom(host, guest)
	db := &conflictDB{room: room, loseNext: 1}
	s := newTestSynchronizer(t, db, room.ID, host)

	updated, err := s.UpdateState(context.Background(), func(state *duel.GameState) bool {
		return state.TicTacToe.ApplyMove(duel.SymbolX, 4)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), updated.StateVersion)
	assert.Equal(t, 2, db.execs, "first write lost the check, second landed")
	assert.Equal(t, 2, db.gets, "the retry re-fetches before writing again")
}

func TestSynchronizerGivesUpAfterBoundedRetries(t *testing.T) {
	host, guest := uuid.New(), uuid.New()
	room := playingRoom(host, guest)
	db := &conflictDB{room: room, loseNext: 100}
	s := newTestSynchronizer(t, db, room.ID, host)

	_, err := s.UpdateState(context.Background(), func(state *duel.GameState) bool {
		return state.TicTacToe.ApplyMove(duel.SymbolX, 0)
	})
	require.ErrorIs(t, err, store.ErrVersionConflict)
	assert.Equal(t, 3, db.execs)
}

func TestSynchronizerSkipsWriteOnToleratedRace(t *testing.T) {
	host, guest := uuid.New(), uuid.New()
	room := playingRoom(host, guest)
	db := &conflictDB{room: room}
	s := newTestSynchronizer(t, db, room.ID, host)

	current, err := s.UpdateState(context.Background(), func(*duel.GameState) bool {
		return false
	})
	require.NoError(t, err)
	assert.Zero(t, db.execs, "a failed precondition writes nothing")
	assert.Equal(t, room.StateVersion, current.StateVersion)
}
