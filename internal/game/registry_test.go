// internal/game/registry_test.go
package game

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *mockBroadcaster) {
	logger, _ := test.NewNullLogger()
	mb := newMockBroadcaster()
	return NewRegistry(logger, mb), mb
}

func TestRegistryJoin(t *testing.T) {
	reg, mb := newTestRegistry()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	t.Run("Given an unknown room, a joiner without a seat count is refused", func(t *testing.T) {
		_, _, err := reg.Join("lobby", a, "ana", 0)
		assert.ErrorIs(t, err, ErrRoomNotFound)

		_, _, err = reg.Join("lobby", a, "ana", 5)
		assert.ErrorIs(t, err, ErrInvalidSeatCount)
		assert.Zero(t, reg.Len())
	})

	t.Run("When the first seat joins, the room is created and waits", func(t *testing.T) {
		room, seat, err := reg.Join("lobby", a, "ana", 2)
		require.NoError(t, err)
		assert.Equal(t, 0, seat.Index)
		assert.Equal(t, 1, reg.Len())
		assert.Equal(t, 1, room.Vacancies())

		ev := mb.getLastEvent()
		require.NotNil(t, ev)
		assert.Equal(t, EventRoomUpdated, ev.Type)
		require.NotNil(t, ev.Vacancies)
		assert.Equal(t, 1, *ev.Vacancies)

		joined := mb.getLastSeatEvent(a)
		require.NotNil(t, joined)
		assert.Equal(t, EventJoined, joined.Type)
		assert.Equal(t, a, joined.Seat.ID)

		_, ok := room.Snapshot()
		assert.False(t, ok)
		assert.ErrorIs(t, room.Draw(a), ErrMatchNotStarted)
	})

	t.Run("When the last seat joins, the first round is dealt", func(t *testing.T) {
		_, seat, err := reg.Join("lobby", b, "bo", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, seat.Index)

		ev := mb.getLastEvent()
		require.NotNil(t, ev)
		assert.Equal(t, EventRoundStarted, ev.Type)
		require.NotNil(t, ev.State)
		assert.Equal(t, 1, ev.State.Round)
		assert.Len(t, ev.State.Seats, 2)
	})

	t.Run("Then further identities are refused", func(t *testing.T) {
		_, _, err := reg.Join("lobby", c, "cy", 0)
		assert.ErrorIs(t, err, ErrRoomFull)
	})
}

func TestRegistryRejoinKeepsSeat(t *testing.T) {
	reg, mb := newTestRegistry()
	a, b := uuid.New(), uuid.New()
	_, _, err := reg.Join("t", a, "ana", 2)
	require.NoError(t, err)
	room, _, err := reg.Join("t", b, "bo", 0)
	require.NoError(t, err)

	require.NoError(t, reg.Leave("t", b))
	assert.Equal(t, 1, reg.Len(), "room survives while a seat is connected")
	assert.Zero(t, room.Vacancies(), "a dropped seat stays reserved")
	assert.False(t, room.Seats()[1].Connected)

	ev := mb.getLastEvent()
	require.NotNil(t, ev)
	assert.Equal(t, EventRoomUpdated, ev.Type)
	require.NotNil(t, ev.Vacancies)
	assert.Zero(t, *ev.Vacancies)

	_, _, err = reg.Join("t", uuid.New(), "cy", 0)
	assert.ErrorIs(t, err, ErrRoomFull)

	_, seat, err := reg.Join("t", b, "bo", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, seat.Index)
	assert.True(t, room.Seats()[1].Connected)

	ev = mb.getLastSeatEvent(b)
	require.NotNil(t, ev)
	assert.Equal(t, EventStateUpdated, ev.Type, "a returning seat gets the current state")
}

func TestRegistryLeaveBeforeStartReindexes(t *testing.T) {
	reg, _ := newTestRegistry()
	a, b := uuid.New(), uuid.New()
	_, _, err := reg.Join("t", a, "ana", 3)
	require.NoError(t, err)
	room, _, err := reg.Join("t", b, "bo", 0)
	require.NoError(t, err)

	require.NoError(t, reg.Leave("t", a))
	seats := room.Seats()
	require.Len(t, seats, 1)
	assert.Equal(t, b, seats[0].ID)
	assert.Equal(t, 0, seats[0].Index)

	require.NoError(t, reg.Leave("t", b))
	assert.Zero(t, reg.Len())
	_, ok := reg.Room("t")
	assert.False(t, ok)

	assert.ErrorIs(t, reg.Leave("t", b), ErrRoomNotFound)
}

func TestRegistryRoomsAreIndependent(t *testing.T) {
	reg, _ := newTestRegistry()
	_, _, err := reg.Join("one", uuid.New(), "a", 2)
	require.NoError(t, err)
	_, _, err = reg.Join("two", uuid.New(), "b", 4)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	one, _ := reg.Room("one")
	two, _ := reg.Room("two")
	assert.Equal(t, 2, one.Capacity)
	assert.Equal(t, 4, two.Capacity)

	reg.Close()
	assert.Zero(t, reg.Len())
}

type fakeMetrics struct {
	mu      sync.Mutex
	rooms   []int
	intents map[string]int
}

func (f *fakeMetrics) IntentHandled(intent, code string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.intents == nil {
		f.intents = make(map[string]int)
	}
	f.intents[intent+"/"+code]++
}

func (f *fakeMetrics) RoundEnded(string) {}
func (f *fakeMetrics) MatchEnded()       {}

func (f *fakeMetrics) SetActiveRooms(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, n)
}

func TestRegistryReportsMetrics(t *testing.T) {
	fm := &fakeMetrics{}
	reg, room, ids, _ := setupTestRoom(t, 2, WithMetrics(fm))
	state, _ := room.Snapshot()

	require.ErrorIs(t, room.Skip(ids[(state.TurnSeat+1)%2]), ErrNotYourTurn)
	require.NoError(t, room.Skip(ids[state.TurnSeat]))

	reg.Close()

	fm.mu.Lock()
	defer fm.mu.Unlock()
	assert.Equal(t, []int{1, 0}, fm.rooms)
	assert.Equal(t, 1, fm.intents["skip/not_your_turn"])
	assert.Equal(t, 1, fm.intents["skip/"])
}
