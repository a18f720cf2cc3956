// internal/game/match_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tile(a, b int) models.Tile { return models.Tile{A: a, B: b} }

// newTestMatch starts a seeded match with its first round dealt.
func newTestMatch(t *testing.T, seats int, seed int64) *Match {
	t.Helper()
	m, err := NewMatch(seats, WithRand(rand.New(rand.NewSource(seed))))
	require.NoError(t, err)
	require.NoError(t, m.StartRound())
	return m
}

// rig replaces the dealt round with a fixed layout so scenarios are exact.
func rig(m *Match, turn int, hands [][]models.Tile, boneyard []models.Tile, line ...models.Tile) {
	m.hands = hands
	m.boneyard = boneyard
	m.board = NewBoard()
	for _, t := range line {
		if _, err := m.board.Place(t, models.EndRight); err != nil {
			panic(err)
		}
	}
	m.turnSeat = turn
	m.phase = PhaseInRound
}

// requireConserved asserts every tile of the set is in exactly one place.
func requireConserved(t *testing.T, m *Match) {
	t.Helper()
	state := m.Snapshot()
	var all []models.Tile
	for _, h := range state.Hands {
		all = append(all, h...)
	}
	all = append(all, state.Boneyard...)
	for _, p := range state.Board {
		all = append(all, p.Tile)
	}
	keys := make([]models.Tile, len(all))
	for i, tl := range all {
		keys[i] = tl.Key()
	}
	require.ElementsMatch(t, FullSet(), keys)
}

func TestNewMatchRejectsSeatCount(t *testing.T) {
	m, err := NewMatch(2)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID, "every match is identified")

	_, err = NewMatch(1)
	assert.ErrorIs(t, err, ErrInvalidSeatCount)
	_, err = NewMatch(5)
	assert.ErrorIs(t, err, ErrInvalidSeatCount)
}

func TestStartRound(t *testing.T) {
	m := newTestMatch(t, 3, 1)

	assert.Equal(t, PhaseInRound, m.Phase())
	assert.Equal(t, 1, m.Round())
	assert.Equal(t, 28-3*HandSize, m.BoneyardLen())
	assert.Equal(t, StartingSeat(m.hands, nil), m.TurnSeat())
	assert.True(t, m.Board().Empty())
	requireConserved(t, m)

	assert.ErrorIs(t, m.StartRound(), ErrRoundInProgress)
	assert.Equal(t, 1, m.Round())
}

func TestRejectedIntentsLeaveStateUntouched(t *testing.T) {
	m := newTestMatch(t, 2, 3)
	turn := m.TurnSeat()
	other := (turn + 1) % 2
	before := m.Snapshot()

	_, err := m.Play(other, m.Hand(other)[0], models.EndLeft)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, _, err = m.Draw(other)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = m.Skip(other)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = m.Play(turn, m.Hand(other)[0], models.EndLeft)
	assert.ErrorIs(t, err, ErrTileNotInHand)

	_, err = m.Play(turn, m.Hand(turn)[0], models.End("up"))
	assert.ErrorIs(t, err, ErrIllegalMove)

	assert.Equal(t, before, m.Snapshot())
}

func TestPlayAdvancesTurn(t *testing.T) {
	m := newTestMatch(t, 4, 9)
	turn := m.TurnSeat()
	opener := m.Hand(turn)[0]

	res, err := m.Play(turn, opener, models.EndLeft)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, (turn+1)%4, m.TurnSeat())
	assert.Len(t, m.Hand(turn), HandSize-1)
	assert.Equal(t, 1, m.Board().Len())
	requireConserved(t, m)
}

func TestPlayRejectsMismatch(t *testing.T) {
	m := newTestMatch(t, 2, 1)
	rig(m, 0,
		[][]models.Tile{{tile(1, 2), tile(6, 3)}, {tile(4, 4)}},
		[]models.Tile{tile(0, 0)},
		tile(6, 6))

	_, err := m.Play(0, tile(2, 1), models.EndRight)
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Len(t, m.Hand(0), 2)
	assert.Equal(t, 0, m.TurnSeat())

	_, err = m.Play(0, tile(3, 6), models.EndLeft)
	require.NoError(t, err)
	l, r, _ := m.Board().Ends()
	assert.Equal(t, 3, l)
	assert.Equal(t, 6, r)
}

func TestDraw(t *testing.T) {
	m := newTestMatch(t, 2, 5)
	turn := m.TurnSeat()
	size := m.BoneyardLen()

	drawn, res, err := m.Draw(turn)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Contains(t, m.Hand(turn), drawn)
	assert.Len(t, m.Hand(turn), HandSize+1)
	assert.Equal(t, size-1, m.BoneyardLen())
	assert.Equal(t, turn, m.TurnSeat(), "drawing does not pass the turn")
	requireConserved(t, m)
}

func TestDrawFromEmptyBoneyard(t *testing.T) {
	m := newTestMatch(t, 2, 5)
	rig(m, 1,
		[][]models.Tile{{tile(1, 2)}, {tile(6, 3)}},
		nil,
		tile(6, 6))

	_, _, err := m.Draw(1)
	assert.ErrorIs(t, err, ErrBoneyardEmpty)
	assert.Len(t, m.Hand(1), 1)
}

func TestSkipPassesTurn(t *testing.T) {
	m := newTestMatch(t, 3, 11)
	turn := m.TurnSeat()

	res, err := m.Skip(turn)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, (turn+1)%3, m.TurnSeat())
}

func TestDominoOut(t *testing.T) {
	m := newTestMatch(t, 2, 2)
	rig(m, 0,
		[][]models.Tile{{tile(6, 1)}, {tile(2, 3), tile(4, 4)}},
		[]models.Tile{tile(0, 0)},
		tile(6, 6))

	res, err := m.Play(0, tile(6, 1), models.EndRight)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, EndDominoOut, res.Reason)
	assert.False(t, res.WasBlock)
	assert.Equal(t, 0, res.WinnerSeat)
	assert.Equal(t, []int{0, 13}, res.PipSums)
	assert.Equal(t, []int{13, 0}, res.RoundScores)
	assert.Equal(t, []int{13, 0}, m.Scores())
	assert.Nil(t, res.LeaderSeat)
	assert.False(t, res.MatchOver)
	assert.Equal(t, PhaseRoundOver, m.Phase())
	assert.Same(t, res, m.LastResult())

	_, err = m.Play(1, tile(4, 4), models.EndRight)
	assert.ErrorIs(t, err, ErrNoRoundInProgress)
	_, err = m.Skip(1)
	assert.ErrorIs(t, err, ErrNoRoundInProgress)
	assert.ErrorIs(t, m.Reshuffle(), ErrNoRoundInProgress)
}

func TestBlockSeedsNextLeader(t *testing.T) {
	m := newTestMatch(t, 3, 4)
	rig(m, 0,
		[][]models.Tile{{tile(4, 5)}, {tile(1, 2)}, {tile(0, 3), tile(2, 2)}},
		nil,
		tile(6, 6))

	res, err := m.Skip(0)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, EndBlock, res.Reason)
	assert.True(t, res.WasBlock)
	assert.Equal(t, 1, res.WinnerSeat, "lowest pip total wins a block")
	assert.Equal(t, []int{0, 16, 0}, res.RoundScores)
	require.NotNil(t, res.LeaderSeat)
	assert.Equal(t, 1, *res.LeaderSeat)

	require.NoError(t, m.StartRound())
	assert.Equal(t, 2, m.Round())
	assert.Equal(t, 1, m.TurnSeat(), "block winner opens the next round")
	assert.Equal(t, []int{0, 16, 0}, m.Scores())
}

func TestMatchEndsAtTarget(t *testing.T) {
	m := newTestMatch(t, 4, 8)
	m.scores = []int{98, 95, 70, 40}
	rig(m, 0,
		[][]models.Tile{{tile(0, 6)}, {tile(0, 1)}, {tile(1, 1)}, {tile(0, 2)}},
		[]models.Tile{tile(5, 5)},
		tile(6, 6))

	res, err := m.Play(0, tile(0, 6), models.EndLeft)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, []int{5, 0, 0, 0}, res.RoundScores)
	assert.Equal(t, []int{103, 95, 70, 40}, res.CumulativeScores)
	assert.True(t, res.MatchOver)
	require.NotNil(t, res.MatchWinner)
	assert.Equal(t, 3, *res.MatchWinner, "lowest cumulative score wins")
	assert.Equal(t, PhaseMatchOver, m.Phase())

	assert.ErrorIs(t, m.StartRound(), ErrMatchOver)

	t.Run("Rematch resets scores and deals round one", func(t *testing.T) {
		previous := m.ID
		require.NoError(t, m.Rematch())
		assert.NotEqual(t, previous, m.ID)
		assert.NotEqual(t, uuid.Nil, m.ID)
		assert.Equal(t, []int{0, 0, 0, 0}, m.Scores())
		assert.Equal(t, 1, m.Round())
		assert.Equal(t, PhaseInRound, m.Phase())
		assert.Nil(t, m.LastResult())
		requireConserved(t, m)
	})
}

func TestRematchRequiresFinishedMatch(t *testing.T) {
	m := newTestMatch(t, 2, 1)
	assert.ErrorIs(t, m.Rematch(), ErrMatchNotOver)
}

func TestReshuffle(t *testing.T) {
	m := newTestMatch(t, 2, 6)
	turn := m.TurnSeat()
	_, err := m.Play(turn, m.Hand(turn)[0], models.EndRight)
	require.NoError(t, err)

	require.NoError(t, m.Reshuffle())
	assert.True(t, m.Board().Empty())
	assert.Equal(t, 1, m.Round())
	assert.Equal(t, PhaseInRound, m.Phase())
	for seat := 0; seat < 2; seat++ {
		assert.Len(t, m.Hand(seat), HandSize)
	}
	assert.Equal(t, StartingSeat(m.hands, nil), m.TurnSeat())
	requireConserved(t, m)
}

// TestRandomPlaythrough drives whole matches with a greedy seat policy and checks
// the tile set stays intact after every step.
func TestRandomPlaythrough(t *testing.T) {
	for seats := MinSeats; seats <= MaxSeats; seats++ {
		m := newTestMatch(t, seats, int64(100+seats))

		for steps := 0; m.Phase() != PhaseMatchOver; steps++ {
			require.Less(t, steps, 100000, "match did not terminate")

			if m.Phase() == PhaseRoundOver {
				require.NoError(t, m.StartRound())
				continue
			}

			seat := m.TurnSeat()
			var err error
			if t2, end, ok := firstLegal(m.Hand(seat), m.Board()); ok {
				_, err = m.Play(seat, t2, end)
			} else if m.BoneyardLen() > 0 {
				_, _, err = m.Draw(seat)
			} else {
				_, err = m.Skip(seat)
			}
			require.NoError(t, err)
			requireConserved(t, m)
		}

		res := m.LastResult()
		require.NotNil(t, res)
		assert.True(t, ReachedTarget(res.CumulativeScores))
		assert.Equal(t, MatchWinner(res.CumulativeScores), *res.MatchWinner)
	}
}

func firstLegal(hand []models.Tile, b *Board) (models.Tile, models.End, bool) {
	for _, t := range hand {
		for _, end := range []models.End{models.EndLeft, models.EndRight} {
			if b.CanPlay(t, end) {
				return t, end, true
			}
		}
	}
	return models.Tile{}, "", false
}
