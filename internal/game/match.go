// internal/game/match.go
package game

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/models"
)

// Phase is the lifecycle position of a match.
type Phase string

const (
	PhaseDealing   Phase = "dealing"
	PhaseInRound   Phase = "in_round"
	PhaseRoundOver Phase = "round_over"
	PhaseMatchOver Phase = "match_over"
)

// EndReason tells how a round terminated.
type EndReason string

const (
	EndDominoOut EndReason = "domino"
	EndBlock     EndReason = "block"
)

// RoundResult is produced once, when a round terminates.
type RoundResult struct {
	Round            int       `json:"round"`
	Reason           EndReason `json:"reason"`
	WasBlock         bool      `json:"wasBlock"`
	WinnerSeat       int       `json:"winnerSeat"`
	PipSums          []int     `json:"pipSums"`
	RoundScores      []int     `json:"roundScores"`
	CumulativeScores []int     `json:"cumulativeScores"`
	// LeaderSeat is the seat seeded to open the next round. It is only set after a block;
	// after a domino-out the next leader comes from the doubles of the new deal.
	LeaderSeat  *int `json:"leaderSeat,omitempty"`
	MatchOver   bool `json:"matchOver"`
	MatchWinner *int `json:"matchWinner,omitempty"`
}

// MatchState is a read-only copy of a match, safe to hand to the transport.
type MatchState struct {
	MatchID  uuid.UUID           `json:"matchId"`
	Round    int                 `json:"round"`
	Phase    Phase               `json:"phase"`
	Seats    []models.Seat       `json:"seats"`
	Hands    [][]models.Tile     `json:"hands"`
	Boneyard []models.Tile       `json:"boneyard"`
	Board    []models.PlacedTile `json:"board"`
	TurnSeat int                 `json:"turnSeat"`
	Scores   []int               `json:"scores"`
}

// Match owns every tile of the set for its whole lifetime. Hands, board and boneyard
// are only mutated through its methods, and a rejected call mutates nothing.
// A Match is not safe for concurrent use; the owning Room serialises access.
type Match struct {
	ID uuid.UUID

	seatCount int
	hands     [][]models.Tile
	boneyard  []models.Tile
	board     *Board
	turnSeat  int
	scores    []int
	round     int
	phase     Phase

	// override seeds the opener of the next round after a block.
	override *int
	last     *RoundResult

	rng *rand.Rand
}

// MatchOption customises a new match.
type MatchOption func(*Match)

// WithRand makes deals and draws use rng, typically a seeded source in tests.
func WithRand(rng *rand.Rand) MatchOption {
	return func(m *Match) {
		m.rng = rng
	}
}

// NewMatch builds a match for seatCount seats. No tiles are dealt until StartRound.
func NewMatch(seatCount int, opts ...MatchOption) (*Match, error) {
	if !ValidSeatCount(seatCount) {
		return nil, ErrInvalidSeatCount
	}
	m := &Match{
		ID:        uuid.New(),
		seatCount: seatCount,
		hands:     make([][]models.Tile, seatCount),
		board:     NewBoard(),
		scores:    make([]int, seatCount),
		phase:     PhaseDealing,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = newRand()
	}
	return m, nil
}

func (m *Match) SeatCount() int           { return m.seatCount }
func (m *Match) Phase() Phase             { return m.phase }
func (m *Match) Round() int               { return m.round }
func (m *Match) TurnSeat() int            { return m.turnSeat }
func (m *Match) BoneyardLen() int         { return len(m.boneyard) }
func (m *Match) Board() *Board            { return m.board }
func (m *Match) LastResult() *RoundResult { return m.last }

// Scores returns a copy of the cumulative scores.
func (m *Match) Scores() []int {
	out := make([]int, len(m.scores))
	copy(out, m.scores)
	return out
}

// Hand returns a copy of one seat's hand.
func (m *Match) Hand(seat int) []models.Tile {
	if seat < 0 || seat >= m.seatCount {
		return nil
	}
	return cloneTiles(m.hands[seat])
}

// StartRound deals a fresh round. The opener is the post-block leader when one was
// seeded, otherwise the holder of the highest double.
func (m *Match) StartRound() error {
	switch m.phase {
	case PhaseInRound:
		return ErrRoundInProgress
	case PhaseMatchOver:
		return ErrMatchOver
	}
	if err := m.deal(); err != nil {
		return err
	}
	m.round++
	m.phase = PhaseInRound
	return nil
}

// Reshuffle re-deals the round in progress. The board goes back into the set so no
// tile is ever duplicated. Any seat may ask for it; the round counter does not move.
func (m *Match) Reshuffle() error {
	if m.phase != PhaseInRound {
		return ErrNoRoundInProgress
	}
	return m.deal()
}

// Rematch clears the scores of a finished match and deals its first round. The
// rematch gets its own ID so both matches are recorded separately.
func (m *Match) Rematch() error {
	if m.phase != PhaseMatchOver {
		return ErrMatchNotOver
	}
	m.ID = uuid.New()
	m.scores = make([]int, m.seatCount)
	m.round = 0
	m.override = nil
	m.last = nil
	m.phase = PhaseDealing
	return m.StartRound()
}

func (m *Match) deal() error {
	hands, boneyard, err := Deal(m.seatCount, m.rng)
	if err != nil {
		return err
	}
	m.hands = hands
	m.boneyard = boneyard
	m.board = NewBoard()
	m.turnSeat = StartingSeat(hands, m.override)
	return nil
}

// Play attaches tile at end for seat and passes the turn. The returned result is
// non-nil when the play terminated the round.
func (m *Match) Play(seat int, tile models.Tile, end models.End) (*RoundResult, error) {
	if err := m.checkTurn(seat); err != nil {
		return nil, err
	}
	if !holds(m.hands[seat], tile) {
		return nil, ErrTileNotInHand
	}
	if _, err := m.board.Place(tile, end); err != nil {
		return nil, err
	}
	m.hands[seat], _ = removeTile(m.hands[seat], tile)
	m.advance()
	return m.settle(), nil
}

// Draw moves one uniformly chosen boneyard tile into the seat's hand. The turn stays
// with the seat so it can try to play the tile.
func (m *Match) Draw(seat int) (models.Tile, *RoundResult, error) {
	if err := m.checkTurn(seat); err != nil {
		return models.Tile{}, nil, err
	}
	if len(m.boneyard) == 0 {
		return models.Tile{}, nil, ErrBoneyardEmpty
	}
	t, rest := drawRandom(m.boneyard, m.rng)
	m.boneyard = rest
	m.hands[seat] = append(m.hands[seat], t)
	return t, m.settle(), nil
}

// Skip passes the turn without moving tiles. It does not check that the seat is
// actually stuck; offering skip only when it is stuck is left to the client.
func (m *Match) Skip(seat int) (*RoundResult, error) {
	if err := m.checkTurn(seat); err != nil {
		return nil, err
	}
	m.advance()
	return m.settle(), nil
}

func (m *Match) checkTurn(seat int) error {
	if m.phase != PhaseInRound {
		return ErrNoRoundInProgress
	}
	if seat != m.turnSeat {
		return ErrNotYourTurn
	}
	return nil
}

func (m *Match) advance() {
	m.turnSeat = (m.turnSeat + 1) % m.seatCount
}

// settle runs the termination check after a successful play, draw or skip.
func (m *Match) settle() *RoundResult {
	for seat, hand := range m.hands {
		if len(hand) == 0 {
			return m.endRound(seat, EndDominoOut)
		}
	}
	if IsBlocked(m.hands, m.boneyard, m.board) {
		return m.endRound(BlockWinner(PipSums(m.hands)), EndBlock)
	}
	return nil
}

func (m *Match) endRound(winner int, reason EndReason) *RoundResult {
	sums := PipSums(m.hands)
	roundScores := ScoreRound(sums, winner)
	for seat, s := range roundScores {
		m.scores[seat] += s
	}

	res := &RoundResult{
		Round:            m.round,
		Reason:           reason,
		WasBlock:         reason == EndBlock,
		WinnerSeat:       winner,
		PipSums:          sums,
		RoundScores:      roundScores,
		CumulativeScores: m.Scores(),
	}

	m.override = nil
	if reason == EndBlock {
		leader := winner
		m.override = &leader
		res.LeaderSeat = &leader
	}

	if ReachedTarget(m.scores) {
		m.phase = PhaseMatchOver
		w := MatchWinner(m.scores)
		res.MatchOver = true
		res.MatchWinner = &w
	} else {
		m.phase = PhaseRoundOver
	}
	m.last = res
	return res
}

// Snapshot copies the match state. Seats are filled in by the owning room.
func (m *Match) Snapshot() MatchState {
	return MatchState{
		MatchID:  m.ID,
		Round:    m.round,
		Phase:    m.phase,
		Hands:    cloneHands(m.hands),
		Boneyard: cloneTiles(m.boneyard),
		Board:    m.board.Tiles(),
		TurnSeat: m.turnSeat,
		Scores:   m.Scores(),
	}
}
