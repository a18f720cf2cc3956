// internal/game/errors.go
package game

import "errors"

// Every intent rejected with one of these errors leaves the match untouched.
var (
	ErrInvalidSeatCount  = errors.New("seat count must be between 2 and 4")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrTileNotInHand     = errors.New("tile is not in your hand")
	ErrIllegalMove       = errors.New("tile does not match that end")
	ErrNoRoundInProgress = errors.New("no round in progress")
	ErrRoundInProgress   = errors.New("round is still in progress")
	ErrBoneyardEmpty     = errors.New("boneyard is empty")
	ErrMatchOver         = errors.New("match is over")
	ErrMatchNotOver      = errors.New("match is not over")
	ErrSeatNotFound      = errors.New("seat not found in room")
	ErrUnknownIntent     = errors.New("unknown intent")
	ErrMatchNotStarted   = errors.New("waiting for seats to fill")
)

var reasonCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidSeatCount, "invalid_seat_count"},
	{ErrRoomNotFound, "room_not_found"},
	{ErrRoomFull, "room_full"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrTileNotInHand, "tile_not_in_hand"},
	{ErrIllegalMove, "illegal_move"},
	{ErrNoRoundInProgress, "no_round_in_progress"},
	{ErrRoundInProgress, "round_in_progress"},
	{ErrBoneyardEmpty, "boneyard_empty"},
	{ErrMatchOver, "match_over"},
	{ErrMatchNotOver, "match_not_over"},
	{ErrSeatNotFound, "seat_not_found"},
	{ErrUnknownIntent, "unknown_intent"},
	{ErrMatchNotStarted, "match_not_started"},
}

// ReasonCode maps an error to the stable code carried by a rejected event.
func ReasonCode(err error) string {
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.err) {
			return rc.code
		}
	}
	return "internal"
}
