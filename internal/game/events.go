// internal/game/events.go
package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/cache"
	"github.com/jason-s-yu/domino/internal/models"
)

// EventType names a message produced for the transport to deliver verbatim.
type EventType string

const (
	EventRoomUpdated  EventType = "room_updated"
	EventJoined       EventType = "joined" // private: the seat assigned to the joiner
	EventRoundStarted EventType = "round_started"
	EventStateUpdated EventType = "state_updated"
	EventReshuffled   EventType = "reshuffled"
	EventRoundEnded   EventType = "round_ended"
	EventMatchEnded   EventType = "match_ended"
	EventRejected     EventType = "rejected" // private: sent to the acting seat only
)

// Event is the single envelope for everything a room emits.
type Event struct {
	Type   EventType `json:"type"`
	RoomID string    `json:"roomId"`

	Seat      *models.Seat  `json:"seat,omitempty"`
	Seats     []models.Seat `json:"seats,omitempty"`
	Vacancies *int          `json:"vacancies,omitempty"`

	State *MatchState  `json:"state,omitempty"`
	Round *RoundResult `json:"round,omitempty"`

	Scores     []int `json:"scores,omitempty"`
	WinnerSeat *int  `json:"winnerSeat,omitempty"`

	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Broadcaster delivers room events. Implementations must not block and must not
// call back into the room or registry.
type Broadcaster interface {
	Broadcast(roomID string, ev Event)
	SendTo(roomID string, seatID uuid.UUID, ev Event)
}

// ActionLogger receives one record per applied intent.
type ActionLogger interface {
	LogAction(ctx context.Context, record cache.ActionRecord) error
}

// ResultRecorder stores finished matches.
type ResultRecorder interface {
	RecordMatch(ctx context.Context, record models.MatchRecord) error
}

// IntentType names an inbound request from a seat.
type IntentType string

const (
	IntentPlay          IntentType = "play"
	IntentDraw          IntentType = "draw"
	IntentSkip          IntentType = "skip"
	IntentReshuffle     IntentType = "reshuffle"
	IntentStartNewRound IntentType = "start_new_round"
	IntentRematch       IntentType = "rematch"
)

// Intent is a decoded request. Tile and End are only read for IntentPlay.
type Intent struct {
	Type IntentType   `json:"type"`
	Tile *models.Tile `json:"tile,omitempty"`
	End  models.End   `json:"end,omitempty"`
}

func rejected(roomID string, err error) Event {
	return Event{
		Type:   EventRejected,
		RoomID: roomID,
		Code:   ReasonCode(err),
		Reason: err.Error(),
	}
}

// Metrics observes room activity. The registry works without one.
type Metrics interface {
	IntentHandled(intent string, code string, took time.Duration)
	RoundEnded(reason string)
	MatchEnded()
	SetActiveRooms(n int)
}
