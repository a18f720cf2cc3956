// internal/models/match_record.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchRecord summarises a finished match for the results store.
type MatchRecord struct {
	MatchID    uuid.UUID `json:"match_id"`
	RoomID     string    `json:"room_id"`
	Seats      []Seat    `json:"seats"`
	Scores     []int     `json:"scores"`
	WinnerSeat int       `json:"winner_seat"`
	Rounds     int       `json:"rounds"`
	EndedAt    time.Time `json:"ended_at"`
}
