// internal/handlers/ws_codes.go
package handlers

import (
	"errors"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/domino/internal/game"
)

// Custom WebSocket close codes used by the room handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError    = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError  = 3001 // Identity token could not be issued.
	InvalidRoomIDError     = 3003 // Room does not exist and no seat count was given to create it.
	RoomFullError          = 3004 // Every seat is held by another identity.
	InvalidSeatCountError  = 3005 // Seat count outside 2..4.
	ReplacedConnectionCode = 3006 // The same identity connected again from elsewhere.
)

// joinCloseStatus maps a failed join to the close code sent to the client.
func joinCloseStatus(err error) websocket.StatusCode {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return InvalidRoomIDError
	case errors.Is(err, game.ErrRoomFull):
		return RoomFullError
	case errors.Is(err, game.ErrInvalidSeatCount):
		return InvalidSeatCountError
	default:
		return websocket.StatusInternalError
	}
}
