// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/domino/internal/game"
	"github.com/jason-s-yu/domino/internal/middleware"
	"github.com/jason-s-yu/domino/internal/models"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every endpoint behind the request logger.
func NewRouter(logger *logrus.Logger, registry *game.Registry, hub *Hub) http.Handler {
	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("GET /room/ws/{roomId}", logged(RoomWSHandler(logger, registry, hub)))
	mux.Handle("GET /room/{roomId}", logged(RoomStatusHandler(registry, hub)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

type roomStatus struct {
	RoomID    string        `json:"roomId"`
	Capacity  int           `json:"capacity"`
	Vacancies int           `json:"vacancies"`
	Sockets   int           `json:"sockets"`
	Seats     []models.Seat `json:"seats"`
	Started   bool          `json:"started"`
	Round     int           `json:"round,omitempty"`
	Phase     game.Phase    `json:"phase,omitempty"`
	Scores    []int         `json:"scores,omitempty"`
}

// RoomStatusHandler reports a room's seats and progress without any hand contents.
func RoomStatusHandler(registry *game.Registry, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, ok := registry.Room(r.PathValue("roomId"))
		if !ok {
			http.Error(w, game.ErrRoomNotFound.Error(), http.StatusNotFound)
			return
		}

		status := roomStatus{
			RoomID:    room.ID,
			Capacity:  room.Capacity,
			Vacancies: room.Vacancies(),
			Sockets:   hub.Connections(room.ID),
			Seats:     room.Seats(),
		}
		if state, started := room.Snapshot(); started {
			status.Started = true
			status.Round = state.Round
			status.Phase = state.Phase
			status.Scores = state.Scores
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	}
}
