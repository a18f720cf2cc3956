// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/auth"
	"github.com/jason-s-yu/domino/internal/game"
	"github.com/jason-s-yu/domino/internal/middleware"
	"github.com/jason-s-yu/domino/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	subprotocol = "domino"
	authCookie  = "auth_token"
)

// clientMessage is everything a client may send. Tile and End are only read for "play".
type clientMessage struct {
	Type string       `json:"type"`
	Tile *models.Tile `json:"tile,omitempty"`
	End  models.End   `json:"end,omitempty"`
}

type pongMessage struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
}

// EnsureIdentity returns the seat identity carried by the auth_token cookie, issuing
// a new one in a Set-Cookie header when the cookie is missing or invalid.
func EnsureIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	var token string
	if c, err := r.Cookie(authCookie); err == nil {
		token = c.Value
	}
	id, newToken, fresh, err := auth.EnsureIdentity(token)
	if err != nil {
		return uuid.Nil, err
	}
	if fresh {
		http.SetCookie(w, &http.Cookie{
			Name:     authCookie,
			Value:    newToken,
			HttpOnly: true,
			Path:     "/",
		})
	}
	return id, nil
}

// RoomWSHandler serves GET /room/ws/{roomId}?name=..&seats=N. The first joiner of a
// room must pass seats to create it.
func RoomWSHandler(logger *logrus.Logger, registry *game.Registry, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.PathValue("roomId")
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}
		seats := 0
		if raw := r.URL.Query().Get("seats"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid seats", http.StatusBadRequest)
				return
			}
			seats = n
		}
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			name = "Guest"
		}

		// The cookie has to be set before the upgrade response is written.
		seatID, authErr := EnsureIdentity(w, r)

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != subprotocol {
			c.Close(BadSubprotocolError, "client must speak the domino subprotocol")
			return
		}
		if authErr != nil {
			logger.Errorf("failed to issue identity: %v", authErr)
			c.Close(InvalidAuthTokenError, "could not issue identity")
			return
		}

		entry := logger.WithFields(logrus.Fields{"room": roomID, "seat": seatID})
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := newConn(seatID, cancel, entry)
		conn.closeFn = func(code websocket.StatusCode, reason string) {
			_ = c.Close(code, reason)
		}
		hub.Register(roomID, conn)

		room, seat, err := registry.Join(roomID, seatID, name, seats)
		if err != nil {
			hub.Unregister(roomID, conn)
			entry.Infof("join refused: %v", err)
			writeCtx, writeCancel := context.WithTimeout(ctx, time.Second)
			_ = wsjson.Write(writeCtx, c, game.Event{
				Type:   game.EventRejected,
				RoomID: roomID,
				Code:   game.ReasonCode(err),
				Reason: err.Error(),
			})
			writeCancel()
			c.Close(joinCloseStatus(err), err.Error())
			return
		}

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		entry.WithField("index", seat.Index).Info("seat connected")

		go writePump(ctx, c, conn)
		readErr := readPump(ctx, c, room, conn)

		// Only the connection that still owns the seat releases it; a replaced one
		// leaves the seat to its successor.
		if hub.Unregister(roomID, conn) {
			if err := registry.Leave(roomID, seatID); err != nil && !errors.Is(err, game.ErrRoomNotFound) {
				entry.Warnf("leave: %v", err)
			}
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
	}
}

// readPump decodes client messages and applies them to the room until the socket
// closes. Rejections reach the client through the room's events.
func readPump(ctx context.Context, c *websocket.Conn, room *game.Room, conn *Conn) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			conn.logger.Warnf("ignoring non-text message type %d", typ)
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.Write(game.Event{Type: game.EventRejected, RoomID: room.ID, Code: "bad_message", Reason: "invalid JSON format"})
			continue
		}

		switch msg.Type {
		case "ping":
			conn.Write(pongMessage{Type: "pong", Time: time.Now().UnixMilli()})
		default:
			err := room.Apply(conn.SeatID, game.Intent{
				Type: game.IntentType(msg.Type),
				Tile: msg.Tile,
				End:  msg.End,
			})
			if err != nil {
				conn.logger.Debugf("%s rejected: %v", msg.Type, err)
			}
		}
	}
}

func writePump(ctx context.Context, c *websocket.Conn, conn *Conn) {
	ticker := time.NewTicker(30 * time.Second) // Send pings periodically
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				conn.logger.Warnf("ping failed: %v", err)
				conn.Cancel()
				return
			}
		case msg := <-conn.OutChan:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, c, msg)
			cancel()
			if err != nil {
				conn.logger.Warnf("failed to write to websocket: %v", err)
				conn.Cancel()
				return
			}
		}
	}
}
