// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/game"
	"github.com/sirupsen/logrus"
)

// Conn is one live websocket for a seat. Messages queue on OutChan and are written
// by the connection's write pump.
type Conn struct {
	SeatID  uuid.UUID
	OutChan chan interface{}
	Cancel  context.CancelFunc

	// closeFn sends a close frame on the underlying socket. Nil in hub-only tests.
	closeFn func(code websocket.StatusCode, reason string)
	logger  *logrus.Entry
}

func newConn(seatID uuid.UUID, cancel context.CancelFunc, logger *logrus.Entry) *Conn {
	return &Conn{
		SeatID:  seatID,
		OutChan: make(chan interface{}, 32),
		Cancel:  cancel,
		logger:  logger,
	}
}

// Write queues msg without blocking. A full queue drops the message.
func (c *Conn) Write(msg interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		c.logger.Warnf("outbound queue full for seat %s, dropping %T", c.SeatID, msg)
	}
}

// Close tells the client why it is being disconnected, then stops the connection.
func (c *Conn) Close(code websocket.StatusCode, reason string) {
	if c.closeFn != nil {
		c.closeFn(code, reason)
	}
	c.Cancel()
}

// Hub routes room events to the connections of each room. It implements
// game.Broadcaster and never calls back into a room.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[uuid.UUID]*Conn
	logger *logrus.Logger

	// Online, when set, tracks the number of registered connections.
	Online interface {
		Inc()
		Dec()
	}
}

var _ game.Broadcaster = (*Hub)(nil)

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[uuid.UUID]*Conn),
		logger: logger,
	}
}

// Register attaches conn to roomID. An older connection for the same seat is
// replaced and closed with ReplacedConnectionCode.
func (h *Hub) Register(roomID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomID]
	if !ok {
		conns = make(map[uuid.UUID]*Conn)
		h.rooms[roomID] = conns
	}
	if old, ok := conns[conn.SeatID]; ok {
		if old == conn {
			return
		}
		h.logger.WithFields(logrus.Fields{"room": roomID, "seat": conn.SeatID}).Info("replacing existing connection")
		// The close handshake can take seconds; it must not hold the hub lock.
		go old.Close(ReplacedConnectionCode, "connected from elsewhere")
	} else if h.Online != nil {
		h.Online.Inc()
	}
	conns[conn.SeatID] = conn
}

// Unregister detaches conn. It reports false when conn had already been replaced,
// in which case the seat is still live elsewhere.
func (h *Hub) Unregister(roomID string, conn *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomID]
	if !ok || conns[conn.SeatID] != conn {
		return false
	}
	delete(conns, conn.SeatID)
	if h.Online != nil {
		h.Online.Dec()
	}
	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}
	return true
}

func (h *Hub) Broadcast(roomID string, ev game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[roomID] {
		c.Write(ev)
	}
}

func (h *Hub) SendTo(roomID string, seatID uuid.UUID, ev game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.rooms[roomID][seatID]; ok {
		c.Write(ev)
	}
}

// Connections is the number of live connections in roomID.
func (h *Hub) Connections(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
