// internal/handlers/hub_test.go
package handlers

import (
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/game"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestHubRouting(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub(logger)

	a := newConn(uuid.New(), func() {}, logger.WithField("t", "a"))
	b := newConn(uuid.New(), func() {}, logger.WithField("t", "b"))
	other := newConn(uuid.New(), func() {}, logger.WithField("t", "o"))
	hub.Register("r1", a)
	hub.Register("r1", b)
	hub.Register("r2", other)

	hub.Broadcast("r1", game.Event{Type: game.EventStateUpdated})
	hub.SendTo("r1", a.SeatID, game.Event{Type: game.EventRejected})

	assert.Len(t, a.OutChan, 2)
	assert.Len(t, b.OutChan, 1)
	assert.Len(t, other.OutChan, 0)
}

func TestHubReplacesConnection(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub(logger)
	online := &counter{}
	hub.Online = online
	seat := uuid.New()

	cancelled := make(chan struct{})
	closed := make(chan websocket.StatusCode, 1)
	old := newConn(seat, func() { close(cancelled) }, logger.WithField("t", "old"))
	old.closeFn = func(code websocket.StatusCode, _ string) { closed <- code }
	hub.Register("r", old)

	fresh := newConn(seat, func() {}, logger.WithField("t", "new"))
	hub.Register("r", fresh)

	select {
	case code := <-closed:
		assert.Equal(t, websocket.StatusCode(ReplacedConnectionCode), code)
	case <-time.After(time.Second):
		t.Fatal("replaced connection was not closed")
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("replaced connection was not cancelled")
	}

	assert.False(t, hub.Unregister("r", old), "a replaced connection does not own the seat")
	assert.Equal(t, 1, hub.Connections("r"))
	assert.Equal(t, 1, online.n, "a replacement is not a new seat")
	assert.True(t, hub.Unregister("r", fresh))
	assert.Zero(t, hub.Connections("r"))
	assert.Zero(t, online.n)
}

type counter struct{ n int }

func (c *counter) Inc() { c.n++ }
func (c *counter) Dec() { c.n-- }

func TestConnWriteNeverBlocks(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := newConn(uuid.New(), func() {}, logger.WithField("t", "c"))
	for i := 0; i < cap(c.OutChan)+5; i++ {
		c.Write(game.Event{Type: game.EventStateUpdated})
	}
	assert.Len(t, c.OutChan, cap(c.OutChan))
}
