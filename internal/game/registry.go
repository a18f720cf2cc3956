// internal/game/registry.go
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/models"
	"github.com/sirupsen/logrus"
)

// Registry maps room identifiers to live rooms. Rooms exist only in memory and are
// dropped once their last connected seat leaves.
//
// Lock order is Registry.mu then Room.Mu.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	broadcaster Broadcaster
	actions     ActionLogger
	results     ResultRecorder
	metrics     Metrics
	cooldown    time.Duration
	matchOpts   []MatchOption

	logger *logrus.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithActionLogger publishes every applied intent, typically to the redis action queue.
func WithActionLogger(a ActionLogger) RegistryOption {
	return func(r *Registry) { r.actions = a }
}

// WithResultRecorder persists finished matches.
func WithResultRecorder(rec ResultRecorder) RegistryOption {
	return func(r *Registry) { r.results = rec }
}

// WithMetrics reports room activity to m.
func WithMetrics(m Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// WithNewRoundCooldown sets the delay before a round is dealt automatically after a block.
func WithNewRoundCooldown(d time.Duration) RegistryOption {
	return func(r *Registry) { r.cooldown = d }
}

// WithMatchOptions is applied to every match the registry creates.
func WithMatchOptions(opts ...MatchOption) RegistryOption {
	return func(r *Registry) { r.matchOpts = append(r.matchOpts, opts...) }
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *logrus.Logger, b Broadcaster, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	r := &Registry{
		rooms:       make(map[string]*Room),
		broadcaster: b,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Join seats seatID in roomID. The first joiner creates the room and must supply the
// expected seat count; later joiners pass 0 or any value, which is ignored.
func (r *Registry) Join(roomID string, seatID uuid.UUID, name string, expected int) (*Room, models.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		if expected == 0 {
			return nil, models.Seat{}, ErrRoomNotFound
		}
		if !ValidSeatCount(expected) {
			return nil, models.Seat{}, ErrInvalidSeatCount
		}
		room = newRoom(roomID, expected, r)
		r.rooms[roomID] = room
		r.reportRoomsUnsafe()
		r.logger.WithFields(logrus.Fields{"room": roomID, "seats": expected}).Info("room created")
	}

	seat, err := room.join(seatID, name)
	if err != nil {
		return nil, models.Seat{}, err
	}
	return room, seat, nil
}

// Leave releases seatID from roomID and destroys the room when nobody remains connected.
func (r *Registry) Leave(roomID string, seatID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	empty, err := room.leave(seatID)
	if err != nil {
		return err
	}
	if empty {
		room.close()
		delete(r.rooms, roomID)
		r.reportRoomsUnsafe()
		r.logger.WithField("room", roomID).Info("room destroyed")
	}
	return nil
}

// Room retrieves a live room.
func (r *Registry) Room(roomID string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// Len is the number of live rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Close stops every room's timers and forgets all rooms. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, room := range r.rooms {
		room.close()
		delete(r.rooms, id)
	}
	r.reportRoomsUnsafe()
}

func (r *Registry) reportRoomsUnsafe() {
	if r.metrics != nil {
		r.metrics.SetActiveRooms(len(r.rooms))
	}
}
