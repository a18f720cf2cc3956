// internal/game/room.go
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/cache"
	"github.com/jason-s-yu/domino/internal/models"
	"github.com/sirupsen/logrus"
)

// Room binds a session identifier to its seats and, once every seat is taken, its Match.
// Every state change happens with Mu held, so intents for one room apply one at a
// time in arrival order while separate rooms run independently.
type Room struct {
	ID       string
	Capacity int

	Mu sync.Mutex

	seats []*models.Seat
	match *Match

	broadcaster Broadcaster
	actions     ActionLogger
	results     ResultRecorder
	metrics     Metrics
	matchOpts   []MatchOption

	// cooldown delays the automatic deal that follows a blocked round. Zero disables it.
	cooldown   time.Duration
	roundTimer *time.Timer

	actionIndex int
	closed      bool

	logger *logrus.Entry
}

func newRoom(id string, capacity int, reg *Registry) *Room {
	return &Room{
		ID:          id,
		Capacity:    capacity,
		broadcaster: reg.broadcaster,
		actions:     reg.actions,
		results:     reg.results,
		metrics:     reg.metrics,
		matchOpts:   reg.matchOpts,
		cooldown:    reg.cooldown,
		logger:      reg.logger.WithField("room", id),
	}
}

// Seats returns a copy of the membership list in seat order.
func (r *Room) Seats() []models.Seat {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.seatsUnsafe()
}

// Vacancies is the number of seats a new identity could still take. A seat whose
// player dropped mid-match stays reserved for that player and is not vacant.
func (r *Room) Vacancies() int {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.Capacity - len(r.seats)
}

// Snapshot returns the current match state. ok is false until the match exists.
func (r *Room) Snapshot() (MatchState, bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.match == nil {
		return MatchState{}, false
	}
	return r.snapshotUnsafe(), true
}

// Apply routes an intent to the matching operation.
func (r *Room) Apply(seatID uuid.UUID, in Intent) error {
	switch in.Type {
	case IntentPlay:
		if in.Tile == nil {
			r.Mu.Lock()
			defer r.Mu.Unlock()
			r.rejectUnsafe(seatID, ErrIllegalMove)
			return ErrIllegalMove
		}
		return r.Play(seatID, *in.Tile, in.End)
	case IntentDraw:
		return r.Draw(seatID)
	case IntentSkip:
		return r.Skip(seatID)
	case IntentReshuffle:
		return r.Reshuffle(seatID)
	case IntentStartNewRound:
		return r.StartNewRound(seatID)
	case IntentRematch:
		return r.Rematch(seatID)
	default:
		r.Mu.Lock()
		defer r.Mu.Unlock()
		r.rejectUnsafe(seatID, ErrUnknownIntent)
		return ErrUnknownIntent
	}
}

// Play attaches a tile from the seat's hand to one end of the board.
func (r *Room) Play(seatID uuid.UUID, tile models.Tile, end models.End) error {
	payload := map[string]interface{}{"tile": tile.String(), "end": string(end)}
	return r.apply(seatID, "play", payload, func(seat int) (EventType, *RoundResult, error) {
		res, err := r.match.Play(seat, tile, end)
		return EventStateUpdated, res, err
	})
}

// Draw takes a random tile from the boneyard for the seat whose turn it is.
func (r *Room) Draw(seatID uuid.UUID) error {
	return r.apply(seatID, "draw", nil, func(seat int) (EventType, *RoundResult, error) {
		_, res, err := r.match.Draw(seat)
		return EventStateUpdated, res, err
	})
}

// Skip passes the turn.
func (r *Room) Skip(seatID uuid.UUID) error {
	return r.apply(seatID, "skip", nil, func(seat int) (EventType, *RoundResult, error) {
		res, err := r.match.Skip(seat)
		return EventStateUpdated, res, err
	})
}

// Reshuffle re-deals the round in progress. Any seat may request it.
func (r *Room) Reshuffle(seatID uuid.UUID) error {
	return r.apply(seatID, "reshuffle", nil, func(int) (EventType, *RoundResult, error) {
		return EventReshuffled, nil, r.match.Reshuffle()
	})
}

// StartNewRound deals the next round once the previous one has ended. It supersedes
// a pending automatic deal.
func (r *Room) StartNewRound(seatID uuid.UUID) error {
	return r.apply(seatID, "start_new_round", nil, func(int) (EventType, *RoundResult, error) {
		if err := r.match.StartRound(); err != nil {
			return "", nil, err
		}
		r.stopTimerUnsafe()
		return EventRoundStarted, nil, nil
	})
}

// Rematch resets the scores of a finished match and deals again.
func (r *Room) Rematch(seatID uuid.UUID) error {
	return r.apply(seatID, "rematch", nil, func(int) (EventType, *RoundResult, error) {
		if err := r.match.Rematch(); err != nil {
			return "", nil, err
		}
		r.actionIndex = 0
		return EventRoundStarted, nil, nil
	})
}

// apply runs one serialised intent: resolve the seat, mutate, then emit the state
// event and any round or match report. A failing intent only produces a rejection.
func (r *Room) apply(seatID uuid.UUID, action string, payload map[string]interface{}, fn func(seat int) (EventType, *RoundResult, error)) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	start := time.Now()
	seat, err := r.seatIndexUnsafe(seatID)
	if err == nil && r.match == nil {
		err = ErrMatchNotStarted
	}
	if err == nil {
		var evType EventType
		var res *RoundResult
		evType, res, err = fn(seat)
		if err == nil {
			r.observeUnsafe(action, nil, start)
			r.logActionUnsafe(seatID, action, payload)
			state := r.snapshotUnsafe()
			r.fireUnsafe(Event{Type: evType, State: &state})
			if res != nil {
				r.finishRoundUnsafe(res)
			}
			return nil
		}
	}

	r.logger.WithFields(logrus.Fields{
		"seat":   seatID,
		"action": action,
	}).Debugf("intent rejected: %v", err)
	r.observeUnsafe(action, err, start)
	r.rejectUnsafe(seatID, err)
	return err
}

func (r *Room) observeUnsafe(action string, err error, start time.Time) {
	if r.metrics == nil {
		return
	}
	code := ""
	if err != nil {
		code = ReasonCode(err)
	}
	r.metrics.IntentHandled(action, code, time.Since(start))
}

// finishRoundUnsafe reports a terminated round and arranges what comes next.
func (r *Room) finishRoundUnsafe(res *RoundResult) {
	r.logActionUnsafe(uuid.Nil, "round_end", map[string]interface{}{
		"round":       res.Round,
		"reason":      string(res.Reason),
		"winner":      res.WinnerSeat,
		"roundScores": res.RoundScores,
	})
	r.fireUnsafe(Event{Type: EventRoundEnded, Round: res})
	if r.metrics != nil {
		r.metrics.RoundEnded(string(res.Reason))
		if res.MatchOver {
			r.metrics.MatchEnded()
		}
	}

	if res.MatchOver {
		winner := *res.MatchWinner
		r.fireUnsafe(Event{
			Type:       EventMatchEnded,
			Scores:     res.CumulativeScores,
			WinnerSeat: &winner,
		})
		r.recordMatchUnsafe(res)
		r.logger.WithFields(logrus.Fields{
			"match":  r.match.ID,
			"winner": winner,
			"scores": res.CumulativeScores,
		}).Info("match ended")
		return
	}

	if res.WasBlock && r.cooldown > 0 {
		r.scheduleRoundUnsafe()
	}
}

// scheduleRoundUnsafe arms the post-block cooldown. The callback re-checks the phase
// because an explicit StartNewRound or the room's destruction may win the race.
func (r *Room) scheduleRoundUnsafe() {
	r.stopTimerUnsafe()
	r.roundTimer = time.AfterFunc(r.cooldown, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()

		r.roundTimer = nil
		if r.closed || r.match == nil || r.match.Phase() != PhaseRoundOver {
			return
		}
		if err := r.match.StartRound(); err != nil {
			r.logger.Warnf("automatic deal failed: %v", err)
			return
		}
		r.logActionUnsafe(uuid.Nil, "auto_deal", nil)
		state := r.snapshotUnsafe()
		r.fireUnsafe(Event{Type: EventRoundStarted, State: &state})
	})
}

func (r *Room) stopTimerUnsafe() {
	if r.roundTimer != nil {
		r.roundTimer.Stop()
		r.roundTimer = nil
	}
}

// join seats a new identity, or reconnects an identity that already holds a seat.
// The match is created and dealt the moment the last seat fills.
func (r *Room) join(seatID uuid.UUID, name string) (models.Seat, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	for _, s := range r.seats {
		if s.ID == seatID {
			s.Connected = true
			r.logger.WithField("seat", s.Index).Info("seat reconnected")
			r.announceJoinUnsafe(s)
			if r.match != nil {
				state := r.snapshotUnsafe()
				r.sendUnsafe(seatID, Event{Type: EventStateUpdated, State: &state})
			}
			return *s, nil
		}
	}

	if len(r.seats) >= r.Capacity {
		return models.Seat{}, ErrRoomFull
	}

	seat := &models.Seat{
		ID:        seatID,
		Name:      name,
		Index:     len(r.seats),
		Connected: true,
	}
	r.seats = append(r.seats, seat)
	r.logActionUnsafe(seatID, "join", map[string]interface{}{"name": name, "index": seat.Index})
	r.logger.WithFields(logrus.Fields{"seat": seat.Index, "name": name}).Info("seat joined")
	r.announceJoinUnsafe(seat)

	if len(r.seats) == r.Capacity && r.match == nil {
		if err := r.startMatchUnsafe(); err != nil {
			// Capacity is validated on creation, so this only trips on a programming error.
			r.logger.Errorf("failed to start match: %v", err)
		}
	}
	return *seat, nil
}

func (r *Room) announceJoinUnsafe(seat *models.Seat) {
	s := *seat
	r.sendUnsafe(seat.ID, Event{Type: EventJoined, Seat: &s})
	r.fireRoomUpdatedUnsafe()
}

func (r *Room) startMatchUnsafe() error {
	m, err := NewMatch(r.Capacity, r.matchOpts...)
	if err != nil {
		return err
	}
	if err := m.StartRound(); err != nil {
		return err
	}
	r.match = m
	r.actionIndex = 0
	r.logActionUnsafe(uuid.Nil, "match_start", map[string]interface{}{"seats": r.Capacity})
	r.logger.WithField("match", m.ID).Info("match started")

	state := r.snapshotUnsafe()
	r.fireUnsafe(Event{Type: EventRoundStarted, State: &state})
	return nil
}

// leave removes a seat before the match exists, or marks it disconnected once the
// match is running so seat indices never shift. It reports whether nobody is left.
func (r *Room) leave(seatID uuid.UUID) (bool, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	idx := -1
	for i, s := range r.seats {
		if s.ID == seatID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrSeatNotFound
	}

	if r.match == nil {
		r.seats = append(r.seats[:idx], r.seats[idx+1:]...)
		for i, s := range r.seats {
			s.Index = i
		}
	} else {
		r.seats[idx].Connected = false
	}
	r.logActionUnsafe(seatID, "leave", nil)
	r.logger.WithField("seat", idx).Info("seat left")

	empty := r.connectedUnsafe() == 0
	if !empty {
		r.fireRoomUpdatedUnsafe()
	}
	return empty, nil
}

// close stops the pending automatic deal. A closed room ignores its timer.
func (r *Room) close() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.closed = true
	r.stopTimerUnsafe()
}

func (r *Room) seatIndexUnsafe(seatID uuid.UUID) (int, error) {
	for _, s := range r.seats {
		if s.ID == seatID {
			return s.Index, nil
		}
	}
	return -1, ErrSeatNotFound
}

func (r *Room) seatsUnsafe() []models.Seat {
	out := make([]models.Seat, len(r.seats))
	for i, s := range r.seats {
		out[i] = *s
	}
	return out
}

func (r *Room) connectedUnsafe() int {
	n := 0
	for _, s := range r.seats {
		if s.Connected {
			n++
		}
	}
	return n
}

func (r *Room) snapshotUnsafe() MatchState {
	state := r.match.Snapshot()
	state.Seats = r.seatsUnsafe()
	return state
}

func (r *Room) fireRoomUpdatedUnsafe() {
	vacancies := r.Capacity - len(r.seats)
	r.fireUnsafe(Event{
		Type:      EventRoomUpdated,
		Seats:     r.seatsUnsafe(),
		Vacancies: &vacancies,
	})
}

func (r *Room) fireUnsafe(ev Event) {
	if r.broadcaster == nil {
		return
	}
	ev.RoomID = r.ID
	r.broadcaster.Broadcast(r.ID, ev)
}

func (r *Room) sendUnsafe(seatID uuid.UUID, ev Event) {
	if r.broadcaster == nil {
		return
	}
	ev.RoomID = r.ID
	r.broadcaster.SendTo(r.ID, seatID, ev)
}

func (r *Room) rejectUnsafe(seatID uuid.UUID, err error) {
	r.sendUnsafe(seatID, rejected(r.ID, err))
}

// logActionUnsafe sends the action to the historian queue without waiting on Redis.
func (r *Room) logActionUnsafe(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	if r.actions == nil {
		return
	}
	r.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.ActionRecord{
		RoomID:        r.ID,
		ActionIndex:   r.actionIndex,
		ActorSeatID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	if r.match != nil {
		record.MatchID = r.match.ID
	}

	actions, logger := r.actions, r.logger
	go func(rec cache.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := actions.LogAction(ctx, rec); err != nil {
			logger.Warnf("failed to publish action %d: %v", rec.ActionIndex, err)
		}
	}(record)
}

func (r *Room) recordMatchUnsafe(res *RoundResult) {
	if r.results == nil {
		return
	}
	record := models.MatchRecord{
		MatchID:    r.match.ID,
		RoomID:     r.ID,
		Seats:      r.seatsUnsafe(),
		Scores:     res.CumulativeScores,
		WinnerSeat: *res.MatchWinner,
		Rounds:     res.Round,
		EndedAt:    time.Now(),
	}

	results, logger := r.results, r.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := results.RecordMatch(ctx, record); err != nil {
			logger.Errorf("failed to record match %s: %v", record.MatchID, err)
		}
	}()
}
