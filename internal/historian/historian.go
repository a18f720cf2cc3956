// internal/historian/historian.go
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/domino/internal/cache"
	"github.com/sirupsen/logrus"
)

// Queue is the source of action records, normally a cache.ActionQueue.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (*cache.ActionRecord, error)
	Len(ctx context.Context) (int64, error)
}

const maxRetryBackoff = 5 * time.Second

// Sink persists batches, normally a database.Store.
type Sink interface {
	InsertActions(ctx context.Context, records []cache.ActionRecord) error
	MarkAbandoned(ctx context.Context, matchID uuid.UUID) error
}

type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	PopWait       time.Duration
	// Inactivity marks a match abandoned after it produced no action for this long.
	Inactivity    time.Duration
	SweepInterval time.Duration
	// RetryBackoff is the first pause after a failed pop. It doubles up to five seconds.
	RetryBackoff time.Duration
}

// Service drains the action queue into the sink in batches. A batch is written when
// it is full or when FlushInterval has passed since the last write.
type Service struct {
	queue  Queue
	sink   Sink
	cfg    Config
	logger *logrus.Entry

	batchMu   sync.Mutex
	batch     []cache.ActionRecord
	lastFlush time.Time

	lastActivity sync.Map // uuid.UUID -> time.Time
}

func New(queue Queue, sink Sink, cfg Config, logger *logrus.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.PopWait <= 0 {
		cfg.PopWait = time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	return &Service{
		queue:     queue,
		sink:      sink,
		cfg:       cfg,
		logger:    logger.WithField("component", "historian"),
		batch:     make([]cache.ActionRecord, 0, cfg.BatchSize),
		lastFlush: time.Now(),
	}
}

// Run consumes until ctx is cancelled, then writes whatever is still buffered.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info("historian started")
	go s.housekeepingLoop(ctx)

	backoff := s.cfg.RetryBackoff
	for ctx.Err() == nil {
		rec, err := s.queue.Pop(ctx, s.cfg.PopWait)
		if err != nil && ctx.Err() == nil {
			s.logger.Warnf("pop failed, retrying in %s: %v", backoff, err)
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxRetryBackoff)
		} else if err == nil {
			backoff = s.cfg.RetryBackoff
		}
		if rec != nil {
			s.add(ctx, *rec)
		}
		if time.Since(s.lastFlushTime()) >= s.cfg.FlushInterval {
			s.Flush(ctx)
		}
	}

	// The run context is gone; give the final write its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(shutdownCtx)
	if n := s.pending(); n > 0 {
		s.logger.Errorf("historian stopped with %d unsaved actions", n)
		return
	}
	s.logger.Info("historian stopped")
}

func (s *Service) add(ctx context.Context, rec cache.ActionRecord) {
	// Room-level actions taken before a match exists have nowhere to live.
	if rec.MatchID == uuid.Nil {
		s.logger.Debugf("dropping %s action for room %s without a match", rec.ActionType, rec.RoomID)
		return
	}
	s.lastActivity.Store(rec.MatchID, time.Now())

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

func (s *Service) lastFlushTime() time.Time {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.lastFlush
}

// Flush writes the buffered records. On failure the records are kept for the next
// attempt.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		return
	}

	if err := s.sink.InsertActions(ctx, s.batch); err != nil {
		s.logger.Errorf("flush %d actions: %v", len(s.batch), err)
		return
	}
	s.logger.Debugf("flushed %d actions", len(s.batch))
	s.batch = make([]cache.ActionRecord, 0, s.cfg.BatchSize)
}

func (s *Service) pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

func (s *Service) housekeepingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.reportBacklog(ctx)
			if s.cfg.Inactivity > 0 {
				s.sweep(ctx, now)
			}
		}
	}
}

// reportBacklog logs how much work is waiting in the queue and in the buffer.
func (s *Service) reportBacklog(ctx context.Context) {
	queued, err := s.queue.Len(ctx)
	if err != nil {
		s.logger.Warnf("queue length: %v", err)
		return
	}
	buffered := s.pending()
	if queued == 0 && buffered == 0 {
		return
	}
	s.logger.WithFields(logrus.Fields{"queued": queued, "buffered": buffered}).Info("historian backlog")
}

// sweep marks every match idle for longer than Inactivity as abandoned. Completed
// matches are left alone by the sink.
func (s *Service) sweep(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		matchID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.cfg.Inactivity {
			return true
		}
		if err := s.sink.MarkAbandoned(ctx, matchID); err != nil {
			s.logger.Warnf("failed to mark match %s abandoned: %v", matchID, err)
			return true
		}
		s.lastActivity.Delete(matchID)
		s.logger.WithField("match", matchID).Info("match marked abandoned")
		return true
	})
}
