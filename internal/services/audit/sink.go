package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
)

// Sink is the fire-and-forget audit writer. Events go through a bounded
// buffer to a small worker pool; when the buffer is full the event is
// dropped and counted. Request handling never blocks on audit.
type Sink struct {
	storage interfaces.AuditStorage
	logger  arbor.ILogger
	events  chan *models.AuditEvent
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

// NewSink starts the worker pool and returns the sink. bufferSize and
// workers fall back to sane minimums when non-positive.
func NewSink(storage interfaces.AuditStorage, bufferSize, workers int, logger arbor.ILogger) *Sink {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if workers <= 0 {
		workers = 2
	}

	s := &Sink{
		storage: storage,
		logger:  logger,
		events:  make(chan *models.AuditEvent, bufferSize),
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	logger.Debug().
		Int("buffer_size", bufferSize).
		Int("workers", workers).
		Msg("Audit sink started")

	return s
}

var _ interfaces.AuditSink = (*Sink)(nil)

// Record enqueues an event without blocking. A saturated buffer drops
// the event.
func (s *Sink) Record(event *models.AuditEvent) {
	if event == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	select {
	case s.events <- event:
	default:
		dropped := s.dropped.Add(1)
		if dropped%100 == 1 {
			s.logger.Warn().
				Int64("dropped_total", dropped).
				Str("event_type", event.EventType).
				Msg("Audit buffer saturated, dropping events")
		}
	}
}

// Dropped returns the number of events lost to buffer saturation.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Close drains the buffer and stops the workers. Safe to call more than
// once.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.events)
		s.wg.Wait()
		s.logger.Debug().Int64("dropped_total", s.dropped.Load()).Msg("Audit sink stopped")
	})
}

func (s *Sink) worker() {
	defer s.wg.Done()

	for event := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.storage.Append(ctx, event); err != nil {
			s.logger.Warn().
				Err(err).
				Str("event_type", event.EventType).
				Str("job_id", event.JobID).
				Msg("Failed to persist audit event")
		}
		cancel()
	}
}
