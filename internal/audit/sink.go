package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"realty_portal_backend/internal/events"
	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/logger"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 2 * time.Second
)

// Sink buffers audit entries in a bounded queue and drains them to the
// recorder in batches. When the queue is full, Record drops the entry and
// counts it instead of blocking the caller.
type Sink struct {
	recorder     Recorder
	log          *logger.Logger
	queue        chan Entry
	done         chan struct{}
	drainTimeout time.Duration
	batchSize    int
	flushEvery   time.Duration
	dropped      atomic.Int64
	closeOnce    sync.Once
}

// NewSink creates the sink and starts its drain goroutine.
func NewSink(recorder Recorder, cfg config.AuditConfig, log *logger.Logger) *Sink {
	size := cfg.GetAuditQueueSize()
	if size < 1 {
		size = 1024
	}
	timeout := cfg.GetAuditDrainTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	s := &Sink{
		recorder:     recorder,
		log:          log,
		queue:        make(chan Entry, size),
		done:         make(chan struct{}),
		drainTimeout: timeout,
		batchSize:    defaultBatchSize,
		flushEvery:   defaultFlushInterval,
	}
	go s.run()
	return s
}

// Record enqueues an entry without blocking. Entries offered to a full
// queue or a closed sink are dropped.
func (s *Sink) Record(entry Entry) {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}

	defer func() {
		// Send on closed channel: the sink is shutting down.
		if recover() != nil {
			s.dropped.Add(1)
		}
	}()

	select {
	case s.queue <- entry:
	default:
		if s.dropped.Add(1)%100 == 1 && s.log != nil {
			s.log.Warn("audit queue full, dropping entries", "dropped", s.dropped.Load())
		}
	}
}

// Dropped reports how many entries were discarded since startup.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting entries and drains what is already queued, up to
// the configured deadline.
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
		select {
		case <-s.done:
		case <-time.After(s.drainTimeout):
			if s.log != nil {
				s.log.Warn("audit drain deadline exceeded")
			}
		}
	})
}

func (s *Sink) run() {
	defer close(s.done)

	batch := make([]Entry, 0, s.batchSize)
	timer := time.NewTicker(s.flushEvery)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
		if err := s.recorder.InsertBatch(ctx, batch); err != nil && s.log != nil {
			s.log.Warn("audit batch insert failed", "error", err, "entries", len(batch))
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-timer.C:
			flush()
		}
	}
}

// SubscribeToBus registers the sink on the event bus so stage changes,
// shortlist mutations and quality calculations leave an audit trail.
func (s *Sink) SubscribeToBus(bus events.Bus) {
	bus.Subscribe(events.DealStageChanged{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.DealStageChanged)
		if !ok {
			return nil
		}
		actorID := e.ActorID
		s.Record(Entry{
			TenantID:   e.TenantID,
			ActorID:    &actorID,
			Action:     "deal.stage_changed",
			EntityType: "deal",
			EntityID:   e.DealID,
			Detail: map[string]any{
				"oldStage":     e.OldStage,
				"newStage":     e.NewStage,
				"version":      e.Version,
				"closedReason": e.ClosedReason,
			},
		})
		return nil
	}))

	bus.Subscribe(events.MatchShortlisted{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.MatchShortlisted)
		if !ok {
			return nil
		}
		actorID := e.ActorID
		action := "match.refreshed"
		if e.Created {
			action = "match.shortlisted"
		}
		s.Record(Entry{
			TenantID:   e.TenantID,
			ActorID:    &actorID,
			Action:     action,
			EntityType: "deal",
			EntityID:   e.DealID,
			Detail: map[string]any{
				"propertyId": e.PropertyID,
				"matchScore": e.MatchScore,
			},
		})
		return nil
	}))

	bus.Subscribe(events.MatchStatusChanged{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.MatchStatusChanged)
		if !ok {
			return nil
		}
		actorID := e.ActorID
		s.Record(Entry{
			TenantID:   e.TenantID,
			ActorID:    &actorID,
			Action:     "match.status_changed",
			EntityType: "deal",
			EntityID:   e.DealID,
			Detail: map[string]any{
				"propertyId": e.PropertyID,
				"oldStatus":  e.OldStatus,
				"newStatus":  e.NewStatus,
			},
		})
		return nil
	}))

	bus.Subscribe(events.QualityScoreCalculated{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		e, ok := event.(events.QualityScoreCalculated)
		if !ok {
			return nil
		}
		s.Record(Entry{
			TenantID:   e.TenantID,
			Action:     "property.quality_calculated",
			EntityType: "property",
			EntityID:   e.PropertyID,
			Detail: map[string]any{
				"score": e.Score,
			},
		})
		return nil
	}))
}
