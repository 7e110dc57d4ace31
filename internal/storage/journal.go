package storage

import (
	"context"
	"io"
	"time"

	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/engine"
)

// Journal writes boundary events to a Repository from a background worker.
// Ticks are never journaled, and a full queue drops events instead of
// making an engine wait.
type Journal struct {
	repo   Repository
	queue  chan *EventRecord
	logger *log.Logger
}

func NewJournal(repo Repository, queueSize int, logger *log.Logger) *Journal {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Journal{
		repo:   repo,
		queue:  make(chan *EventRecord, queueSize),
		logger: logger,
	}
}

// SinkFor returns the feedback sink that journals events of session s.
func (j *Journal) SinkFor(s *domain.Session) engine.FeedbackSink {
	return engine.SinkFunc(func(ev domain.Event) {
		if !ev.Kind.IsBoundary() {
			return
		}
		j.Record(FromDomainEvent(s, ev))
	})
}

// Record enqueues a record without blocking. It reports whether the record
// was accepted.
func (j *Journal) Record(record *EventRecord) bool {
	select {
	case j.queue <- record:
		return true
	default:
		j.logger.Warn("journal queue full, dropping event",
			"session", record.SessionID, "kind", record.Kind)
		return false
	}
}

// Run saves queued records until ctx is done, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case record := <-j.queue:
			j.save(record)

		case <-ctx.Done():
			for {
				select {
				case record := <-j.queue:
					j.save(record)
				default:
					return nil
				}
			}
		}
	}
}

func (j *Journal) save(record *EventRecord) {
	err := retry.Do(
		func() error { return j.repo.SaveEvent(record) },
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		j.logger.Error("failed to journal event", "session", record.SessionID,
			"kind", record.Kind, "error", err)
	}
}
