package storage

import (
	"time"

	"github.com/hperssn/clockd/internal/domain"
)

// EventRecord is one journaled feedback event.
type EventRecord struct {
	SessionID string           `json:"sessionId"`
	UserID    string           `json:"userId"`
	Source    domain.Source    `json:"source"`
	Kind      domain.EventKind `json:"kind"`
	Value     time.Duration    `json:"value"`
	Display   string           `json:"display"`
	At        time.Time        `json:"at"`
}

// FromDomainEvent converts an engine event of session s to an EventRecord.
func FromDomainEvent(s *domain.Session, ev domain.Event) *EventRecord {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	return &EventRecord{
		SessionID: s.ID,
		UserID:    s.UserID,
		Source:    ev.Source,
		Kind:      ev.Kind,
		Value:     ev.Value,
		Display:   ev.Display,
		At:        at.UTC(),
	}
}
