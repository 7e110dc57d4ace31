package engine_test

import (
	"sync"

	"github.com/hperssn/clockd/internal/domain"
)

// recordingSink remembers every event it was handed.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingSink) Notify(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]domain.EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (r *recordingSink) count(kind domain.EventKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *recordingSink) boundary() []domain.EventKind {
	var out []domain.EventKind
	for _, k := range r.kinds() {
		if k.IsBoundary() {
			out = append(out, k)
		}
	}
	return out
}
