// Package ticktest provides a tick.Scheduler driven by virtual time.
package ticktest

import (
	"sort"
	"sync"
	"time"

	"github.com/hperssn/clockd/internal/tick"
)

type subscription struct {
	interval time.Duration
	nextDue  time.Duration
	fn       func()
}

// FakeScheduler is a tick.Scheduler whose clock only moves when a test
// calls Advance or Tick.
//
// Callbacks run synchronously on the caller's goroutine, outside the
// scheduler's lock, so they may unsubscribe themselves.
type FakeScheduler struct {
	mu   sync.Mutex
	now  time.Duration
	next tick.Handle
	subs map[tick.Handle]*subscription
	// fns keeps every callback ever subscribed so that Fire can simulate a
	// tick arriving after release.
	fns map[tick.Handle]func()

	subscribes         int
	unsubscribes       int
	unknownUnsubscribe int
}

// Prove we implement the Scheduler interface.
var _ tick.Scheduler = &FakeScheduler{}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{
		subs: make(map[tick.Handle]*subscription),
		fns:  make(map[tick.Handle]func()),
	}
}

func (s *FakeScheduler) Subscribe(interval time.Duration, fn func()) (tick.Handle, error) {
	if interval <= 0 {
		return 0, tick.ErrInvalidInterval
	}
	if fn == nil {
		return 0, tick.ErrNilCallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.subs[h] = &subscription{
		interval: interval,
		nextDue:  s.now + interval,
		fn:       fn,
	}
	s.fns[h] = fn
	s.subscribes++
	return h, nil
}

func (s *FakeScheduler) Unsubscribe(h tick.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[h]; !ok {
		s.unknownUnsubscribe++
		return
	}
	delete(s.subs, h)
	s.unsubscribes++
}

// Advance moves virtual time forward by d, firing every callback whose
// interval elapses on the way, in time order.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		fn, ok := s.popDue(target)
		if !ok {
			break
		}
		fn()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// Tick fires every live subscription n times, regardless of interval.
func (s *FakeScheduler) Tick(n int) {
	for i := 0; i < n; i++ {
		for _, h := range s.Handles() {
			s.mu.Lock()
			sub, ok := s.subs[h]
			s.mu.Unlock()
			if ok {
				sub.fn()
			}
		}
	}
}

// Fire invokes the callback registered under h even if it was released,
// the way a platform timer may deliver one last tick.
func (s *FakeScheduler) Fire(h tick.Handle) {
	s.mu.Lock()
	fn, ok := s.fns[h]
	s.mu.Unlock()

	if ok {
		fn()
	}
}

// popDue claims the earliest callback due at or before target.
func (s *FakeScheduler) popDue(target time.Duration) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *subscription
	for _, h := range s.sortedHandles() {
		sub := s.subs[h]
		if sub.nextDue > target {
			continue
		}
		if best == nil || sub.nextDue < best.nextDue {
			best = sub
		}
	}
	if best == nil {
		return nil, false
	}

	s.now = best.nextDue
	best.nextDue += best.interval
	return best.fn, true
}

func (s *FakeScheduler) sortedHandles() []tick.Handle {
	handles := make([]tick.Handle, 0, len(s.subs))
	for h := range s.subs {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// Handles returns the live subscriptions in creation order.
func (s *FakeScheduler) Handles() []tick.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedHandles()
}

func (s *FakeScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *FakeScheduler) Subscribes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes
}

func (s *FakeScheduler) Unsubscribes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribes
}

// UnknownUnsubscribes counts Unsubscribe calls for handles that were not
// live, i.e. double releases.
func (s *FakeScheduler) UnknownUnsubscribes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unknownUnsubscribe
}

// Now returns the virtual time elapsed since creation.
func (s *FakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}
