// Package tick delivers periodic callbacks to subscribers.
package tick

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidInterval = errors.New("tick interval must be positive")
	ErrNilCallback     = errors.New("tick callback is nil")
)

// Handle identifies one subscription. The zero Handle is never issued.
type Handle uint64

// Scheduler invokes a callback once per elapsed interval until the
// subscription is released.
type Scheduler interface {
	Subscribe(interval time.Duration, fn func()) (Handle, error)

	// Unsubscribe releases h. It does not wait for a callback that is
	// already running, so a subscriber may observe one late tick.
	Unsubscribe(h Handle)
}

// TickerScheduler runs one goroutine and time.Ticker per subscription.
type TickerScheduler struct {
	mu   sync.Mutex
	next Handle
	subs map[Handle]chan struct{}
}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{
		subs: make(map[Handle]chan struct{}),
	}
}

func (s *TickerScheduler) Subscribe(interval time.Duration, fn func()) (Handle, error) {
	if interval <= 0 {
		return 0, ErrInvalidInterval
	}
	if fn == nil {
		return 0, ErrNilCallback
	}

	s.mu.Lock()
	s.next++
	h := s.next
	stop := make(chan struct{})
	s.subs[h] = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				fn()

			case <-stop:
				return
			}
		}
	}()

	return h, nil
}

func (s *TickerScheduler) Unsubscribe(h Handle) {
	s.mu.Lock()
	stop, ok := s.subs[h]
	delete(s.subs, h)
	s.mu.Unlock()

	if ok {
		close(stop)
	}
}

// Active returns the number of live subscriptions.
func (s *TickerScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close releases every subscription.
func (s *TickerScheduler) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[Handle]chan struct{})
	s.mu.Unlock()

	for _, stop := range subs {
		close(stop)
	}
}
