package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type State uint8

const (
	Closed State = iota + 1
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrOpenCB = errors.New("circuit breaker is open")

// Settings tunes a Breaker. Zero fields take the defaults below.
type Settings struct {
	// Window is the number of most recent counted calls the ratio is taken over.
	Window int
	// MinCalls counted calls must be seen before the breaker may open.
	MinCalls int
	// FailureRatio of the window that opens the breaker.
	FailureRatio float64
	// OpenTimeout is how long calls are rejected before a trial is let through.
	OpenTimeout time.Duration
	// RecoveryCalls consecutive trial successes close the breaker again.
	RecoveryCalls int
	// IsFailure decides whether an error says anything about the downstream.
	// Errors it rejects are returned to the caller but not recorded.
	IsFailure func(err error) bool
	Now       func() time.Time
}

func (s *Settings) applyDefaults() {
	if s.Window <= 0 {
		s.Window = 20
	}
	if s.MinCalls <= 0 || s.MinCalls > s.Window {
		s.MinCalls = s.Window
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 10 * time.Second
	}
	if s.RecoveryCalls <= 0 {
		s.RecoveryCalls = 1
	}
	if s.IsFailure == nil {
		s.IsFailure = func(err error) bool { return err != nil }
	}
	if s.Now == nil {
		s.Now = time.Now
	}
}

// Breaker rejects calls with ErrOpenCB once too many recent calls failed.
type Breaker struct {
	st Settings

	mu       sync.Mutex
	state    State
	openedAt time.Time
	// outcomes is a ring of the last st.Window counted calls, true is a failure.
	outcomes  []bool
	next      int
	recorded  int
	failures  int
	successes int
}

func New(st Settings) *Breaker {
	st.applyDefaults()
	return &Breaker{
		st:       st,
		state:    Closed,
		outcomes: make([]bool, st.Window),
	}
}

func (b *Breaker) Call(fn func() error) error {
	if !b.allow() {
		return ErrOpenCB
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.st.Now().Sub(b.openedAt) >= b.st.OpenTimeout {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.close()
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return true
	}
	if b.st.Now().Sub(b.openedAt) < b.st.OpenTimeout {
		return false
	}
	b.state = HalfOpen
	b.successes = 0
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && b.st.IsFailure(err)
	if err != nil && !failed {
		return
	}

	switch b.state {
	case HalfOpen:
		if failed {
			b.open()
			return
		}
		b.successes++
		if b.successes >= b.st.RecoveryCalls {
			b.close()
		}
	case Closed:
		b.push(failed)
		if b.recorded >= b.st.MinCalls &&
			float64(b.failures)/float64(b.recorded) >= b.st.FailureRatio {
			b.open()
		}
	}
}

// push adds an outcome to the ring, evicting the oldest once full.
func (b *Breaker) push(failed bool) {
	if b.recorded == len(b.outcomes) {
		if b.outcomes[b.next] {
			b.failures--
		}
	} else {
		b.recorded++
	}
	b.outcomes[b.next] = failed
	if failed {
		b.failures++
	}
	b.next = (b.next + 1) % len(b.outcomes)
}

func (b *Breaker) open() {
	b.state = Open
	b.openedAt = b.st.Now()
	b.successes = 0
}

func (b *Breaker) close() {
	clear(b.outcomes)
	b.next, b.recorded, b.failures, b.successes = 0, 0, 0, 0
	b.state = Closed
}
