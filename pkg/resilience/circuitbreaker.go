// Package resilience provides a circuit breaker for flaky downstream
// services. The chat service wraps the generative model call with one so
// a failing model short-circuits to the deterministic fallback instead of
// burning a timeout per request.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Circuit breaker states.
type State int

const (
	StateClosed   State = iota // normal operation
	StateOpen                  // tripped, reject calls
	StateHalfOpen              // allowing a probe call
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerOpts configures the circuit breaker.
type BreakerOpts struct {
	// FailThreshold is how many consecutive failures trip the breaker.
	FailThreshold int
	// Timeout is how long the breaker stays open before entering half-open.
	Timeout time.Duration
}

// DefaultBreakerOpts provides sensible defaults.
var DefaultBreakerOpts = BreakerOpts{
	FailThreshold: 5,
	Timeout:       30 * time.Second,
}

// Breaker implements a closed/open/half-open circuit breaker.
type Breaker struct {
	mu       sync.Mutex
	opts     BreakerOpts
	state    State
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker creates a Breaker.
func NewBreaker(opts BreakerOpts) *Breaker {
	if opts.FailThreshold <= 0 {
		opts.FailThreshold = DefaultBreakerOpts.FailThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBreakerOpts.Timeout
	}
	return &Breaker{opts: opts, now: time.Now}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observe()
}

// observe transitions open→half-open when the timeout has elapsed.
// Must hold mu.
func (b *Breaker) observe() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.opts.Timeout {
		b.state = StateHalfOpen
	}
	return b.state
}

// Do runs f if the breaker allows it, recording the outcome. In the open
// state it returns ErrCircuitOpen without calling f.
func (b *Breaker) Do(ctx context.Context, f func(context.Context) error) error {
	b.mu.Lock()
	if b.observe() == StateOpen {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := f(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.opts.FailThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
			b.failures = 0
		}
		return err
	}
	b.state = StateClosed
	b.failures = 0
	return nil
}
