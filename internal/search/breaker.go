package search

import (
	"sync"
	"time"

	"gamehub/searchservice/internal/metrics"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         5 * time.Minute,
	}
}

// Breaker guards the detail-fetch dependency. Closed passes every call;
// after FailureThreshold consecutive failures it opens and rejects calls
// until the cool-down elapses, then admits exactly one trial call in
// half-open state. All transitions happen under one mutex since
// enrichment batches from overlapping requests share the instance.
type Breaker struct {
	mu                  sync.Mutex
	cfg                 BreakerConfig
	state               BreakerState
	consecutiveFailures int
	reopenAt            time.Time
	trialInFlight       bool
	now                 func() time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultBreakerConfig().Cooldown
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Allow reports whether a call may proceed. In half-open state only the
// first caller gets through; everyone else is rejected until the trial
// resolves.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if b.now().Before(b.reopenAt) {
			return false
		}
		b.setState(BreakerHalfOpen)
		b.trialInFlight = true
		return true
	default: // BreakerHalfOpen
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
		return true
	}
}

// OnSuccess closes the breaker from closed or half-open state. A stray
// success landing while open, from a fetch that was in flight when the
// breaker tripped, must not erase the cool-down.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		return
	}
	b.consecutiveFailures = 0
	b.trialInFlight = false
	b.setState(BreakerClosed)
}

func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		// Trial failed: back to open for a full cool-down.
		b.trialInFlight = false
		b.reopenAt = b.now().Add(b.cfg.Cooldown)
		b.setState(BreakerOpen)
	case BreakerClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.reopenAt = b.now().Add(b.cfg.Cooldown)
			b.setState(BreakerOpen)
		}
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && !b.now().Before(b.reopenAt) {
		return BreakerHalfOpen
	}
	return b.state
}

// ReopenAt returns when an open breaker will admit its trial call.
func (b *Breaker) ReopenAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reopenAt
}

func (b *Breaker) setState(state BreakerState) {
	b.state = state
	switch state {
	case BreakerOpen:
		metrics.BreakerState.Set(2)
	case BreakerHalfOpen:
		metrics.BreakerState.Set(1)
	default:
		metrics.BreakerState.Set(0)
	}
}
