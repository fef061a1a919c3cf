package search

import (
	"testing"
	"time"
)

func newTestBreaker(t *testing.T, now *time.Time) *Breaker {
	t.Helper()
	b := NewBreaker(BreakerConfig{FailureThreshold: 5, Cooldown: 5 * time.Minute})
	b.now = func() time.Time { return *now }
	return b
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	now := time.Now()
	b := newTestBreaker(t, &now)

	for i := 0; i < 4; i++ {
		b.OnFailure()
		if !b.Allow() {
			t.Fatalf("breaker rejected call after %d failures, threshold is 5", i+1)
		}
	}

	b.OnFailure()
	if b.Allow() {
		t.Fatal("breaker allowed call after reaching failure threshold")
	}
	if got := b.State(); got != BreakerOpen {
		t.Fatalf("state = %v, want open", got)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	now := time.Now()
	b := newTestBreaker(t, &now)

	for i := 0; i < 4; i++ {
		b.OnFailure()
	}
	b.OnSuccess()

	// Four more failures should not trip; the count restarted.
	for i := 0; i < 4; i++ {
		b.OnFailure()
	}
	if !b.Allow() {
		t.Fatal("breaker tripped despite success resetting the count")
	}
}

func TestBreakerStraySuccessKeepsOpen(t *testing.T) {
	now := time.Now()
	b := newTestBreaker(t, &now)

	for i := 0; i < 5; i++ {
		b.OnFailure()
	}

	// A fetch that was already in flight when the breaker tripped
	// reports success during the cool-down. The breaker stays open.
	b.OnSuccess()

	if got := b.State(); got != BreakerOpen {
		t.Fatalf("state = %v, want open after stray success", got)
	}
	if b.Allow() {
		t.Fatal("breaker admitted call before cool-down elapsed")
	}

	// The cool-down still ends on schedule.
	now = now.Add(6 * time.Minute)
	if !b.Allow() {
		t.Fatal("expected trial call after cool-down")
	}
}

func TestBreakerHalfOpenSingleTrial(t *testing.T) {
	now := time.Now()
	b := newTestBreaker(t, &now)

	for i := 0; i < 5; i++ {
		b.OnFailure()
	}
	if b.Allow() {
		t.Fatal("breaker should be open")
	}

	// Cool-down elapses: exactly one trial call gets through.
	now = now.Add(5*time.Minute + time.Second)
	if !b.Allow() {
		t.Fatal("expected trial call to be admitted after cool-down")
	}
	if b.Allow() {
		t.Fatal("second call admitted while trial is in flight")
	}
}

func TestBreakerTrialSuccessCloses(t *testing.T) {
	now := time.Now()
	b := newTestBreaker(t, &now)

	for i := 0; i < 5; i++ {
		b.OnFailure()
	}
	now = now.Add(6 * time.Minute)
	if !b.Allow() {
		t.Fatal("expected trial call")
	}
	b.OnSuccess()

	if got := b.State(); got != BreakerClosed {
		t.Fatalf("state = %v, want closed after trial success", got)
	}
	if !b.Allow() {
		t.Fatal("closed breaker rejected call")
	}
}

func TestBreakerTrialFailureReopens(t *testing.T) {
	now := time.Now()
	b := newTestBreaker(t, &now)

	for i := 0; i < 5; i++ {
		b.OnFailure()
	}
	opened := now
	now = now.Add(6 * time.Minute)
	if !b.Allow() {
		t.Fatal("expected trial call")
	}
	b.OnFailure()

	if got := b.State(); got != BreakerOpen {
		t.Fatalf("state = %v, want open after trial failure", got)
	}
	if b.Allow() {
		t.Fatal("breaker admitted call right after failed trial")
	}
	if reopen := b.ReopenAt(); !reopen.After(opened.Add(5 * time.Minute)) {
		t.Fatalf("reopenAt = %v, want a fresh cool-down from the trial failure", reopen)
	}

	// A second cool-down admits another trial.
	now = now.Add(6 * time.Minute)
	if !b.Allow() {
		t.Fatal("expected trial after second cool-down")
	}
}
