package workflow

import (
	"sync"
	"time"

	"github.com/readmeforge/readmeforge/pkg/logger"
)

var breakerLog = logger.New("workflow:breaker")

// BreakerState is an immutable snapshot of one dependency's circuit
// breaker.
type BreakerState struct {
	Dependency          string
	ConsecutiveFailures int
	Open                bool
	CooldownUntil       time.Time
}

// circuitBreaker tracks consecutive failures for a single analyzer
// dependency. After threshold consecutive failures the breaker opens and
// calls are suppressed until the cool-down expires; the first call after
// expiry is a probe, and its success closes the breaker.
type circuitBreaker struct {
	threshold int
	cooldown  time.Duration

	failures  int
	open      bool
	openUntil time.Time
}

// allow reports whether a call may proceed. An open breaker past its
// cool-down admits one probe call.
func (b *circuitBreaker) allow(now time.Time) bool {
	if !b.open {
		return true
	}
	return !now.Before(b.openUntil)
}

func (b *circuitBreaker) recordSuccess() {
	b.failures = 0
	b.open = false
	b.openUntil = time.Time{}
}

func (b *circuitBreaker) recordFailure(now time.Time) {
	b.failures++
	if b.failures >= b.threshold {
		b.open = true
		b.openUntil = now.Add(b.cooldown)
	}
}

// breakerSet holds per-dependency breakers behind one lock.
type breakerSet struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	breakers  map[string]*circuitBreaker
}

func newBreakerSet(threshold int, cooldown time.Duration) *breakerSet {
	return &breakerSet{
		threshold: threshold,
		cooldown:  cooldown,
		breakers:  make(map[string]*circuitBreaker),
	}
}

func (s *breakerSet) get(dependency string) *circuitBreaker {
	if b, ok := s.breakers[dependency]; ok {
		return b
	}
	b := &circuitBreaker{threshold: s.threshold, cooldown: s.cooldown}
	s.breakers[dependency] = b
	return b
}

// Allow reports whether the dependency may be called now.
func (s *breakerSet) Allow(dependency string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := s.get(dependency).allow(now)
	if !allowed {
		breakerLog.Printf("Breaker open, suppressing call: dependency=%s", dependency)
	}
	return allowed
}

// RecordSuccess closes the dependency's breaker and resets its count.
func (s *breakerSet) RecordSuccess(dependency string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.get(dependency).recordSuccess()
}

// RecordFailure counts a failure, opening the breaker at the threshold.
func (s *breakerSet) RecordFailure(dependency string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.get(dependency)
	b.recordFailure(now)
	if b.open {
		breakerLog.Printf("Breaker opened: dependency=%s, failures=%d, cooldown_until=%s",
			dependency, b.failures, b.openUntil.Format(time.RFC3339))
	}
}

// Snapshot returns immutable per-dependency breaker states.
func (s *breakerSet) Snapshot() map[string]BreakerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]BreakerState, len(s.breakers))
	for name, b := range s.breakers {
		out[name] = BreakerState{
			Dependency:          name,
			ConsecutiveFailures: b.failures,
			Open:                b.open,
			CooldownUntil:       b.openUntil,
		}
	}
	return out
}
