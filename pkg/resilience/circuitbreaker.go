package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker refuses calls.
var ErrCircuitOpen = errors.New("circuit open")

// State is the breaker's phase.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreakerConfig tunes when the breaker trips and recovers. Zero
// fields take defaults.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker open.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before allowing a
	// probe call.
	ResetTimeout time.Duration
	// HalfOpenMaxRequests is how many concurrent probe calls half-open
	// admits.
	HalfOpenMaxRequests int
}

// CircuitBreaker fails fast once a dependency keeps erroring, so a dead
// Redis does not add its timeout to every request. A cooled-down breaker
// admits probe calls; one probe success closes it again.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig
	log  *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests < 1 {
		cfg.HalfOpenMaxRequests = 1
	}
	return &CircuitBreaker{
		name: name,
		cfg:  cfg,
		log:  slog.Default().With("breaker", name),
	}
}

// Execute runs fn unless the breaker is open, and feeds the outcome back
// into the breaker's state.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err == nil)
	return err
}

// GetState reports the current phase.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) < cb.cfg.ResetTimeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.probes = 1
		cb.log.Info("admitting probe call", "open_for", time.Since(cb.openedAt))
		return true
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenMaxRequests {
			return false
		}
		cb.probes++
		return true
	}
	return false
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if ok {
		if cb.state == StateHalfOpen {
			cb.log.Info("probe succeeded, closing circuit")
		}
		cb.state = StateClosed
		cb.failures = 0
		cb.probes = 0
		return
	}

	cb.failures++
	cb.openedAt = time.Now()
	switch cb.state {
	case StateHalfOpen:
		cb.state = StateOpen
		cb.probes = 0
		cb.log.Warn("probe failed, reopening circuit")
	case StateClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.state = StateOpen
			cb.log.Warn("circuit tripped open", "failures", cb.failures)
		}
	}
}
