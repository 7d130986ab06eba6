package flamapy

import (
	"sync"
	"time"
)

type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half-open"
)

type CircuitConfig struct {
	// FailureThreshold consecutive start-up failures open the circuit.
	// Zero or less disables it.
	FailureThreshold int `yaml:"failure_threshold" json:"failure_threshold"`
	// Cooldown is how long the circuit stays open before one trial start is
	// let through, and how long that trial may stay unreported.
	Cooldown time.Duration `yaml:"cooldown" json:"cooldown"`
}

func DefaultCircuitConfig() CircuitConfig {
	return CircuitConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// CircuitBreaker stops sessions from spawning workers while the Python
// environment is known to be broken. Only worker start-up and handshake
// failures count; a model the engine rejects is a success here.
//
// Every Allow that returns true must be followed by RecordSuccess,
// RecordFailure or Release. A trial that is never reported expires after
// Cooldown.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitConfig
	now func() time.Time

	failures   int
	openedAt   time.Time
	trial      bool
	trialSince time.Time
}

func NewCircuitBreaker(cfg CircuitConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) tripped() bool {
	return cb.cfg.FailureThreshold > 0 && cb.failures >= cb.cfg.FailureThreshold
}

// Allow reports whether a worker may be started now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.tripped() {
		return true
	}

	now := cb.now()
	if now.Sub(cb.openedAt) < cb.cfg.Cooldown {
		return false
	}
	if cb.trial && now.Sub(cb.trialSince) < cb.cfg.Cooldown {
		return false
	}
	cb.trial = true
	cb.trialSince = now
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.trial = false
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.trial = false
	if cb.tripped() {
		cb.openedAt = cb.now()
	}
}

// Release ends an allowed attempt whose outcome says nothing about the
// worker, such as a cancelled request.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.trial = false
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case !cb.tripped():
		return CircuitClosed
	case cb.trial:
		return CircuitHalfOpen
	default:
		return CircuitOpen
	}
}
