package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	cb "github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without invoking the call while a source's circuit is open.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// CircuitStatus mirrors the three breaker states.
type CircuitStatus string

const (
	StatusClosed   CircuitStatus = "closed"
	StatusOpen     CircuitStatus = "open"
	StatusHalfOpen CircuitStatus = "half_open"
)

func statusOf(state cb.State) CircuitStatus {
	switch state {
	case cb.StateOpen:
		return StatusOpen
	case cb.StateHalfOpen:
		return StatusHalfOpen
	default:
		return StatusClosed
	}
}

// CircuitState is a point-in-time view of one source's breaker.
type CircuitState struct {
	Source              string        `json:"source"`
	Status              CircuitStatus `json:"status"`
	ConsecutiveFailures uint32        `json:"consecutiveFailures"`
	OpenedAt            *time.Time    `json:"openedAt,omitempty"`
}

// StateListener is notified on every transition. It runs while the breaker
// holds its lock, so it must not call back into the registry's breakers.
type StateListener func(source string, from, to CircuitStatus)

type BreakerSettings struct {
	FailureThreshold uint32
	RecoveryTimeout  time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{FailureThreshold: 5, RecoveryTimeout: 60 * time.Second}
}

// BreakerRegistry keeps one circuit breaker per upstream source.
type BreakerRegistry struct {
	settings  BreakerSettings
	logger    *slog.Logger
	listeners []StateListener

	mu       sync.RWMutex
	breakers map[string]*cb.TwoStepCircuitBreaker
	openedAt map[string]time.Time
}

func NewBreakerRegistry(settings BreakerSettings, logger *slog.Logger, listeners ...StateListener) *BreakerRegistry {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = DefaultBreakerSettings().FailureThreshold
	}
	if settings.RecoveryTimeout <= 0 {
		settings.RecoveryTimeout = DefaultBreakerSettings().RecoveryTimeout
	}
	return &BreakerRegistry{
		settings:  settings,
		logger:    logger,
		listeners: listeners,
		breakers:  make(map[string]*cb.TwoStepCircuitBreaker),
		openedAt:  make(map[string]time.Time),
	}
}

// Execute runs fn through the source's breaker. Open circuits fail fast with
// ErrCircuitOpen. A call cancelled by the caller is not counted while the
// circuit is closed; a cancelled half-open trial counts as a failed trial.
func (r *BreakerRegistry) Execute(ctx context.Context, source string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	breaker := r.breaker(source)
	done, err := breaker.Allow()
	if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, source)
	}
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			done(false)
			panic(p)
		}
	}()

	err = fn()
	switch {
	case err == nil:
		done(true)
	case errors.Is(err, context.Canceled):
		// The half-open slot must be released or no further trial is admitted.
		if breaker.State() == cb.StateHalfOpen {
			done(false)
		}
	default:
		done(false)
	}
	return err
}

// Allow reports whether a call to source would currently be attempted.
func (r *BreakerRegistry) Allow(source string) bool {
	return r.breaker(source).State() != cb.StateOpen
}

// State returns the current view of a single breaker.
func (r *BreakerRegistry) State(source string) CircuitState {
	breaker := r.breaker(source)
	state := CircuitState{
		Source:              source,
		Status:              statusOf(breaker.State()),
		ConsecutiveFailures: breaker.Counts().ConsecutiveFailures,
	}
	if state.Status != StatusClosed {
		r.mu.RLock()
		if at, ok := r.openedAt[source]; ok {
			opened := at
			state.OpenedAt = &opened
		}
		r.mu.RUnlock()
	}
	return state
}

// Snapshot lists every known breaker ordered by source name.
func (r *BreakerRegistry) Snapshot() []CircuitState {
	r.mu.RLock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	out := make([]CircuitState, 0, len(names))
	for _, name := range names {
		out = append(out, r.State(name))
	}
	return out
}

func (r *BreakerRegistry) breaker(source string) *cb.TwoStepCircuitBreaker {
	r.mu.RLock()
	breaker, ok := r.breakers[source]
	r.mu.RUnlock()
	if ok {
		return breaker
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if breaker, ok := r.breakers[source]; ok {
		return breaker
	}
	threshold := r.settings.FailureThreshold
	breaker = cb.NewTwoStepCircuitBreaker(cb.Settings{
		Name:        source,
		MaxRequests: 1,
		Timeout:     r.settings.RecoveryTimeout,
		ReadyToTrip: func(counts cb.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: r.onStateChange,
	})
	r.breakers[source] = breaker
	return breaker
}

func (r *BreakerRegistry) onStateChange(name string, from, to cb.State) {
	r.mu.Lock()
	switch to {
	case cb.StateOpen:
		r.openedAt[name] = time.Now()
	case cb.StateClosed:
		delete(r.openedAt, name)
	}
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Warn("circuit breaker state change", "source", name, "from", statusOf(from), "to", statusOf(to))
	}
	for _, listener := range r.listeners {
		listener(name, statusOf(from), statusOf(to))
	}
}
