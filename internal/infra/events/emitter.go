package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staysearch/internal/infra/resilience"
)

const EventCircuitStateChanged = "circuit.state_changed"

var ErrEmitterNotConfigured = errors.New("events: emitter has no queue")

// Emitter encodes events into the queue. Delivery happens in Worker.
type Emitter struct {
	Queue *Queue
	Now   func() time.Time
	IDs   func() string
}

func NewEmitter(q *Queue) *Emitter {
	return &Emitter{Queue: q}
}

func (e *Emitter) Emit(ctx context.Context, name, key string, payload any) error {
	if e == nil || e.Queue == nil {
		return ErrEmitterNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	e.Queue.Add(Record{
		ID:         e.newID(),
		Name:       name,
		Key:        key,
		Payload:    data,
		OccurredAt: e.now().UTC(),
	})
	return nil
}

func (e *Emitter) newID() string {
	if e.IDs != nil {
		return e.IDs()
	}
	return uuid.NewString()
}

func (e *Emitter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Noop discards events when no broker is configured.
type Noop struct{}

func (Noop) Emit(context.Context, string, string, any) error { return nil }

// CircuitChange is the payload of circuit.state_changed.
type CircuitChange struct {
	Source string `json:"source"`
	From   string `json:"from"`
	To     string `json:"to"`
}

type sink interface {
	Emit(ctx context.Context, name, key string, payload any) error
}

// CircuitListener turns breaker transitions into events.
func CircuitListener(s sink, logger *slog.Logger) resilience.StateListener {
	return func(source string, from, to resilience.CircuitStatus) {
		err := s.Emit(context.Background(), EventCircuitStateChanged, source, CircuitChange{
			Source: source,
			From:   string(from),
			To:     string(to),
		})
		if err != nil && logger != nil {
			logger.Debug("circuit event dropped", "source", source, "error", err)
		}
	}
}
