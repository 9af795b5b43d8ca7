package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Producer delivers one encoded event to a broker.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Observer records publish outcomes.
type Observer interface {
	ObservePublish(event string, err error)
}

// Worker drains the queue into a producer as CloudEvents JSON.
type Worker struct {
	Queue       *Queue
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	Backoff     []time.Duration
	Batch       int
	Metrics     Observer
	Logger      *slog.Logger
}

var ErrWorkerNotConfigured = errors.New("events: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain publishes up to Batch due records and reports how many were sent.
func (w *Worker) Drain(ctx context.Context) int {
	sent := 0
	for i := 0; i < w.batch(); i++ {
		rec := w.Queue.Claim()
		if rec == nil {
			break
		}
		if w.processOne(ctx, rec) {
			sent++
		}
	}
	return sent
}

func (w *Worker) processOne(ctx context.Context, rec *Record) bool {
	payload, headers, err := w.formatPayload(rec)
	if err == nil {
		err = w.Producer.Publish(ctx, w.topicFor(rec.Name), rec.Key, payload, headers)
	}
	if w.Metrics != nil {
		w.Metrics.ObservePublish(rec.Name, err)
	}
	if err != nil {
		w.Queue.MarkFailed(rec.ID, w.nextRetry(rec.Attempts), err.Error())
		w.logger().Warn("event publish failed", "event", rec.Name, "attempts", rec.Attempts+1, "error", err)
		return false
	}
	w.Queue.MarkSent(rec.ID)
	return true
}

func (w *Worker) formatPayload(rec *Record) ([]byte, map[string]string, error) {
	var data any
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if rec.ID == "" {
		evt["id"] = uuid.NewString()
	}
	if rec.Key != "" {
		evt["subject"] = rec.Key
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce-type":      rec.Name + ".v1",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps search.completed onto <prefix>.search.events.v1.
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = strings.TrimSuffix(w.TopicPrefix, ".") + "." + topic
	}
	return topic
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batch() int {
	if w.Batch <= 0 {
		return 50
	}
	return w.Batch
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://staysearch"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
