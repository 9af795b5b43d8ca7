package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staysearch/internal/infra/resilience"
)

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []published
	fail     error
}

func (f *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.messages = append(f.messages, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

type publishRecorder struct {
	results []error
}

func (r *publishRecorder) ObservePublish(_ string, err error) { r.results = append(r.results, err) }

func TestWorkerPublishesCloudEvents(t *testing.T) {
	q := NewQueue(0)
	emitter := &Emitter{Queue: q, IDs: func() string { return "evt-1" }}
	require.NoError(t, emitter.Emit(context.Background(), "search.completed", "austin-us", map[string]any{"returned": 5}))

	producer := &fakeProducer{}
	metrics := &publishRecorder{}
	w := &Worker{Queue: q, Producer: producer, TopicPrefix: "staysearch", Metrics: metrics}

	assert.Equal(t, 1, w.Drain(context.Background()))
	assert.Equal(t, 0, q.Len())
	require.Len(t, producer.messages, 1)
	msg := producer.messages[0]
	assert.Equal(t, "staysearch.search.events.v1", msg.topic)
	assert.Equal(t, "austin-us", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, "search.completed.v1", evt["type"])
	assert.Equal(t, "app://staysearch", evt["source"])
	assert.Equal(t, map[string]any{"returned": float64(5)}, evt["data"])
	assert.Equal(t, []error{nil}, metrics.results)
}

func TestWorkerRetriesWithBackoff(t *testing.T) {
	q := NewQueue(0)
	require.NoError(t, NewEmitter(q).Emit(context.Background(), "circuit.state_changed", "rapidapi", CircuitChange{Source: "rapidapi"}))
	producer := &fakeProducer{fail: errors.New("broker down")}
	w := &Worker{Queue: q, Producer: producer, Backoff: []time.Duration{time.Hour}}

	assert.Equal(t, 0, w.Drain(context.Background()))
	assert.Equal(t, 1, q.Len())
	assert.Nil(t, q.Claim(), "failed record waits for its retry time")

	q.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	producer.fail = nil
	assert.Equal(t, 1, w.Drain(context.Background()))
	assert.Equal(t, 0, q.Len())
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	q := NewQueue(2)
	for _, id := range []string{"a", "b", "c"} {
		q.Add(Record{ID: id, Name: "x", Payload: []byte(`{}`)})
	}
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, q.Dropped())

	first := q.Claim()
	require.NotNil(t, first)
	assert.Equal(t, "b", first.ID)
	second := q.Claim()
	require.NotNil(t, second)
	assert.Equal(t, "c", second.ID)
	assert.Nil(t, q.Claim(), "claimed records are not handed out twice")
}

func TestWorkerRunNeedsDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestWorkerRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &Worker{Queue: NewQueue(0), Producer: &fakeProducer{}, Interval: time.Millisecond}
	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "circuit.events.v1", w.topicFor("circuit.state_changed"))
	w.TopicPrefix = "staysearch."
	assert.Equal(t, "staysearch.search.events.v1", w.topicFor("search.completed"))
}

func TestCircuitListenerEmits(t *testing.T) {
	q := NewQueue(0)
	listener := CircuitListener(NewEmitter(q), nil)
	listener("rapidapi", resilience.StatusClosed, resilience.StatusOpen)

	rec := q.Claim()
	require.NotNil(t, rec)
	assert.Equal(t, EventCircuitStateChanged, rec.Name)
	assert.Equal(t, "rapidapi", rec.Key)
	assert.JSONEq(t, `{"source":"rapidapi","from":"closed","to":"open"}`, string(rec.Payload))
}

func TestEmitterWithoutQueue(t *testing.T) {
	var e *Emitter
	assert.ErrorIs(t, e.Emit(context.Background(), "x", "", nil), ErrEmitterNotConfigured)
	assert.NoError(t, Noop{}.Emit(context.Background(), "x", "", nil))
}
