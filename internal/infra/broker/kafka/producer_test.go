package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSendsKeyAndHeaders(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, cfg)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "staysearch.search.events.v1", msg.Topic)
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "austin-us", string(key))
		require.Len(t, msg.Headers, 2)
		assert.Equal(t, "ce-type", string(msg.Headers[0].Key))
		assert.Equal(t, "content-type", string(msg.Headers[1].Key))
		return nil
	})
	p := newWithSync(mock)

	err := p.Publish(context.Background(), "staysearch.search.events.v1", "austin-us", []byte(`{}`), map[string]string{
		"content-type": "application/cloudevents+json",
		"ce-type":      "search.completed.v1",
	})

	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := newWithSync(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, "t", "", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

func TestNewProducerNeedsBrokers(t *testing.T) {
	_, err := NewProducer(nil, "staysearch")
	assert.ErrorIs(t, err, ErrNoBrokers)
}
