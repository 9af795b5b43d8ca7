package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrURLMissing = errors.New("rabbitmq: url missing")

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func(url string) (channel, func() error, error)

// Publisher sends events to a durable topic exchange, reconnecting on demand.
type Publisher struct {
	url      string
	exchange string
	logger   *slog.Logger
	dial     dialFunc

	mu        sync.Mutex
	ch        channel
	closeConn func() error
}

func NewPublisher(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, ErrURLMissing
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{url: url, exchange: exchange, logger: logger, dial: dialAMQP}, nil
}

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	return ch, conn.Close, nil
}

func (p *Publisher) channel() (channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.logger.Debug("rabbitmq connecting", "exchange", p.exchange)
	ch, closeConn, err := p.dial(p.url)
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if closeConn != nil {
			_ = closeConn()
		}
		return nil, fmt.Errorf("rabbitmq declare exchange %s: %w", p.exchange, err)
	}
	p.ch, p.closeConn = ch, closeConn
	return ch, nil
}

// Publish routes by topic so consumers can bind on e.g. "*.search.events.v1".
func (p *Publisher) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	table := amqp.Table{}
	for k, v := range headers {
		table[k] = v
	}
	if key != "" {
		table["partition-key"] = key
	}
	msg := amqp.Publishing{
		ContentType:  "application/cloudevents+json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      table,
		Body:         payload,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, topic, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.closeConn != nil {
		errs = append(errs, p.closeConn())
	}
	p.ch, p.closeConn = nil, nil
	return errors.Join(errs...)
}
