package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	dialInitialInterval = 500 * time.Millisecond
	dialMaxInterval     = 5 * time.Second
	dialMaxElapsed      = 20 * time.Second
	// redialMaxElapsed is the budget of a redial on the publish path
	redialMaxElapsed = 2 * time.Second
)

// ErrReconnecting is returned by a publish while another one is redialing
var ErrReconnecting = errors.New("broker reconnect in progress")

// AMQPPublisher publishes events to a durable RabbitMQ queue. The
// connection is shared; every publish opens its own channel.
type AMQPPublisher struct {
	url   string
	queue string
	log   zerolog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	dialing bool
	closed  bool
}

// NewAMQPPublisher connects to the broker and declares the queue
func NewAMQPPublisher(ctx context.Context, url, queue string, log zerolog.Logger) (*AMQPPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	p := &AMQPPublisher{
		url:   url,
		queue: queue,
		log:   log.With().Str("component", "AMQP").Logger(),
	}

	conn, err := p.dial(ctx, dialMaxElapsed)
	if err != nil {
		return nil, err
	}
	p.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	return p, nil
}

// dial connects with exponential backoff, giving up after maxElapsed
func (p *AMQPPublisher) dial(ctx context.Context, maxElapsed time.Duration) (*amqp.Connection, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = dialInitialInterval
	exp.MaxInterval = dialMaxInterval
	exp.Reset()

	conn, err := backoff.Retry(ctx,
		func() (*amqp.Connection, error) {
			return amqp.Dial(p.url)
		},
		backoff.WithBackOff(exp),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.log.Warn().Err(err).Dur("retry_in", next).Msg("Failed to dial broker")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial broker: %w", err)
	}
	return conn, nil
}

// connection returns the shared connection, redialing when it was closed.
// Only one caller redials; the others fail fast with ErrReconnecting.
func (p *AMQPPublisher) connection(ctx context.Context) (*amqp.Connection, error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return nil, amqp.ErrClosed
	case p.conn != nil && !p.conn.IsClosed():
		conn := p.conn
		p.mu.Unlock()
		return conn, nil
	case p.dialing:
		p.mu.Unlock()
		return nil, ErrReconnecting
	}
	p.dialing = true
	p.mu.Unlock()

	conn, err := p.dial(ctx, redialMaxElapsed)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		return nil, err
	}
	if p.closed {
		_ = conn.Close()
		return nil, amqp.ErrClosed
	}
	p.conn = conn
	return conn, nil
}

// PublishRSVPSubmitted sends ev as a persistent JSON message
func (p *AMQPPublisher) PublishRSVPSubmitted(ctx context.Context, ev RSVPSubmitted) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.EventID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.log.Debug().Str("event_id", ev.EventID).Str("queue", p.queue).Msg("Published RSVP event")
	return nil
}

// Close closes the broker connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}
