package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glimte/statemate-go/internal/backoff"
)

// DefaultExchange is the topic exchange envelopes are published to.
const DefaultExchange = "statemate.actions"

// Sink delivers serialized envelopes to an external transport.
type Sink interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// AMQPSink publishes to a RabbitMQ topic exchange with publisher confirms.
// Transient failures are retried with exponential backoff; a circuit breaker
// fails fast while the broker stays unreachable.
type AMQPSink struct {
	conn           *amqp.Connection
	ownsConn       bool
	exchange       string
	confirmTimeout time.Duration
	maxRetries     int

	retry   backoff.Policy
	breaker *backoff.CircuitBreaker

	mu       sync.Mutex
	channel  *amqp.Channel
	confirms chan amqp.Confirmation
}

// AMQPSinkOption configures the sink.
type AMQPSinkOption func(*AMQPSink)

// WithExchange sets the topic exchange name.
func WithExchange(name string) AMQPSinkOption {
	return func(s *AMQPSink) {
		if name != "" {
			s.exchange = name
		}
	}
}

// WithConfirmTimeout sets how long a publish waits for the broker's
// confirmation.
func WithConfirmTimeout(timeout time.Duration) AMQPSinkOption {
	return func(s *AMQPSink) {
		if timeout > 0 {
			s.confirmTimeout = timeout
		}
	}
}

// WithPublishRetries sets the maximum number of publish retries.
func WithPublishRetries(retries int) AMQPSinkOption {
	return func(s *AMQPSink) {
		if retries >= 0 {
			s.maxRetries = retries
		}
	}
}

// NewAMQPSink attaches a sink to an existing connection, declares the topic
// exchange, and puts its channel into confirm mode. The caller keeps
// ownership of the connection.
func NewAMQPSink(conn *amqp.Connection, opts ...AMQPSinkOption) (*AMQPSink, error) {
	if conn == nil {
		return nil, fmt.Errorf("relay: connection must not be nil")
	}

	s := &AMQPSink{
		conn:           conn,
		exchange:       DefaultExchange,
		confirmTimeout: 5 * time.Second,
		maxRetries:     3,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.retry = backoff.NewExponentialBackoff(250*time.Millisecond, 5*time.Second, 2.0, s.maxRetries)
	s.breaker = backoff.NewCircuitBreaker(backoff.WithName("relay"))

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		s.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", s.exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	s.channel = ch
	s.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return s, nil
}

// DialAMQP connects to the broker at url and attaches a sink. The sink owns
// the connection and closes it with Close.
func DialAMQP(url string, opts ...AMQPSinkOption) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	s, err := NewAMQPSink(conn, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.ownsConn = true
	return s, nil
}

// Exchange returns the exchange this sink publishes to.
func (s *AMQPSink) Exchange() string {
	return s.exchange
}

// Publish implements Sink. Each attempt publishes with confirm and waits for
// the broker's ack; failed attempts are retried per the backoff policy until
// the circuit opens or the context expires.
func (s *AMQPSink) Publish(ctx context.Context, routingKey string, body []byte) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		err := s.breaker.Execute(ctx, func() error {
			return s.publishOnce(ctx, routingKey, body)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, backoff.ErrCircuitOpen) || errors.Is(err, ErrSinkClosed) {
			break
		}
		retry, delay := s.retry.ShouldRetry(attempt, err)
		if !retry {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("relay publish %s: %w", routingKey, lastErr)
}

// publishOnce holds the sink lock for publish plus confirmation, so delivery
// tags and the confirm channel stay in step.
func (s *AMQPSink) publishOnce(ctx context.Context, routingKey string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel == nil {
		return ErrSinkClosed
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if err := s.channel.PublishWithContext(ctx, s.exchange, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish to %s: %w", s.exchange, err)
	}

	select {
	case confirm := <-s.confirms:
		if !confirm.Ack {
			return fmt.Errorf("broker nacked delivery %d", confirm.DeliveryTag)
		}
		return nil
	case <-time.After(s.confirmTimeout):
		return fmt.Errorf("timeout waiting for publish confirmation")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Sink. It closes the channel and, for dialed sinks, the
// connection.
func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel == nil {
		return nil
	}
	err := s.channel.Close()
	s.channel = nil

	if s.ownsConn {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
