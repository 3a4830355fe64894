package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states for publishing.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name on a direct exchange
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	// one computation at a time per consumer
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// PublishMetricsRequest sends msg to the request queue. Results are
// published to replyTo with msg.RequestID as correlation id.
func (c *Client) PublishMetricsRequest(ctx context.Context, msg *MetricsRequestMessage, replyTo string) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	pub := amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		Timestamp:     time.Now(),
		CorrelationId: msg.RequestID,
		ReplyTo:       replyTo,
		Body:          body,
	}
	if err := c.publish(ctx, c.exchangeName, c.queueName, pub); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published metrics request",
		"request_id", msg.RequestID,
		"driver_id", msg.DriverID,
		"period", msg.Period,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Reply publishes res on the default exchange to the replyTo queue.
func (c *Client) Reply(ctx context.Context, replyTo, correlationID string, res *MetricsResultMessage) error {
	body, err := res.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return c.publish(ctx, "", replyTo, amqp091.Publishing{
		ContentType:   "application/json",
		Timestamp:     time.Now(),
		CorrelationId: correlationID,
		Body:          body,
	})
}

func (c *Client) publish(ctx context.Context, exchange, key string, pub amqp091.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return errors.New("circuit breaker is open, refusing to publish")
	}

	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		c.recordFailure()
		return errors.New("publish message: channel not open")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx, exchange, key, false, false, pub); err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			if rerr := c.reconnect(); rerr != nil {
				slog.WarnContext(ctx, "AMQP reconnect failed", "error", rerr)
			}
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()
	return nil
}

func (c *Client) reconnect() error {
	c.closeConn()
	return c.connect()
}

// Handler computes the reply for one request. A returned error means the
// request could not be served now and is requeued.
type Handler func(ctx context.Context, msg *MetricsRequestMessage) (*MetricsResultMessage, error)

type replyFunc func(ctx context.Context, replyTo, correlationID string, res *MetricsResultMessage) error

// ConsumeMetricsRequests handles deliveries until ctx ends or the channel
// closes.
func (c *Client) ConsumeMetricsRequests(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return errors.New("start consuming: channel not open")
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming metrics requests", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			process(ctx, delivery, handler, c.Reply)
		}
	}
}

// Run consumes and reconnects with exponential backoff on connection
// errors. It returns when ctx ends or on a non-connection error.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.ConsumeMetricsRequests(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP consumer lost connection, reconnecting",
			"error", err, "attempt", attempt+1, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if rerr := c.reconnect(); rerr != nil {
			attempt++
			continue
		}
		attempt = 0
	}
}

func process(ctx context.Context, d amqp091.Delivery, handler Handler, reply replyFunc) {
	msg, err := MetricsRequestMessageFromJSON(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		_ = d.Nack(false, false) // reject and don't requeue
		return
	}
	if msg.RequestID == "" {
		msg.RequestID = d.CorrelationId
	}

	res, err := handler(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to handle metrics request",
			"error", err,
			"request_id", msg.RequestID,
			"driver_id", msg.DriverID)
		_ = d.Nack(false, true) // reject and requeue
		return
	}

	if d.ReplyTo != "" && res != nil {
		corr := d.CorrelationId
		if corr == "" {
			corr = msg.RequestID
		}
		if err := reply(ctx, d.ReplyTo, corr, res); err != nil {
			slog.ErrorContext(ctx, "Failed to publish metrics result",
				"error", err, "request_id", msg.RequestID, "reply_to", d.ReplyTo)
			_ = d.Nack(false, true)
			return
		}
	}

	_ = d.Ack(false)
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		expired := time.Since(c.lastFailure) > openTimeout
		c.mu.Unlock()
		if expired {
			atomic.StoreInt32(&c.state, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff doubles from one second up to maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel closed"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.closeConn()
	return nil
}
