package service

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"horseclub_backend/internals/configs"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, e Event) error

const consumerRedialDelay = 5 * time.Second

type Consumer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	url      string
	exchange string
	queue    string
	keys     []string
	log      *logrus.Entry
}

func NewConsumer(url, exchange, queue string, keys []string) (*Consumer, error) {
	c := &Consumer{
		url:      url,
		exchange: exchange,
		queue:    queue,
		keys:     keys,
		log:      configs.Log.WithField("component", "amqp-consumer"),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// connect dials and declares exchange, queue and bindings.
func (c *Consumer) connect() error {
	conn, ch, err := dialExchange(c.url, c.exchange)
	if err != nil {
		return err
	}
	fail := func(step string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return errors.Wrap(err, step)
	}
	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	for _, rk := range c.keys {
		if err := ch.QueueBind(q.Name, rk, c.exchange, false, nil); err != nil {
			return fail("bind "+rk, err)
		}
	}
	if err := ch.Qos(16, 0, false); err != nil {
		return fail("qos", err)
	}

	c.mu.Lock()
	c.conn, c.ch, c.queue = conn, ch, q.Name
	c.mu.Unlock()
	return nil
}

func (c *Consumer) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Run blocks until ctx is cancelled. When the broker drops the connection it
// redials every consumerRedialDelay and resumes consuming.
// Undecodable messages are dropped; handler errors are requeued once.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		err := c.consume(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		c.log.WithError(err).Warn("rabbitmq consumer interrupted, redialing")
		c.release()

		for attempt := 1; ; attempt++ {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(consumerRedialDelay):
			}
			if err := c.connect(); err != nil {
				c.log.WithError(err).WithField("attempt", attempt).Warn("rabbitmq redial failed")
				continue
			}
			c.log.WithField("attempt", attempt).Info("rabbitmq consumer reconnected")
			break
		}
	}
}

func (c *Consumer) consume(ctx context.Context, handle Handler) error {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch == nil {
		return errors.New("no channel")
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.process(ctx, msg, handle)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg amqp.Delivery, handle Handler) {
	var e Event
	if err := sonic.Unmarshal(msg.Body, &e); err != nil {
		c.log.WithError(err).WithField("routing_key", msg.RoutingKey).Warn("bad event payload, dropped")
		_ = msg.Nack(false, false)
		return
	}
	if e.Key == "" {
		e.Key = msg.RoutingKey
	}
	if err := handle(ctx, e); err != nil {
		c.log.WithError(err).WithField("key", e.Key).Error("event handler failed")
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	_ = msg.Ack(false)
}

func (c *Consumer) Close() error {
	c.release()
	return nil
}
