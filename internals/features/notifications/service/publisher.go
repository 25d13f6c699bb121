package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"horseclub_backend/internals/configs"
	"horseclub_backend/internals/metrics"
)

// Routing keys of the domain events.
const (
	KeyBookingCreated   = "booking.created"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingMarked    = "booking.marked"
	KeyChargeCreated    = "charge.created"
	KeyChargePaid       = "charge.paid"
	KeyChargeVoided     = "charge.voided"
)

var AllKeys = []string{
	KeyBookingCreated, KeyBookingCancelled, KeyBookingMarked,
	KeyChargeCreated, KeyChargePaid, KeyChargeVoided,
}

type Event struct {
	Key        string         `json:"key"`
	EntityType string         `json:"entity_type"`
	EntityID   *uuid.UUID     `json:"entity_id,omitempty"`
	Title      string         `json:"title"`
	Body       string         `json:"body,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher hands events to the broker. Publishing is best effort: failures
// are logged and counted, the caller's request still succeeds.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

var (
	ErrPublisherClosed   = errors.New("publisher closed")
	ErrBrokerUnavailable = errors.New("rabbitmq unavailable, waiting to redial")
)

const (
	dialTimeout    = 3 * time.Second
	redialInterval = 5 * time.Second
)

// amqpChannel is the slice of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// AMQPPublisher redials lazily: a Publish that finds the channel closed
// reconnects, at most once per redialInterval.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     io.Closer
	ch       amqpChannel
	exchange string
	closed   bool
	nextDial time.Time

	dial func() (io.Closer, amqpChannel, error)
	now  func() time.Time
	log  *logrus.Entry
}

func dialExchange(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "declare exchange")
	}
	return conn, ch, nil
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		exchange: exchange,
		now:      time.Now,
		log:      configs.Log.WithField("component", "amqp-publisher"),
	}
	p.dial = func() (io.Closer, amqpChannel, error) {
		conn, ch, err := dialExchange(url, exchange)
		if err != nil {
			return nil, nil, err
		}
		go p.watch(ch.NotifyClose(make(chan *amqp.Error, 1)))
		return conn, ch, nil
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// watch logs broker-side closes; the next Publish redials.
func (p *AMQPPublisher) watch(closes <-chan *amqp.Error) {
	if err, ok := <-closes; ok && err != nil {
		p.log.WithError(err).Warn("rabbitmq channel closed, will redial on next publish")
	}
}

func (p *AMQPPublisher) connect() error {
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) release() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// channel returns a live channel, redialing when the old one is gone. Caller holds mu.
func (p *AMQPPublisher) channel() (amqpChannel, error) {
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	now := p.now()
	if now.Before(p.nextDial) {
		return nil, ErrBrokerUnavailable
	}
	p.nextDial = now.Add(redialInterval)

	p.release()
	if err := p.connect(); err != nil {
		return nil, err
	}
	p.log.Info("rabbitmq publisher reconnected")
	return p.ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	body, err := sonic.Marshal(e)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(e.Key, "encode_error").Inc()
		p.log.WithError(err).WithField("key", e.Key).Warn("event not encoded")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	// amqp.Channel is not safe for concurrent publishes
	p.mu.Lock()
	ch, err := p.channel()
	if err == nil {
		err = ch.PublishWithContext(pubCtx, p.exchange, e.Key, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    e.OccurredAt,
			Body:         body,
		})
	}
	p.mu.Unlock()

	if err != nil {
		metrics.EventsPublished.WithLabelValues(e.Key, "error").Inc()
		p.log.WithError(err).WithField("key", e.Key).Warn("event publish failed")
		return
	}
	metrics.EventsPublished.WithLabelValues(e.Key, "ok").Inc()
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

func log() *logrus.Entry {
	return configs.Log.WithField("component", "notifications")
}
