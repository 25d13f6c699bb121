package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	closed    bool
	published []string
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, _ amqp.Publishing) error {
	if f.closed {
		return amqp.ErrClosed
	}
	f.published = append(f.published, key)
	return nil
}

func (f *fakeChannel) IsClosed() bool { return f.closed }

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type dialer struct {
	calls    int
	fail     bool
	channels []*fakeChannel
}

func (d *dialer) dial() (io.Closer, amqpChannel, error) {
	d.calls++
	if d.fail {
		return nil, nil, errors.New("connection refused")
	}
	ch := &fakeChannel{}
	d.channels = append(d.channels, ch)
	return nopCloser{}, ch, nil
}

func newTestPublisher(t *testing.T, d *dialer, clock *time.Time) *AMQPPublisher {
	t.Helper()
	p := &AMQPPublisher{
		exchange: "horseclub.events",
		dial:     d.dial,
		now:      func() time.Time { return *clock },
		log:      logrus.NewEntry(logrus.New()),
	}
	require.NoError(t, p.connect())
	return p
}

func TestAMQPPublisherRedialsAfterBrokerClose(t *testing.T) {
	clock := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	d := &dialer{}
	p := newTestPublisher(t, d, &clock)

	p.Publish(context.Background(), Event{Key: KeyChargePaid})
	require.Len(t, d.channels, 1)
	assert.Equal(t, []string{KeyChargePaid}, d.channels[0].published)

	// broker drops the channel
	d.channels[0].closed = true
	p.Publish(context.Background(), Event{Key: KeyChargeVoided})

	require.Equal(t, 2, d.calls)
	require.Len(t, d.channels, 2)
	assert.Equal(t, []string{KeyChargeVoided}, d.channels[1].published)
}

func TestAMQPPublisherThrottlesRedial(t *testing.T) {
	clock := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	d := &dialer{}
	p := newTestPublisher(t, d, &clock)

	d.channels[0].closed = true
	d.fail = true
	p.Publish(context.Background(), Event{Key: KeyBookingCreated})
	p.Publish(context.Background(), Event{Key: KeyBookingCreated})
	assert.Equal(t, 2, d.calls, "second publish inside the interval does not redial")

	_, err := p.channel()
	assert.True(t, errors.Is(err, ErrBrokerUnavailable))

	clock = clock.Add(redialInterval)
	d.fail = false
	p.Publish(context.Background(), Event{Key: KeyBookingMarked})
	assert.Equal(t, 3, d.calls)
	require.Len(t, d.channels, 2)
	assert.Equal(t, []string{KeyBookingMarked}, d.channels[1].published)
}

func TestAMQPPublisherClosed(t *testing.T) {
	clock := time.Now()
	d := &dialer{}
	p := newTestPublisher(t, d, &clock)

	require.NoError(t, p.Close())
	assert.True(t, d.channels[0].closed)

	p.Publish(context.Background(), Event{Key: KeyChargeCreated})
	assert.Equal(t, 1, d.calls, "closed publisher never redials")
	_, err := p.channel()
	assert.True(t, errors.Is(err, ErrPublisherClosed))
}
