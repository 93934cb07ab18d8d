package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/pkg/logger"
	"storefront/pkg/order"
)

const (
	publishTimeout = 2 * time.Second
	dialTimeout    = time.Second
	redialInterval = time.Second
)

var (
	errPublisherClosed = errors.New("publisher closed")
	errUnavailable     = errors.New("rabbitmq unavailable")
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Publisher sends OrderPlaced messages to a durable RabbitMQ queue. An AMQP
// channel must not be shared by concurrent publishers, so at most size
// publishes run at once, each on its own channel. Channels that fail are
// discarded and reopened on demand, redialling the broker if the connection
// dropped.
type Publisher struct {
	url   string
	queue string
	log   *logger.Logger
	open  func() (channel, error)

	slots chan struct{}
	idle  chan channel

	mu       sync.Mutex
	conn     *amqp.Connection
	lastDial time.Time
	closed   bool
}

func newPublisher(queue string, size int, open func() (channel, error), log *logger.Logger) *Publisher {
	if size < 1 {
		size = 1
	}
	return &Publisher{
		queue: queue,
		log:   log,
		open:  open,
		slots: make(chan struct{}, size),
		idle:  make(chan channel, size),
	}
}

// Dial connects to url and opens a first channel, declaring queue.
func Dial(url, queue string, size int, log *logger.Logger) (*Publisher, error) {
	p := newPublisher(queue, size, nil, log)
	p.url = url
	p.open = p.openChannel

	p.mu.Lock()
	err := p.connectLocked()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	ch, err := p.open()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	p.idle <- ch
	log.Info(context.Background(), "rabbitmq publisher ready", "queue", queue, "channels", cap(p.slots))
	return p, nil
}

// connectLocked must be called with p.mu held.
func (p *Publisher) connectLocked() error {
	p.lastDial = time.Now()
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	p.conn = conn
	go p.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

func (p *Publisher) watch(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		p.log.Warn(context.Background(), "rabbitmq connection lost", "error", err)
	}
}

func (p *Publisher) openChannel() (channel, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errPublisherClosed
	}
	if p.conn == nil || p.conn.IsClosed() {
		if time.Since(p.lastDial) < redialInterval {
			p.mu.Unlock()
			return nil, errUnavailable
		}
		if err := p.connectLocked(); err != nil {
			p.mu.Unlock()
			return nil, err
		}
		p.log.Info(context.Background(), "rabbitmq reconnected")
	}
	conn := p.conn
	p.mu.Unlock()

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return ch, nil
}

func (p *Publisher) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// get takes a publish slot and returns an open channel for it. The slot is
// released by put, or here when no channel can be opened.
func (p *Publisher) get(ctx context.Context) (channel, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.isClosed() {
		<-p.slots
		return nil, errPublisherClosed
	}
	for {
		select {
		case ch := <-p.idle:
			if !ch.IsClosed() {
				return ch, nil
			}
			ch.Close()
		default:
			ch, err := p.open()
			if err != nil {
				<-p.slots
				return nil, err
			}
			return ch, nil
		}
	}
}

// put returns ch to the pool unless it failed, then frees its slot.
func (p *Publisher) put(ch channel, failed bool) {
	defer func() { <-p.slots }()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || failed || ch.IsClosed() {
		ch.Close()
		return
	}
	select {
	case p.idle <- ch:
	default:
		ch.Close()
	}
}

// OrderPlaced implements order.Publisher.
func (p *Publisher) OrderPlaced(ctx context.Context, o order.Order) error {
	body, err := Encode(o)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ch, err := p.get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    o.CreatedAt,
		Body:         body,
	})
	p.put(ch, err != nil)
	if err != nil {
		return fmt.Errorf("failed to publish order %d: %w", o.ID, err)
	}
	p.log.Debug(ctx, "order placed event published", "order_id", o.ID, "queue", p.queue)
	return nil
}

// Close closes every idle channel and the connection. Channels in use are
// closed when their publish returns.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for {
		select {
		case ch := <-p.idle:
			ch.Close()
			continue
		default:
		}
		break
	}
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
