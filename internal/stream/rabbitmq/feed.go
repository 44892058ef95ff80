package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/stream"
)

// Config configures the RabbitMQ payment feed.
type Config struct {
	URL              string
	Exchange         string
	Queue            string
	RoutingKey       string
	ResubscribeDelay time.Duration
}

// Feed consumes payment documents from a RabbitMQ topic exchange. Connection
// or channel loss is recovered by redialing after a fixed delay; unacked
// deliveries are requeued by the broker.
type Feed struct {
	config Config
	log    *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFeed creates the feed. The connection is dialed from the consume loop
// so resubscription and first connection share one path.
func NewFeed(cfg Config, log *zap.Logger) *Feed {
	return &Feed{config: cfg, log: log}
}

// Start launches the consume loop. Calling Start on a running feed is a
// no-op.
func (f *Feed) Start(ctx context.Context, handler stream.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		f.log.Debug("RabbitMQ feed already running")
		return nil
	}

	feedCtx, cancel := context.WithCancel(ctx)
	f.running = true
	f.cancel = cancel
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		f.run(feedCtx, handler)
	}()

	f.log.Info("RabbitMQ payment feed started",
		zap.String("exchange", f.config.Exchange),
		zap.String("queue", f.config.Queue))
	return nil
}

func (f *Feed) run(ctx context.Context, handler stream.Handler) {
	for {
		if err := f.consume(ctx, handler); err != nil {
			if ctx.Err() != nil {
				f.log.Info("RabbitMQ feed shutting down")
				return
			}
			f.log.Error("RabbitMQ feed error, resubscribing",
				zap.Error(err),
				zap.Duration("delay", f.config.ResubscribeDelay))
		}

		select {
		case <-ctx.Done():
			f.log.Info("RabbitMQ feed shutting down")
			return
		case <-time.After(f.config.ResubscribeDelay):
		}
	}
}

// consume dials, binds and drains deliveries until the channel closes or the
// context is cancelled.
func (f *Feed) consume(ctx context.Context, handler stream.Handler) error {
	conn, err := amqp.Dial(f.config.URL)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(f.config.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(f.config.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, f.config.RoutingKey, f.config.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			f.handleDelivery(ctx, d, handler)
		}
	}
}

func (f *Feed) handleDelivery(ctx context.Context, d amqp.Delivery, handler stream.Handler) {
	event, skip, err := stream.DecodePayment(d.Body)
	if err != nil {
		f.log.Warn("Dropping malformed payment message", zap.Error(err))
		if err := d.Ack(false); err != nil {
			f.log.Error("Failed to ack malformed message", zap.Error(err))
		}
		return
	}
	if skip {
		if err := d.Ack(false); err != nil {
			f.log.Error("Failed to ack filtered message", zap.Error(err))
		}
		return
	}

	if err := handler(ctx, event); err != nil {
		f.log.Warn("Payment handler failed, requeueing delivery",
			zap.String("payment_id", event.ID),
			zap.Error(err))
		if err := d.Nack(false, true); err != nil {
			f.log.Error("Failed to nack delivery", zap.Error(err))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		f.log.Error("Failed to ack delivery",
			zap.String("payment_id", event.ID),
			zap.Error(err))
	}
}

// Close stops the consume loop and waits for it to exit.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil
	}
	f.cancel()
	<-f.done
	f.running = false
	f.log.Info("RabbitMQ payment feed closed")
	return nil
}
