package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
	"github.com/Jose00521/raffle-stats-service/internal/metrics"
)

// Item is one queued payment event plus its flush attempt count.
type Item struct {
	Event    *domain.PaymentEvent
	Attempts int
}

// Processor applies one batch and returns the items to retry on a later
// cycle.
type Processor interface {
	ProcessBatch(ctx context.Context, items []*Item) []*Item
}

// AccumulatorConfig configures the batch accumulator.
type AccumulatorConfig struct {
	BatchSize     int
	FlushTimeout  time.Duration
	QueueCapacity int
	WarnThreshold int
}

// Accumulator buffers incoming confirmed payments and flushes them to the
// processor when the batch size is reached or the flush timeout elapses
// since the first buffered event, whichever comes first. All flushing
// happens on the Run goroutine, so flushes never overlap; producers block on
// the bounded input channel when the pipeline is saturated.
type Accumulator struct {
	config    AccumulatorConfig
	processor Processor
	metrics   *metrics.Metrics
	log       *zap.Logger

	in chan *Item
}

// NewAccumulator creates a batch accumulator.
func NewAccumulator(config AccumulatorConfig, processor Processor, m *metrics.Metrics, log *zap.Logger) *Accumulator {
	return &Accumulator{
		config:    config,
		processor: processor,
		metrics:   m,
		log:       log,
		in:        make(chan *Item, config.QueueCapacity),
	}
}

// Enqueue buffers one event. It blocks when the queue is full and returns
// the context error if cancelled while waiting.
func (a *Accumulator) Enqueue(ctx context.Context, event *domain.PaymentEvent) error {
	select {
	case a.in <- &Item{Event: event}:
	case <-ctx.Done():
		return ctx.Err()
	}

	depth := len(a.in)
	a.metrics.QueueDepth.Set(float64(depth))
	if depth > a.config.WarnThreshold {
		a.log.Warn("Accumulator queue depth above threshold, possible bottleneck",
			zap.Int("depth", depth),
			zap.Int("threshold", a.config.WarnThreshold))
	}
	return nil
}

// Run drives the flush cycles until the context is cancelled, then drains
// and flushes whatever is still buffered.
func (a *Accumulator) Run(ctx context.Context) {
	timer := time.NewTimer(a.config.FlushTimeout)
	stopTimer(timer)

	batch := make([]*Item, 0, a.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			batch = append(batch, a.drain()...)
			if len(batch) > 0 {
				a.log.Info("Flushing final batch", zap.Int("event_count", len(batch)))
				flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				batch = a.flushAll(flushCtx, batch)
				cancel()
				if len(batch) > 0 {
					// The processor could not finish within the shutdown
					// window, not even to dead-letter.
					a.log.Error("Discarding unflushed events at shutdown",
						zap.Int("event_count", len(batch)))
				}
			}
			a.log.Info("Accumulator shutting down")
			return

		case item := <-a.in:
			if len(batch) == 0 {
				// Timeout counts from the first unflushed event.
				timer.Reset(a.config.FlushTimeout)
			}
			batch = append(batch, item)
			a.metrics.QueueDepth.Set(float64(len(a.in)))

			if len(batch) >= a.config.BatchSize {
				a.log.Debug("Batch size threshold reached", zap.Int("batch_size", len(batch)))
				stopTimer(timer)
				batch = a.flushAll(ctx, batch)
			}

		case <-timer.C:
			if len(batch) == 0 {
				continue
			}
			a.log.Debug("Batch timeout reached", zap.Int("event_count", len(batch)))
			batch = a.flushAll(ctx, batch)
		}
	}
}

// flushAll runs flush cycles back to back until nothing is left: a non-empty
// remainder never waits out another timeout. Retried items either succeed or
// exhaust their attempts within a bounded number of cycles, so the loop
// terminates; a cancelled context hands the remainder back to the caller.
func (a *Accumulator) flushAll(ctx context.Context, batch []*Item) []*Item {
	for len(batch) > 0 {
		if ctx.Err() != nil {
			return batch
		}
		batch = a.flush(ctx, batch)
	}
	return nil
}

// flush hands the batch to the processor and keeps whatever it wants
// retried as the seed of the next batch.
func (a *Accumulator) flush(ctx context.Context, batch []*Item) []*Item {
	start := time.Now()
	retry := a.processor.ProcessBatch(ctx, batch)

	a.metrics.BatchesFlushed.Inc()
	a.metrics.FlushDuration.Observe(time.Since(start).Seconds())

	if len(retry) > 0 {
		a.log.Warn("Flush left events queued for retry", zap.Int("event_count", len(retry)))
	}
	return retry
}

// drain empties the input channel without blocking.
func (a *Accumulator) drain() []*Item {
	var items []*Item
	for {
		select {
		case item := <-a.in:
			items = append(items, item)
		default:
			return items
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
