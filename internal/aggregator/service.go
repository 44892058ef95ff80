package aggregator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
	"github.com/Jose00521/raffle-stats-service/internal/metrics"
	"github.com/Jose00521/raffle-stats-service/internal/stream"
)

// Service wires the payment feed into the accumulator and owns the
// lifecycle of both.
type Service struct {
	feed        stream.PaymentFeed
	accumulator *Accumulator
	driver      string
	metrics     *metrics.Metrics
	log         *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates the stats pipeline service. driver names the feed
// transport for metrics labels.
func NewService(feed stream.PaymentFeed, accumulator *Accumulator, driver string, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		feed:        feed,
		accumulator: accumulator,
		driver:      driver,
		metrics:     m,
		log:         log,
	}
}

// Start launches the accumulator and subscribes the feed. Calling Start on a
// running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Debug("Stats service already running")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.accumulator.Run(runCtx)
	}()

	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		if err := s.accumulator.Enqueue(ctx, event); err != nil {
			return err
		}
		s.metrics.EventsConsumed.WithLabelValues(s.driver).Inc()
		return nil
	}

	if err := s.feed.Start(runCtx, handler); err != nil {
		cancel()
		s.wg.Wait()
		return err
	}

	s.running = true
	s.log.Info("Stats service started", zap.String("feed_driver", s.driver))
	return nil
}

// Stop closes the feed first so no new events arrive, then cancels the
// accumulator, which drains and flushes its final batch.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	if err := s.feed.Close(); err != nil {
		s.log.Error("Failed to close payment feed", zap.Error(err))
	}
	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info("Stats service stopped")
}
