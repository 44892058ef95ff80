package sessionpool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/metrics"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
)

// Pool is a fixed-capacity free-list of store sessions. Acquire never
// blocks: when the list is empty an ad hoc session is opened instead, and
// Release closes anything beyond capacity.
type Pool struct {
	factory  repository.SessionFactory
	capacity int
	log      *zap.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	free   []repository.Session
	closed bool
}

// New pre-opens capacity sessions.
func New(ctx context.Context, factory repository.SessionFactory, capacity int, m *metrics.Metrics, log *zap.Logger) (*Pool, error) {
	p := &Pool{
		factory:  factory,
		capacity: capacity,
		log:      log,
		metrics:  m,
		free:     make([]repository.Session, 0, capacity),
	}

	for i := 0; i < capacity; i++ {
		session, err := factory(ctx)
		if err != nil {
			p.Close(ctx)
			return nil, fmt.Errorf("failed to pre-open session %d of %d: %w", i+1, capacity, err)
		}
		p.free = append(p.free, session)
	}

	log.Info("Session pool initialized", zap.Int("capacity", capacity))
	return p, nil
}

// Acquire pops a pooled session, or opens an ad hoc one when the pool is
// drained.
func (p *Pool) Acquire(ctx context.Context) (repository.Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("session pool is closed")
	}
	if n := len(p.free); n > 0 {
		session := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return session, nil
	}
	p.mu.Unlock()

	p.log.Warn("Session pool exhausted, opening ad hoc session")
	p.metrics.PoolOverflow.Inc()
	session, err := p.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open ad hoc session: %w", err)
	}
	return session, nil
}

// Release returns the session to the pool, or closes it when the pool is
// already full or closed.
func (p *Pool) Release(ctx context.Context, session repository.Session) {
	if session == nil {
		return
	}

	p.mu.Lock()
	if !p.closed && len(p.free) < p.capacity {
		p.free = append(p.free, session)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if err := session.Close(ctx); err != nil {
		p.log.Error("Failed to close overflow session", zap.Error(err))
	}
}

// Close closes every pooled session. Sessions checked out at the time are
// closed by Release when they come back.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	sessions := p.free
	p.free = nil
	p.closed = true
	p.mu.Unlock()

	for _, session := range sessions {
		if err := session.Close(ctx); err != nil {
			p.log.Error("Failed to close pooled session", zap.Error(err))
		}
	}
}
