package sessionpool

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
	"github.com/Jose00521/raffle-stats-service/internal/metrics"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
)

func metricsForTest() *metrics.Metrics {
	return metrics.New("test", prometheus.NewRegistry())
}

type fakeSession struct {
	id     int
	closed bool
}

func (s *fakeSession) Begin(ctx context.Context) (repository.Tx, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSession) RecordDeadLetters(ctx context.Context, events []*domain.PaymentEvent, cause string) error {
	return nil
}

func (s *fakeSession) Ping(ctx context.Context) error {
	return nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type countingFactory struct {
	opened   int
	sessions []*fakeSession
}

func (f *countingFactory) open(ctx context.Context) (repository.Session, error) {
	f.opened++
	s := &fakeSession{id: f.opened}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func newTestPool(t *testing.T, capacity int) (*Pool, *countingFactory) {
	t.Helper()
	factory := &countingFactory{}
	m := metricsForTest()
	pool, err := New(context.Background(), factory.open, capacity, m, zap.NewNop())
	require.NoError(t, err)
	return pool, factory
}

func TestNewPreOpensCapacitySessions(t *testing.T) {
	_, factory := newTestPool(t, 3)
	assert.Equal(t, 3, factory.opened)
}

func TestAcquireReusesPooledSessions(t *testing.T) {
	pool, factory := newTestPool(t, 2)
	ctx := context.Background()

	s1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	s2, err := pool.Acquire(ctx)
	require.NoError(t, err)

	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, factory.opened)

	pool.Release(ctx, s1)
	s3, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, s1, s3)
	assert.Equal(t, 2, factory.opened)
}

func TestAcquireOverflowsWithoutBlocking(t *testing.T) {
	pool, factory := newTestPool(t, 1)
	ctx := context.Background()

	s1, err := pool.Acquire(ctx)
	require.NoError(t, err)

	// The pool is drained; the next acquire opens an ad hoc session instead
	// of waiting for s1 to come back.
	s2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, factory.opened)
}

func TestReleaseClosesSessionsBeyondCapacity(t *testing.T) {
	pool, factory := newTestPool(t, 1)
	ctx := context.Background()

	s1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	s2, err := pool.Acquire(ctx)
	require.NoError(t, err)

	pool.Release(ctx, s1)
	pool.Release(ctx, s2)

	assert.False(t, factory.sessions[0].closed)
	assert.True(t, factory.sessions[1].closed)
}

func TestCloseClosesPooledSessions(t *testing.T) {
	pool, factory := newTestPool(t, 2)
	ctx := context.Background()

	pool.Close(ctx)

	for _, s := range factory.sessions {
		assert.True(t, s.closed)
	}

	_, err := pool.Acquire(ctx)
	assert.Error(t, err)
}

func TestReleaseAfterCloseClosesSession(t *testing.T) {
	pool, factory := newTestPool(t, 1)
	ctx := context.Background()

	s, err := pool.Acquire(ctx)
	require.NoError(t, err)

	pool.Close(ctx)
	pool.Release(ctx, s)

	assert.True(t, factory.sessions[0].closed)
}
