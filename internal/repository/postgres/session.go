package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
)

// Session wraps a dedicated pgx connection. One session carries at most one
// open transaction at a time, which is what the pool hands out to the
// aggregator.
type Session struct {
	conn *pgx.Conn
	log  *zap.Logger
}

// NewSessionFactory returns a factory that opens dedicated connections for
// the session pool.
func NewSessionFactory(dsn string, log *zap.Logger) repository.SessionFactory {
	return func(ctx context.Context) (repository.Session, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect session: %w", err)
		}
		return &Session{conn: conn, log: log}, nil
	}
}

// Begin opens a transaction on the session's connection.
func (s *Session) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &statsTx{tx: tx}, nil
}

// RecordDeadLetters persists undeliverable events outside any transaction.
func (s *Session) RecordDeadLetters(ctx context.Context, events []*domain.PaymentEvent, cause string) error {
	for _, event := range events {
		_, err := s.conn.Exec(ctx, `
			INSERT INTO stats_dead_letters
				(id, payment_id, campaign_id, user_id, amount, numbers_count, payment_method, created_at, cause, failed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.NewString(), event.ID, event.CampaignID, event.UserID,
			event.Amount, event.NumbersCount, event.PaymentMethod,
			event.CreatedAt, cause, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to record dead letter for payment %s: %w", event.ID, err)
		}
	}
	return nil
}

// Ping checks the session's connection.
func (s *Session) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close releases the underlying connection.
func (s *Session) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
