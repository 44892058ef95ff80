package clickhouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

// Archive is the append-only sink of every confirmed payment the worker has
// aggregated. It feeds ad hoc analytics outside the snapshot tables; a
// failed archive write never blocks aggregation.
type Archive struct {
	client *Client
	log    *zap.Logger
}

// NewArchive creates a ClickHouse-backed payment archive.
func NewArchive(client *Client, log *zap.Logger) *Archive {
	return &Archive{client: client, log: log}
}

// InitSchema creates the payment_events table.
func (a *Archive) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS payment_events (
		payment_id String,
		campaign_id String,
		user_id String,
		amount Int64,
		numbers_count Int32,
		payment_method LowCardinality(String),
		created_at DateTime64(3),
		processed_at DateTime64(3) DEFAULT now64(3)
	) ENGINE = MergeTree
	PRIMARY KEY (campaign_id, created_at)
	ORDER BY (campaign_id, created_at, payment_id)
	PARTITION BY toYYYYMM(created_at)
	SETTINGS index_granularity = 8192
	`

	if err := a.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create payment_events table: %w", err)
	}

	a.log.Info("ClickHouse archive schema initialized")
	return nil
}

// InsertBatch appends a batch of confirmed payments to the archive.
func (a *Archive) InsertBatch(ctx context.Context, events []*domain.PaymentEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := a.client.Conn().PrepareBatch(ctx, "INSERT INTO payment_events")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare archive batch: %w", err)
	}

	processedAt := time.Now().UTC()
	for _, event := range events {
		err := batch.Append(
			event.ID,
			event.CampaignID,
			event.UserID,
			event.Amount,
			int32(event.NumbersCount),
			event.PaymentMethod,
			event.CreatedAt,
			processedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append payment %s to archive batch: %w", event.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send archive batch: %w", err)
	}

	return len(events), nil
}

// Ping checks the archive connection.
func (a *Archive) Ping(ctx context.Context) error {
	return a.client.Conn().Ping(ctx)
}

// Close closes the archive connection.
func (a *Archive) Close() error {
	return a.client.Close()
}
