package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema owned by the stats pipeline. The campaigns and payments tables
// belong to the checkout system and are only read here.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS campaign_daily_snapshots (
		campaign_id             TEXT NOT NULL,
		snapshot_date           DATE NOT NULL,
		creator_id              TEXT NOT NULL,
		status                  TEXT NOT NULL DEFAULT '',
		total_numbers           BIGINT NOT NULL DEFAULT 0,
		sold_numbers            BIGINT NOT NULL DEFAULT 0,
		reserved_numbers        BIGINT NOT NULL DEFAULT 0,
		available_numbers       BIGINT NOT NULL DEFAULT 0,
		total_revenue           BIGINT NOT NULL DEFAULT 0,
		period_revenue          BIGINT NOT NULL DEFAULT 0,
		period_numbers_sold     BIGINT NOT NULL DEFAULT 0,
		unique_participants     BIGINT NOT NULL DEFAULT 0,
		period_new_participants BIGINT NOT NULL DEFAULT 0,
		percent_complete        DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_updated            TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (campaign_id, snapshot_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaign_snapshots_creator
		ON campaign_daily_snapshots (creator_id, snapshot_date)`,
	`CREATE TABLE IF NOT EXISTS creator_daily_snapshots (
		creator_id              TEXT NOT NULL,
		snapshot_date           DATE NOT NULL,
		total_revenue           BIGINT NOT NULL DEFAULT 0,
		total_numbers_sold      BIGINT NOT NULL DEFAULT 0,
		period_revenue          BIGINT NOT NULL DEFAULT 0,
		period_numbers_sold     BIGINT NOT NULL DEFAULT 0,
		total_participants      BIGINT NOT NULL DEFAULT 0,
		period_new_participants BIGINT NOT NULL DEFAULT 0,
		revenue_by_day_of_week  JSONB NOT NULL DEFAULT '[0,0,0,0,0,0,0]',
		top_campaigns           JSONB NOT NULL DEFAULT '[]',
		last_updated            TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (creator_id, snapshot_date)
	)`,
	`CREATE TABLE IF NOT EXISTS participant_daily_snapshots (
		user_id                  TEXT NOT NULL,
		snapshot_date            DATE NOT NULL,
		participation_count      BIGINT NOT NULL DEFAULT 0,
		total_spent              BIGINT NOT NULL DEFAULT 0,
		total_numbers_owned      BIGINT NOT NULL DEFAULT 0,
		period_participations    BIGINT NOT NULL DEFAULT 0,
		period_spent             BIGINT NOT NULL DEFAULT 0,
		period_numbers_purchased BIGINT NOT NULL DEFAULT 0,
		avg_ticket_value         DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_participation       JSONB,
		top_campaigns            JSONB NOT NULL DEFAULT '[]',
		last_updated             TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, snapshot_date)
	)`,
	`CREATE TABLE IF NOT EXISTS processed_payments (
		payment_id   TEXT PRIMARY KEY,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS stats_dead_letters (
		id             UUID PRIMARY KEY,
		payment_id     TEXT NOT NULL,
		campaign_id    TEXT NOT NULL,
		user_id        TEXT NOT NULL,
		amount         BIGINT NOT NULL,
		numbers_count  BIGINT NOT NULL,
		payment_method TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL,
		cause          TEXT NOT NULL,
		failed_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// InitSchema creates the snapshot, idempotency and dead-letter tables.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
