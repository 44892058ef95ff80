package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
)

// Queries implements repository.SnapshotQueries over the connection pool.
type Queries struct {
	client *Client
}

// NewQueries creates the read-side repository for the dashboard API.
func NewQueries(client *Client) *Queries {
	return &Queries{client: client}
}

func (q *Queries) CampaignSnapshot(ctx context.Context, campaignID string, day time.Time) (*domain.CampaignDailySnapshot, error) {
	row := q.client.pool.QueryRow(ctx, `
		SELECT `+campaignSnapshotColumns+`
		FROM campaign_daily_snapshots
		WHERE campaign_id = $1 AND snapshot_date = $2`,
		campaignID, day,
	)
	snapshot, err := scanCampaignSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign snapshot: %w", err)
	}
	return snapshot, nil
}

func (q *Queries) CampaignSnapshotRange(ctx context.Context, campaignID string, from, to time.Time) ([]*domain.CampaignDailySnapshot, error) {
	rows, err := q.client.pool.Query(ctx, `
		SELECT `+campaignSnapshotColumns+`
		FROM campaign_daily_snapshots
		WHERE campaign_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date`,
		campaignID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign snapshot range: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.CampaignDailySnapshot
	for rows.Next() {
		snapshot, err := scanCampaignSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign snapshots: %w", err)
	}
	return snapshots, nil
}

func (q *Queries) CreatorSnapshot(ctx context.Context, creatorID string, day time.Time) (*domain.CreatorDailySnapshot, error) {
	row := q.client.pool.QueryRow(ctx, `
		SELECT `+creatorSnapshotColumns+`
		FROM creator_daily_snapshots
		WHERE creator_id = $1 AND snapshot_date = $2`,
		creatorID, day,
	)
	snapshot, err := scanCreatorSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query creator snapshot: %w", err)
	}
	return snapshot, nil
}

func (q *Queries) CreatorSnapshotRange(ctx context.Context, creatorID string, from, to time.Time) ([]*domain.CreatorDailySnapshot, error) {
	rows, err := q.client.pool.Query(ctx, `
		SELECT `+creatorSnapshotColumns+`
		FROM creator_daily_snapshots
		WHERE creator_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date`,
		creatorID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query creator snapshot range: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.CreatorDailySnapshot
	for rows.Next() {
		snapshot, err := scanCreatorSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan creator snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating creator snapshots: %w", err)
	}
	return snapshots, nil
}

func (q *Queries) ParticipantSnapshot(ctx context.Context, userID string, day time.Time) (*domain.ParticipantDailySnapshot, error) {
	row := q.client.pool.QueryRow(ctx, `
		SELECT `+participantSnapshotColumns+`
		FROM participant_daily_snapshots
		WHERE user_id = $1 AND snapshot_date = $2`,
		userID, day,
	)
	snapshot, err := scanParticipantSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query participant snapshot: %w", err)
	}
	return snapshot, nil
}

func (q *Queries) ParticipantSnapshotRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.ParticipantDailySnapshot, error) {
	rows, err := q.client.pool.Query(ctx, `
		SELECT `+participantSnapshotColumns+`
		FROM participant_daily_snapshots
		WHERE user_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant snapshot range: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.ParticipantDailySnapshot
	for rows.Next() {
		snapshot, err := scanParticipantSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant snapshots: %w", err)
	}
	return snapshots, nil
}

func (q *Queries) Ping(ctx context.Context) error {
	return q.client.pool.Ping(ctx)
}
