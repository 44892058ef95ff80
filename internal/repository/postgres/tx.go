package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
)

// statsTx implements repository.Tx over a pgx transaction.
type statsTx struct {
	tx pgx.Tx
}

func (t *statsTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *statsTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *statsTx) FindCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	var c domain.Campaign
	err := t.tx.QueryRow(ctx, `
		SELECT campaign_id, created_by, title, status, total_numbers
		FROM campaigns
		WHERE campaign_id = $1`,
		campaignID,
	).Scan(&c.ID, &c.CreatedBy, &c.Title, &c.Status, &c.TotalNumbers)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, repository.ErrCampaignNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign %s: %w", campaignID, err)
	}
	return &c, nil
}

func (t *statsTx) MarkProcessed(ctx context.Context, paymentIDs []string) ([]string, error) {
	rows, err := t.tx.Query(ctx, `
		INSERT INTO processed_payments (payment_id)
		SELECT unnest($1::text[])
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING payment_id`,
		paymentIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payments processed: %w", err)
	}
	defer rows.Close()

	fresh := make([]string, 0, len(paymentIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan processed payment id: %w", err)
		}
		fresh = append(fresh, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processed payment ids: %w", err)
	}
	return fresh, nil
}

func (t *statsTx) CountConfirmedPayments(ctx context.Context, campaignID, userID string, before time.Time) (int64, error) {
	var count int64
	err := t.tx.QueryRow(ctx, `
		SELECT count(*)
		FROM payments
		WHERE campaign_id = $1 AND user_id = $2 AND status = $3 AND created_at < $4`,
		campaignID, userID, domain.PaymentStatusConfirmed, before,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed payments: %w", err)
	}
	return count, nil
}

const campaignSnapshotColumns = `
	campaign_id, snapshot_date, creator_id, status, total_numbers,
	sold_numbers, reserved_numbers, available_numbers, total_revenue,
	period_revenue, period_numbers_sold, unique_participants,
	period_new_participants, percent_complete, last_updated`

func (t *statsTx) GetOrCreateCampaignSnapshot(ctx context.Context, campaign *domain.Campaign, day time.Time) (*domain.CampaignDailySnapshot, error) {
	snapshot, err := t.campaignSnapshot(ctx, campaign.ID, day)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load campaign snapshot: %w", err)
	}

	// First event of the day: status and totals come from the campaign's
	// canonical state, lifetime counters carry over from the most recent
	// snapshot, daily counters restart at zero.
	var (
		prevRevenue      int64
		prevParticipants int
	)
	err = t.tx.QueryRow(ctx, `
		SELECT total_revenue, unique_participants
		FROM campaign_daily_snapshots
		WHERE campaign_id = $1 AND snapshot_date < $2
		ORDER BY snapshot_date DESC
		LIMIT 1`,
		campaign.ID, day,
	).Scan(&prevRevenue, &prevParticipants)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load prior campaign snapshot: %w", err)
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO campaign_daily_snapshots
			(campaign_id, snapshot_date, creator_id, status, total_numbers,
			 available_numbers, total_revenue, unique_participants)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7)
		ON CONFLICT (campaign_id, snapshot_date) DO NOTHING`,
		campaign.ID, day, campaign.CreatedBy, campaign.Status, campaign.TotalNumbers,
		prevRevenue, prevParticipants,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign snapshot: %w", err)
	}

	snapshot, err = t.campaignSnapshot(ctx, campaign.ID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to reload campaign snapshot: %w", err)
	}
	return snapshot, nil
}

func (t *statsTx) campaignSnapshot(ctx context.Context, campaignID string, day time.Time) (*domain.CampaignDailySnapshot, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+campaignSnapshotColumns+`
		FROM campaign_daily_snapshots
		WHERE campaign_id = $1 AND snapshot_date = $2`,
		campaignID, day,
	)
	return scanCampaignSnapshot(row)
}

func (t *statsTx) SaveCampaignSnapshot(ctx context.Context, s *domain.CampaignDailySnapshot) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE campaign_daily_snapshots SET
			status = $3, total_numbers = $4, sold_numbers = $5,
			reserved_numbers = $6, available_numbers = $7, total_revenue = $8,
			period_revenue = $9, period_numbers_sold = $10,
			unique_participants = $11, period_new_participants = $12,
			percent_complete = $13, last_updated = $14
		WHERE campaign_id = $1 AND snapshot_date = $2`,
		s.CampaignID, s.Date, s.Status, s.TotalNumbers, s.SoldNumbers,
		s.ReservedNumbers, s.AvailableNumbers, s.TotalRevenue, s.PeriodRevenue,
		s.PeriodNumbersSold, s.UniqueParticipants, s.PeriodNewParticipants,
		s.PercentComplete, s.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save campaign snapshot: %w", err)
	}
	return nil
}

const creatorSnapshotColumns = `
	creator_id, snapshot_date, total_revenue, total_numbers_sold,
	period_revenue, period_numbers_sold, total_participants,
	period_new_participants, revenue_by_day_of_week, top_campaigns,
	last_updated`

func (t *statsTx) GetOrCreateCreatorSnapshot(ctx context.Context, creatorID string, day time.Time) (*domain.CreatorDailySnapshot, error) {
	snapshot, err := t.creatorSnapshot(ctx, creatorID, day)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load creator snapshot: %w", err)
	}

	// Lifetime fields carry over from the creator's most recent snapshot;
	// period fields restart at zero.
	carry := &domain.CreatorDailySnapshot{}
	row := t.tx.QueryRow(ctx, `
		SELECT `+creatorSnapshotColumns+`
		FROM creator_daily_snapshots
		WHERE creator_id = $1 AND snapshot_date < $2
		ORDER BY snapshot_date DESC
		LIMIT 1`,
		creatorID, day,
	)
	prev, err := scanCreatorSnapshot(row)
	if err == nil {
		carry = prev
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load prior creator snapshot: %w", err)
	}

	dow, err := json.Marshal(carry.RevenueByDayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal day-of-week buckets: %w", err)
	}
	top, err := marshalList(carry.TopCampaigns)
	if err != nil {
		return nil, err
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO creator_daily_snapshots
			(creator_id, snapshot_date, total_revenue, total_numbers_sold,
			 total_participants, revenue_by_day_of_week, top_campaigns)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (creator_id, snapshot_date) DO NOTHING`,
		creatorID, day, carry.TotalRevenue, carry.TotalNumbersSold,
		carry.TotalParticipants, dow, top,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create creator snapshot: %w", err)
	}

	snapshot, err = t.creatorSnapshot(ctx, creatorID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to reload creator snapshot: %w", err)
	}
	return snapshot, nil
}

func (t *statsTx) creatorSnapshot(ctx context.Context, creatorID string, day time.Time) (*domain.CreatorDailySnapshot, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+creatorSnapshotColumns+`
		FROM creator_daily_snapshots
		WHERE creator_id = $1 AND snapshot_date = $2`,
		creatorID, day,
	)
	return scanCreatorSnapshot(row)
}

func (t *statsTx) SaveCreatorSnapshot(ctx context.Context, s *domain.CreatorDailySnapshot) error {
	dow, err := json.Marshal(s.RevenueByDayOfWeek)
	if err != nil {
		return fmt.Errorf("failed to marshal day-of-week buckets: %w", err)
	}
	top, err := marshalList(s.TopCampaigns)
	if err != nil {
		return err
	}

	_, err = t.tx.Exec(ctx, `
		UPDATE creator_daily_snapshots SET
			total_revenue = $3, total_numbers_sold = $4, period_revenue = $5,
			period_numbers_sold = $6, total_participants = $7,
			period_new_participants = $8, revenue_by_day_of_week = $9,
			top_campaigns = $10, last_updated = $11
		WHERE creator_id = $1 AND snapshot_date = $2`,
		s.CreatorID, s.Date, s.TotalRevenue, s.TotalNumbersSold,
		s.PeriodRevenue, s.PeriodNumbersSold, s.TotalParticipants,
		s.PeriodNewParticipants, dow, top, s.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save creator snapshot: %w", err)
	}
	return nil
}

const participantSnapshotColumns = `
	user_id, snapshot_date, participation_count, total_spent,
	total_numbers_owned, period_participations, period_spent,
	period_numbers_purchased, avg_ticket_value, last_participation,
	top_campaigns, last_updated`

func (t *statsTx) GetOrCreateParticipantSnapshot(ctx context.Context, userID string, day time.Time) (*domain.ParticipantDailySnapshot, error) {
	snapshot, err := t.participantSnapshot(ctx, userID, day)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load participant snapshot: %w", err)
	}

	carry := &domain.ParticipantDailySnapshot{}
	row := t.tx.QueryRow(ctx, `
		SELECT `+participantSnapshotColumns+`
		FROM participant_daily_snapshots
		WHERE user_id = $1 AND snapshot_date < $2
		ORDER BY snapshot_date DESC
		LIMIT 1`,
		userID, day,
	)
	prev, err := scanParticipantSnapshot(row)
	if err == nil {
		carry = prev
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load prior participant snapshot: %w", err)
	}

	last, err := marshalNullable(carry.LastParticipation)
	if err != nil {
		return nil, err
	}
	top, err := marshalList(carry.TopCampaigns)
	if err != nil {
		return nil, err
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO participant_daily_snapshots
			(user_id, snapshot_date, participation_count, total_spent,
			 total_numbers_owned, avg_ticket_value, last_participation, top_campaigns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, snapshot_date) DO NOTHING`,
		userID, day, carry.ParticipationCount, carry.TotalSpent,
		carry.TotalNumbersOwned, carry.AvgTicketValue, last, top,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create participant snapshot: %w", err)
	}

	snapshot, err = t.participantSnapshot(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to reload participant snapshot: %w", err)
	}
	return snapshot, nil
}

func (t *statsTx) participantSnapshot(ctx context.Context, userID string, day time.Time) (*domain.ParticipantDailySnapshot, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+participantSnapshotColumns+`
		FROM participant_daily_snapshots
		WHERE user_id = $1 AND snapshot_date = $2`,
		userID, day,
	)
	return scanParticipantSnapshot(row)
}

func (t *statsTx) SaveParticipantSnapshot(ctx context.Context, s *domain.ParticipantDailySnapshot) error {
	last, err := marshalNullable(s.LastParticipation)
	if err != nil {
		return err
	}
	top, err := marshalList(s.TopCampaigns)
	if err != nil {
		return err
	}

	_, err = t.tx.Exec(ctx, `
		UPDATE participant_daily_snapshots SET
			participation_count = $3, total_spent = $4,
			total_numbers_owned = $5, period_participations = $6,
			period_spent = $7, period_numbers_purchased = $8,
			avg_ticket_value = $9, last_participation = $10,
			top_campaigns = $11, last_updated = $12
		WHERE user_id = $1 AND snapshot_date = $2`,
		s.UserID, s.Date, s.ParticipationCount, s.TotalSpent,
		s.TotalNumbersOwned, s.PeriodParticipations, s.PeriodSpent,
		s.PeriodNumbersPurchased, s.AvgTicketValue, last, top, s.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save participant snapshot: %w", err)
	}
	return nil
}

func marshalList[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot list: %w", err)
	}
	return data, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch p := v.(type) {
	case *domain.Participation:
		if p == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot field: %w", err)
	}
	return data, nil
}
