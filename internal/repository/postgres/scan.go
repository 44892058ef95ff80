package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

func scanCampaignSnapshot(row pgx.Row) (*domain.CampaignDailySnapshot, error) {
	var s domain.CampaignDailySnapshot
	err := row.Scan(
		&s.CampaignID, &s.Date, &s.CreatorID, &s.Status, &s.TotalNumbers,
		&s.SoldNumbers, &s.ReservedNumbers, &s.AvailableNumbers,
		&s.TotalRevenue, &s.PeriodRevenue, &s.PeriodNumbersSold,
		&s.UniqueParticipants, &s.PeriodNewParticipants, &s.PercentComplete,
		&s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanCreatorSnapshot(row pgx.Row) (*domain.CreatorDailySnapshot, error) {
	var (
		s       domain.CreatorDailySnapshot
		dowJSON []byte
		topJSON []byte
	)
	err := row.Scan(
		&s.CreatorID, &s.Date, &s.TotalRevenue, &s.TotalNumbersSold,
		&s.PeriodRevenue, &s.PeriodNumbersSold, &s.TotalParticipants,
		&s.PeriodNewParticipants, &dowJSON, &topJSON, &s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if len(dowJSON) > 0 {
		if err := json.Unmarshal(dowJSON, &s.RevenueByDayOfWeek); err != nil {
			return nil, fmt.Errorf("failed to unmarshal day-of-week buckets: %w", err)
		}
	}
	if len(topJSON) > 0 {
		if err := json.Unmarshal(topJSON, &s.TopCampaigns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal top campaigns: %w", err)
		}
	}
	return &s, nil
}

func scanParticipantSnapshot(row pgx.Row) (*domain.ParticipantDailySnapshot, error) {
	var (
		s        domain.ParticipantDailySnapshot
		lastJSON []byte
		topJSON  []byte
	)
	err := row.Scan(
		&s.UserID, &s.Date, &s.ParticipationCount, &s.TotalSpent,
		&s.TotalNumbersOwned, &s.PeriodParticipations, &s.PeriodSpent,
		&s.PeriodNumbersPurchased, &s.AvgTicketValue, &lastJSON, &topJSON,
		&s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if len(lastJSON) > 0 {
		var last domain.Participation
		if err := json.Unmarshal(lastJSON, &last); err != nil {
			return nil, fmt.Errorf("failed to unmarshal last participation: %w", err)
		}
		s.LastParticipation = &last
	}
	if len(topJSON) > 0 {
		if err := json.Unmarshal(topJSON, &s.TopCampaigns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal top campaigns: %w", err)
		}
	}
	return &s, nil
}
