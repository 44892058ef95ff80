package dto

import (
	"time"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CampaignSnapshotResponse is one campaign daily snapshot.
type CampaignSnapshotResponse struct {
	CampaignID            string    `json:"campaign_id"`
	CreatorID             string    `json:"creator_id"`
	Date                  string    `json:"date"`
	Status                string    `json:"status"`
	TotalNumbers          int       `json:"total_numbers"`
	SoldNumbers           int       `json:"sold_numbers"`
	ReservedNumbers       int       `json:"reserved_numbers"`
	AvailableNumbers      int       `json:"available_numbers"`
	TotalRevenue          int64     `json:"total_revenue"`
	PeriodRevenue         int64     `json:"period_revenue"`
	PeriodNumbersSold     int       `json:"period_numbers_sold"`
	UniqueParticipants    int       `json:"unique_participants"`
	PeriodNewParticipants int       `json:"period_new_participants"`
	PercentComplete       float64   `json:"percent_complete"`
	LastUpdated           time.Time `json:"last_updated"`
}

// NewCampaignSnapshotResponse maps a domain snapshot to its response shape.
func NewCampaignSnapshotResponse(s *domain.CampaignDailySnapshot) CampaignSnapshotResponse {
	return CampaignSnapshotResponse{
		CampaignID:            s.CampaignID,
		CreatorID:             s.CreatorID,
		Date:                  s.Date.Format("2006-01-02"),
		Status:                s.Status,
		TotalNumbers:          s.TotalNumbers,
		SoldNumbers:           s.SoldNumbers,
		ReservedNumbers:       s.ReservedNumbers,
		AvailableNumbers:      s.AvailableNumbers,
		TotalRevenue:          s.TotalRevenue,
		PeriodRevenue:         s.PeriodRevenue,
		PeriodNumbersSold:     s.PeriodNumbersSold,
		UniqueParticipants:    s.UniqueParticipants,
		PeriodNewParticipants: s.PeriodNewParticipants,
		PercentComplete:       s.PercentComplete,
		LastUpdated:           s.LastUpdated,
	}
}

// CreatorSnapshotResponse is one creator daily snapshot.
type CreatorSnapshotResponse struct {
	CreatorID             string                      `json:"creator_id"`
	Date                  string                      `json:"date"`
	TotalRevenue          int64                       `json:"total_revenue"`
	TotalNumbersSold      int                         `json:"total_numbers_sold"`
	PeriodRevenue         int64                       `json:"period_revenue"`
	PeriodNumbersSold     int                         `json:"period_numbers_sold"`
	TotalParticipants     int                         `json:"total_participants"`
	PeriodNewParticipants int                         `json:"period_new_participants"`
	RevenueByDayOfWeek    [7]int64                    `json:"revenue_by_day_of_week"`
	TopCampaigns          []domain.CreatorTopCampaign `json:"top_campaigns"`
	LastUpdated           time.Time                   `json:"last_updated"`
}

// NewCreatorSnapshotResponse maps a domain snapshot to its response shape.
func NewCreatorSnapshotResponse(s *domain.CreatorDailySnapshot) CreatorSnapshotResponse {
	top := s.TopCampaigns
	if top == nil {
		top = []domain.CreatorTopCampaign{}
	}
	return CreatorSnapshotResponse{
		CreatorID:             s.CreatorID,
		Date:                  s.Date.Format("2006-01-02"),
		TotalRevenue:          s.TotalRevenue,
		TotalNumbersSold:      s.TotalNumbersSold,
		PeriodRevenue:         s.PeriodRevenue,
		PeriodNumbersSold:     s.PeriodNumbersSold,
		TotalParticipants:     s.TotalParticipants,
		PeriodNewParticipants: s.PeriodNewParticipants,
		RevenueByDayOfWeek:    s.RevenueByDayOfWeek,
		TopCampaigns:          top,
		LastUpdated:           s.LastUpdated,
	}
}

// ParticipantSnapshotResponse is one participant daily snapshot.
type ParticipantSnapshotResponse struct {
	UserID                 string                          `json:"user_id"`
	Date                   string                          `json:"date"`
	ParticipationCount     int                             `json:"participation_count"`
	TotalSpent             int64                           `json:"total_spent"`
	TotalNumbersOwned      int                             `json:"total_numbers_owned"`
	PeriodParticipations   int                             `json:"period_participations"`
	PeriodSpent            int64                           `json:"period_spent"`
	PeriodNumbersPurchased int                             `json:"period_numbers_purchased"`
	AvgTicketValue         float64                         `json:"avg_ticket_value"`
	LastParticipation      *domain.Participation           `json:"last_participation,omitempty"`
	TopCampaigns           []domain.ParticipantTopCampaign `json:"top_campaigns"`
	LastUpdated            time.Time                       `json:"last_updated"`
}

// NewParticipantSnapshotResponse maps a domain snapshot to its response shape.
func NewParticipantSnapshotResponse(s *domain.ParticipantDailySnapshot) ParticipantSnapshotResponse {
	top := s.TopCampaigns
	if top == nil {
		top = []domain.ParticipantTopCampaign{}
	}
	return ParticipantSnapshotResponse{
		UserID:                 s.UserID,
		Date:                   s.Date.Format("2006-01-02"),
		ParticipationCount:     s.ParticipationCount,
		TotalSpent:             s.TotalSpent,
		TotalNumbersOwned:      s.TotalNumbersOwned,
		PeriodParticipations:   s.PeriodParticipations,
		PeriodSpent:            s.PeriodSpent,
		PeriodNumbersPurchased: s.PeriodNumbersPurchased,
		AvgTicketValue:         s.AvgTicketValue,
		LastParticipation:      s.LastParticipation,
		TopCampaigns:           top,
		LastUpdated:            s.LastUpdated,
	}
}
