package domain

import (
	"sort"
	"time"
)

// TopCampaignsLimit bounds the top-campaign lists on creator and
// participant snapshots.
const TopCampaignsLimit = 5

// Day truncates t to its UTC calendar day. Snapshot rows are keyed by it.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CampaignDailySnapshot is the per-campaign per-day rollup read by the
// creator dashboard.
type CampaignDailySnapshot struct {
	CampaignID            string
	CreatorID             string
	Date                  time.Time
	Status                string
	TotalNumbers          int
	SoldNumbers           int
	ReservedNumbers       int
	AvailableNumbers      int
	TotalRevenue          int64
	PeriodRevenue         int64
	PeriodNumbersSold     int
	UniqueParticipants    int
	PeriodNewParticipants int
	PercentComplete       float64
	LastUpdated           time.Time
}

// CampaignDelta is the aggregate of one campaign group within a batch.
type CampaignDelta struct {
	Revenue         int64
	NumbersSold     int
	NewParticipants int
}

// Apply adds the delta and recomputes the derived fields. Invariant:
// availableNumbers = totalNumbers - soldNumbers - reservedNumbers, never
// negative.
func (s *CampaignDailySnapshot) Apply(d CampaignDelta, now time.Time) {
	s.SoldNumbers += d.NumbersSold
	s.TotalRevenue += d.Revenue
	s.PeriodRevenue += d.Revenue
	s.PeriodNumbersSold += d.NumbersSold
	s.UniqueParticipants += d.NewParticipants
	s.PeriodNewParticipants += d.NewParticipants

	s.AvailableNumbers = s.TotalNumbers - s.SoldNumbers - s.ReservedNumbers
	if s.AvailableNumbers < 0 {
		s.AvailableNumbers = 0
	}
	if s.TotalNumbers > 0 {
		s.PercentComplete = float64(s.SoldNumbers) / float64(s.TotalNumbers) * 100
	}
	s.LastUpdated = now
}

// CreatorTopCampaign is one entry of a creator's best-performing list,
// ranked by revenue.
type CreatorTopCampaign struct {
	CampaignID     string  `json:"campaignId"`
	Title          string  `json:"title"`
	Revenue        int64   `json:"revenue"`
	NumbersSold    int     `json:"numbersSold"`
	CompletionRate float64 `json:"completionRate"`
}

// CreatorDailySnapshot is the per-creator per-day rollup. Total* fields and
// the day-of-week buckets accumulate over the creator's lifetime; Period*
// fields cover the snapshot's day only.
type CreatorDailySnapshot struct {
	CreatorID             string
	Date                  time.Time
	TotalRevenue          int64
	TotalNumbersSold      int
	PeriodRevenue         int64
	PeriodNumbersSold     int
	TotalParticipants     int
	PeriodNewParticipants int
	RevenueByDayOfWeek    [7]int64
	TopCampaigns          []CreatorTopCampaign
	LastUpdated           time.Time
}

// CreatorDelta is the aggregate of one campaign group attributed to the
// campaign's creator. RevenueByDayOfWeek buckets each event's amount by its
// createdAt weekday, Sunday first.
type CreatorDelta struct {
	Revenue            int64
	NumbersSold        int
	NewParticipants    int
	RevenueByDayOfWeek [7]int64
}

// Apply adds the delta and maintains the top-campaigns list: in-place merge
// when the campaign is already listed, append otherwise, then sort by
// revenue descending and truncate.
func (s *CreatorDailySnapshot) Apply(d CreatorDelta, campaign *Campaign, completionRate float64, now time.Time) {
	s.TotalRevenue += d.Revenue
	s.TotalNumbersSold += d.NumbersSold
	s.PeriodRevenue += d.Revenue
	s.PeriodNumbersSold += d.NumbersSold
	s.TotalParticipants += d.NewParticipants
	s.PeriodNewParticipants += d.NewParticipants
	for i := range d.RevenueByDayOfWeek {
		s.RevenueByDayOfWeek[i] += d.RevenueByDayOfWeek[i]
	}

	found := false
	for i := range s.TopCampaigns {
		if s.TopCampaigns[i].CampaignID == campaign.ID {
			s.TopCampaigns[i].Revenue += d.Revenue
			s.TopCampaigns[i].NumbersSold += d.NumbersSold
			s.TopCampaigns[i].CompletionRate = completionRate
			found = true
			break
		}
	}
	if !found {
		s.TopCampaigns = append(s.TopCampaigns, CreatorTopCampaign{
			CampaignID:     campaign.ID,
			Title:          campaign.Title,
			Revenue:        d.Revenue,
			NumbersSold:    d.NumbersSold,
			CompletionRate: completionRate,
		})
	}
	sort.SliceStable(s.TopCampaigns, func(i, j int) bool {
		return s.TopCampaigns[i].Revenue > s.TopCampaigns[j].Revenue
	})
	if len(s.TopCampaigns) > TopCampaignsLimit {
		s.TopCampaigns = s.TopCampaigns[:TopCampaignsLimit]
	}
	s.LastUpdated = now
}

// ParticipantTopCampaign is one entry of a participant's list, ranked by
// amount spent.
type ParticipantTopCampaign struct {
	CampaignID   string `json:"campaignId"`
	Title        string `json:"title"`
	Spent        int64  `json:"spent"`
	NumbersCount int    `json:"numbersCount"`
}

// Participation records a participant's most recent confirmed payment.
type Participation struct {
	CampaignID    string    `json:"campaignId"`
	CampaignTitle string    `json:"campaignTitle"`
	Amount        int64     `json:"amount"`
	NumbersCount  int       `json:"numbersCount"`
	Date          time.Time `json:"date"`
}

// ParticipantDailySnapshot is the per-participant per-day rollup.
type ParticipantDailySnapshot struct {
	UserID                 string
	Date                   time.Time
	ParticipationCount     int
	TotalSpent             int64
	TotalNumbersOwned      int
	PeriodParticipations   int
	PeriodSpent            int64
	PeriodNumbersPurchased int
	AvgTicketValue         float64
	LastParticipation      *Participation
	TopCampaigns           []ParticipantTopCampaign
	LastUpdated            time.Time
}

// ParticipantDelta is the aggregate of one user's events within a campaign
// group. Latest is the user's most recent event in the group and overwrites
// LastParticipation.
type ParticipantDelta struct {
	Spent          int64
	Numbers        int
	Participations int
	Latest         *Participation
}

// Apply adds the delta, overwrites the last participation, recomputes the
// average ticket value and maintains the top-campaigns list.
func (s *ParticipantDailySnapshot) Apply(d ParticipantDelta, campaign *Campaign, now time.Time) {
	s.ParticipationCount += d.Participations
	s.TotalSpent += d.Spent
	s.TotalNumbersOwned += d.Numbers
	s.PeriodParticipations += d.Participations
	s.PeriodSpent += d.Spent
	s.PeriodNumbersPurchased += d.Numbers
	if s.ParticipationCount > 0 {
		s.AvgTicketValue = float64(s.TotalSpent) / float64(s.ParticipationCount)
	}
	if d.Latest != nil {
		s.LastParticipation = d.Latest
	}

	found := false
	for i := range s.TopCampaigns {
		if s.TopCampaigns[i].CampaignID == campaign.ID {
			s.TopCampaigns[i].Spent += d.Spent
			s.TopCampaigns[i].NumbersCount += d.Numbers
			found = true
			break
		}
	}
	if !found {
		s.TopCampaigns = append(s.TopCampaigns, ParticipantTopCampaign{
			CampaignID:   campaign.ID,
			Title:        campaign.Title,
			Spent:        d.Spent,
			NumbersCount: d.Numbers,
		})
	}
	sort.SliceStable(s.TopCampaigns, func(i, j int) bool {
		return s.TopCampaigns[i].Spent > s.TopCampaigns[j].Spent
	})
	if len(s.TopCampaigns) > TopCampaignsLimit {
		s.TopCampaigns = s.TopCampaigns[:TopCampaignsLimit]
	}
	s.LastUpdated = now
}
