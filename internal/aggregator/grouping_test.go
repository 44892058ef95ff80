package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

func item(id, campaignID, userID string, amount int64, numbers int, createdAt time.Time) *Item {
	return &Item{Event: &domain.PaymentEvent{
		ID:           id,
		CampaignID:   campaignID,
		UserID:       userID,
		Amount:       amount,
		NumbersCount: numbers,
		CreatedAt:    createdAt,
	}}
}

func TestGroupByCampaignPartitionsAndOrders(t *testing.T) {
	now := time.Now()
	items := []*Item{
		item("p1", "camp-b", "u1", 100, 1, now),
		item("p2", "camp-a", "u1", 200, 2, now),
		item("p3", "camp-b", "u2", 300, 3, now),
		item("p4", "camp-a", "u2", 400, 4, now),
	}

	groups := groupByCampaign(items)

	assert.Len(t, groups, 2)
	assert.Equal(t, "camp-a", groups[0].campaignID)
	assert.Equal(t, "camp-b", groups[1].campaignID)

	// Every item lands in exactly one group.
	total := 0
	for _, g := range groups {
		for _, it := range g.items {
			assert.Equal(t, g.campaignID, it.Event.CampaignID)
			total++
		}
	}
	assert.Equal(t, len(items), total)
}

func TestGroupByCampaignEmptyBatch(t *testing.T) {
	assert.Empty(t, groupByCampaign(nil))
}

func TestGroupByUserAndSortedUsers(t *testing.T) {
	now := time.Now()
	items := []*Item{
		item("p1", "camp-a", "u2", 100, 1, now),
		item("p2", "camp-a", "u1", 200, 2, now),
		item("p3", "camp-a", "u2", 300, 3, now),
	}

	byUser := groupByUser(items)
	assert.Len(t, byUser, 2)
	assert.Len(t, byUser["u2"], 2)
	assert.Len(t, byUser["u1"], 1)

	assert.Equal(t, []string{"u1", "u2"}, sortedUsers(byUser))
}

func TestEarliestCreatedAt(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []*Item{
		item("p1", "camp-a", "u1", 100, 1, base.Add(time.Hour)),
		item("p2", "camp-a", "u1", 200, 2, base),
		item("p3", "camp-a", "u1", 300, 3, base.Add(2*time.Hour)),
	}

	assert.Equal(t, base, earliestCreatedAt(items))
}

func TestLatestParticipation(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	campaign := &domain.Campaign{ID: "camp-a", Title: "Spring Raffle"}
	items := []*Item{
		item("p1", "camp-a", "u1", 100, 1, base),
		item("p2", "camp-a", "u1", 500, 5, base.Add(time.Hour)),
	}

	latest := latestParticipation(items, campaign)

	assert.Equal(t, "camp-a", latest.CampaignID)
	assert.Equal(t, "Spring Raffle", latest.CampaignTitle)
	assert.Equal(t, int64(500), latest.Amount)
	assert.Equal(t, 5, latest.NumbersCount)
	assert.Equal(t, base.Add(time.Hour), latest.Date)
}

func TestLatestParticipationEmpty(t *testing.T) {
	assert.Nil(t, latestParticipation(nil, &domain.Campaign{ID: "camp-a"}))
}
