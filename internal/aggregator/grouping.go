package aggregator

import (
	"sort"
	"time"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

// campaignGroup is the per-campaign unit of work within one flush: all of a
// campaign's events are applied inside a single transaction.
type campaignGroup struct {
	campaignID string
	items      []*Item
}

// groupByCampaign partitions a batch into campaign groups, ordered by
// campaign id so flushes process campaigns deterministically.
func groupByCampaign(items []*Item) []*campaignGroup {
	byCampaign := make(map[string][]*Item)
	for _, item := range items {
		id := item.Event.CampaignID
		byCampaign[id] = append(byCampaign[id], item)
	}

	ids := make([]string, 0, len(byCampaign))
	for id := range byCampaign {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]*campaignGroup, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, &campaignGroup{campaignID: id, items: byCampaign[id]})
	}
	return groups
}

// groupByUser partitions a campaign group's items by participant.
func groupByUser(items []*Item) map[string][]*Item {
	byUser := make(map[string][]*Item)
	for _, item := range items {
		byUser[item.Event.UserID] = append(byUser[item.Event.UserID], item)
	}
	return byUser
}

// sortedUsers returns the participant ids in deterministic order.
func sortedUsers(byUser map[string][]*Item) []string {
	users := make([]string, 0, len(byUser))
	for userID := range byUser {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// earliestCreatedAt returns the oldest event time in the slice.
func earliestCreatedAt(items []*Item) (earliest time.Time) {
	for i, item := range items {
		if i == 0 || item.Event.CreatedAt.Before(earliest) {
			earliest = item.Event.CreatedAt
		}
	}
	return earliest
}

// latestParticipation builds the last-participation record from the most
// recent event in the slice.
func latestParticipation(items []*Item, campaign *domain.Campaign) *domain.Participation {
	var latest *domain.PaymentEvent
	for _, item := range items {
		if latest == nil || item.Event.CreatedAt.After(latest.CreatedAt) {
			latest = item.Event
		}
	}
	if latest == nil {
		return nil
	}
	return &domain.Participation{
		CampaignID:    campaign.ID,
		CampaignTitle: campaign.Title,
		Amount:        latest.Amount,
		NumbersCount:  latest.NumbersCount,
		Date:          latest.CreatedAt,
	}
}
