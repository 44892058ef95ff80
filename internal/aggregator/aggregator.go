package aggregator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
	"github.com/Jose00521/raffle-stats-service/internal/metrics"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
	"github.com/Jose00521/raffle-stats-service/internal/sessionpool"
)

// Config tunes the snapshot aggregator.
type Config struct {
	// MaxAttempts is how many flush cycles a campaign group may fail before
	// its events are dead-lettered.
	MaxAttempts int
}

// Aggregator rolls batches of confirmed payments up into the campaign,
// creator and participant daily snapshots. Each campaign group is one
// transaction: its three snapshot kinds commit or roll back together, and a
// failing campaign never blocks the others in the batch.
type Aggregator struct {
	pool    *sessionpool.Pool
	archive repository.ArchiveRepository
	config  Config
	metrics *metrics.Metrics
	log     *zap.Logger

	now func() time.Time
}

// New creates a snapshot aggregator. archive may be nil when the ClickHouse
// sink is disabled.
func New(pool *sessionpool.Pool, archive repository.ArchiveRepository, config Config, m *metrics.Metrics, log *zap.Logger) *Aggregator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	return &Aggregator{
		pool:    pool,
		archive: archive,
		config:  config,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// ProcessBatch applies one accumulator batch. Campaigns are processed
// sequentially; items from failed campaign groups come back for retry until
// their attempts run out, at which point they are dead-lettered.
func (a *Aggregator) ProcessBatch(ctx context.Context, items []*Item) []*Item {
	var retry []*Item

	for _, group := range groupByCampaign(items) {
		applied, err := a.processCampaign(ctx, group)
		if err != nil {
			a.metrics.CampaignTxFailures.Inc()
			a.log.Error("Failed to process campaign group",
				zap.String("campaign_id", group.campaignID),
				zap.Int("event_count", len(group.items)),
				zap.Error(err))
			retry = append(retry, a.retryOrDeadLetter(ctx, group, err)...)
			continue
		}
		a.archiveEvents(ctx, applied)
	}

	return retry
}

// processCampaign is one unit of work: acquire a session, open a
// transaction, mark the payment ids processed, load the campaign, apply the
// aggregated deltas to all three snapshot kinds and commit. It returns the
// events that actually contributed deltas.
func (a *Aggregator) processCampaign(ctx context.Context, group *campaignGroup) ([]*domain.PaymentEvent, error) {
	session, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer a.pool.Release(ctx, session)

	tx, err := session.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			a.log.Error("Failed to roll back transaction",
				zap.String("campaign_id", group.campaignID),
				zap.Error(rbErr))
		}
	}()

	ids := make([]string, len(group.items))
	for i, item := range group.items {
		ids[i] = item.Event.ID
	}
	freshIDs, err := tx.MarkProcessed(ctx, ids)
	if err != nil {
		return nil, err
	}
	if dup := len(ids) - len(freshIDs); dup > 0 {
		a.metrics.EventsDeduplicated.Add(float64(dup))
		a.log.Info("Skipped redelivered payments",
			zap.String("campaign_id", group.campaignID),
			zap.Int("count", dup))
	}

	fresh := filterByID(group.items, freshIDs)
	if len(fresh) == 0 {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit: %w", err)
		}
		committed = true
		return nil, nil
	}

	campaign, err := tx.FindCampaign(ctx, group.campaignID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	day := domain.Day(now)

	byUser := groupByUser(fresh)
	users := sortedUsers(byUser)

	// One classifier query per distinct participant in the group.
	newParticipants := 0
	for _, userID := range users {
		isNew, cErr := isNewParticipant(ctx, tx, campaign.ID, userID, earliestCreatedAt(byUser[userID]))
		if cErr != nil {
			return nil, cErr
		}
		if isNew {
			newParticipants++
		}
	}

	var campaignDelta domain.CampaignDelta
	var creatorDelta domain.CreatorDelta
	for _, item := range fresh {
		campaignDelta.Revenue += item.Event.Amount
		campaignDelta.NumbersSold += item.Event.NumbersCount
		creatorDelta.Revenue += item.Event.Amount
		creatorDelta.NumbersSold += item.Event.NumbersCount
		creatorDelta.RevenueByDayOfWeek[int(item.Event.CreatedAt.UTC().Weekday())] += item.Event.Amount
	}
	campaignDelta.NewParticipants = newParticipants
	creatorDelta.NewParticipants = newParticipants

	campaignSnap, err := tx.GetOrCreateCampaignSnapshot(ctx, campaign, day)
	if err != nil {
		return nil, err
	}
	campaignSnap.Apply(campaignDelta, now)
	if err := tx.SaveCampaignSnapshot(ctx, campaignSnap); err != nil {
		return nil, err
	}
	a.metrics.SnapshotsUpdated.WithLabelValues("campaign").Inc()

	creatorSnap, err := tx.GetOrCreateCreatorSnapshot(ctx, campaign.CreatedBy, day)
	if err != nil {
		return nil, err
	}
	creatorSnap.Apply(creatorDelta, campaign, campaignSnap.PercentComplete, now)
	if err := tx.SaveCreatorSnapshot(ctx, creatorSnap); err != nil {
		return nil, err
	}
	a.metrics.SnapshotsUpdated.WithLabelValues("creator").Inc()

	for _, userID := range users {
		userItems := byUser[userID]
		delta := domain.ParticipantDelta{
			Participations: len(userItems),
			Latest:         latestParticipation(userItems, campaign),
		}
		for _, item := range userItems {
			delta.Spent += item.Event.Amount
			delta.Numbers += item.Event.NumbersCount
		}

		participantSnap, pErr := tx.GetOrCreateParticipantSnapshot(ctx, userID, day)
		if pErr != nil {
			return nil, pErr
		}
		participantSnap.Apply(delta, campaign, now)
		if pErr := tx.SaveParticipantSnapshot(ctx, participantSnap); pErr != nil {
			return nil, pErr
		}
		a.metrics.SnapshotsUpdated.WithLabelValues("participant").Inc()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit campaign %s: %w", group.campaignID, err)
	}
	committed = true

	events := make([]*domain.PaymentEvent, len(fresh))
	for i, item := range fresh {
		events[i] = item.Event
	}
	return events, nil
}

// retryOrDeadLetter bumps the attempt count of a failed group's items,
// keeping the survivors for the next cycle and dead-lettering the rest.
func (a *Aggregator) retryOrDeadLetter(ctx context.Context, group *campaignGroup, cause error) []*Item {
	var retry []*Item
	var dead []*domain.PaymentEvent

	for _, item := range group.items {
		item.Attempts++
		if item.Attempts >= a.config.MaxAttempts {
			dead = append(dead, item.Event)
		} else {
			retry = append(retry, item)
		}
	}

	if len(dead) > 0 {
		a.deadLetter(ctx, dead, cause)
	}
	return retry
}

func (a *Aggregator) deadLetter(ctx context.Context, events []*domain.PaymentEvent, cause error) {
	session, err := a.pool.Acquire(ctx)
	if err != nil {
		a.log.Error("Failed to acquire session for dead letters", zap.Error(err))
		return
	}
	defer a.pool.Release(ctx, session)

	if err := session.RecordDeadLetters(ctx, events, cause.Error()); err != nil {
		a.log.Error("Failed to record dead letters",
			zap.Int("event_count", len(events)),
			zap.Error(err))
		return
	}

	a.metrics.DeadLetters.Add(float64(len(events)))
	a.log.Warn("Dead-lettered events after exhausting retries",
		zap.Int("event_count", len(events)),
		zap.String("cause", cause.Error()))
}

// archiveEvents appends applied events to the analytics archive,
// best-effort.
func (a *Aggregator) archiveEvents(ctx context.Context, events []*domain.PaymentEvent) {
	if a.archive == nil || len(events) == 0 {
		return
	}
	if _, err := a.archive.InsertBatch(ctx, events); err != nil {
		a.log.Warn("Failed to archive payment events",
			zap.Int("event_count", len(events)),
			zap.Error(err))
	}
}

func filterByID(items []*Item, ids []string) []*Item {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	var fresh []*Item
	for _, item := range items {
		if keep[item.Event.ID] {
			fresh = append(fresh, item)
		}
	}
	return fresh
}
