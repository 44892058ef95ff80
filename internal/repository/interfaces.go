package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

// ErrCampaignNotFound is returned by Tx.FindCampaign for unknown campaigns.
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrSnapshotNotFound is returned by the read side for missing snapshot rows.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Tx is one transaction over the stats store. All reads and writes of a
// campaign's processing unit go through a single Tx so the campaign, creator
// and participant snapshots commit or roll back together.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// FindCampaign loads the canonical campaign state.
	FindCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error)

	// MarkProcessed inserts the payment ids into the processed set and
	// returns the ids that were not already present. Duplicates from
	// redelivery contribute no delta.
	MarkProcessed(ctx context.Context, paymentIDs []string) ([]string, error)

	// CountConfirmedPayments counts the user's confirmed payments on the
	// campaign created strictly before the given instant.
	CountConfirmedPayments(ctx context.Context, campaignID, userID string, before time.Time) (int64, error)

	GetOrCreateCampaignSnapshot(ctx context.Context, campaign *domain.Campaign, day time.Time) (*domain.CampaignDailySnapshot, error)
	SaveCampaignSnapshot(ctx context.Context, snapshot *domain.CampaignDailySnapshot) error

	GetOrCreateCreatorSnapshot(ctx context.Context, creatorID string, day time.Time) (*domain.CreatorDailySnapshot, error)
	SaveCreatorSnapshot(ctx context.Context, snapshot *domain.CreatorDailySnapshot) error

	GetOrCreateParticipantSnapshot(ctx context.Context, userID string, day time.Time) (*domain.ParticipantDailySnapshot, error)
	SaveParticipantSnapshot(ctx context.Context, snapshot *domain.ParticipantDailySnapshot) error
}

// Session is a reusable store handle. Sessions are pooled by the worker and
// are not safe for concurrent use.
type Session interface {
	Begin(ctx context.Context) (Tx, error)

	// RecordDeadLetters persists events that exhausted their flush attempts.
	// Runs outside any transaction.
	RecordDeadLetters(ctx context.Context, events []*domain.PaymentEvent, cause string) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// SessionFactory opens a new store session.
type SessionFactory func(ctx context.Context) (Session, error)

// ArchiveRepository is the append-only sink for processed payment events.
type ArchiveRepository interface {
	InsertBatch(ctx context.Context, events []*domain.PaymentEvent) (int, error)
	InitSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// SnapshotQueries is the read side used by the dashboard API.
type SnapshotQueries interface {
	CampaignSnapshot(ctx context.Context, campaignID string, day time.Time) (*domain.CampaignDailySnapshot, error)
	CampaignSnapshotRange(ctx context.Context, campaignID string, from, to time.Time) ([]*domain.CampaignDailySnapshot, error)

	CreatorSnapshot(ctx context.Context, creatorID string, day time.Time) (*domain.CreatorDailySnapshot, error)
	CreatorSnapshotRange(ctx context.Context, creatorID string, from, to time.Time) ([]*domain.CreatorDailySnapshot, error)

	ParticipantSnapshot(ctx context.Context, userID string, day time.Time) (*domain.ParticipantDailySnapshot, error)
	ParticipantSnapshotRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.ParticipantDailySnapshot, error)

	Ping(ctx context.Context) error
}
