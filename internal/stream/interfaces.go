package stream

import (
	"context"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

// Handler consumes one confirmed payment. A non-nil error tells the feed to
// leave the message for redelivery.
type Handler func(ctx context.Context, event *domain.PaymentEvent) error

// PaymentFeed is a live feed of confirmed-payment events. Start is
// idempotent; implementations filter to confirmed payments and recover from
// transport failures by resubscribing after a fixed delay.
type PaymentFeed interface {
	Start(ctx context.Context, handler Handler) error
	Close() error
}
