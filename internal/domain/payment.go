package domain

import "time"

// PaymentStatusConfirmed is the only payment status the stats pipeline
// consumes; everything else is filtered out at the feed.
const PaymentStatusConfirmed = "confirmed"

// PaymentEvent is a confirmed payment as delivered by the feed.
// Amount is in currency minor units.
type PaymentEvent struct {
	ID            string
	CampaignID    string
	UserID        string
	Amount        int64
	NumbersCount  int
	PaymentMethod string
	CreatedAt     time.Time
}
