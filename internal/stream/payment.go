package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

// paymentDocument is the wire shape published by the checkout system.
type paymentDocument struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaignId"`
	UserID        string    `json:"userId"`
	Amount        int64     `json:"amount"`
	NumbersCount  int       `json:"numbersCount"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DecodePayment parses a payment document. skip is true when the document is
// valid but not a confirmed payment and must be dropped silently.
func DecodePayment(body []byte) (event *domain.PaymentEvent, skip bool, err error) {
	var doc paymentDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal payment document: %w", err)
	}

	if doc.Status != domain.PaymentStatusConfirmed {
		return nil, true, nil
	}
	if doc.ID == "" || doc.CampaignID == "" || doc.UserID == "" {
		return nil, false, fmt.Errorf("payment document missing id fields")
	}
	if doc.NumbersCount < 1 {
		return nil, false, fmt.Errorf("payment %s has invalid numbersCount %d", doc.ID, doc.NumbersCount)
	}

	return &domain.PaymentEvent{
		ID:            doc.ID,
		CampaignID:    doc.CampaignID,
		UserID:        doc.UserID,
		Amount:        doc.Amount,
		NumbersCount:  doc.NumbersCount,
		PaymentMethod: doc.PaymentMethod,
		CreatedAt:     doc.CreatedAt,
	}, false, nil
}
