package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/Jose00521/raffle-stats-service/internal/repository"
)

// isNewParticipant reports whether the user has no confirmed payment on the
// campaign strictly before the given instant. The count runs inside the
// campaign's transaction so the answer is consistent with the writes it
// gates.
func isNewParticipant(ctx context.Context, tx repository.Tx, campaignID, userID string, before time.Time) (bool, error) {
	count, err := tx.CountConfirmedPayments(ctx, campaignID, userID, before)
	if err != nil {
		return false, fmt.Errorf("failed to classify participant %s on campaign %s: %w", userID, campaignID, err)
	}
	return count == 0, nil
}
