package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

func delivery(ack *fakeAcknowledger, body string) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         []byte(body),
	}
}

const confirmedBody = `{"id":"pay-1","campaignId":"camp-1","userId":"user-1","amount":500,"numbersCount":1,"status":"confirmed","createdAt":"2026-03-10T14:30:00Z"}`

func TestHandleDeliveryAcksConfirmed(t *testing.T) {
	feed := NewFeed(Config{}, zap.NewNop())
	ack := &fakeAcknowledger{}

	var delivered *domain.PaymentEvent
	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		delivered = event
		return nil
	}

	feed.handleDelivery(context.Background(), delivery(ack, confirmedBody), handler)

	require.NotNil(t, delivered)
	assert.Equal(t, "pay-1", delivered.ID)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleDeliveryAcksNonConfirmed(t *testing.T) {
	feed := NewFeed(Config{}, zap.NewNop())
	ack := &fakeAcknowledger{}

	called := false
	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		called = true
		return nil
	}

	body := `{"id":"pay-1","campaignId":"camp-1","userId":"user-1","amount":500,"numbersCount":1,"status":"refunded"}`
	feed.handleDelivery(context.Background(), delivery(ack, body), handler)

	assert.False(t, called)
	assert.True(t, ack.acked)
}

func TestHandleDeliveryAcksMalformed(t *testing.T) {
	feed := NewFeed(Config{}, zap.NewNop())
	ack := &fakeAcknowledger{}

	called := false
	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		called = true
		return nil
	}

	feed.handleDelivery(context.Background(), delivery(ack, `{not json`), handler)

	// Redelivery cannot fix a malformed document, so it is acked away.
	assert.False(t, called)
	assert.True(t, ack.acked)
}

func TestHandleDeliveryRequeuesOnHandlerError(t *testing.T) {
	feed := NewFeed(Config{}, zap.NewNop())
	ack := &fakeAcknowledger{}

	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		return errors.New("queue full")
	}

	feed.handleDelivery(context.Background(), delivery(ack, confirmedBody), handler)

	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
}
