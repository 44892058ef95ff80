package sqs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/domain"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*awssqs.ReceiveMessageOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClient) DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*awssqs.DeleteMessageOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestFeed(client Client) *Feed {
	return NewFeedWithClient(client, Config{
		QueueURL:         "http://localhost/queue/payments",
		MaxMessages:      10,
		WaitTimeSeconds:  1,
		ResubscribeDelay: 10 * time.Millisecond,
	}, zap.NewNop())
}

func message(body string) types.Message {
	return types.Message{
		MessageId:     aws.String("msg-1"),
		ReceiptHandle: aws.String("rcpt-1"),
		Body:          aws.String(body),
	}
}

const confirmedBody = `{"id":"pay-1","campaignId":"camp-1","userId":"user-1","amount":500,"numbersCount":1,"status":"confirmed","createdAt":"2026-03-10T14:30:00Z"}`

func TestHandleMessageDeliversConfirmedAndDeletes(t *testing.T) {
	client := new(mockClient)
	client.On("DeleteMessage", mock.Anything, mock.Anything).Return(&awssqs.DeleteMessageOutput{}, nil)

	feed := newTestFeed(client)

	var delivered *domain.PaymentEvent
	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		delivered = event
		return nil
	}

	feed.handleMessage(context.Background(), message(confirmedBody), handler)

	require.NotNil(t, delivered)
	assert.Equal(t, "pay-1", delivered.ID)
	client.AssertNumberOfCalls(t, "DeleteMessage", 1)
}

func TestHandleMessageDeletesNonConfirmed(t *testing.T) {
	client := new(mockClient)
	client.On("DeleteMessage", mock.Anything, mock.Anything).Return(&awssqs.DeleteMessageOutput{}, nil)

	feed := newTestFeed(client)

	called := false
	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		called = true
		return nil
	}

	body := `{"id":"pay-1","campaignId":"camp-1","userId":"user-1","amount":500,"numbersCount":1,"status":"pending"}`
	feed.handleMessage(context.Background(), message(body), handler)

	assert.False(t, called)
	client.AssertNumberOfCalls(t, "DeleteMessage", 1)
}

func TestHandleMessageDropsMalformed(t *testing.T) {
	client := new(mockClient)
	client.On("DeleteMessage", mock.Anything, mock.Anything).Return(&awssqs.DeleteMessageOutput{}, nil)

	feed := newTestFeed(client)

	called := false
	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		called = true
		return nil
	}

	feed.handleMessage(context.Background(), message(`{not json`), handler)

	assert.False(t, called)
	client.AssertNumberOfCalls(t, "DeleteMessage", 1)
}

func TestHandleMessageLeavesInFlightOnHandlerError(t *testing.T) {
	client := new(mockClient)
	feed := newTestFeed(client)

	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		return errors.New("queue full")
	}

	feed.handleMessage(context.Background(), message(confirmedBody), handler)

	// No delete: the message stays in flight and SQS redelivers it after the
	// visibility timeout.
	client.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)
}

func TestPollResubscribesAfterReceiveError(t *testing.T) {
	client := new(mockClient)
	client.On("ReceiveMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()
	client.On("ReceiveMessage", mock.Anything, mock.Anything).
		Return(&awssqs.ReceiveMessageOutput{Messages: []types.Message{message(confirmedBody)}}, nil).Once()
	client.On("ReceiveMessage", mock.Anything, mock.Anything).
		Return(&awssqs.ReceiveMessageOutput{}, nil)
	client.On("DeleteMessage", mock.Anything, mock.Anything).Return(&awssqs.DeleteMessageOutput{}, nil)

	feed := newTestFeed(client)

	delivered := make(chan *domain.PaymentEvent, 1)
	handler := func(ctx context.Context, event *domain.PaymentEvent) error {
		delivered <- event
		return nil
	}

	require.NoError(t, feed.Start(context.Background(), handler))

	select {
	case event := <-delivered:
		assert.Equal(t, "pay-1", event.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery after resubscribe")
	}

	require.NoError(t, feed.Close())
	client.AssertExpectations(t)
}
