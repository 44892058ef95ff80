package sqs

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/stream"
)

// Config configures the SQS payment feed.
type Config struct {
	Endpoint         string
	QueueURL         string
	Region           string
	MaxMessages      int32
	WaitTimeSeconds  int32
	ResubscribeDelay time.Duration
}

// Feed consumes payment documents from an SQS queue. The checkout system
// publishes every payment status change; the feed surfaces only confirmed
// payments.
type Feed struct {
	client Client
	config Config
	log    *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFeed creates an SQS client and the feed around it.
func NewFeed(ctx context.Context, cfg Config, log *zap.Logger) (*Feed, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	var clientOpts []func(*awssqs.Options)

	// Local development against ElasticMQ.
	if cfg.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", cfg.Endpoint))
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))
		clientOpts = append(clientOpts, func(o *awssqs.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, err
	}

	return NewFeedWithClient(awssqs.NewFromConfig(awsCfg, clientOpts...), cfg, log), nil
}

// NewFeedWithClient builds the feed around an existing queue client.
func NewFeedWithClient(client Client, cfg Config, log *zap.Logger) *Feed {
	return &Feed{
		client: client,
		config: cfg,
		log:    log,
	}
}

// Start launches the long-polling loop. Calling Start on a running feed is a
// no-op.
func (f *Feed) Start(ctx context.Context, handler stream.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		f.log.Debug("SQS feed already running")
		return nil
	}

	feedCtx, cancel := context.WithCancel(ctx)
	f.running = true
	f.cancel = cancel
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		f.poll(feedCtx, handler)
	}()

	f.log.Info("SQS payment feed started", zap.String("queue_url", f.config.QueueURL))
	return nil
}

func (f *Feed) poll(ctx context.Context, handler stream.Handler) {
	for {
		select {
		case <-ctx.Done():
			f.log.Info("SQS feed shutting down")
			return
		default:
		}

		result, err := f.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
			QueueUrl:            aws.String(f.config.QueueURL),
			MaxNumberOfMessages: f.config.MaxMessages,
			WaitTimeSeconds:     f.config.WaitTimeSeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.log.Error("Error receiving messages from SQS, resubscribing",
				zap.Error(err),
				zap.Duration("delay", f.config.ResubscribeDelay))
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.config.ResubscribeDelay):
			}
			continue
		}

		for _, msg := range result.Messages {
			f.handleMessage(ctx, msg, handler)
		}
	}
}

func (f *Feed) handleMessage(ctx context.Context, msg types.Message, handler stream.Handler) {
	event, skip, err := stream.DecodePayment([]byte(aws.ToString(msg.Body)))
	if err != nil {
		// Malformed documents are dropped; redelivery cannot fix them.
		f.log.Warn("Dropping malformed payment message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		f.deleteMessage(ctx, msg)
		return
	}
	if skip {
		f.deleteMessage(ctx, msg)
		return
	}

	if err := handler(ctx, event); err != nil {
		// Leave the message in flight; SQS redelivers after the visibility
		// timeout and the processed-set makes redelivery safe.
		f.log.Warn("Payment handler failed, leaving message for redelivery",
			zap.String("payment_id", event.ID),
			zap.Error(err))
		return
	}

	f.deleteMessage(ctx, msg)
}

func (f *Feed) deleteMessage(ctx context.Context, msg types.Message) {
	_, err := f.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(f.config.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil && ctx.Err() == nil {
		f.log.Error("Failed to delete SQS message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
	}
}

// Close stops the polling loop and waits for it to exit.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil
	}
	f.cancel()
	<-f.done
	f.running = false
	f.log.Info("SQS payment feed closed")
	return nil
}
