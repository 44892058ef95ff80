package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/aggregator"
	"github.com/Jose00521/raffle-stats-service/internal/config"
	"github.com/Jose00521/raffle-stats-service/internal/logger"
	"github.com/Jose00521/raffle-stats-service/internal/metrics"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
	"github.com/Jose00521/raffle-stats-service/internal/repository/clickhouse"
	"github.com/Jose00521/raffle-stats-service/internal/repository/postgres"
	"github.com/Jose00521/raffle-stats-service/internal/sessionpool"
	"github.com/Jose00521/raffle-stats-service/internal/stream"
	"github.com/Jose00521/raffle-stats-service/internal/stream/rabbitmq"
	"github.com/Jose00521/raffle-stats-service/internal/stream/sqs"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting stats worker",
		zap.String("environment", cfg.Service.Environment),
		zap.String("feed_driver", cfg.Feed.Driver))

	ctx := context.Background()

	// Postgres: schema bootstrap runs over the shared pool, the aggregation
	// sessions get dedicated connections.
	pgClient, err := postgres.NewClient(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create PostgreSQL client", zap.Error(err))
	}
	defer pgClient.Close()

	if err := pgClient.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	m := metrics.New("raffle_stats", prometheus.DefaultRegisterer)

	pool, err := sessionpool.New(ctx, postgres.NewSessionFactory(cfg.Postgres.DSN(), log), cfg.Pool.Size, m, log)
	if err != nil {
		log.Fatal("Failed to initialize session pool", zap.Error(err))
	}
	defer pool.Close(ctx)

	var archive repository.ArchiveRepository
	if cfg.ClickHouse.Enabled {
		chClient, err := clickhouse.NewClient(ctx, cfg.ClickHouse, log)
		if err != nil {
			log.Fatal("Failed to create ClickHouse client", zap.Error(err))
		}
		chArchive := clickhouse.NewArchive(chClient, log)
		if err := chArchive.InitSchema(ctx); err != nil {
			log.Fatal("Failed to initialize archive schema", zap.Error(err))
		}
		defer func() {
			if err := chArchive.Close(); err != nil {
				log.Error("Failed to close archive", zap.Error(err))
			}
		}()
		archive = chArchive
	}

	feed, err := newFeed(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create payment feed", zap.Error(err))
	}

	agg := aggregator.New(pool, archive, aggregator.Config{
		MaxAttempts: cfg.Consumer.MaxAttempts,
	}, m, log)

	accumulator := aggregator.NewAccumulator(aggregator.AccumulatorConfig{
		BatchSize:     cfg.Consumer.BatchSize,
		FlushTimeout:  time.Duration(cfg.Consumer.BatchTimeoutMs) * time.Millisecond,
		QueueCapacity: cfg.Consumer.QueueCapacity,
		WarnThreshold: cfg.Consumer.QueueWarnThreshold,
	}, agg, m, log)

	service := aggregator.NewService(feed, accumulator, cfg.Feed.Driver, m, log)

	// Health check and metrics endpoint.
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := pgClient.Pool().Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/metrics", promhttp.Handler())

		addr := ":" + cfg.Service.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := service.Start(runCtx); err != nil {
		log.Fatal("Failed to start stats service", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down stats worker gracefully")
	service.Stop()
}

func newFeed(ctx context.Context, cfg *config.Config, log *zap.Logger) (stream.PaymentFeed, error) {
	resubscribe := time.Duration(cfg.Feed.ResubscribeDelaySec) * time.Second

	switch cfg.Feed.Driver {
	case "sqs":
		return sqs.NewFeed(ctx, sqs.Config{
			Endpoint:         cfg.SQS.Endpoint,
			QueueURL:         cfg.SQS.QueueURL,
			Region:           cfg.SQS.Region,
			MaxMessages:      cfg.SQS.MaxMessages,
			WaitTimeSeconds:  cfg.SQS.WaitTimeSeconds,
			ResubscribeDelay: resubscribe,
		}, log)
	case "rabbitmq":
		return rabbitmq.NewFeed(rabbitmq.Config{
			URL:              cfg.RabbitMQ.URL,
			Exchange:         cfg.RabbitMQ.Exchange,
			Queue:            cfg.RabbitMQ.Queue,
			RoutingKey:       cfg.RabbitMQ.RoutingKey,
			ResubscribeDelay: resubscribe,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown feed driver %q", cfg.Feed.Driver)
	}
}
