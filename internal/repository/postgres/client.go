package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/config"
)

// Client wraps a pgx connection pool for the read side and schema bootstrap.
// The worker's write path uses dedicated sessions instead; see Session.
type Client struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewClient creates a new PostgreSQL connection pool.
func NewClient(ctx context.Context, cfg config.Postgres, log *zap.Logger) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Info("Connected to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int("max_conns", cfg.MaxConns))

	return &Client{pool: pool, log: log}, nil
}

// Pool returns the underlying pgx pool.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// InitSchema creates the stats tables if they do not exist.
func (c *Client) InitSchema(ctx context.Context) error {
	if err := InitSchema(ctx, c.pool); err != nil {
		return err
	}
	c.log.Info("PostgreSQL schema initialized")
	return nil
}

// Close closes the connection pool.
func (c *Client) Close() {
	c.pool.Close()
	c.log.Info("PostgreSQL connection pool closed")
}
