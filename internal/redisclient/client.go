package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"book-stock-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client caches terminal reconciliation outcomes in front of Postgres. The
// cache is a read-through accelerator only; Postgres stays authoritative, so
// entries may expire once past the feed's redelivery window.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, outcomeTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: outcomeTTL}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetOutcome retrieves a cached terminal outcome, or nil on a cache miss.
func (c *Client) GetOutcome(ctx context.Context, saleID string) (*models.SaleReconciliation, error) {
	val, err := c.rdb.Get(ctx, outcomeKey(saleID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached outcome: %w", err)
	}

	var rec models.SaleReconciliation
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode cached outcome: %w", err)
	}
	return &rec, nil
}

// SetOutcome caches a terminal outcome with the configured TTL.
func (c *Client) SetOutcome(ctx context.Context, rec *models.SaleReconciliation) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	return c.rdb.Set(ctx, outcomeKey(rec.SaleID), data, c.ttl).Err()
}

func outcomeKey(saleID string) string {
	return fmt.Sprintf("reconciliation:%s", saleID)
}
