package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apppayment "github.com/brokercrm/backend/internal/application/payment"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const paymentKeyPrefix = "payment:view:"

// RedisPaymentCache implements the application read cache using Redis.
// This is suitable for distributed deployments where multiple instances
// need to share the read-side view of payments.
type RedisPaymentCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisPaymentCache creates a new Redis-based payment read cache
func NewRedisPaymentCache(cfg RedisConfig, ttl time.Duration) (*RedisPaymentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPaymentCache{
		client:    client,
		keyPrefix: paymentKeyPrefix,
		ttl:       ttl,
	}, nil
}

// NewRedisPaymentCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisPaymentCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisPaymentCache {
	if keyPrefix == "" {
		keyPrefix = paymentKeyPrefix
	}
	return &RedisPaymentCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached view of a payment, if present.
// Redis errors and stale encodings are treated as cache misses.
func (c *RedisPaymentCache) Get(ctx context.Context, id uuid.UUID) (*apppayment.PaymentResponse, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+id.String()).Bytes()
	if err != nil {
		return nil, false
	}

	var response apppayment.PaymentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, false
	}
	return &response, true
}

// Set stores the view of a payment with the configured TTL.
// Failures are silent; the next read falls through to the repository.
func (c *RedisPaymentCache) Set(ctx context.Context, response *apppayment.PaymentResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.keyPrefix+response.ID.String(), data, c.ttl)
}

// Invalidate drops the cached view of a payment
func (c *RedisPaymentCache) Invalidate(ctx context.Context, id uuid.UUID) {
	c.client.Del(ctx, c.keyPrefix+id.String())
}

// Close closes the Redis client
func (c *RedisPaymentCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisPaymentCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisPaymentCache implements the application read cache
var _ apppayment.ReadCache = (*RedisPaymentCache)(nil)
