package cache

import (
	"fmt"
	"time"

	apppayment "github.com/brokercrm/backend/internal/application/payment"
	"github.com/brokercrm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// PaymentCacheFactory creates payment read caches based on configuration
type PaymentCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// PaymentCacheFactoryOption is a functional option for configuring the factory
type PaymentCacheFactoryOption func(*PaymentCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) PaymentCacheFactoryOption {
	return func(f *PaymentCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) PaymentCacheFactoryOption {
	return func(f *PaymentCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPaymentCacheFactory creates a new factory
func NewPaymentCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...PaymentCacheFactoryOption) *PaymentCacheFactory {
	f := &PaymentCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based payment read cache
func (f *PaymentCacheFactory) CreateRedisCache() (apppayment.ReadCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	c, err := NewRedisPaymentCache(redisCfg, f.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis payment cache: %w", err)
	}

	return c, nil
}

// CreateInMemoryCache creates an in-memory payment read cache.
// WARNING: In-memory caches do not share invalidations across process
// instances, which can serve stale views in distributed deployments.
func (f *PaymentCacheFactory) CreateInMemoryCache() apppayment.ReadCache {
	return NewInMemoryPaymentCache(f.ttl)
}

// CreateCache creates a payment read cache based on whether Redis is available.
// It tries Redis first and falls back to in-memory if Redis is not available
// and fallback is allowed.
func (f *PaymentCacheFactory) CreateCache() (apppayment.ReadCache, error) {
	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis payment cache")
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for payment cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory payment cache. "+
		"Invalidations will not propagate across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
