package cache

import (
	"context"
	"sync"
	"time"

	apppayment "github.com/brokercrm/backend/internal/application/payment"
	"github.com/google/uuid"
)

// cachedView holds a payment response with its expiration
type cachedView struct {
	response  *apppayment.PaymentResponse
	expiresAt time.Time
}

// InMemoryPaymentCache implements the application read cache using an
// in-memory map. This is suitable for single-instance deployments and testing.
type InMemoryPaymentCache struct {
	mu        sync.RWMutex
	views     map[uuid.UUID]cachedView
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryPaymentCache creates a new in-memory payment read cache.
// It starts a background goroutine to clean up expired views.
func NewInMemoryPaymentCache(ttl time.Duration) *InMemoryPaymentCache {
	cache := &InMemoryPaymentCache{
		views:    make(map[uuid.UUID]cachedView),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached view of a payment, if present and not expired
func (c *InMemoryPaymentCache) Get(ctx context.Context, id uuid.UUID) (*apppayment.PaymentResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	view, exists := c.views[id]
	if !exists {
		return nil, false
	}
	if time.Now().After(view.expiresAt) {
		return nil, false
	}
	return view.response, true
}

// Set stores the view of a payment with the configured TTL
func (c *InMemoryPaymentCache) Set(ctx context.Context, response *apppayment.PaymentResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.views[response.ID] = cachedView{
		response:  response,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops the cached view of a payment
func (c *InMemoryPaymentCache) Invalidate(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.views, id)
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (c *InMemoryPaymentCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired views
func (c *InMemoryPaymentCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired views from the cache
func (c *InMemoryPaymentCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, view := range c.views {
		if now.After(view.expiresAt) {
			delete(c.views, id)
		}
	}
}

// Ensure InMemoryPaymentCache implements the application read cache
var _ apppayment.ReadCache = (*InMemoryPaymentCache)(nil)
