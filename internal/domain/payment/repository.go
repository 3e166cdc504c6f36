package payment

import (
	"context"
	"time"

	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter defines filtering options for payment queries
type Filter struct {
	shared.Filter
	DealID             *uuid.UUID          // Filter by deal
	ClientID           *uuid.UUID          // Filter by client
	PolicyID           *uuid.UUID          // Filter by policy
	Status             *Status             // Filter by lifecycle status
	ConfirmationStatus *ConfirmationStatus // Filter by confirmation status
	PlannedFrom        *time.Time          // Filter by planned date range start
	PlannedTo          *time.Time          // Filter by planned date range end
	Overdue            *bool               // Filter only payments past their planned date
}

// Repository defines the interface for payment persistence
type Repository interface {
	// FindByID finds a payment by ID with its entries and history
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByPolicyAndSequence finds one installment of a policy's schedule
	FindByPolicyAndSequence(ctx context.Context, policyID uuid.UUID, sequence int) (*Payment, error)

	// FindAll finds payments matching the filter
	FindAll(ctx context.Context, filter Filter) ([]Payment, error)

	// Count counts payments matching the filter
	Count(ctx context.Context, filter Filter) (int64, error)

	// Save creates or updates a payment together with its entries
	Save(ctx context.Context, p *Payment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, p *Payment) error

	// Delete removes a payment and its entries, guarded by the aggregate
	// version observed by the caller
	Delete(ctx context.Context, id uuid.UUID, version int) error
}
