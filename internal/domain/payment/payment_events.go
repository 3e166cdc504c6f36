package payment

import (
	"time"

	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCreatedEvent is raised when a new payment is created
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	DealID        uuid.UUID       `json:"deal_id"`
	ClientID      uuid.UUID       `json:"client_id"`
	PolicyID      uuid.UUID       `json:"policy_id"`
	Sequence      int             `json:"sequence"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
	PlannedDate   time.Time       `json:"planned_date"`
}

// EventType returns the event type name
func (e *PaymentCreatedEvent) EventType() string {
	return "PaymentCreated"
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCreated", "Payment", p.ID),
		PaymentID:       p.ID,
		DealID:          p.DealID,
		ClientID:        p.ClientID,
		PolicyID:        p.PolicyID,
		Sequence:        p.Sequence,
		PlannedAmount:   p.PlannedAmount,
		PlannedDate:     p.PlannedDate,
	}
}

// PaymentConfirmedEvent is raised when actual figures are attached to a
// payment and it moves to received
type PaymentConfirmedEvent struct {
	shared.BaseDomainEvent
	PaymentID    uuid.UUID       `json:"payment_id"`
	ActualAmount decimal.Decimal `json:"actual_amount"`
	ActualDate   time.Time       `json:"actual_date"`
	RecordedBy   string          `json:"recorded_by"`
}

// EventType returns the event type name
func (e *PaymentConfirmedEvent) EventType() string {
	return "PaymentConfirmed"
}

// NewPaymentConfirmedEvent creates a new PaymentConfirmedEvent
func NewPaymentConfirmedEvent(p *Payment) *PaymentConfirmedEvent {
	evt := &PaymentConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentConfirmed", "Payment", p.ID),
		PaymentID:       p.ID,
		RecordedBy:      p.RecordedBy,
	}
	if p.ActualAmount != nil {
		evt.ActualAmount = *p.ActualAmount
	}
	if p.ActualDate != nil {
		evt.ActualDate = *p.ActualDate
	}
	return evt
}

// PaymentConfirmationRevokedEvent is raised when a payment confirmation
// is undone
type PaymentConfirmationRevokedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID `json:"payment_id"`
	RestoredStatus Status    `json:"restored_status"`
}

// EventType returns the event type name
func (e *PaymentConfirmationRevokedEvent) EventType() string {
	return "PaymentConfirmationRevoked"
}

// NewPaymentConfirmationRevokedEvent creates a new PaymentConfirmationRevokedEvent
func NewPaymentConfirmationRevokedEvent(p *Payment) *PaymentConfirmationRevokedEvent {
	return &PaymentConfirmationRevokedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentConfirmationRevoked", "Payment", p.ID),
		PaymentID:       p.ID,
		RestoredStatus:  p.Status,
	}
}

// PaymentDistributedEvent is raised when a received payment is paid out
type PaymentDistributedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	NetTotal  decimal.Decimal `json:"net_total"`
}

// EventType returns the event type name
func (e *PaymentDistributedEvent) EventType() string {
	return "PaymentDistributed"
}

// NewPaymentDistributedEvent creates a new PaymentDistributedEvent
func NewPaymentDistributedEvent(p *Payment) *PaymentDistributedEvent {
	return &PaymentDistributedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentDistributed", "Payment", p.ID),
		PaymentID:       p.ID,
		NetTotal:        p.NetTotal,
	}
}

// PaymentCancelledEvent is raised when a payment is cancelled
type PaymentCancelledEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID `json:"payment_id"`
	Reason    string    `json:"reason,omitempty"`
}

// EventType returns the event type name
func (e *PaymentCancelledEvent) EventType() string {
	return "PaymentCancelled"
}

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent
func NewPaymentCancelledEvent(p *Payment, reason string) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCancelled", "Payment", p.ID),
		PaymentID:       p.ID,
		Reason:          reason,
	}
}

// EntryConfirmedEvent is raised when an entry receives actual figures
type EntryConfirmedEvent struct {
	shared.BaseDomainEvent
	PaymentID    uuid.UUID        `json:"payment_id"`
	EntryID      uuid.UUID        `json:"entry_id"`
	Kind         EntryKind        `json:"kind"`
	ActualAmount decimal.Decimal  `json:"actual_amount"`
	Reason       AdjustmentReason `json:"reason"`
	NetTotal     decimal.Decimal  `json:"net_total"`
}

// EventType returns the event type name
func (e *EntryConfirmedEvent) EventType() string {
	return "EntryConfirmed"
}

// NewEntryConfirmedEvent creates a new EntryConfirmedEvent
func NewEntryConfirmedEvent(p *Payment, entry *Entry) *EntryConfirmedEvent {
	evt := &EntryConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("EntryConfirmed", "Payment", p.ID),
		PaymentID:       p.ID,
		EntryID:         entry.ID,
		Kind:            entry.Kind,
		Reason:          entry.AdjustmentReason,
		NetTotal:        p.NetTotal,
	}
	if entry.ActualAmount != nil {
		evt.ActualAmount = *entry.ActualAmount
	}
	return evt
}
