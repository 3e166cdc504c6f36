package payment

import (
	"fmt"
	"time"

	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind distinguishes income entries from expense entries
type EntryKind string

const (
	EntryKindIncome  EntryKind = "income"
	EntryKindExpense EntryKind = "expense"
)

// IsValid checks if the kind is a valid EntryKind
func (k EntryKind) IsValid() bool {
	return k == EntryKindIncome || k == EntryKindExpense
}

// String returns the string representation of EntryKind
func (k EntryKind) String() string {
	return string(k)
}

// EntryStatus represents the confirmation state of an entry
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "draft"
	EntryStatusPending   EntryStatus = "pending_confirmation"
	EntryStatusConfirmed EntryStatus = "confirmed"
)

// IsValid checks if the status is a valid EntryStatus
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusDraft, EntryStatusPending, EntryStatusConfirmed:
		return true
	}
	return false
}

// String returns the string representation of EntryStatus
func (s EntryStatus) String() string {
	return string(s)
}

// AdjustmentReason explains why actual figures were set or changed
type AdjustmentReason string

const (
	ReasonInitialPlanning AdjustmentReason = "initial_planning"
	ReasonPartialPayment  AdjustmentReason = "partial_payment"
	ReasonCorrection      AdjustmentReason = "correction"
	ReasonRefund          AdjustmentReason = "refund"
	ReasonOther           AdjustmentReason = "other"
)

// IsValid checks if the reason is a valid AdjustmentReason
func (r AdjustmentReason) IsValid() bool {
	switch r {
	case ReasonInitialPlanning, ReasonPartialPayment, ReasonCorrection, ReasonRefund, ReasonOther:
		return true
	}
	return false
}

// String returns the string representation of AdjustmentReason
func (r AdjustmentReason) String() string {
	return string(r)
}

const maxNoteLength = 300

// Entry represents an income or expense line item realizing part of a
// payment. Entries are owned by the Payment aggregate and mutated only
// through it.
type Entry struct {
	shared.BaseEntity
	PaymentID        uuid.UUID        `json:"payment_id"`
	Kind             EntryKind        `json:"kind"`
	Category         string           `json:"category"`
	PlannedAmount    decimal.Decimal  `json:"planned_amount"`
	PlannedPostedAt  time.Time        `json:"planned_posted_at"`
	ActualAmount     *decimal.Decimal `json:"actual_amount,omitempty"`
	ActualPostedAt   *time.Time       `json:"actual_posted_at,omitempty"`
	Status           EntryStatus      `json:"status"`
	AdjustmentReason AdjustmentReason `json:"adjustment_reason,omitempty"`
	Note             string           `json:"note,omitempty"`
	Attachments      Attachments      `json:"attachments"`
	History          ChangeLog        `json:"history"`
	CreatedBy        string           `json:"created_by"`
	UpdatedBy        string           `json:"updated_by"`
}

// NewEntryParams carries the caller-supplied fields for entry creation
type NewEntryParams struct {
	Category        string
	PlannedAmount   decimal.Decimal
	PlannedPostedAt time.Time
	Note            string
	Attachments     Attachments
	Draft           bool
	CreatedBy       string
}

// NewEntry creates a new entry. Entries start in pending_confirmation
// unless the caller requests a draft review step.
func NewEntry(paymentID uuid.UUID, kind EntryKind, params NewEntryParams) (*Entry, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError("entry kind must be income or expense")
	}
	if params.Category == "" {
		return nil, shared.NewValidationError("entry category is required")
	}
	if params.PlannedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("planned amount must be positive")
	}
	if params.PlannedPostedAt.IsZero() {
		return nil, shared.NewValidationError("planned posted date is required")
	}
	if len(params.Note) > maxNoteLength {
		return nil, shared.NewValidationError(fmt.Sprintf("note cannot exceed %d characters", maxNoteLength))
	}

	status := EntryStatusPending
	if params.Draft {
		status = EntryStatusDraft
	}
	attachments := params.Attachments
	if attachments == nil {
		attachments = Attachments{}
	}

	return &Entry{
		BaseEntity:      shared.NewBaseEntity(),
		PaymentID:       paymentID,
		Kind:            kind,
		Category:        params.Category,
		PlannedAmount:   params.PlannedAmount,
		PlannedPostedAt: params.PlannedPostedAt,
		Status:          status,
		Note:            params.Note,
		Attachments:     attachments,
		CreatedBy:       params.CreatedBy,
		UpdatedBy:       params.CreatedBy,
	}, nil
}

// EntryPatch carries the fields of an entry update. Nil fields are left
// untouched.
type EntryPatch struct {
	Category         *string
	PlannedAmount    *decimal.Decimal
	PlannedPostedAt  *time.Time
	ActualAmount     *decimal.Decimal
	ActualPostedAt   *time.Time
	Note             *string
	Attachments      *Attachments
	AdjustmentReason *AdjustmentReason
}

func (p EntryPatch) touchesAmountsOrDates() bool {
	return p.PlannedAmount != nil || p.PlannedPostedAt != nil ||
		p.ActualAmount != nil || p.ActualPostedAt != nil
}

// EffectiveAmount returns the amount this entry contributes to payment
// totals: the actual amount once confirmed, the planned amount otherwise.
func (e *Entry) EffectiveAmount() decimal.Decimal {
	if e.Status == EntryStatusConfirmed && e.ActualAmount != nil {
		return *e.ActualAmount
	}
	return e.PlannedAmount
}

// snapshot captures the entry's mutable fields for an audit record
func (e *Entry) snapshot() ChangeSnapshot {
	return ChangeSnapshot{
		PlannedAmount: e.PlannedAmount,
		ActualAmount:  e.ActualAmount,
		PlannedDate:   e.PlannedPostedAt,
		ActualDate:    e.ActualPostedAt,
		Status:        e.Status.String(),
	}
}

// update applies a patch. Draft and pending entries are edited freely;
// confirmed entries require an adjustment reason for any amount or date
// change, and every value change appends the pre-patch snapshot to the
// entry history.
func (e *Entry) update(patch EntryPatch, updatedBy string) error {
	if patch.Note != nil && len(*patch.Note) > maxNoteLength {
		return shared.NewValidationError(fmt.Sprintf("note cannot exceed %d characters", maxNoteLength))
	}
	if patch.Category != nil && *patch.Category == "" {
		return shared.NewValidationError("entry category is required")
	}
	if patch.PlannedAmount != nil && patch.PlannedAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("planned amount must be positive")
	}
	if patch.ActualAmount != nil && patch.ActualAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("actual amount must be positive")
	}

	needsReason := patch.ActualAmount != nil ||
		(e.Status == EntryStatusConfirmed && patch.touchesAmountsOrDates())
	if needsReason && (patch.AdjustmentReason == nil || !patch.AdjustmentReason.IsValid()) {
		return shared.NewValidationError("adjustment reason is required when changing actual figures")
	}

	// Resolve the post-patch dates up front so the ordering check can
	// fail before anything is applied.
	plannedAt := e.PlannedPostedAt
	if patch.PlannedPostedAt != nil {
		plannedAt = *patch.PlannedPostedAt
	}
	actualAt := e.ActualPostedAt
	if patch.ActualPostedAt != nil {
		actualAt = patch.ActualPostedAt
	}
	if actualAt != nil && actualAt.Before(plannedAt) {
		return shared.NewValidationError("actual posted date cannot precede planned posted date")
	}

	if patch.touchesAmountsOrDates() {
		reason := string(e.AdjustmentReason)
		if patch.AdjustmentReason != nil {
			reason = patch.AdjustmentReason.String()
		}
		e.History.Append(NewChange(updatedBy, reason, e.snapshot()))
	}

	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.PlannedAmount != nil {
		e.PlannedAmount = *patch.PlannedAmount
	}
	if patch.PlannedPostedAt != nil {
		e.PlannedPostedAt = *patch.PlannedPostedAt
	}
	if patch.ActualAmount != nil {
		amount := *patch.ActualAmount
		e.ActualAmount = &amount
	}
	if patch.ActualPostedAt != nil {
		at := *patch.ActualPostedAt
		e.ActualPostedAt = &at
	}
	if patch.Note != nil {
		e.Note = *patch.Note
	}
	if patch.Attachments != nil {
		e.Attachments = *patch.Attachments
	}
	if patch.AdjustmentReason != nil {
		e.AdjustmentReason = *patch.AdjustmentReason
	}

	e.UpdatedBy = updatedBy
	e.UpdatedAt = time.Now()

	return nil
}

// submit moves a draft entry into pending_confirmation
func (e *Entry) submit(updatedBy string) error {
	if e.Status != EntryStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot submit entry in %s status", e.Status))
	}
	e.Status = EntryStatusPending
	e.UpdatedBy = updatedBy
	e.UpdatedAt = time.Now()
	return nil
}

// confirm attaches actual figures to a pending entry and marks it
// confirmed, appending the pre-confirmation snapshot to the history.
// There is no transition back out of confirmed; later corrections stay
// within confirmed and go through update with an adjustment reason.
func (e *Entry) confirm(actualAmount decimal.Decimal, actualPostedAt time.Time, reason AdjustmentReason, actor string) error {
	if e.Status == EntryStatusConfirmed {
		return shared.NewDomainError("INVALID_STATE", "entry is already confirmed")
	}
	if e.Status != EntryStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot confirm entry in %s status", e.Status))
	}
	if actualAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("actual amount must be positive")
	}
	if actualPostedAt.IsZero() {
		return shared.NewValidationError("actual posted date is required")
	}
	if actualPostedAt.Before(e.PlannedPostedAt) {
		return shared.NewValidationError("actual posted date cannot precede planned posted date")
	}
	if !reason.IsValid() {
		return shared.NewValidationError("adjustment reason is required to confirm an entry")
	}

	e.History.Append(NewChange(actor, reason.String(), e.snapshot()))

	e.ActualAmount = &actualAmount
	e.ActualPostedAt = &actualPostedAt
	e.AdjustmentReason = reason
	e.Status = EntryStatusConfirmed
	e.UpdatedBy = actor
	e.UpdatedAt = time.Now()

	return nil
}
