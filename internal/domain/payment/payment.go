package payment

import (
	"fmt"
	"time"

	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/brokercrm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a payment
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusExpected  Status = "expected"
	StatusReceived  Status = "received"
	StatusPaidOut   Status = "paid_out"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a valid payment Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPlanned, StatusExpected, StatusReceived, StatusPaidOut, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusPaidOut || s == StatusCancelled
}

// CanCancel returns true if the payment can still be cancelled
func (s Status) CanCancel() bool {
	return s == StatusPlanned || s == StatusExpected || s == StatusReceived
}

// ConfirmationStatus represents whether actual figures have been attached
// to the payment
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
)

// IsValid checks if the value is a valid ConfirmationStatus
func (s ConfirmationStatus) IsValid() bool {
	return s == ConfirmationPending || s == ConfirmationConfirmed
}

// String returns the string representation of ConfirmationStatus
func (s ConfirmationStatus) String() string {
	return string(s)
}

// Payment is the aggregate root for one installment of a policy's payment
// schedule. It owns its income/expense entries, derives its totals from
// them, and records every mutation in an append-only history.
type Payment struct {
	shared.BaseAggregateRoot
	DealID              uuid.UUID            `json:"deal_id"`
	ClientID            uuid.UUID            `json:"client_id"`
	PolicyID            uuid.UUID            `json:"policy_id"`
	Sequence            int                  `json:"sequence"`
	Currency            valueobject.Currency `json:"currency"`
	PlannedAmount       decimal.Decimal      `json:"planned_amount"`
	ActualAmount        *decimal.Decimal     `json:"actual_amount,omitempty"`
	PlannedDate         time.Time            `json:"planned_date"`
	ActualDate          *time.Time           `json:"actual_date,omitempty"`
	Status              Status               `json:"status"`
	ConfirmationStatus  ConfirmationStatus   `json:"confirmation_status"`
	IncomesTotal        decimal.Decimal      `json:"incomes_total"`
	ExpensesTotal       decimal.Decimal      `json:"expenses_total"`
	NetTotal            decimal.Decimal      `json:"net_total"`
	RecordedBy          string               `json:"recorded_by,omitempty"`
	RecordedByRole      string               `json:"recorded_by_role,omitempty"`
	Comment             string               `json:"comment,omitempty"`
	StatusBeforeConfirm *Status              `json:"status_before_confirm,omitempty"`
	Incomes             []Entry              `json:"incomes"`
	Expenses            []Entry              `json:"expenses"`
	History             ChangeLog            `json:"history"`
}

// NewPaymentParams carries the caller-supplied fields for payment creation
type NewPaymentParams struct {
	DealID        uuid.UUID
	ClientID      uuid.UUID
	PolicyID      uuid.UUID
	Sequence      int
	Currency      valueobject.Currency
	PlannedAmount decimal.Decimal
	PlannedDate   time.Time
	Comment       string
	CreatedBy     string
}

// NewPayment creates a payment in planned status with pending confirmation
// and empty entry collections
func NewPayment(params NewPaymentParams) (*Payment, error) {
	if params.DealID == uuid.Nil {
		return nil, shared.NewValidationError("deal id is required")
	}
	if params.ClientID == uuid.Nil {
		return nil, shared.NewValidationError("client id is required")
	}
	if params.PolicyID == uuid.Nil {
		return nil, shared.NewValidationError("policy id is required")
	}
	if params.Sequence < 1 {
		return nil, shared.NewValidationError("sequence must be at least 1")
	}
	if params.PlannedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("planned amount must be positive")
	}
	if params.PlannedDate.IsZero() {
		return nil, shared.NewValidationError("planned date is required")
	}
	currency := params.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !currency.IsSupported() {
		return nil, shared.NewValidationError(fmt.Sprintf("unsupported currency: %s", currency))
	}

	p := &Payment{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		DealID:             params.DealID,
		ClientID:           params.ClientID,
		PolicyID:           params.PolicyID,
		Sequence:           params.Sequence,
		Currency:           currency,
		PlannedAmount:      params.PlannedAmount,
		PlannedDate:        params.PlannedDate,
		Status:             StatusPlanned,
		ConfirmationStatus: ConfirmationPending,
		IncomesTotal:       decimal.Zero,
		ExpensesTotal:      decimal.Zero,
		NetTotal:           decimal.Zero,
		Comment:            params.Comment,
		Incomes:            []Entry{},
		Expenses:           []Entry{},
	}

	p.History.Append(NewChange(params.CreatedBy, "created", p.snapshot()))
	p.AddDomainEvent(NewPaymentCreatedEvent(p))

	return p, nil
}

// snapshot captures the payment's mutable fields for an audit record
func (p *Payment) snapshot() ChangeSnapshot {
	return ChangeSnapshot{
		PlannedAmount: p.PlannedAmount,
		ActualAmount:  p.ActualAmount,
		PlannedDate:   p.PlannedDate,
		ActualDate:    p.ActualDate,
		Status:        p.Status.String(),
	}
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// findEntry locates an entry by id in either collection
func (p *Payment) findEntry(entryID uuid.UUID) *Entry {
	for i := range p.Incomes {
		if p.Incomes[i].ID == entryID {
			return &p.Incomes[i]
		}
	}
	for i := range p.Expenses {
		if p.Expenses[i].ID == entryID {
			return &p.Expenses[i]
		}
	}
	return nil
}

// Entry returns the entry with the given id
func (p *Payment) Entry(entryID uuid.UUID) (*Entry, error) {
	e := p.findEntry(entryID)
	if e == nil {
		return nil, shared.NewNotFoundError("entry not found")
	}
	return e, nil
}

func (p *Payment) guardMutable() error {
	if p.Status == StatusCancelled {
		return shared.NewConflictError("payment is cancelled")
	}
	return nil
}

// AddIncome creates an income entry on the payment and recomputes totals
func (p *Payment) AddIncome(params NewEntryParams) (*Entry, error) {
	return p.addEntry(EntryKindIncome, params)
}

// AddExpense creates an expense entry on the payment and recomputes totals
func (p *Payment) AddExpense(params NewEntryParams) (*Entry, error) {
	return p.addEntry(EntryKindExpense, params)
}

func (p *Payment) addEntry(kind EntryKind, params NewEntryParams) (*Entry, error) {
	if err := p.guardMutable(); err != nil {
		return nil, err
	}

	entry, err := NewEntry(p.ID, kind, params)
	if err != nil {
		return nil, err
	}

	if kind == EntryKindIncome {
		p.Incomes = append(p.Incomes, *entry)
		entry = &p.Incomes[len(p.Incomes)-1]
	} else {
		p.Expenses = append(p.Expenses, *entry)
		entry = &p.Expenses[len(p.Expenses)-1]
	}

	p.recalculateTotals()
	p.touch()

	return entry, nil
}

// UpdateEntry applies a patch to an entry and recomputes totals
func (p *Payment) UpdateEntry(entryID uuid.UUID, patch EntryPatch, updatedBy string) error {
	if err := p.guardMutable(); err != nil {
		return err
	}
	entry := p.findEntry(entryID)
	if entry == nil {
		return shared.NewNotFoundError("entry not found")
	}
	if err := entry.update(patch, updatedBy); err != nil {
		return err
	}
	p.recalculateTotals()
	p.touch()
	return nil
}

// SubmitEntry moves a draft entry into pending_confirmation
func (p *Payment) SubmitEntry(entryID uuid.UUID, updatedBy string) error {
	if err := p.guardMutable(); err != nil {
		return err
	}
	entry := p.findEntry(entryID)
	if entry == nil {
		return shared.NewNotFoundError("entry not found")
	}
	if err := entry.submit(updatedBy); err != nil {
		return err
	}
	p.touch()
	return nil
}

// ConfirmEntry attaches actual figures to an entry, recomputes totals,
// and advances the payment from planned to expected while its own dates
// are unresolved
func (p *Payment) ConfirmEntry(entryID uuid.UUID, actualAmount decimal.Decimal, actualPostedAt time.Time, reason AdjustmentReason, actor string) error {
	if err := p.guardMutable(); err != nil {
		return err
	}
	entry := p.findEntry(entryID)
	if entry == nil {
		return shared.NewNotFoundError("entry not found")
	}
	if err := entry.confirm(actualAmount, actualPostedAt, reason, actor); err != nil {
		return err
	}

	p.recalculateTotals()

	if p.Status == StatusPlanned && p.ActualDate == nil {
		p.History.Append(NewChange(actor, "entry_confirmed", p.snapshot()))
		p.Status = StatusExpected
	}

	p.touch()
	p.AddDomainEvent(NewEntryConfirmedEvent(p, entry))

	return nil
}

// RemoveEntry deletes an entry. Confirmed entries are immutable history
// and must be reversed through a correction entry instead.
func (p *Payment) RemoveEntry(entryID uuid.UUID) error {
	if err := p.guardMutable(); err != nil {
		return err
	}
	entry := p.findEntry(entryID)
	if entry == nil {
		return shared.NewNotFoundError("entry not found")
	}
	if entry.Status == EntryStatusConfirmed {
		return shared.NewConflictError("confirmed entries cannot be deleted")
	}

	remove := func(entries []Entry) []Entry {
		out := entries[:0]
		for _, e := range entries {
			if e.ID != entryID {
				out = append(out, e)
			}
		}
		return out
	}
	if entry.Kind == EntryKindIncome {
		p.Incomes = remove(p.Incomes)
	} else {
		p.Expenses = remove(p.Expenses)
	}

	p.recalculateTotals()
	p.touch()

	return nil
}

// PlanPatch carries updates to the plan-level fields of a payment.
// Nil fields are left untouched.
type PlanPatch struct {
	PlannedAmount *decimal.Decimal
	PlannedDate   *time.Time
	Sequence      *int
	Comment       *string
}

// UpdatePlan updates the plan-level fields and records the change
func (p *Payment) UpdatePlan(patch PlanPatch, actor string) error {
	if p.Status.IsTerminal() {
		return shared.NewConflictError(fmt.Sprintf("cannot update payment in %s status", p.Status))
	}
	if patch.PlannedAmount != nil && patch.PlannedAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("planned amount must be positive")
	}
	if patch.PlannedDate != nil && patch.PlannedDate.IsZero() {
		return shared.NewValidationError("planned date is required")
	}
	if patch.Sequence != nil && *patch.Sequence < 1 {
		return shared.NewValidationError("sequence must be at least 1")
	}

	p.History.Append(NewChange(actor, "plan_updated", p.snapshot()))

	if patch.PlannedAmount != nil {
		p.PlannedAmount = *patch.PlannedAmount
	}
	if patch.PlannedDate != nil {
		p.PlannedDate = *patch.PlannedDate
	}
	if patch.Sequence != nil {
		p.Sequence = *patch.Sequence
	}
	if patch.Comment != nil {
		p.Comment = *patch.Comment
	}

	p.touch()
	return nil
}

// Confirm attaches actual figures to the payment and moves it to received
func (p *Payment) Confirm(actualAmount decimal.Decimal, actualDate time.Time, recordedBy, recordedByRole, comment string) error {
	if p.ConfirmationStatus == ConfirmationConfirmed {
		return shared.NewConflictError("payment is already confirmed")
	}
	if p.Status.IsTerminal() {
		return shared.NewConflictError(fmt.Sprintf("cannot confirm payment in %s status", p.Status))
	}
	if actualAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("actual amount must be positive")
	}
	if actualDate.IsZero() {
		return shared.NewValidationError("actual date is required")
	}
	if recordedBy == "" {
		return shared.NewValidationError("recorded by is required")
	}

	p.History.Append(NewChange(recordedBy, "confirmed", p.snapshot()))

	prior := p.Status
	p.StatusBeforeConfirm = &prior
	p.ActualAmount = &actualAmount
	p.ActualDate = &actualDate
	p.RecordedBy = recordedBy
	p.RecordedByRole = recordedByRole
	if comment != "" {
		p.Comment = comment
	}
	p.Status = StatusReceived
	p.ConfirmationStatus = ConfirmationConfirmed

	p.touch()
	p.AddDomainEvent(NewPaymentConfirmedEvent(p))

	return nil
}

// RevokeConfirmation undoes a payment confirmation, restoring the status
// the payment held before it was confirmed and clearing the actual
// figures. Distributed funds cannot be un-confirmed.
func (p *Payment) RevokeConfirmation(actor string) error {
	if p.Status == StatusPaidOut {
		return shared.NewConflictError("cannot revoke confirmation of a distributed payment")
	}
	if p.ConfirmationStatus != ConfirmationConfirmed {
		return shared.NewConflictError("payment is not confirmed")
	}

	p.History.Append(NewChange(actor, "confirmation_revoked", p.snapshot()))

	restored := StatusExpected
	if p.StatusBeforeConfirm != nil {
		restored = *p.StatusBeforeConfirm
	}
	p.Status = restored
	p.ConfirmationStatus = ConfirmationPending
	p.StatusBeforeConfirm = nil
	p.ActualAmount = nil
	p.ActualDate = nil
	p.RecordedBy = ""
	p.RecordedByRole = ""

	p.touch()
	p.AddDomainEvent(NewPaymentConfirmationRevokedEvent(p))

	return nil
}

// Distribute marks a received payment as paid out
func (p *Payment) Distribute(actor string) error {
	if p.Status != StatusReceived {
		return shared.NewConflictError(fmt.Sprintf("cannot distribute payment in %s status", p.Status))
	}

	p.History.Append(NewChange(actor, "distributed", p.snapshot()))
	p.Status = StatusPaidOut

	p.touch()
	p.AddDomainEvent(NewPaymentDistributedEvent(p))

	return nil
}

// Cancel cancels the payment. Distributed and already-cancelled payments
// cannot be cancelled.
func (p *Payment) Cancel(reason, actor string) error {
	if !p.Status.CanCancel() {
		return shared.NewConflictError(fmt.Sprintf("cannot cancel payment in %s status", p.Status))
	}

	changeReason := "cancelled"
	if reason != "" {
		changeReason = reason
	}
	p.History.Append(NewChange(actor, changeReason, p.snapshot()))
	p.Status = StatusCancelled

	p.touch()
	p.AddDomainEvent(NewPaymentCancelledEvent(p, reason))

	return nil
}

// CanDelete returns true while the payment has not been confirmed
func (p *Payment) CanDelete() bool {
	return p.ConfirmationStatus == ConfirmationPending
}

// recalculateTotals derives the three total fields from the current entry
// set. Confirmed entries contribute their actual amount, all others their
// planned amount. Runs synchronously inside every entry mutation so
// readers never observe totals that disagree with the entries they were
// computed from.
func (p *Payment) recalculateTotals() {
	incomes := decimal.Zero
	for i := range p.Incomes {
		incomes = incomes.Add(p.Incomes[i].EffectiveAmount())
	}
	expenses := decimal.Zero
	for i := range p.Expenses {
		expenses = expenses.Add(p.Expenses[i].EffectiveAmount())
	}
	p.IncomesTotal = incomes
	p.ExpensesTotal = expenses
	p.NetTotal = incomes.Sub(expenses)
}
