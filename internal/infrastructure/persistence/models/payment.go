package models

import (
	"time"

	"github.com/brokercrm/backend/internal/domain/payment"
	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/brokercrm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	AggregateModel
	DealID              uuid.UUID            `gorm:"type:uuid;not null;index"`
	ClientID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	PolicyID            uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_payments_policy_sequence,priority:1"`
	Sequence            int                  `gorm:"not null;uniqueIndex:idx_payments_policy_sequence,priority:2"`
	Currency            valueobject.Currency `gorm:"type:varchar(3);not null;default:'RUB'"`
	PlannedAmount       decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ActualAmount        *decimal.Decimal     `gorm:"type:decimal(18,4)"`
	PlannedDate         time.Time            `gorm:"not null;index"`
	ActualDate          *time.Time
	Status              payment.Status             `gorm:"type:varchar(20);not null;default:'planned';index"`
	ConfirmationStatus  payment.ConfirmationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	IncomesTotal        decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	ExpensesTotal       decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	NetTotal            decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	RecordedBy          string                     `gorm:"type:varchar(100)"`
	RecordedByRole      string                     `gorm:"type:varchar(50)"`
	Comment             string                     `gorm:"type:text"`
	StatusBeforeConfirm *payment.Status            `gorm:"type:varchar(20)"`
	History             payment.ChangeLog          `gorm:"type:jsonb;default:'[]'"`
	Entries             []PaymentEntryModel        `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentEntryModel is the persistence model for income and expense entries.
// Income and expense rows share the table, distinguished by the kind column.
type PaymentEntryModel struct {
	BaseModel
	PaymentID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind             payment.EntryKind `gorm:"type:varchar(10);not null;index"`
	Category         string            `gorm:"type:varchar(50);not null"`
	PlannedAmount    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	PlannedPostedAt  time.Time         `gorm:"not null"`
	ActualAmount     *decimal.Decimal  `gorm:"type:decimal(18,4)"`
	ActualPostedAt   *time.Time
	Status           payment.EntryStatus      `gorm:"type:varchar(30);not null;default:'pending_confirmation'"`
	AdjustmentReason payment.AdjustmentReason `gorm:"type:varchar(30)"`
	Note             string                   `gorm:"type:varchar(300)"`
	Attachments      payment.Attachments      `gorm:"type:jsonb;default:'[]'"`
	History          payment.ChangeLog        `gorm:"type:jsonb;default:'[]'"`
	CreatedBy        string                   `gorm:"type:varchar(100)"`
	UpdatedBy        string                   `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentEntryModel) TableName() string {
	return "payment_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *PaymentEntryModel) ToDomain() payment.Entry {
	return payment.Entry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PaymentID:        m.PaymentID,
		Kind:             m.Kind,
		Category:         m.Category,
		PlannedAmount:    m.PlannedAmount,
		PlannedPostedAt:  m.PlannedPostedAt,
		ActualAmount:     m.ActualAmount,
		ActualPostedAt:   m.ActualPostedAt,
		Status:           m.Status,
		AdjustmentReason: m.AdjustmentReason,
		Note:             m.Note,
		Attachments:      m.Attachments,
		History:          m.History,
		CreatedBy:        m.CreatedBy,
		UpdatedBy:        m.UpdatedBy,
	}
}

// FromDomain populates the persistence model from a domain Entry.
func (m *PaymentEntryModel) FromDomain(e *payment.Entry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.PaymentID = e.PaymentID
	m.Kind = e.Kind
	m.Category = e.Category
	m.PlannedAmount = e.PlannedAmount
	m.PlannedPostedAt = e.PlannedPostedAt
	m.ActualAmount = e.ActualAmount
	m.ActualPostedAt = e.ActualPostedAt
	m.Status = e.Status
	m.AdjustmentReason = e.AdjustmentReason
	m.Note = e.Note
	m.Attachments = e.Attachments
	m.History = e.History
	m.CreatedBy = e.CreatedBy
	m.UpdatedBy = e.UpdatedBy
}

// ToDomain converts the persistence model to a domain Payment aggregate.
func (m *PaymentModel) ToDomain() *payment.Payment {
	p := &payment.Payment{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		DealID:              m.DealID,
		ClientID:            m.ClientID,
		PolicyID:            m.PolicyID,
		Sequence:            m.Sequence,
		Currency:            m.Currency,
		PlannedAmount:       m.PlannedAmount,
		ActualAmount:        m.ActualAmount,
		PlannedDate:         m.PlannedDate,
		ActualDate:          m.ActualDate,
		Status:              m.Status,
		ConfirmationStatus:  m.ConfirmationStatus,
		IncomesTotal:        m.IncomesTotal,
		ExpensesTotal:       m.ExpensesTotal,
		NetTotal:            m.NetTotal,
		RecordedBy:          m.RecordedBy,
		RecordedByRole:      m.RecordedByRole,
		Comment:             m.Comment,
		StatusBeforeConfirm: m.StatusBeforeConfirm,
		History:             m.History,
	}
	for i := range m.Entries {
		entry := m.Entries[i].ToDomain()
		switch entry.Kind {
		case payment.EntryKindIncome:
			p.Incomes = append(p.Incomes, entry)
		case payment.EntryKindExpense:
			p.Expenses = append(p.Expenses, entry)
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment aggregate.
func (m *PaymentModel) FromDomain(p *payment.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.DealID = p.DealID
	m.ClientID = p.ClientID
	m.PolicyID = p.PolicyID
	m.Sequence = p.Sequence
	m.Currency = p.Currency
	m.PlannedAmount = p.PlannedAmount
	m.ActualAmount = p.ActualAmount
	m.PlannedDate = p.PlannedDate
	m.ActualDate = p.ActualDate
	m.Status = p.Status
	m.ConfirmationStatus = p.ConfirmationStatus
	m.IncomesTotal = p.IncomesTotal
	m.ExpensesTotal = p.ExpensesTotal
	m.NetTotal = p.NetTotal
	m.RecordedBy = p.RecordedBy
	m.RecordedByRole = p.RecordedByRole
	m.Comment = p.Comment
	m.StatusBeforeConfirm = p.StatusBeforeConfirm
	m.History = p.History

	m.Entries = make([]PaymentEntryModel, 0, len(p.Incomes)+len(p.Expenses))
	for i := range p.Incomes {
		var em PaymentEntryModel
		em.FromDomain(&p.Incomes[i])
		em.PaymentID = p.ID
		m.Entries = append(m.Entries, em)
	}
	for i := range p.Expenses {
		var em PaymentEntryModel
		em.FromDomain(&p.Expenses[i])
		em.PaymentID = p.ID
		m.Entries = append(m.Entries, em)
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
