package payment

import (
	"context"
	"time"

	"github.com/brokercrm/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttachmentDescriptor carries attachment metadata supplied by the caller;
// binary storage is handled by the external document store
type AttachmentDescriptor struct {
	FileName string `json:"file_name" binding:"required"`
	FileSize int64  `json:"file_size" binding:"required,min=1"`
	URL      string `json:"url"`
}

// CreateEntryRequest carries the fields for income/expense entry creation
type CreateEntryRequest struct {
	Category        string                 `json:"category" binding:"required,max=100"`
	PlannedAmount   decimal.Decimal        `json:"planned_amount" binding:"required"`
	PlannedPostedAt time.Time              `json:"planned_posted_at" binding:"required"`
	Note            string                 `json:"note" binding:"omitempty,max=300"`
	Attachments     []AttachmentDescriptor `json:"attachments"`
	Draft           bool                   `json:"draft"`
	Actor           string                 `json:"-"`
}

// UpdateEntryRequest carries an entry patch; nil fields are left untouched
type UpdateEntryRequest struct {
	Category         *string                 `json:"category" binding:"omitempty,max=100"`
	PlannedAmount    *decimal.Decimal        `json:"planned_amount"`
	PlannedPostedAt  *time.Time              `json:"planned_posted_at"`
	ActualAmount     *decimal.Decimal        `json:"actual_amount"`
	ActualPostedAt   *time.Time              `json:"actual_posted_at"`
	Note             *string                 `json:"note" binding:"omitempty,max=300"`
	Attachments      *[]AttachmentDescriptor `json:"attachments"`
	AdjustmentReason *string                 `json:"adjustment_reason"`
	Actor            string                  `json:"-"`
}

// ConfirmEntryRequest carries the actual figures for entry confirmation
type ConfirmEntryRequest struct {
	ActualAmount     decimal.Decimal `json:"actual_amount" binding:"required"`
	ActualPostedAt   time.Time       `json:"actual_posted_at" binding:"required"`
	AdjustmentReason string          `json:"adjustment_reason" binding:"required"`
	Actor            string          `json:"-"`
}

// CreateEntry adds an income or expense entry to a payment
func (s *PaymentService) CreateEntry(ctx context.Context, paymentID uuid.UUID, kind payment.EntryKind, req CreateEntryRequest) (*PaymentResponse, error) {
	params := payment.NewEntryParams{
		Category:        req.Category,
		PlannedAmount:   req.PlannedAmount,
		PlannedPostedAt: req.PlannedPostedAt,
		Note:            req.Note,
		Attachments:     toAttachments(req.Attachments, req.Actor),
		Draft:           req.Draft,
		CreatedBy:       req.Actor,
	}

	return s.mutate(ctx, paymentID, func(p *payment.Payment) error {
		var err error
		if kind == payment.EntryKindIncome {
			_, err = p.AddIncome(params)
		} else {
			_, err = p.AddExpense(params)
		}
		return err
	})
}

// UpdateEntry applies a patch to an entry
func (s *PaymentService) UpdateEntry(ctx context.Context, paymentID, entryID uuid.UUID, req UpdateEntryRequest) (*PaymentResponse, error) {
	patch := payment.EntryPatch{
		Category:        req.Category,
		PlannedAmount:   req.PlannedAmount,
		PlannedPostedAt: req.PlannedPostedAt,
		ActualAmount:    req.ActualAmount,
		ActualPostedAt:  req.ActualPostedAt,
		Note:            req.Note,
	}
	if req.Attachments != nil {
		attachments := toAttachments(*req.Attachments, req.Actor)
		patch.Attachments = &attachments
	}
	if req.AdjustmentReason != nil {
		reason := payment.AdjustmentReason(*req.AdjustmentReason)
		patch.AdjustmentReason = &reason
	}

	return s.mutate(ctx, paymentID, func(p *payment.Payment) error {
		return p.UpdateEntry(entryID, patch, req.Actor)
	})
}

// SubmitEntry moves a draft entry into pending_confirmation
func (s *PaymentService) SubmitEntry(ctx context.Context, paymentID, entryID uuid.UUID, actor string) (*PaymentResponse, error) {
	return s.mutate(ctx, paymentID, func(p *payment.Payment) error {
		return p.SubmitEntry(entryID, actor)
	})
}

// ConfirmEntry attaches actual figures to an entry
func (s *PaymentService) ConfirmEntry(ctx context.Context, paymentID, entryID uuid.UUID, req ConfirmEntryRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, paymentID, func(p *payment.Payment) error {
		return p.ConfirmEntry(entryID, req.ActualAmount, req.ActualPostedAt, payment.AdjustmentReason(req.AdjustmentReason), req.Actor)
	})
}

// DeleteEntry removes an unconfirmed entry from a payment
func (s *PaymentService) DeleteEntry(ctx context.Context, paymentID, entryID uuid.UUID, actor string) (*PaymentResponse, error) {
	return s.mutate(ctx, paymentID, func(p *payment.Payment) error {
		return p.RemoveEntry(entryID)
	})
}

func toAttachments(descriptors []AttachmentDescriptor, uploadedBy string) payment.Attachments {
	if descriptors == nil {
		return nil
	}
	attachments := make(payment.Attachments, len(descriptors))
	for i, d := range descriptors {
		attachments[i] = payment.NewAttachment(d.FileName, d.FileSize, uploadedBy, d.URL)
	}
	return attachments
}
