package payment

import (
	"context"
	"time"

	"github.com/brokercrm/backend/internal/domain/payment"
	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/brokercrm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReadCache caches payment responses on the read path. Implementations
// must tolerate concurrent use; a nil cache disables caching entirely.
type ReadCache interface {
	Get(ctx context.Context, id uuid.UUID) (*PaymentResponse, bool)
	Set(ctx context.Context, response *PaymentResponse)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// PaymentService provides application-level payment operations
type PaymentService struct {
	repo  payment.Repository
	cache ReadCache
}

// PaymentServiceOption is a functional option for configuring PaymentService
type PaymentServiceOption func(*PaymentService)

// WithReadCache attaches a read-side cache of payment responses
func WithReadCache(cache ReadCache) PaymentServiceOption {
	return func(s *PaymentService) {
		s.cache = cache
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(repo payment.Repository, opts ...PaymentServiceOption) *PaymentService {
	s := &PaymentService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Responses =====================

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                 uuid.UUID        `json:"id"`
	DealID             uuid.UUID        `json:"deal_id"`
	ClientID           uuid.UUID        `json:"client_id"`
	PolicyID           uuid.UUID        `json:"policy_id"`
	Sequence           int              `json:"sequence"`
	Currency           string           `json:"currency"`
	PlannedAmount      decimal.Decimal  `json:"planned_amount"`
	ActualAmount       *decimal.Decimal `json:"actual_amount,omitempty"`
	PlannedDate        time.Time        `json:"planned_date"`
	ActualDate         *time.Time       `json:"actual_date,omitempty"`
	Status             string           `json:"status"`
	ConfirmationStatus string           `json:"confirmation_status"`
	IncomesTotal       decimal.Decimal  `json:"incomes_total"`
	ExpensesTotal      decimal.Decimal  `json:"expenses_total"`
	NetTotal           decimal.Decimal  `json:"net_total"`
	RecordedBy         string           `json:"recorded_by,omitempty"`
	RecordedByRole     string           `json:"recorded_by_role,omitempty"`
	Comment            string           `json:"comment,omitempty"`
	Incomes            []EntryResponse  `json:"incomes"`
	Expenses           []EntryResponse  `json:"expenses"`
	History            []ChangeResponse `json:"history"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Version            int              `json:"version"`
}

// EntryResponse represents an income or expense entry in API responses
type EntryResponse struct {
	ID               uuid.UUID            `json:"id"`
	PaymentID        uuid.UUID            `json:"payment_id"`
	Kind             string               `json:"kind"`
	Category         string               `json:"category"`
	PlannedAmount    decimal.Decimal      `json:"planned_amount"`
	PlannedPostedAt  time.Time            `json:"planned_posted_at"`
	ActualAmount     *decimal.Decimal     `json:"actual_amount,omitempty"`
	ActualPostedAt   *time.Time           `json:"actual_posted_at,omitempty"`
	Status           string               `json:"status"`
	AdjustmentReason string               `json:"adjustment_reason,omitempty"`
	Note             string               `json:"note,omitempty"`
	Attachments      []AttachmentResponse `json:"attachments"`
	History          []ChangeResponse     `json:"history"`
	CreatedBy        string               `json:"created_by,omitempty"`
	UpdatedBy        string               `json:"updated_by,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// AttachmentResponse represents attachment metadata in API responses
type AttachmentResponse struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	URL        string    `json:"url,omitempty"`
}

// ChangeResponse represents one audit record in API responses
type ChangeResponse struct {
	ID            uuid.UUID        `json:"id"`
	ChangedAt     time.Time        `json:"changed_at"`
	ChangedBy     string           `json:"changed_by,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	PlannedAmount decimal.Decimal  `json:"planned_amount"`
	ActualAmount  *decimal.Decimal `json:"actual_amount,omitempty"`
	PlannedDate   time.Time        `json:"planned_date"`
	ActualDate    *time.Time       `json:"actual_date,omitempty"`
	Status        string           `json:"status"`
}

// TimelineStageResponse represents one timeline stage in API responses
type TimelineStageResponse struct {
	Key            string     `json:"key"`
	Status         string     `json:"status"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	DaysUntilDue   *int       `json:"days_until_due,omitempty"`
	IsOverdue      bool       `json:"is_overdue"`
	ActionRequired bool       `json:"action_required"`
}

// TimelineResponse represents the 4-stage progress projection
type TimelineResponse struct {
	PaymentID  uuid.UUID               `json:"payment_id"`
	Status     string                  `json:"status"`
	Stages     []TimelineStageResponse `json:"stages"`
	Percentage int                     `json:"percentage"`
}

// PaymentListResponse is a paginated list of payments
type PaymentListResponse struct {
	Items      []PaymentResponse `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ===================== Requests =====================

// CreatePaymentRequest carries the fields for payment creation
type CreatePaymentRequest struct {
	DealID        uuid.UUID       `json:"deal_id" binding:"required"`
	ClientID      uuid.UUID       `json:"client_id" binding:"required"`
	PolicyID      uuid.UUID       `json:"policy_id" binding:"required"`
	Sequence      int             `json:"sequence" binding:"required,min=1"`
	Currency      string          `json:"currency" binding:"omitempty,len=3"`
	PlannedAmount decimal.Decimal `json:"planned_amount" binding:"required"`
	PlannedDate   time.Time       `json:"planned_date" binding:"required"`
	Comment       string          `json:"comment" binding:"omitempty,max=1000"`
	Actor         string          `json:"-"`
}

// UpdatePaymentRequest carries plan-level updates; nil fields are left
// untouched
type UpdatePaymentRequest struct {
	PlannedAmount *decimal.Decimal `json:"planned_amount"`
	PlannedDate   *time.Time       `json:"planned_date"`
	Sequence      *int             `json:"sequence" binding:"omitempty,min=1"`
	Comment       *string          `json:"comment" binding:"omitempty,max=1000"`
	Actor         string           `json:"-"`
}

// ConfirmPaymentRequest carries the actual figures for payment confirmation
type ConfirmPaymentRequest struct {
	ActualAmount   decimal.Decimal `json:"actual_amount" binding:"required"`
	ActualDate     time.Time       `json:"actual_date" binding:"required"`
	RecordedBy     string          `json:"recorded_by"`
	RecordedByRole string          `json:"recorded_by_role"`
	Comment        string          `json:"comment" binding:"omitempty,max=1000"`
}

// CancelPaymentRequest carries the optional cancellation reason
type CancelPaymentRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=300"`
	Actor  string `json:"-"`
}

// ListPaymentsFilter defines filtering options for payment list queries
type ListPaymentsFilter struct {
	DealID             *uuid.UUID `form:"deal_id"`
	ClientID           *uuid.UUID `form:"client_id"`
	PolicyID           *uuid.UUID `form:"policy_id"`
	Status             string     `form:"status"`
	ConfirmationStatus string     `form:"confirmation_status"`
	PlannedFrom        *time.Time `form:"planned_from" time_format:"2006-01-02"`
	PlannedTo          *time.Time `form:"planned_to" time_format:"2006-01-02"`
	Overdue            *bool      `form:"overdue"`
	Page               int        `form:"page"`
	PageSize           int        `form:"page_size"`
}

// ===================== Payment Operations =====================

// CreatePayment creates a new payment
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error) {
	existing, err := s.repo.FindByPolicyAndSequence(ctx, req.PolicyID, req.Sequence)
	if err != nil && !shared.IsNotFoundError(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewConflictError("an installment with this sequence already exists for the policy")
	}

	p, err := payment.NewPayment(payment.NewPaymentParams{
		DealID:        req.DealID,
		ClientID:      req.ClientID,
		PolicyID:      req.PolicyID,
		Sequence:      req.Sequence,
		Currency:      valueobject.Currency(req.Currency),
		PlannedAmount: req.PlannedAmount,
		PlannedDate:   req.PlannedDate,
		Comment:       req.Comment,
		CreatedBy:     req.Actor,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	return toPaymentResponse(p), nil
}

// GetPayment fetches a payment with its entries and history
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, id); ok {
			return cached, nil
		}
	}

	p, err := s.loadPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	response := toPaymentResponse(p)
	if s.cache != nil {
		s.cache.Set(ctx, response)
	}
	return response, nil
}

// ListPayments lists payments matching the filter
func (s *PaymentService) ListPayments(ctx context.Context, filter ListPaymentsFilter) (*PaymentListResponse, error) {
	domainFilter := toDomainFilter(filter)

	payments, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = *toPaymentResponse(&payments[i])
	}

	paginated := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &PaymentListResponse{
		Items:      paginated.Items,
		Total:      paginated.Total,
		Page:       paginated.Page,
		PageSize:   paginated.PageSize,
		TotalPages: paginated.TotalPages,
	}, nil
}

// UpdatePayment updates plan-level fields of a payment
func (s *PaymentService) UpdatePayment(ctx context.Context, id uuid.UUID, req UpdatePaymentRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, id, func(p *payment.Payment) error {
		return p.UpdatePlan(payment.PlanPatch{
			PlannedAmount: req.PlannedAmount,
			PlannedDate:   req.PlannedDate,
			Sequence:      req.Sequence,
			Comment:       req.Comment,
		}, req.Actor)
	})
}

// DeletePayment deletes a payment while its confirmation is still pending
func (s *PaymentService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	p, err := s.loadPayment(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanDelete() {
		return shared.NewConflictError("confirmed payments cannot be deleted")
	}

	// The version carries the pending status we just checked into the
	// delete, so a confirmation landing in between turns this into a
	// conflict rather than a lost payment.
	if err := s.repo.Delete(ctx, id, p.Version); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// ConfirmPayment attaches actual figures to a payment
func (s *PaymentService) ConfirmPayment(ctx context.Context, id uuid.UUID, req ConfirmPaymentRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, id, func(p *payment.Payment) error {
		return p.Confirm(req.ActualAmount, req.ActualDate, req.RecordedBy, req.RecordedByRole, req.Comment)
	})
}

// RevokeConfirmation undoes a payment confirmation
func (s *PaymentService) RevokeConfirmation(ctx context.Context, id uuid.UUID, actor string) (*PaymentResponse, error) {
	return s.mutate(ctx, id, func(p *payment.Payment) error {
		return p.RevokeConfirmation(actor)
	})
}

// DistributePayment marks a received payment as paid out
func (s *PaymentService) DistributePayment(ctx context.Context, id uuid.UUID, actor string) (*PaymentResponse, error) {
	return s.mutate(ctx, id, func(p *payment.Payment) error {
		return p.Distribute(actor)
	})
}

// CancelPayment cancels a payment
func (s *PaymentService) CancelPayment(ctx context.Context, id uuid.UUID, req CancelPaymentRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, id, func(p *payment.Payment) error {
		return p.Cancel(req.Reason, req.Actor)
	})
}

// GetTimeline derives the 4-stage progress projection for a payment
func (s *PaymentService) GetTimeline(ctx context.Context, id uuid.UUID) (*TimelineResponse, error) {
	p, err := s.loadPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	view := p.Timeline(time.Now())
	stages := make([]TimelineStageResponse, len(view.Stages))
	for i, stage := range view.Stages {
		stages[i] = TimelineStageResponse{
			Key:            string(stage.Key),
			Status:         string(stage.Status),
			Timestamp:      stage.Timestamp,
			DaysUntilDue:   stage.DaysUntilDue,
			IsOverdue:      stage.IsOverdue,
			ActionRequired: stage.ActionRequired,
		}
	}

	return &TimelineResponse{
		PaymentID:  p.ID,
		Status:     string(p.Status),
		Stages:     stages,
		Percentage: view.Percentage,
	}, nil
}

// ===================== Helpers =====================

func (s *PaymentService) loadPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.NewNotFoundError("payment not found")
	}
	return p, nil
}

// mutate runs the standard write path: load the aggregate, apply the
// domain operation, save with the version check, and invalidate the read
// cache
func (s *PaymentService) mutate(ctx context.Context, id uuid.UUID, op func(*payment.Payment) error) (*PaymentResponse, error) {
	p, err := s.loadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := op(p); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return toPaymentResponse(p), nil
}

func (s *PaymentService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func toDomainFilter(f ListPaymentsFilter) payment.Filter {
	filter := payment.Filter{
		Filter:      shared.DefaultFilter(),
		DealID:      f.DealID,
		ClientID:    f.ClientID,
		PolicyID:    f.PolicyID,
		PlannedFrom: f.PlannedFrom,
		PlannedTo:   f.PlannedTo,
		Overdue:     f.Overdue,
	}
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 && f.PageSize <= 100 {
		filter.PageSize = f.PageSize
	}
	if f.Status != "" {
		status := payment.Status(f.Status)
		filter.Status = &status
	}
	if f.ConfirmationStatus != "" {
		cs := payment.ConfirmationStatus(f.ConfirmationStatus)
		filter.ConfirmationStatus = &cs
	}
	return filter
}

func toPaymentResponse(p *payment.Payment) *PaymentResponse {
	incomes := make([]EntryResponse, len(p.Incomes))
	for i := range p.Incomes {
		incomes[i] = toEntryResponse(&p.Incomes[i])
	}
	expenses := make([]EntryResponse, len(p.Expenses))
	for i := range p.Expenses {
		expenses[i] = toEntryResponse(&p.Expenses[i])
	}

	return &PaymentResponse{
		ID:                 p.ID,
		DealID:             p.DealID,
		ClientID:           p.ClientID,
		PolicyID:           p.PolicyID,
		Sequence:           p.Sequence,
		Currency:           string(p.Currency),
		PlannedAmount:      p.PlannedAmount,
		ActualAmount:       p.ActualAmount,
		PlannedDate:        p.PlannedDate,
		ActualDate:         p.ActualDate,
		Status:             string(p.Status),
		ConfirmationStatus: string(p.ConfirmationStatus),
		IncomesTotal:       p.IncomesTotal,
		ExpensesTotal:      p.ExpensesTotal,
		NetTotal:           p.NetTotal,
		RecordedBy:         p.RecordedBy,
		RecordedByRole:     p.RecordedByRole,
		Comment:            p.Comment,
		Incomes:            incomes,
		Expenses:           expenses,
		History:            toChangeResponses(p.History),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		Version:            p.Version,
	}
}

func toEntryResponse(e *payment.Entry) EntryResponse {
	attachments := make([]AttachmentResponse, len(e.Attachments))
	for i, a := range e.Attachments {
		attachments[i] = AttachmentResponse{
			ID:         a.ID,
			FileName:   a.FileName,
			FileSize:   a.FileSize,
			UploadedAt: a.UploadedAt,
			UploadedBy: a.UploadedBy,
			URL:        a.URL,
		}
	}

	return EntryResponse{
		ID:               e.ID,
		PaymentID:        e.PaymentID,
		Kind:             string(e.Kind),
		Category:         e.Category,
		PlannedAmount:    e.PlannedAmount,
		PlannedPostedAt:  e.PlannedPostedAt,
		ActualAmount:     e.ActualAmount,
		ActualPostedAt:   e.ActualPostedAt,
		Status:           string(e.Status),
		AdjustmentReason: string(e.AdjustmentReason),
		Note:             e.Note,
		Attachments:      attachments,
		History:          toChangeResponses(e.History),
		CreatedBy:        e.CreatedBy,
		UpdatedBy:        e.UpdatedBy,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func toChangeResponses(log payment.ChangeLog) []ChangeResponse {
	changes := log.Changes()
	out := make([]ChangeResponse, len(changes))
	for i, c := range changes {
		out[i] = ChangeResponse{
			ID:            c.ID,
			ChangedAt:     c.ChangedAt,
			ChangedBy:     c.ChangedBy,
			Reason:        c.Reason,
			PlannedAmount: c.Snapshot.PlannedAmount,
			ActualAmount:  c.Snapshot.ActualAmount,
			PlannedDate:   c.Snapshot.PlannedDate,
			ActualDate:    c.Snapshot.ActualDate,
			Status:        c.Snapshot.Status,
		}
	}
	return out
}
