package handler

import (
	apppayment "github.com/brokercrm/backend/internal/application/payment"
	"github.com/brokercrm/backend/internal/domain/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment lifecycle API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *apppayment.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *apppayment.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Create godoc
// @Summary      Create payment
// @Description  Create a planned payment on a policy's schedule
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body apppayment.CreatePaymentRequest true "Payment data"
// @Success      201 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req apppayment.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Actor = getActor(c)

	response, err := h.paymentService.CreatePayment(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, response)
}

// List godoc
// @Summary      List payments
// @Description  List payments with filtering and pagination
// @Tags         payments
// @Produce      json
// @Success      200 {object} dto.Response{data=apppayment.PaymentListResponse}
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter apppayment.ListPaymentsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	list, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, list.Items, list.Total, list.Page, list.PageSize)
}

// Get godoc
// @Summary      Get payment
// @Description  Fetch a payment with its entries and history
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	response, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// Update godoc
// @Summary      Update payment plan
// @Description  Update plan-level fields of a payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body apppayment.UpdatePaymentRequest true "Plan fields"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Router       /payments/{id} [patch]
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	var req apppayment.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Actor = getActor(c)

	response, err := h.paymentService.UpdatePayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// Delete godoc
// @Summary      Delete payment
// @Description  Delete a payment that has not been confirmed
// @Tags         payments
// @Param        id path string true "Payment ID"
// @Success      204
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Confirm godoc
// @Summary      Confirm payment
// @Description  Record actual receipt figures and confirm the payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body apppayment.ConfirmPaymentRequest true "Actual figures"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id}/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	var req apppayment.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = getActor(c)
	}
	if req.RecordedByRole == "" {
		req.RecordedByRole = getActorRole(c)
	}

	response, err := h.paymentService.ConfirmPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// RevokeConfirmation godoc
// @Summary      Revoke payment confirmation
// @Description  Undo a confirmation and restore the pre-confirmation status
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id}/revoke-confirmation [post]
func (h *PaymentHandler) RevokeConfirmation(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	response, err := h.paymentService.RevokeConfirmation(c.Request.Context(), id, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// Distribute godoc
// @Summary      Distribute payment
// @Description  Mark a received payment as paid out
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id}/distribute [post]
func (h *PaymentHandler) Distribute(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	response, err := h.paymentService.DistributePayment(c.Request.Context(), id, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// Cancel godoc
// @Summary      Cancel payment
// @Description  Cancel a payment that has not been paid out
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body apppayment.CancelPaymentRequest false "Cancellation reason"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	var req apppayment.CancelPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}
	req.Actor = getActor(c)

	response, err := h.paymentService.CancelPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// Timeline godoc
// @Summary      Get payment timeline
// @Description  Project the payment onto its four lifecycle stages
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=apppayment.TimelineResponse}
// @Router       /payments/{id}/timeline [get]
func (h *PaymentHandler) Timeline(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	response, err := h.paymentService.GetTimeline(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// CreateIncome godoc
// @Summary      Create income entry
// @Description  Add a planned income entry to a payment
// @Tags         payment-entries
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body apppayment.CreateEntryRequest true "Entry data"
// @Success      201 {object} dto.Response{data=apppayment.PaymentResponse}
// @Router       /payments/{id}/incomes [post]
func (h *PaymentHandler) CreateIncome(c *gin.Context) {
	h.createEntry(c, payment.EntryKindIncome)
}

// CreateExpense godoc
// @Summary      Create expense entry
// @Description  Add a planned expense entry to a payment
// @Tags         payment-entries
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body apppayment.CreateEntryRequest true "Entry data"
// @Success      201 {object} dto.Response{data=apppayment.PaymentResponse}
// @Router       /payments/{id}/expenses [post]
func (h *PaymentHandler) CreateExpense(c *gin.Context) {
	h.createEntry(c, payment.EntryKindExpense)
}

func (h *PaymentHandler) createEntry(c *gin.Context, kind payment.EntryKind) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	var req apppayment.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Actor = getActor(c)

	response, err := h.paymentService.CreateEntry(c.Request.Context(), id, kind, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, response)
}

// UpdateEntry godoc
// @Summary      Update entry
// @Description  Patch an income or expense entry
// @Tags         payment-entries
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        entryId path string true "Entry ID"
// @Param        request body apppayment.UpdateEntryRequest true "Entry patch"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Router       /payments/{id}/entries/{entryId} [patch]
func (h *PaymentHandler) UpdateEntry(c *gin.Context) {
	id, entryID, ok := h.entryIDs(c)
	if !ok {
		return
	}

	var req apppayment.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Actor = getActor(c)

	response, err := h.paymentService.UpdateEntry(c.Request.Context(), id, entryID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// SubmitEntry godoc
// @Summary      Submit draft entry
// @Description  Move a draft entry to pending confirmation
// @Tags         payment-entries
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        entryId path string true "Entry ID"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id}/entries/{entryId}/submit [post]
func (h *PaymentHandler) SubmitEntry(c *gin.Context) {
	id, entryID, ok := h.entryIDs(c)
	if !ok {
		return
	}

	response, err := h.paymentService.SubmitEntry(c.Request.Context(), id, entryID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// ConfirmEntry godoc
// @Summary      Confirm entry
// @Description  Record actual figures and confirm an entry
// @Tags         payment-entries
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        entryId path string true "Entry ID"
// @Param        request body apppayment.ConfirmEntryRequest true "Actual figures"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id}/entries/{entryId}/confirm [post]
func (h *PaymentHandler) ConfirmEntry(c *gin.Context) {
	id, entryID, ok := h.entryIDs(c)
	if !ok {
		return
	}

	var req apppayment.ConfirmEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Actor = getActor(c)

	response, err := h.paymentService.ConfirmEntry(c.Request.Context(), id, entryID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// DeleteEntry godoc
// @Summary      Delete entry
// @Description  Remove an unconfirmed entry from a payment
// @Tags         payment-entries
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        entryId path string true "Entry ID"
// @Success      200 {object} dto.Response{data=apppayment.PaymentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/{id}/entries/{entryId} [delete]
func (h *PaymentHandler) DeleteEntry(c *gin.Context) {
	id, entryID, ok := h.entryIDs(c)
	if !ok {
		return
	}

	response, err := h.paymentService.DeleteEntry(c.Request.Context(), id, entryID, getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// paymentID parses the payment ID path parameter
func (h *PaymentHandler) paymentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return uuid.Nil, false
	}
	return id, true
}

// entryIDs parses the payment and entry ID path parameters
func (h *PaymentHandler) entryIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return uuid.Nil, uuid.Nil, false
	}
	entryID, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return id, entryID, true
}
