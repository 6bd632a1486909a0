package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/services"
)

// ProjectPaymentHandler handles deposits into and purchases from project items.
type ProjectPaymentHandler struct {
	paymentService services.ProjectPaymentServicer
	auditService   services.AuditServicer
}

// NewProjectPaymentHandler creates a new ProjectPaymentHandler.
func NewProjectPaymentHandler(paymentService services.ProjectPaymentServicer, auditService services.AuditServicer) *ProjectPaymentHandler {
	return &ProjectPaymentHandler{paymentService: paymentService, auditService: auditService}
}

// PaymentRequest represents a deposit or purchase. The amount is always
// positive; the endpoint decides the direction.
type PaymentRequest struct {
	AccountID       string               `json:"account_id" binding:"required,uuid"`
	Amount          money.Amount         `json:"amount" binding:"required,gt=0"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" binding:"omitempty,payment_method"`
	Note            string               `json:"note" binding:"max=500"`
	TransactionDate *string              `json:"transaction_date"`
}

// UpdatePaymentRequest represents the editable fields of a payment.
type UpdatePaymentRequest struct {
	AccountID       *string               `json:"account_id" binding:"omitempty,uuid"`
	Amount          *money.Amount         `json:"amount" binding:"omitempty,gt=0"`
	PaymentMethod   *models.PaymentMethod `json:"payment_method" binding:"omitempty,payment_method"`
	Note            *string               `json:"note" binding:"omitempty,max=500"`
	TransactionDate *string               `json:"transaction_date"`
}

func (req PaymentRequest) input() (services.PaymentInput, error) {
	in := services.PaymentInput{
		AccountID:     req.AccountID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
	}
	date, err := parseOptionalDate("transaction_date", req.TransactionDate)
	if err != nil {
		return in, err
	}
	if date != nil {
		in.TransactionDate = *date
	}
	return in, nil
}

// ListPayments handles retrieving an item's payment history and savings summary.
// @Summary     List item payments
// @Tags        project-payments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} services.ItemPayments "Payments with savings summary"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /project-items/{id}/payments [get]
func (h *ProjectPaymentHandler) ListPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.paymentService.ListPayments(userID, itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreatePayment handles depositing savings into a project item.
// @Summary     Deposit into item
// @Description Moves money from an account into the item. Records a savings transaction and updates the item status.
// @Tags        project-payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Param       request body PaymentRequest true "Deposit"
// @Success     201 {object} models.ProjectPayment "Payment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Item or account not found"
// @Failure     409 {object} ErrorResponse "Item no longer accepts deposits"
// @Failure     422 {object} ErrorResponse "Insufficient balance"
// @Router      /project-items/{id}/payments [post]
func (h *ProjectPaymentHandler) CreatePayment(c *gin.Context) {
	h.record(c, "CREATE_PROJECT_PAYMENT", h.paymentService.CreatePayment)
}

// Purchase handles spending an item's savings.
// @Summary     Purchase item
// @Description Withdraws the item's savings once it is ready. Records an expense against the project category.
// @Tags        project-payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Param       request body PaymentRequest true "Purchase"
// @Success     201 {object} models.ProjectPayment "Purchase recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Item or account not found"
// @Failure     422 {object} ErrorResponse "Item not ready or insufficient balance"
// @Router      /project-items/{id}/purchase [post]
func (h *ProjectPaymentHandler) Purchase(c *gin.Context) {
	h.record(c, "PURCHASE_PROJECT_ITEM", h.paymentService.Purchase)
}

func (h *ProjectPaymentHandler) record(c *gin.Context, action string, fn func(userID, itemID string, in services.PaymentInput) (*models.ProjectPayment, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := fn(userID, itemID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "project_payment", payment.ID, c.ClientIP(),
		map[string]any{"item_id": itemID, "account_id": req.AccountID, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// UpdatePayment handles editing a payment and its linked transaction.
// @Summary     Update payment
// @Tags        project-payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payment ID"
// @Param       request body UpdatePaymentRequest true "Changed fields"
// @Success     200 {object} models.ProjectPayment "Updated payment"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Failure     422 {object} ErrorResponse "Insufficient balance"
// @Router      /project-payments/{id} [put]
func (h *ProjectPaymentHandler) UpdatePayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.PaymentUpdate{
		AccountID:     req.AccountID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
	}
	if update.TransactionDate, err = parseOptionalDate("transaction_date", req.TransactionDate); err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.paymentService.UpdatePayment(userID, paymentID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROJECT_PAYMENT", "project_payment", paymentID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// DeletePayment handles removing a payment. Its transaction is reversed and
// the item status re-derived.
// @Summary     Delete payment
// @Tags        project-payments
// @Security    BearerAuth
// @Param       id path string true "Payment ID"
// @Success     204 "Payment deleted"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Failure     422 {object} ErrorResponse "Insufficient balance"
// @Router      /project-payments/{id} [delete]
func (h *ProjectPaymentHandler) DeletePayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.paymentService.DeletePayment(userID, paymentID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PROJECT_PAYMENT", "project_payment", paymentID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
