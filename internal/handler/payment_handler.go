package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lendora/lendora-backend/internal/domain"
	"github.com/lendora/lendora-backend/internal/middleware"
	"github.com/lendora/lendora-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RecordPaymentRequest represents the record payment request body
type RecordPaymentRequest struct {
	Amount      string  `json:"amount"`
	PaymentDate *string `json:"paymentDate,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID          string `json:"id"`
	LoanID      string `json:"loanId"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"paymentDate"`
	CreatedAt   string `json:"createdAt"`
}

// RecordPaymentResponse represents the outcome of recording a payment
type RecordPaymentResponse struct {
	Payment            PaymentResponse `json:"payment"`
	OutstandingBalance string          `json:"outstandingBalance"`
	AmountPaid         string          `json:"amountPaid"`
	LoanStatus         string          `json:"loanStatus"`
}

// RecordPayment handles POST /api/v1/loans/:id/payments
func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	var paymentDate *time.Time
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.PaymentDate)
		if err != nil {
			return NewValidationError(c, "Invalid payment date", []ValidationError{
				{Field: "paymentDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		paymentDate = &parsed
	}

	result, err := h.paymentService.RecordPayment(tenantID, loanID, amount, paymentDate)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrPaymentAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		if errors.Is(err, domain.ErrLoanNotDisbursed) {
			return NewConflictError(c, "Loan has not been disbursed")
		}
		if errors.Is(err, domain.ErrLoanAlreadyPaidOff) {
			return NewConflictError(c, "Loan is already paid off")
		}
		log.Error().Err(err).Int32("tenant_id", tenantID).Str("loan_id", loanID.String()).Msg("Failed to record payment")
		return NewInternalError(c, "Failed to record payment")
	}

	log.Info().
		Int32("tenant_id", tenantID).
		Str("loan_id", loanID.String()).
		Str("amount", amount.StringFixed(2)).
		Str("status", string(result.LoanStatus)).
		Msg("Payment recorded")

	return c.JSON(http.StatusCreated, RecordPaymentResponse{
		Payment:            toPaymentResponse(result.Payment),
		OutstandingBalance: result.OutstandingBalance.StringFixed(2),
		AmountPaid:         result.AmountPaid.StringFixed(2),
		LoanStatus:         string(result.LoanStatus),
	})
}

// GetPayments handles GET /api/v1/loans/:id/payments
func (h *PaymentHandler) GetPayments(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	payments, err := h.paymentService.GetPaymentsByLoanID(tenantID, loanID)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int32("tenant_id", tenantID).Str("loan_id", loanID.String()).Msg("Failed to get payments")
		return NewInternalError(c, "Failed to get payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i := range payments {
		response[i] = toPaymentResponse(&payments[i])
	}

	return c.JSON(http.StatusOK, response)
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          payment.ID.String(),
		LoanID:      payment.LoanID.String(),
		Amount:      payment.Amount.StringFixed(2),
		PaymentDate: payment.PaymentDate.Format("2006-01-02"),
		CreatedAt:   payment.CreatedAt.Format(time.RFC3339),
	}
}
