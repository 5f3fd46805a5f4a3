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

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService     *service.LoanService
	scheduleService *service.ScheduleService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService, scheduleService *service.ScheduleService) *LoanHandler {
	return &LoanHandler{loanService: loanService, scheduleService: scheduleService}
}

// RateTierRequest represents one tier of a variable-rate structure
type RateTierRequest struct {
	Days        int    `json:"days"`
	RatePercent string `json:"ratePercent"`
}

// LoanTermsRequest represents the pricing inputs shared by create and preview
type LoanTermsRequest struct {
	Principal            string            `json:"principal"`
	AnnualRatePercent    string            `json:"annualRatePercent"`
	TermDays             int               `json:"termDays"`
	RateType             string            `json:"rateType"`
	PaymentFrequency     string            `json:"paymentFrequency"`
	ProcessingFeePercent *string           `json:"processingFeePercent,omitempty"`
	PlatformFeeFixed     *string           `json:"platformFeeFixed,omitempty"`
	Compounding          *string           `json:"compounding,omitempty"`
	Tiers                []RateTierRequest `json:"tiers,omitempty"`
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	BorrowerName string  `json:"borrowerName"`
	Notes        *string `json:"notes,omitempty"`
	LoanTermsRequest
}

// DisburseLoanRequest represents the disburse loan request body
type DisburseLoanRequest struct {
	DisbursementDate *string `json:"disbursementDate,omitempty"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                   string  `json:"id"`
	TenantID             int32   `json:"tenantId"`
	BorrowerName         string  `json:"borrowerName"`
	Principal            string  `json:"principal"`
	RateType             string  `json:"rateType"`
	AnnualRatePercent    string  `json:"annualRatePercent"`
	TermDays             int     `json:"termDays"`
	PaymentFrequency     string  `json:"paymentFrequency"`
	ProcessingFeePercent string  `json:"processingFeePercent"`
	PlatformFeeFixed     string  `json:"platformFeeFixed"`
	Compounding          string  `json:"compounding,omitempty"`
	TotalInterest        string  `json:"totalInterest"`
	TotalFees            string  `json:"totalFees"`
	TotalAmount          string  `json:"totalAmount"`
	InstallmentAmount    string  `json:"installmentAmount"`
	NumberOfInstallments int     `json:"numberOfInstallments"`
	OutstandingBalance   string  `json:"outstandingBalance"`
	AmountPaid           string  `json:"amountPaid"`
	Status               string  `json:"status"`
	DisbursementDate     *string `json:"disbursementDate,omitempty"`
	Notes                *string `json:"notes,omitempty"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
}

// QuoteResponse represents a priced quote in API responses
type QuoteResponse struct {
	Principal            string                 `json:"principal"`
	RateType             string                 `json:"rateType"`
	AnnualRatePercent    string                 `json:"annualRatePercent"`
	TermDays             int                    `json:"termDays"`
	PaymentFrequency     string                 `json:"paymentFrequency"`
	TotalInterest        string                 `json:"totalInterest"`
	TotalFees            string                 `json:"totalFees"`
	TotalRepayable       string                 `json:"totalRepayable"`
	InstallmentAmount    string                 `json:"installmentAmount"`
	FinalInstallment     string                 `json:"finalInstallment"`
	NumberOfInstallments int                    `json:"numberOfInstallments"`
	Interest             *domain.InterestResult `json:"interest,omitempty"`
}

// InstallmentResponse represents one schedule row in API responses
type InstallmentResponse struct {
	InstallmentNumber int    `json:"installmentNumber"`
	DueDate           string `json:"dueDate"`
	PrincipalPortion  string `json:"principalPortion"`
	InterestPortion   string `json:"interestPortion"`
	FeePortion        string `json:"feePortion"`
	TotalDue          string `json:"totalDue"`
	AmountPaid        string `json:"amountPaid"`
	Outstanding       string `json:"outstanding"`
	Status            string `json:"status"`
}

// parseTerms converts a terms request into validated-ready domain terms
func parseTerms(c echo.Context, req LoanTermsRequest) (domain.LoanTerms, error) {
	var terms domain.LoanTerms

	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return terms, NewValidationError(c, "Invalid principal", []ValidationError{
			{Field: "principal", Message: "Must be a valid decimal number"},
		})
	}

	rate, err := decimal.NewFromString(req.AnnualRatePercent)
	if err != nil {
		return terms, NewValidationError(c, "Invalid annual rate", []ValidationError{
			{Field: "annualRatePercent", Message: "Must be a valid decimal number"},
		})
	}

	processingFee := decimal.Zero
	if req.ProcessingFeePercent != nil && *req.ProcessingFeePercent != "" {
		processingFee, err = decimal.NewFromString(*req.ProcessingFeePercent)
		if err != nil {
			return terms, NewValidationError(c, "Invalid processing fee", []ValidationError{
				{Field: "processingFeePercent", Message: "Must be a valid decimal number"},
			})
		}
	}

	platformFee := decimal.Zero
	if req.PlatformFeeFixed != nil && *req.PlatformFeeFixed != "" {
		platformFee, err = decimal.NewFromString(*req.PlatformFeeFixed)
		if err != nil {
			return terms, NewValidationError(c, "Invalid platform fee", []ValidationError{
				{Field: "platformFeeFixed", Message: "Must be a valid decimal number"},
			})
		}
	}

	var tiers []domain.RateTier
	for _, tier := range req.Tiers {
		tierRate, err := decimal.NewFromString(tier.RatePercent)
		if err != nil {
			return terms, NewValidationError(c, "Invalid tier rate", []ValidationError{
				{Field: "tiers", Message: "All tier rates must be valid decimal numbers"},
			})
		}
		tiers = append(tiers, domain.RateTier{Days: tier.Days, RatePercent: tierRate})
	}

	var compounding domain.CompoundingFrequency
	if req.Compounding != nil {
		compounding = domain.CompoundingFrequency(*req.Compounding)
	}

	terms = domain.LoanTerms{
		Principal:            principal,
		AnnualRatePercent:    rate,
		TermDays:             req.TermDays,
		RateType:             domain.RateType(req.RateType),
		PaymentFrequency:     domain.PaymentFrequency(req.PaymentFrequency),
		ProcessingFeePercent: processingFee,
		PlatformFeeFixed:     platformFee,
		Tiers:                tiers,
		Compounding:          compounding,
	}
	return terms, nil
}

// termsError maps domain validation failures onto problem responses
func termsError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrUnsupportedRateType) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "rateType", Message: "Must be fixed, variable, declining, flat, or compound"},
		})
	}
	if errors.Is(err, domain.ErrInvalidLoanParameters) {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "terms", Message: "Loan parameters are out of range"},
		})
	}
	return nil
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	terms, parseErr := parseTerms(c, req.LoanTermsRequest)
	if parseErr != nil {
		return parseErr
	}

	loan, err := h.loanService.CreateLoan(tenantID, service.CreateLoanInput{
		BorrowerName: req.BorrowerName,
		Terms:        terms,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanBorrowerEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "borrowerName", Message: "Borrower name is required"},
			})
		}
		if errors.Is(err, domain.ErrLoanBorrowerTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "borrowerName", Message: "Borrower name must be 200 characters or less"},
			})
		}
		if resp := termsError(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Int32("tenant_id", tenantID).Msg("Failed to create loan")
		return NewInternalError(c, "Failed to create loan")
	}

	log.Info().Int32("tenant_id", tenantID).Str("loan_id", loan.ID.String()).Str("borrower", loan.BorrowerName).Msg("Loan created")

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// PreviewLoan handles POST /api/v1/loans/preview. The quote is computed but
// nothing is persisted.
func (h *LoanHandler) PreviewLoan(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	var req LoanTermsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	terms, parseErr := parseTerms(c, req)
	if parseErr != nil {
		return parseErr
	}

	quote, err := h.loanService.PreviewLoan(terms)
	if err != nil {
		if resp := termsError(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Int32("tenant_id", tenantID).Msg("Failed to preview loan")
		return NewInternalError(c, "Failed to preview loan")
	}

	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// GetLoans handles GET /api/v1/loans
func (h *LoanHandler) GetLoans(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	loans, err := h.loanService.GetLoans(tenantID)
	if err != nil {
		log.Error().Err(err).Int32("tenant_id", tenantID).Msg("Failed to get loans")
		return NewInternalError(c, "Failed to get loans")
	}

	response := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		response[i] = toLoanResponse(loan)
	}

	return c.JSON(http.StatusOK, response)
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.GetLoanByID(tenantID, id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int32("tenant_id", tenantID).Msg("Failed to get loan")
		return NewInternalError(c, "Failed to get loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// DisburseLoan handles POST /api/v1/loans/:id/disburse
func (h *LoanHandler) DisburseLoan(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req DisburseLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	disbursementDate := time.Now()
	if req.DisbursementDate != nil && *req.DisbursementDate != "" {
		disbursementDate, err = time.Parse("2006-01-02", *req.DisbursementDate)
		if err != nil {
			return NewValidationError(c, "Invalid disbursement date", []ValidationError{
				{Field: "disbursementDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
	}

	loan, err := h.loanService.DisburseLoan(tenantID, id, disbursementDate)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanAlreadyDisbursed) {
			return NewConflictError(c, "Loan is already disbursed")
		}
		log.Error().Err(err).Int32("tenant_id", tenantID).Msg("Failed to disburse loan")
		return NewInternalError(c, "Failed to disburse loan")
	}

	log.Info().Int32("tenant_id", tenantID).Str("loan_id", loan.ID.String()).Msg("Loan disbursed")

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// DeleteLoan handles DELETE /api/v1/loans/:id
func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	if err := h.loanService.DeleteLoan(tenantID, id); err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int32("tenant_id", tenantID).Msg("Failed to delete loan")
		return NewInternalError(c, "Failed to delete loan")
	}

	log.Info().Int32("tenant_id", tenantID).Str("loan_id", id.String()).Msg("Loan deleted")

	return c.NoContent(http.StatusNoContent)
}

// GetSchedule handles GET /api/v1/loans/:id/schedule
func (h *LoanHandler) GetSchedule(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	if tenantID == 0 {
		return NewUnauthorizedError(c, "Tenant required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var asOf *time.Time
	if param := c.QueryParam("asOf"); param != "" {
		parsed, err := time.Parse("2006-01-02", param)
		if err != nil {
			return NewValidationError(c, "Invalid asOf date", []ValidationError{
				{Field: "asOf", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		asOf = &parsed
	}

	schedule, err := h.scheduleService.GetSchedule(tenantID, id, asOf)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanNotDisbursed) {
			return NewConflictError(c, "Loan has not been disbursed")
		}
		log.Error().Err(err).Int32("tenant_id", tenantID).Msg("Failed to generate schedule")
		return NewInternalError(c, "Failed to generate schedule")
	}

	response := make([]InstallmentResponse, len(schedule))
	for i, inst := range schedule {
		response[i] = toInstallmentResponse(inst)
	}

	return c.JSON(http.StatusOK, response)
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	resp := LoanResponse{
		ID:                   loan.ID.String(),
		TenantID:             loan.TenantID,
		BorrowerName:         loan.BorrowerName,
		Principal:            loan.Principal.StringFixed(2),
		RateType:             string(loan.RateType),
		AnnualRatePercent:    loan.AnnualRatePercent.String(),
		TermDays:             loan.TermDays,
		PaymentFrequency:     string(loan.PaymentFrequency),
		ProcessingFeePercent: loan.ProcessingFeePercent.String(),
		PlatformFeeFixed:     loan.PlatformFeeFixed.StringFixed(2),
		Compounding:          string(loan.Compounding),
		TotalInterest:        loan.TotalInterest.StringFixed(2),
		TotalFees:            loan.TotalFees.StringFixed(2),
		TotalAmount:          loan.TotalAmount.StringFixed(2),
		InstallmentAmount:    loan.InstallmentAmount.StringFixed(2),
		NumberOfInstallments: loan.NumberOfInstallments,
		OutstandingBalance:   loan.OutstandingBalance.StringFixed(2),
		AmountPaid:           loan.AmountPaid.StringFixed(2),
		Status:               string(loan.Status),
		Notes:                loan.Notes,
		CreatedAt:            loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            loan.UpdatedAt.Format(time.RFC3339),
	}
	if loan.DisbursementDate != nil {
		date := loan.DisbursementDate.Format("2006-01-02")
		resp.DisbursementDate = &date
	}
	return resp
}

func toQuoteResponse(quote *domain.LoanQuote) QuoteResponse {
	return QuoteResponse{
		Principal:            quote.Principal.StringFixed(2),
		RateType:             string(quote.RateType),
		AnnualRatePercent:    quote.AnnualRatePercent.String(),
		TermDays:             quote.TermDays,
		PaymentFrequency:     string(quote.PaymentFrequency),
		TotalInterest:        quote.TotalInterest.StringFixed(2),
		TotalFees:            quote.TotalFees.StringFixed(2),
		TotalRepayable:       quote.TotalRepayable.StringFixed(2),
		InstallmentAmount:    quote.InstallmentAmount.StringFixed(2),
		FinalInstallment:     quote.FinalInstallment.StringFixed(2),
		NumberOfInstallments: quote.NumberOfInstallments,
		Interest:             quote.Interest,
	}
}

func toInstallmentResponse(inst domain.RepaymentInstallment) InstallmentResponse {
	return InstallmentResponse{
		InstallmentNumber: inst.InstallmentNumber,
		DueDate:           inst.DueDate.Format("2006-01-02"),
		PrincipalPortion:  inst.PrincipalPortion.StringFixed(2),
		InterestPortion:   inst.InterestPortion.StringFixed(2),
		FeePortion:        inst.FeePortion.StringFixed(2),
		TotalDue:          inst.TotalDue.StringFixed(2),
		AmountPaid:        inst.AmountPaid.StringFixed(2),
		Outstanding:       inst.Outstanding.StringFixed(2),
		Status:            string(inst.Status),
	}
}
