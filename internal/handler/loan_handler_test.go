package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/lendora/lendora-backend/internal/domain"
	"github.com/lendora/lendora-backend/internal/middleware"
	"github.com/lendora/lendora-backend/internal/service"
	"github.com/lendora/lendora-backend/internal/testutil"
)

// Helper to set up auth context with tenant ID
func setupTenantContext(c echo.Context, auth0ID string, tenantID int32) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: auth0ID,
		},
		CustomClaims: &middleware.CustomClaims{Email: "test@example.com", Name: "Test User"},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.Auth0IDKey, auth0ID)
	if tenantID > 0 {
		ctx = context.WithValue(ctx, middleware.TenantIDKey, tenantID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

func newLoanTestHandler() (*LoanHandler, *testutil.MockLoanRepository, *testutil.MockPaymentRepository) {
	loanRepo := testutil.NewMockLoanRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	loanService := service.NewLoanService(loanRepo)
	scheduleService := service.NewScheduleService(loanRepo, paymentRepo)
	return NewLoanHandler(loanService, scheduleService), loanRepo, paymentRepo
}

func createTestLoan(t *testing.T, handler *LoanHandler, e *echo.Echo) LoanResponse {
	t.Helper()

	reqBody := `{
		"borrowerName": "Amina Yusuf",
		"principal": "10000",
		"annualRatePercent": "12",
		"termDays": 365,
		"rateType": "fixed",
		"paymentFrequency": "monthly"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return response
}

func TestCreateLoan_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	response := createTestLoan(t, handler, e)

	if response.BorrowerName != "Amina Yusuf" {
		t.Errorf("Expected borrower 'Amina Yusuf', got %s", response.BorrowerName)
	}
	if response.TotalInterest != "1200.00" {
		t.Errorf("Expected total interest '1200.00', got %s", response.TotalInterest)
	}
	if response.TotalAmount != "11200.00" {
		t.Errorf("Expected total amount '11200.00', got %s", response.TotalAmount)
	}
	if response.NumberOfInstallments != 13 {
		t.Errorf("Expected 13 installments, got %d", response.NumberOfInstallments)
	}
	if response.Status != "pending" {
		t.Errorf("Expected status 'pending', got %s", response.Status)
	}
}

func TestCreateLoan_InvalidRateType(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	reqBody := `{
		"borrowerName": "Amina Yusuf",
		"principal": "10000",
		"annualRatePercent": "12",
		"termDays": 365,
		"rateType": "balloon",
		"paymentFrequency": "monthly"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateLoan_MissingBorrower(t *testing.T) {
	e := echo.New()
	handler, loanRepo, _ := newLoanTestHandler()

	reqBody := `{
		"borrowerName": "",
		"principal": "10000",
		"annualRatePercent": "12",
		"termDays": 365,
		"rateType": "fixed",
		"paymentFrequency": "monthly"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if len(loanRepo.Loans) != 0 {
		t.Errorf("Expected no loans persisted, got %d", len(loanRepo.Loans))
	}
}

func TestCreateLoan_Unauthorized(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestPreviewLoan_Success(t *testing.T) {
	e := echo.New()
	handler, loanRepo, _ := newLoanTestHandler()

	reqBody := `{
		"principal": "10000",
		"annualRatePercent": "12",
		"termDays": 365,
		"rateType": "fixed",
		"paymentFrequency": "monthly",
		"processingFeePercent": "2",
		"platformFeeFixed": "50"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/preview", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.PreviewLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response QuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.TotalFees != "250.00" {
		t.Errorf("Expected total fees '250.00', got %s", response.TotalFees)
	}
	if response.TotalRepayable != "11450.00" {
		t.Errorf("Expected total repayable '11450.00', got %s", response.TotalRepayable)
	}

	// Preview never persists
	if len(loanRepo.Loans) != 0 {
		t.Errorf("Expected no loans persisted, got %d", len(loanRepo.Loans))
	}
}

func TestGetLoan_NotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/4f9d45f5-9b62-4f3a-8d42-1f2b9a6c0d11", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("4f9d45f5-9b62-4f3a-8d42-1f2b9a6c0d11")
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.GetLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetLoans_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	createTestLoan(t, handler, e)
	createTestLoan(t, handler, e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.GetLoans(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 2 {
		t.Errorf("Expected 2 loans, got %d", len(response))
	}
}

func disburseTestLoan(t *testing.T, handler *LoanHandler, e *echo.Echo, loanID, date string) *httptest.ResponseRecorder {
	t.Helper()

	reqBody := `{"disbursementDate": "` + date + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+loanID+"/disburse", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(loanID)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.DisburseLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return rec
}

func TestDisburseLoan_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	loan := createTestLoan(t, handler, e)

	rec := disburseTestLoan(t, handler, e, loan.ID, "2025-03-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response LoanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != "disbursed" {
		t.Errorf("Expected status 'disbursed', got %s", response.Status)
	}
	if response.DisbursementDate == nil || *response.DisbursementDate != "2025-03-01" {
		t.Errorf("Expected disbursement date '2025-03-01', got %v", response.DisbursementDate)
	}

	// A second disbursement conflicts
	rec = disburseTestLoan(t, handler, e, loan.ID, "2025-03-02")
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestGetSchedule_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	loan := createTestLoan(t, handler, e)
	disburseTestLoan(t, handler, e, loan.ID, "2025-03-01")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/"+loan.ID+"/schedule?asOf=2025-03-10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(loan.ID)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.GetSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response []InstallmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 13 {
		t.Fatalf("Expected 13 installments, got %d", len(response))
	}
	if response[0].DueDate != "2025-03-31" {
		t.Errorf("Expected first due date '2025-03-31', got %s", response[0].DueDate)
	}
	if response[0].Status != "pending" {
		t.Errorf("Expected first installment 'pending', got %s", response[0].Status)
	}
}

func TestGetSchedule_NotDisbursed(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	loan := createTestLoan(t, handler, e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/"+loan.ID+"/schedule", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(loan.ID)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.GetSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestGetSchedule_InvalidAsOf(t *testing.T) {
	e := echo.New()
	handler, _, _ := newLoanTestHandler()

	loan := createTestLoan(t, handler, e)
	disburseTestLoan(t, handler, e, loan.ID, "2025-03-01")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/"+loan.ID+"/schedule?asOf=March", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(loan.ID)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.GetSchedule(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDeleteLoan_Success(t *testing.T) {
	e := echo.New()
	handler, loanRepo, _ := newLoanTestHandler()

	loan := createTestLoan(t, handler, e)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/loans/"+loan.ID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(loan.ID)
	setupTenantContext(c, "auth0|test", 1)

	if err := handler.DeleteLoan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}

	// Soft deleted, not removed from storage
	var found *domain.Loan
	for _, stored := range loanRepo.Loans {
		found = stored
	}
	if found == nil || found.DeletedAt == nil {
		t.Error("Expected loan to be soft deleted")
	}
}
