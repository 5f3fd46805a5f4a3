package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lendora/lendora-backend/internal/domain"
	"github.com/lendora/lendora-backend/internal/websocket"
)

// LoanService handles loan intake, quoting, and lifecycle transitions
type LoanService struct {
	loanRepo       domain.LoanRepository
	eventPublisher websocket.EventPublisher
}

// NewLoanService creates a new LoanService
func NewLoanService(loanRepo domain.LoanRepository) *LoanService {
	return &LoanService{loanRepo: loanRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LoanService) publishEvent(tenantID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(tenantID, event)
	}
}

// CreateLoanInput contains input for creating a loan
type CreateLoanInput struct {
	BorrowerName string
	Terms        domain.LoanTerms
	Notes        *string
}

// CreateLoan quotes the requested terms and persists the resulting loan record.
// The quote fields are written verbatim; the outstanding balance starts at the
// total repayable amount.
func (s *LoanService) CreateLoan(tenantID int32, input CreateLoanInput) (*domain.Loan, error) {
	borrowerName := strings.TrimSpace(input.BorrowerName)
	if borrowerName == "" {
		return nil, domain.ErrLoanBorrowerEmpty
	}
	if len(borrowerName) > 200 {
		return nil, domain.ErrLoanBorrowerTooLong
	}

	quote, err := domain.Quote(input.Terms)
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		TenantID:             tenantID,
		BorrowerName:         borrowerName,
		Principal:            input.Terms.Principal,
		RateType:             input.Terms.RateType,
		AnnualRatePercent:    input.Terms.AnnualRatePercent,
		TermDays:             input.Terms.TermDays,
		PaymentFrequency:     input.Terms.PaymentFrequency,
		ProcessingFeePercent: input.Terms.ProcessingFeePercent,
		PlatformFeeFixed:     input.Terms.PlatformFeeFixed,
		Compounding:          input.Terms.Compounding,
		Status:               domain.LoanStatusPending,
		Notes:                input.Notes,
	}
	loan.ApplyQuote(quote)

	created, err := s.loanRepo.Create(loan)
	if err != nil {
		return nil, err
	}

	s.publishEvent(tenantID, websocket.LoanCreated(created))
	return created, nil
}

// PreviewLoan computes a full quote without persisting anything
func (s *LoanService) PreviewLoan(terms domain.LoanTerms) (*domain.LoanQuote, error) {
	return domain.Quote(terms)
}

// GetLoans retrieves all loans for a tenant
func (s *LoanService) GetLoans(tenantID int32) ([]*domain.Loan, error) {
	return s.loanRepo.GetAllByTenant(tenantID)
}

// GetLoanByID retrieves a loan by ID within a tenant
func (s *LoanService) GetLoanByID(tenantID int32, id uuid.UUID) (*domain.Loan, error) {
	return s.loanRepo.GetByID(tenantID, id)
}

// DisburseLoan marks a loan as disbursed, locking its quote. Re-quoting a
// disbursed loan requires an explicit loan modification, which is not offered.
func (s *LoanService) DisburseLoan(tenantID int32, id uuid.UUID, disbursementDate time.Time) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusPending {
		return nil, domain.ErrLoanAlreadyDisbursed
	}

	loan.Status = domain.LoanStatusDisbursed
	loan.DisbursementDate = &disbursementDate

	updated, err := s.loanRepo.Update(loan)
	if err != nil {
		return nil, err
	}

	s.publishEvent(tenantID, websocket.LoanDisbursed(updated))
	return updated, nil
}

// DeleteLoan soft-deletes a loan
func (s *LoanService) DeleteLoan(tenantID int32, id uuid.UUID) error {
	loan, err := s.loanRepo.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if err := s.loanRepo.SoftDelete(tenantID, id); err != nil {
		return err
	}

	s.publishEvent(tenantID, websocket.LoanDeleted(loan))
	return nil
}
