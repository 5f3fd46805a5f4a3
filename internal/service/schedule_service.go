package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/lendora/lendora-backend/internal/domain"
)

// ScheduleService projects repayment schedules from stored quotes and the
// payment ledger. Schedules are recomputed on every read and never persisted,
// so they cannot drift from the ledger.
type ScheduleService struct {
	loanRepo    domain.LoanRepository
	paymentRepo domain.PaymentRepository
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(loanRepo domain.LoanRepository, paymentRepo domain.PaymentRepository) *ScheduleService {
	return &ScheduleService{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
	}
}

// GetSchedule generates the repayment schedule for a disbursed loan as of the
// given date. A nil asOf defaults to the current time.
func (s *ScheduleService) GetSchedule(tenantID int32, loanID uuid.UUID, asOf *time.Time) ([]domain.RepaymentInstallment, error) {
	loan, err := s.loanRepo.GetByID(tenantID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.DisbursementDate == nil {
		return nil, domain.ErrLoanNotDisbursed
	}

	payments, err := s.paymentRepo.GetByLoanID(loanID)
	if err != nil {
		return nil, err
	}

	at := time.Now()
	if asOf != nil {
		at = *asOf
	}

	return domain.GenerateSchedule(loan.StoredQuote(), *loan.DisbursementDate, payments, at)
}
