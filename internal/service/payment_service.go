package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lendora/lendora-backend/internal/domain"
	"github.com/lendora/lendora-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// PaymentService records payments against loans and applies the configured
// allocation policy to the loan's running balance counters.
type PaymentService struct {
	pool           *pgxpool.Pool
	paymentRepo    domain.PaymentRepository
	loanRepo       domain.LoanRepository
	allocator      domain.Allocator
	eventPublisher websocket.EventPublisher
}

// NewPaymentService creates a new PaymentService. A nil pool skips the
// transactional path, which the repository mocks rely on in tests.
func NewPaymentService(pool *pgxpool.Pool, paymentRepo domain.PaymentRepository, loanRepo domain.LoanRepository, allocator domain.Allocator) *PaymentService {
	return &PaymentService{
		pool:        pool,
		paymentRepo: paymentRepo,
		loanRepo:    loanRepo,
		allocator:   allocator,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PaymentService) publishEvent(tenantID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(tenantID, event)
	}
}

// RecordPaymentResult is the outcome of recording a payment
type RecordPaymentResult struct {
	Payment            *domain.Payment `json:"payment"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	LoanStatus         domain.LoanStatus `json:"loanStatus"`
}

// RecordPayment appends a payment to the loan's ledger and writes the
// allocated balance counters back onto the loan, both within one transaction.
// Validation happens before any state is touched.
func (s *PaymentService) RecordPayment(tenantID int32, loanID uuid.UUID, amount decimal.Decimal, paymentDate *time.Time) (*RecordPaymentResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrPaymentAmountInvalid
	}

	loan, err := s.loanRepo.GetByID(tenantID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.DisbursementDate == nil {
		return nil, domain.ErrLoanNotDisbursed
	}

	allocation, err := s.allocator.Allocate(loan, amount)
	if err != nil {
		return nil, err
	}

	date := time.Now()
	if paymentDate != nil {
		date = *paymentDate
	}
	payment := &domain.Payment{
		LoanID:      loanID,
		Amount:      amount,
		PaymentDate: date,
	}

	loan.OutstandingBalance = allocation.NewOutstandingBalance
	loan.AmountPaid = allocation.NewAmountPaid
	loan.Status = allocation.LoanStatus

	created, err := s.persist(payment, loan)
	if err != nil {
		return nil, err
	}

	s.publishEvent(tenantID, websocket.PaymentRecorded(created))
	if loan.Status == domain.LoanStatusPaidOff {
		s.publishEvent(tenantID, websocket.LoanPaidOff(loan))
	}

	return &RecordPaymentResult{
		Payment:            created,
		OutstandingBalance: loan.OutstandingBalance,
		AmountPaid:         loan.AmountPaid,
		LoanStatus:         loan.Status,
	}, nil
}

// persist writes the ledger entry and the loan counters atomically when a pool
// is available
func (s *PaymentService) persist(payment *domain.Payment, loan *domain.Loan) (*domain.Payment, error) {
	if s.pool == nil {
		created, err := s.paymentRepo.Create(payment)
		if err != nil {
			return nil, err
		}
		if _, err := s.loanRepo.Update(loan); err != nil {
			return nil, err
		}
		return created, nil
	}

	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created, err := s.paymentRepo.CreateTx(tx, payment)
	if err != nil {
		return nil, err
	}
	if _, err := s.loanRepo.UpdateTx(tx, loan); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetPaymentsByLoanID retrieves the ledger for a loan, validating tenant ownership
func (s *PaymentService) GetPaymentsByLoanID(tenantID int32, loanID uuid.UUID) ([]domain.Payment, error) {
	if _, err := s.loanRepo.GetByID(tenantID, loanID); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByLoanID(loanID)
}
