package service

import (
	"time"

	"github.com/lendora/lendora-backend/internal/domain"
	"github.com/lendora/lendora-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// OverdueSweeper periodically regenerates schedules for disbursed loans and
// notifies tenants about installments that have fallen overdue. Statuses are
// always derived from the ledger; the sweep publishes events but stores nothing.
type OverdueSweeper struct {
	loanRepo       domain.LoanRepository
	paymentRepo    domain.PaymentRepository
	eventPublisher websocket.EventPublisher
}

// NewOverdueSweeper creates a new OverdueSweeper
func NewOverdueSweeper(loanRepo domain.LoanRepository, paymentRepo domain.PaymentRepository, publisher websocket.EventPublisher) *OverdueSweeper {
	return &OverdueSweeper{
		loanRepo:       loanRepo,
		paymentRepo:    paymentRepo,
		eventPublisher: publisher,
	}
}

// OverdueNotice is the payload published for a loan with overdue installments
type OverdueNotice struct {
	Loan                *domain.Loan                  `json:"loan"`
	OverdueInstallments []domain.RepaymentInstallment `json:"overdueInstallments"`
}

// Run executes one sweep over all disbursed loans
func (s *OverdueSweeper) Run() {
	loans, err := s.loanRepo.ListDisbursed()
	if err != nil {
		log.Error().Err(err).Msg("Overdue sweep failed to list loans")
		return
	}

	now := time.Now()
	flagged := 0

	for _, loan := range loans {
		if loan.DisbursementDate == nil {
			continue
		}

		payments, err := s.paymentRepo.GetByLoanID(loan.ID)
		if err != nil {
			log.Error().Err(err).Str("loan_id", loan.ID.String()).Msg("Overdue sweep failed to load payments")
			continue
		}

		schedule, err := domain.GenerateSchedule(loan.StoredQuote(), *loan.DisbursementDate, payments, now)
		if err != nil {
			log.Error().Err(err).Str("loan_id", loan.ID.String()).Msg("Overdue sweep failed to generate schedule")
			continue
		}

		var overdue []domain.RepaymentInstallment
		for _, inst := range schedule {
			if inst.Status == domain.InstallmentOverdue {
				overdue = append(overdue, inst)
			}
		}
		if len(overdue) == 0 {
			continue
		}

		flagged++
		if s.eventPublisher != nil {
			s.eventPublisher.Publish(loan.TenantID, websocket.LoanOverdue(OverdueNotice{
				Loan:                loan,
				OverdueInstallments: overdue,
			}))
		}
	}

	log.Info().
		Int("loans_checked", len(loans)).
		Int("loans_overdue", flagged).
		Msg("Overdue sweep complete")
}
