package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAmountInvalid = errors.New("payment amount must be positive")
)

// Payment is one immutable ledger entry. Entries are created once at recording
// time and never mutated; schedule generation treats the ordered list of
// payments for a loan as the authoritative history.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	LoanID      uuid.UUID       `json:"loanId"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"paymentDate"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (p *Payment) Validate() error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	return nil
}

type PaymentRepository interface {
	Create(payment *Payment) (*Payment, error)
	CreateTx(tx interface{}, payment *Payment) (*Payment, error) // Transactional create
	// GetByLoanID returns the full ledger for a loan, ordered by payment date ascending
	GetByLoanID(loanID uuid.UUID) ([]Payment, error)
}
