package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound          = errors.New("loan not found")
	ErrLoanBorrowerEmpty     = errors.New("borrower name is required")
	ErrLoanBorrowerTooLong   = errors.New("borrower name must be 200 characters or less")
	ErrLoanAlreadyDisbursed  = errors.New("loan is already disbursed")
	ErrLoanNotDisbursed      = errors.New("loan has not been disbursed")
	ErrLoanAlreadyPaidOff    = errors.New("loan is already paid off")
)

// LoanStatus is the lifecycle state of a loan record
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusDisbursed LoanStatus = "disbursed"
	LoanStatusPaidOff   LoanStatus = "paid_off"
)

// Loan is the persisted loan record. The quote fields are written verbatim at
// creation time and are immutable once the loan is disbursed; the running
// balance counters are the only fields payments mutate.
type Loan struct {
	ID                   uuid.UUID            `json:"id"`
	TenantID             int32                `json:"tenantId"`
	BorrowerName         string               `json:"borrowerName"`
	Principal            decimal.Decimal      `json:"principal"`
	RateType             RateType             `json:"rateType"`
	AnnualRatePercent    decimal.Decimal      `json:"annualRatePercent"`
	TermDays             int                  `json:"termDays"`
	PaymentFrequency     PaymentFrequency     `json:"paymentFrequency"`
	ProcessingFeePercent decimal.Decimal      `json:"processingFeePercent"`
	PlatformFeeFixed     decimal.Decimal      `json:"platformFeeFixed"`
	Compounding          CompoundingFrequency `json:"compounding,omitempty"`
	TotalInterest        decimal.Decimal      `json:"totalInterest"`
	TotalFees            decimal.Decimal      `json:"totalFees"`
	TotalAmount          decimal.Decimal      `json:"totalAmount"`
	InstallmentAmount    decimal.Decimal      `json:"installmentAmount"`
	NumberOfInstallments int                  `json:"numberOfInstallments"`
	OutstandingBalance   decimal.Decimal      `json:"outstandingBalance"`
	AmountPaid           decimal.Decimal      `json:"amountPaid"`
	Status               LoanStatus           `json:"status"`
	DisbursementDate     *time.Time           `json:"disbursementDate,omitempty"`
	Notes                *string              `json:"notes,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
	DeletedAt            *time.Time           `json:"deletedAt,omitempty"`
}

func (l *Loan) Validate() error {
	if l.BorrowerName == "" {
		return ErrLoanBorrowerEmpty
	}
	if len(l.BorrowerName) > 200 {
		return ErrLoanBorrowerTooLong
	}
	return l.Terms().Validate()
}

// Terms reconstructs the immutable quote input from the stored record
func (l *Loan) Terms() LoanTerms {
	return LoanTerms{
		Principal:            l.Principal,
		AnnualRatePercent:    l.AnnualRatePercent,
		TermDays:             l.TermDays,
		RateType:             l.RateType,
		PaymentFrequency:     l.PaymentFrequency,
		ProcessingFeePercent: l.ProcessingFeePercent,
		PlatformFeeFixed:     l.PlatformFeeFixed,
		Compounding:          l.Compounding,
	}
}

// StoredQuote rebuilds the quote view from the persisted fields. The final
// installment is derived, not stored: totalAmount - installment * (n - 1).
func (l *Loan) StoredQuote() *LoanQuote {
	final := l.TotalAmount.Sub(l.InstallmentAmount.Mul(decimal.NewFromInt(int64(l.NumberOfInstallments - 1))))
	return &LoanQuote{
		Principal:            l.Principal,
		RateType:             l.RateType,
		AnnualRatePercent:    l.AnnualRatePercent,
		TermDays:             l.TermDays,
		PaymentFrequency:     l.PaymentFrequency,
		TotalInterest:        l.TotalInterest,
		TotalFees:            l.TotalFees,
		TotalRepayable:       l.TotalAmount,
		InstallmentAmount:    l.InstallmentAmount,
		FinalInstallment:     final,
		NumberOfInstallments: l.NumberOfInstallments,
	}
}

// ApplyQuote writes the derived quote fields onto the record and initializes
// the running balance counters
func (l *Loan) ApplyQuote(q *LoanQuote) {
	l.TotalInterest = q.TotalInterest
	l.TotalFees = q.TotalFees
	l.TotalAmount = q.TotalRepayable
	l.InstallmentAmount = q.InstallmentAmount
	l.NumberOfInstallments = q.NumberOfInstallments
	l.OutstandingBalance = q.TotalRepayable
	l.AmountPaid = decimal.Zero
}

type LoanRepository interface {
	Create(loan *Loan) (*Loan, error)
	GetByID(tenantID int32, id uuid.UUID) (*Loan, error)
	GetAllByTenant(tenantID int32) ([]*Loan, error)
	ListDisbursed() ([]*Loan, error)
	Update(loan *Loan) (*Loan, error)
	UpdateTx(tx interface{}, loan *Loan) (*Loan, error) // Transactional update
	SoftDelete(tenantID int32, id uuid.UUID) error
}
