package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the settlement state of a single installment
type InstallmentStatus string

const (
	InstallmentPending       InstallmentStatus = "pending"
	InstallmentPartiallyPaid InstallmentStatus = "partially_paid"
	InstallmentPaid          InstallmentStatus = "paid"
	InstallmentOverdue       InstallmentStatus = "overdue"
)

// RepaymentInstallment is one row of a generated repayment schedule. It is
// never persisted: the schedule is recomputed from the quote and the payment
// ledger on every read, so it cannot drift from the ledger.
type RepaymentInstallment struct {
	InstallmentNumber int               `json:"installmentNumber"`
	DueDate           time.Time         `json:"dueDate"`
	PrincipalPortion  decimal.Decimal   `json:"principalPortion"`
	InterestPortion   decimal.Decimal   `json:"interestPortion"`
	FeePortion        decimal.Decimal   `json:"feePortion"`
	TotalDue          decimal.Decimal   `json:"totalDue"`
	AmountPaid        decimal.Decimal   `json:"amountPaid"`
	Outstanding       decimal.Decimal   `json:"outstanding"`
	Status            InstallmentStatus `json:"status"`
}

// paidTolerance covers per-installment rounding when classifying an
// installment as paid: one cent short still counts as settled
var paidTolerance = decimal.New(1, -2)

// GenerateSchedule expands a quote into its ordered installments and applies
// the cumulative payment history to classify each one.
//
// Payments are allocated strictly in sequence, oldest due date first: each
// installment receives clamp(cumulativePaid - totalDueBefore, 0, totalDue).
// The payment list is sorted by date ascending before allocation, so callers
// may pass it in any order.
func GenerateSchedule(quote *LoanQuote, disbursementDate time.Time, payments []Payment, asOf time.Time) ([]RepaymentInstallment, error) {
	if quote == nil || quote.NumberOfInstallments < 1 {
		return nil, ErrInvalidLoanParameters
	}

	ordered := make([]Payment, len(payments))
	copy(ordered, payments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PaymentDate.Before(ordered[j].PaymentDate)
	})

	cumulativePaid := decimal.Zero
	for _, p := range ordered {
		cumulativePaid = cumulativePaid.Add(p.Amount)
	}

	periodDays := quote.PaymentFrequency.PeriodDays()
	principalRatio := quote.Principal.Div(quote.TotalRepayable)
	interestRatio := quote.TotalInterest.Div(quote.TotalRepayable)

	schedule := make([]RepaymentInstallment, 0, quote.NumberOfInstallments)
	totalDueBefore := decimal.Zero

	for i := 1; i <= quote.NumberOfInstallments; i++ {
		totalDue := quote.InstallmentTotal(i)

		paid := cumulativePaid.Sub(totalDueBefore)
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		if paid.GreaterThan(totalDue) {
			paid = totalDue
		}

		dueDate := disbursementDate.AddDate(0, 0, i*periodDays)

		var status InstallmentStatus
		switch {
		case paid.GreaterThanOrEqual(totalDue.Sub(paidTolerance)):
			status = InstallmentPaid
		case paid.GreaterThan(decimal.Zero):
			status = InstallmentPartiallyPaid
		case asOf.After(dueDate):
			status = InstallmentOverdue
		default:
			status = InstallmentPending
		}

		// Portions are apportioned from the quote's aggregate ratios rather
		// than tracked per period; the fee share is the row remainder so every
		// row sums exactly to its totalDue.
		principalPortion := totalDue.Mul(principalRatio).Round(2)
		interestPortion := totalDue.Mul(interestRatio).Round(2)
		feePortion := totalDue.Sub(principalPortion).Sub(interestPortion)

		schedule = append(schedule, RepaymentInstallment{
			InstallmentNumber: i,
			DueDate:           dueDate,
			PrincipalPortion:  principalPortion,
			InterestPortion:   interestPortion,
			FeePortion:        feePortion,
			TotalDue:          totalDue,
			AmountPaid:        paid,
			Outstanding:       totalDue.Sub(paid),
			Status:            status,
		})

		totalDueBefore = totalDueBefore.Add(totalDue)
	}

	return schedule, nil
}
