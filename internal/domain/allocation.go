package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrAllocatorMissing = errors.New("custom allocation policy requires an allocator func")

// AllocationPolicy selects how an incoming payment is split across the loan's
// obligations. The schedule generator is independent of the policy: it derives
// its per-installment view from the ledger alone.
type AllocationPolicy string

const (
	// AllocatePrincipalOnly applies the full payment against the running
	// balance counters without splitting it into components.
	AllocatePrincipalOnly AllocationPolicy = "principal_only"
	// AllocateInterestFirst retires the quote's interest share before principal.
	AllocateInterestFirst AllocationPolicy = "interest_first"
	// AllocateCustom delegates to a caller-supplied AllocatorFunc.
	AllocateCustom AllocationPolicy = "custom"
)

// AllocationResult carries the updated running counters for a loan after a payment
type AllocationResult struct {
	NewOutstandingBalance decimal.Decimal `json:"newOutstandingBalance"`
	NewAmountPaid         decimal.Decimal `json:"newAmountPaid"`
	InterestApplied       decimal.Decimal `json:"interestApplied"`
	PrincipalApplied      decimal.Decimal `json:"principalApplied"`
	LoanStatus            LoanStatus      `json:"loanStatus"`
}

// AllocatorFunc is the extension point for custom allocation strategies
type AllocatorFunc func(loan *Loan, amount decimal.Decimal) (*AllocationResult, error)

// Allocator applies payments to a loan's running balance under a policy
type Allocator struct {
	Policy AllocationPolicy
	Custom AllocatorFunc
}

// Allocate determines the effect of a payment on the loan's balance counters.
// The loan itself is not mutated; the caller persists the result.
func (a Allocator) Allocate(loan *Loan, amount decimal.Decimal) (*AllocationResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentAmountInvalid
	}
	if loan.Status == LoanStatusPaidOff {
		return nil, ErrLoanAlreadyPaidOff
	}

	switch a.Policy {
	case AllocateCustom:
		if a.Custom == nil {
			return nil, ErrAllocatorMissing
		}
		return a.Custom(loan, amount)
	case AllocateInterestFirst:
		return allocateInterestFirst(loan, amount), nil
	default:
		return allocatePrincipalOnly(loan, amount), nil
	}
}

// allocatePrincipalOnly is the default policy: the whole payment reduces the
// outstanding balance and increments the paid counter.
func allocatePrincipalOnly(loan *Loan, amount decimal.Decimal) *AllocationResult {
	result := &AllocationResult{
		NewOutstandingBalance: loan.OutstandingBalance.Sub(amount),
		NewAmountPaid:         loan.AmountPaid.Add(amount),
		PrincipalApplied:      amount,
		InterestApplied:       decimal.Zero,
		LoanStatus:            loan.Status,
	}
	if result.NewOutstandingBalance.LessThanOrEqual(decimal.Zero) {
		result.LoanStatus = LoanStatusPaidOff
	}
	return result
}

// allocateInterestFirst retires the quote's aggregate interest before touching
// principal. The interest already retired is inferred from the paid counter,
// so the split stays consistent across successive payments.
func allocateInterestFirst(loan *Loan, amount decimal.Decimal) *AllocationResult {
	interestOutstanding := loan.TotalInterest.Sub(loan.AmountPaid)
	if interestOutstanding.IsNegative() {
		interestOutstanding = decimal.Zero
	}

	interestApplied := amount
	if interestApplied.GreaterThan(interestOutstanding) {
		interestApplied = interestOutstanding
	}

	result := &AllocationResult{
		NewOutstandingBalance: loan.OutstandingBalance.Sub(amount),
		NewAmountPaid:         loan.AmountPaid.Add(amount),
		InterestApplied:       interestApplied,
		PrincipalApplied:      amount.Sub(interestApplied),
		LoanStatus:            loan.Status,
	}
	if result.NewOutstandingBalance.LessThanOrEqual(decimal.Zero) {
		result.LoanStatus = LoanStatusPaidOff
	}
	return result
}
