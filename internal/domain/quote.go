package domain

import (
	"github.com/shopspring/decimal"
)

// LoanTerms is the validated input a quote is computed from. Immutable per quote.
type LoanTerms struct {
	Principal            decimal.Decimal      `json:"principal"`
	AnnualRatePercent    decimal.Decimal      `json:"annualRatePercent"`
	TermDays             int                  `json:"termDays"`
	RateType             RateType             `json:"rateType"`
	PaymentFrequency     PaymentFrequency     `json:"paymentFrequency"`
	ProcessingFeePercent decimal.Decimal      `json:"processingFeePercent"`
	PlatformFeeFixed     decimal.Decimal      `json:"platformFeeFixed"`
	Tiers                []RateTier           `json:"tiers,omitempty"`
	Compounding          CompoundingFrequency `json:"compounding,omitempty"`
}

// Validate checks the terms before any computation runs
func (t LoanTerms) Validate() error {
	if t.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidLoanParameters
	}
	if t.AnnualRatePercent.IsNegative() {
		return ErrInvalidLoanParameters
	}
	if t.TermDays < 1 {
		return ErrInvalidLoanParameters
	}
	if t.ProcessingFeePercent.IsNegative() || t.PlatformFeeFixed.IsNegative() {
		return ErrInvalidLoanParameters
	}
	if !t.RateType.IsValid() {
		return ErrUnsupportedRateType
	}
	if !t.PaymentFrequency.IsValid() {
		return ErrInvalidLoanParameters
	}
	for _, tier := range t.Tiers {
		if tier.Days <= 0 || tier.RatePercent.IsNegative() {
			return ErrInvalidLoanParameters
		}
	}
	return nil
}

// LoanQuote is the complete priced view of a loan, derived once from its terms.
// The schedule generated from a quote always sums exactly to TotalRepayable:
// per-installment rounding is absorbed by the final installment.
type LoanQuote struct {
	Principal             decimal.Decimal  `json:"principal"`
	RateType              RateType         `json:"rateType"`
	AnnualRatePercent     decimal.Decimal  `json:"annualRatePercent"`
	TermDays              int              `json:"termDays"`
	PaymentFrequency      PaymentFrequency `json:"paymentFrequency"`
	TotalInterest         decimal.Decimal  `json:"totalInterest"`
	TotalFees             decimal.Decimal  `json:"totalFees"`
	TotalRepayable        decimal.Decimal  `json:"totalRepayable"`
	InstallmentAmount     decimal.Decimal  `json:"installmentAmount"`
	FinalInstallment      decimal.Decimal  `json:"finalInstallment"`
	NumberOfInstallments  int              `json:"numberOfInstallments"`
	Interest              *InterestResult  `json:"interest,omitempty"`
}

// Quote prices a loan: resolves the rate model, adds fees, and derives the
// installment plan for the requested payment frequency.
func Quote(terms LoanTerms) (*LoanQuote, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	result, err := ComputeInterest(terms.Principal, terms.AnnualRatePercent, terms.TermDays, terms.RateType, InterestParams{
		Tiers:       terms.Tiers,
		PeriodUnit:  terms.PaymentFrequency,
		Compounding: terms.Compounding,
	})
	if err != nil {
		return nil, err
	}

	processingFee := terms.Principal.Mul(terms.ProcessingFeePercent).Div(hundred)
	totalFees := processingFee.Add(terms.PlatformFeeFixed).Round(2)
	totalRepayable := terms.Principal.Add(result.TotalInterest).Add(totalFees).Round(2)

	n := terms.PaymentFrequency.InstallmentCount(terms.TermDays)
	installment := totalRepayable.Div(decimal.NewFromInt(int64(n))).Round(2)
	// The last installment absorbs the rounding remainder so the schedule sums
	// exactly to totalRepayable.
	final := totalRepayable.Sub(installment.Mul(decimal.NewFromInt(int64(n - 1))))

	return &LoanQuote{
		Principal:            terms.Principal,
		RateType:             terms.RateType,
		AnnualRatePercent:    terms.AnnualRatePercent,
		TermDays:             terms.TermDays,
		PaymentFrequency:     terms.PaymentFrequency,
		TotalInterest:        result.TotalInterest,
		TotalFees:            totalFees,
		TotalRepayable:       totalRepayable,
		InstallmentAmount:    installment,
		FinalInstallment:     final,
		NumberOfInstallments: n,
		Interest:             result,
	}, nil
}

// InstallmentTotal returns the amount due for a 1-based installment index
func (q *LoanQuote) InstallmentTotal(i int) decimal.Decimal {
	if i == q.NumberOfInstallments {
		return q.FinalInstallment
	}
	return q.InstallmentAmount
}
