package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// RateType identifies the interest model applied to a loan
type RateType string

const (
	RateTypeFixed     RateType = "fixed"
	RateTypeVariable  RateType = "variable"
	RateTypeDeclining RateType = "declining"
	RateTypeFlat      RateType = "flat"
	RateTypeCompound  RateType = "compound"
)

// IsValid returns true if the rate type is one of the supported models
func (r RateType) IsValid() bool {
	switch r {
	case RateTypeFixed, RateTypeVariable, RateTypeDeclining, RateTypeFlat, RateTypeCompound:
		return true
	}
	return false
}

// PaymentFrequency determines period length and installment count
type PaymentFrequency string

const (
	FrequencyDaily   PaymentFrequency = "daily"
	FrequencyWeekly  PaymentFrequency = "weekly"
	FrequencyMonthly PaymentFrequency = "monthly"
)

// IsValid returns true if the frequency is supported
func (f PaymentFrequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// PeriodDays returns the calendar length of one payment period
func (f PaymentFrequency) PeriodDays() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyMonthly:
		return 30
	default:
		return 1
	}
}

// InstallmentCount returns the number of installments for a term, rounding partial periods up
func (f PaymentFrequency) InstallmentCount(termDays int) int {
	period := f.PeriodDays()
	return (termDays + period - 1) / period
}

// CompoundingFrequency determines periods per year for the compound model
type CompoundingFrequency string

const (
	CompoundDaily     CompoundingFrequency = "daily"
	CompoundWeekly    CompoundingFrequency = "weekly"
	CompoundMonthly   CompoundingFrequency = "monthly"
	CompoundQuarterly CompoundingFrequency = "quarterly"
	CompoundAnnually  CompoundingFrequency = "annually"
)

// PeriodsPerYear returns the compounding periods per year
func (c CompoundingFrequency) PeriodsPerYear() int {
	switch c {
	case CompoundDaily:
		return 365
	case CompoundWeekly:
		return 52
	case CompoundMonthly:
		return 12
	case CompoundQuarterly:
		return 4
	default:
		return 1
	}
}

// RateTier is one bracket of a variable-rate configuration.
// Tiers apply in list order; days beyond the loan term are ignored.
type RateTier struct {
	Days        int             `json:"days"`
	RatePercent decimal.Decimal `json:"ratePercent"`
}

// InterestParams carries the model-specific inputs for ComputeInterest
type InterestParams struct {
	Tiers       []RateTier           // variable
	PeriodUnit  PaymentFrequency     // declining; defaults to daily
	Compounding CompoundingFrequency // compound; defaults to annually
}

// TierInterest is the contribution of a single tier under the variable model
type TierInterest struct {
	RatePercent decimal.Decimal `json:"ratePercent"`
	Days        int             `json:"days"`
	Interest    decimal.Decimal `json:"interest"`
}

// DecliningPeriod is one simulated period of the declining-balance model
type DecliningPeriod struct {
	Period           int             `json:"period"`
	OpeningBalance   decimal.Decimal `json:"openingBalance"`
	PrincipalPortion decimal.Decimal `json:"principalPortion"`
	Interest         decimal.Decimal `json:"interest"`
	Payment          decimal.Decimal `json:"payment"`
	ClosingBalance   decimal.Decimal `json:"closingBalance"`
}

// InterestResult is the outcome of resolving a rate model
type InterestResult struct {
	TotalInterest decimal.Decimal   `json:"totalInterest"`
	TotalAmount   decimal.Decimal   `json:"totalAmount"`
	DaysProcessed int               `json:"daysProcessed,omitempty"`
	Tiers         []TierInterest    `json:"tiers,omitempty"`
	Periods       []DecliningPeriod `json:"periods,omitempty"`
}

// daysPerYear is the day-count basis shared by all simple-interest models
const daysPerYear = 365

// rateBasis = daysPerYear * 100, so dailyInterest = principal * ratePct * days / rateBasis
var rateBasis = decimal.NewFromInt(daysPerYear * 100)

var hundred = decimal.NewFromInt(100)

// ComputeInterest resolves the requested rate model and returns total interest
// and total amount, both rounded to 2 decimal places. Model-specific breakdowns
// (tier or period detail) are included where the model produces them.
func ComputeInterest(principal, annualRatePercent decimal.Decimal, termDays int, rateType RateType, params InterestParams) (*InterestResult, error) {
	if principal.LessThanOrEqual(decimal.Zero) || annualRatePercent.IsNegative() || termDays < 0 {
		return nil, ErrInvalidLoanParameters
	}

	switch rateType {
	case RateTypeFixed:
		return fixedInterest(principal, annualRatePercent, termDays), nil
	case RateTypeVariable:
		return variableInterest(principal, annualRatePercent, termDays, params.Tiers), nil
	case RateTypeDeclining:
		return decliningInterest(principal, annualRatePercent, termDays, params.PeriodUnit), nil
	case RateTypeFlat:
		return flatInterest(principal, annualRatePercent), nil
	case RateTypeCompound:
		return compoundInterest(principal, annualRatePercent, termDays, params.Compounding), nil
	default:
		return nil, ErrUnsupportedRateType
	}
}

// fixedInterest charges simple non-compounding interest at the daily-equivalent rate
func fixedInterest(principal, ratePercent decimal.Decimal, termDays int) *InterestResult {
	interest := simpleInterest(principal, ratePercent, termDays).Round(2)
	return &InterestResult{
		TotalInterest: interest,
		TotalAmount:   principal.Add(interest).Round(2),
		DaysProcessed: termDays,
	}
}

// variableInterest walks the tiers in order, charging each tier's rate for
// min(tier.days, remaining). With no tiers it degrades to the fixed model.
func variableInterest(principal, ratePercent decimal.Decimal, termDays int, tiers []RateTier) *InterestResult {
	if len(tiers) == 0 {
		return fixedInterest(principal, ratePercent, termDays)
	}

	total := decimal.Zero
	remaining := termDays
	breakdown := make([]TierInterest, 0, len(tiers))

	for _, tier := range tiers {
		if remaining <= 0 {
			break
		}
		days := tier.Days
		if days > remaining {
			days = remaining
		}
		interest := simpleInterest(principal, tier.RatePercent, days).Round(2)
		breakdown = append(breakdown, TierInterest{
			RatePercent: tier.RatePercent,
			Days:        days,
			Interest:    interest,
		})
		total = total.Add(interest)
		remaining -= days
	}

	total = total.Round(2)
	return &InterestResult{
		TotalInterest: total,
		TotalAmount:   principal.Add(total).Round(2),
		DaysProcessed: termDays - remaining,
		Tiers:         breakdown,
	}
}

// decliningInterest simulates periodic amortization: equal principal reduction
// each period, interest charged on the opening balance of the period.
func decliningInterest(principal, ratePercent decimal.Decimal, termDays int, unit PaymentFrequency) *InterestResult {
	if !unit.IsValid() {
		unit = FrequencyDaily
	}
	periodLen := unit.PeriodDays()
	numPayments := unit.InstallmentCount(termDays)
	if numPayments == 0 {
		return &InterestResult{TotalInterest: decimal.Zero, TotalAmount: principal.Round(2)}
	}

	principalPerPeriod := principal.Div(decimal.NewFromInt(int64(numPayments)))
	balance := principal
	total := decimal.Zero
	remaining := termDays
	periods := make([]DecliningPeriod, 0, numPayments)

	for p := 1; p <= numPayments; p++ {
		days := periodLen
		if days > remaining {
			days = remaining
		}
		interest := simpleInterest(balance, ratePercent, days).Round(2)
		closing := balance.Sub(principalPerPeriod)
		if closing.IsNegative() {
			closing = decimal.Zero
		}
		periods = append(periods, DecliningPeriod{
			Period:           p,
			OpeningBalance:   balance.Round(2),
			PrincipalPortion: principalPerPeriod.Round(2),
			Interest:         interest,
			Payment:          principalPerPeriod.Add(interest).Round(2),
			ClosingBalance:   closing.Round(2),
		})
		total = total.Add(interest)
		balance = closing
		remaining -= days
	}

	total = total.Round(2)
	return &InterestResult{
		TotalInterest: total,
		TotalAmount:   principal.Add(total).Round(2),
		DaysProcessed: termDays,
		Periods:       periods,
	}
}

// flatInterest charges a fixed percentage of principal regardless of term length
func flatInterest(principal, ratePercent decimal.Decimal) *InterestResult {
	interest := principal.Mul(ratePercent).Div(hundred).Round(2)
	return &InterestResult{
		TotalInterest: interest,
		TotalAmount:   principal.Add(interest).Round(2),
	}
}

// compoundInterest applies the closed form amount = P * (1 + r/n)^(n*t).
// The power term uses float64, monetary arithmetic stays decimal.
func compoundInterest(principal, ratePercent decimal.Decimal, termDays int, freq CompoundingFrequency) *InterestResult {
	n := float64(freq.PeriodsPerYear())
	r := ratePercent.InexactFloat64() / 100.0
	t := float64(termDays) / float64(daysPerYear)

	factor := math.Pow(1+r/n, n*t)
	amount := principal.Mul(decimal.NewFromFloat(factor)).Round(2)

	return &InterestResult{
		TotalInterest: amount.Sub(principal).Round(2),
		TotalAmount:   amount,
		DaysProcessed: termDays,
	}
}

// simpleInterest returns principal * ratePct * days / 36500, unrounded
func simpleInterest(principal, ratePercent decimal.Decimal, days int) decimal.Decimal {
	return principal.Mul(ratePercent).Mul(decimal.NewFromInt(int64(days))).Div(rateBasis)
}
