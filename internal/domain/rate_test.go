package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeInterest_FixedReferenceCase(t *testing.T) {
	// 10000 at 12% for a full year: interest = 10000 * 0.12 = 1200.00
	result, err := ComputeInterest(decimal.NewFromInt(10000), decimal.NewFromInt(12), 365, RateTypeFixed, InterestParams{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.TotalInterest.StringFixed(2) != "1200.00" {
		t.Errorf("TotalInterest = %s, want 1200.00", result.TotalInterest.StringFixed(2))
	}
	if result.TotalAmount.StringFixed(2) != "11200.00" {
		t.Errorf("TotalAmount = %s, want 11200.00", result.TotalAmount.StringFixed(2))
	}
}

func TestComputeInterest_FixedPartialTerm(t *testing.T) {
	// 10000 at 12% for 30 days: 10000 * 12 * 30 / 36500 = 98.63
	result, err := ComputeInterest(decimal.NewFromInt(10000), decimal.NewFromInt(12), 30, RateTypeFixed, InterestParams{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.TotalInterest.StringFixed(2) != "98.63" {
		t.Errorf("TotalInterest = %s, want 98.63", result.TotalInterest.StringFixed(2))
	}
}

func TestComputeInterest_FlatIsTermIndependent(t *testing.T) {
	principal := decimal.NewFromInt(5000)
	rate := decimal.NewFromInt(10)

	for _, termDays := range []int{30, 300} {
		result, err := ComputeInterest(principal, rate, termDays, RateTypeFlat, InterestParams{})
		if err != nil {
			t.Fatalf("termDays=%d: expected no error, got %v", termDays, err)
		}
		if result.TotalInterest.StringFixed(2) != "500.00" {
			t.Errorf("termDays=%d: TotalInterest = %s, want 500.00", termDays, result.TotalInterest.StringFixed(2))
		}
	}
}

func TestComputeInterest_CompoundAnnualReferenceCase(t *testing.T) {
	// 1000 at 10% compounded annually for one year: 1000 * 1.10 - 1000 = 100.00
	result, err := ComputeInterest(decimal.NewFromInt(1000), decimal.NewFromInt(10), 365, RateTypeCompound, InterestParams{
		Compounding: CompoundAnnually,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.TotalInterest.StringFixed(2) != "100.00" {
		t.Errorf("TotalInterest = %s, want 100.00", result.TotalInterest.StringFixed(2))
	}
	if result.TotalAmount.StringFixed(2) != "1100.00" {
		t.Errorf("TotalAmount = %s, want 1100.00", result.TotalAmount.StringFixed(2))
	}
}

func TestComputeInterest_CompoundMonthlyBeatsAnnual(t *testing.T) {
	principal := decimal.NewFromInt(1000)
	rate := decimal.NewFromInt(10)

	annual, err := ComputeInterest(principal, rate, 365, RateTypeCompound, InterestParams{Compounding: CompoundAnnually})
	if err != nil {
		t.Fatalf("annual: %v", err)
	}
	monthly, err := ComputeInterest(principal, rate, 365, RateTypeCompound, InterestParams{Compounding: CompoundMonthly})
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}

	if !monthly.TotalInterest.GreaterThan(annual.TotalInterest) {
		t.Errorf("monthly compounding (%s) should exceed annual (%s)",
			monthly.TotalInterest.StringFixed(2), annual.TotalInterest.StringFixed(2))
	}
}

func TestComputeInterest_VariableTierExhaustion(t *testing.T) {
	// Tier 1 covers 30 days at 8%, tier 2 only the remaining 15 of its 30 days at 10%
	tiers := []RateTier{
		{Days: 30, RatePercent: decimal.NewFromInt(8)},
		{Days: 30, RatePercent: decimal.NewFromInt(10)},
	}
	principal := decimal.NewFromInt(10000)

	result, err := ComputeInterest(principal, decimal.NewFromInt(12), 45, RateTypeVariable, InterestParams{Tiers: tiers})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(result.Tiers) != 2 {
		t.Fatalf("Expected 2 tier entries, got %d", len(result.Tiers))
	}
	if result.Tiers[0].Days != 30 {
		t.Errorf("Tier 1 days = %d, want 30", result.Tiers[0].Days)
	}
	if result.Tiers[1].Days != 15 {
		t.Errorf("Tier 2 days = %d, want 15", result.Tiers[1].Days)
	}
	if result.DaysProcessed > 45 {
		t.Errorf("DaysProcessed = %d, must not exceed 45", result.DaysProcessed)
	}

	// 10000*8*30/36500 = 65.75, 10000*10*15/36500 = 41.10
	if result.Tiers[0].Interest.StringFixed(2) != "65.75" {
		t.Errorf("Tier 1 interest = %s, want 65.75", result.Tiers[0].Interest.StringFixed(2))
	}
	if result.Tiers[1].Interest.StringFixed(2) != "41.10" {
		t.Errorf("Tier 2 interest = %s, want 41.10", result.Tiers[1].Interest.StringFixed(2))
	}
	if result.TotalInterest.StringFixed(2) != "106.85" {
		t.Errorf("TotalInterest = %s, want 106.85", result.TotalInterest.StringFixed(2))
	}
}

func TestComputeInterest_VariableWithoutTiersFallsBackToFixed(t *testing.T) {
	principal := decimal.NewFromInt(10000)
	rate := decimal.NewFromInt(12)

	variable, err := ComputeInterest(principal, rate, 365, RateTypeVariable, InterestParams{})
	if err != nil {
		t.Fatalf("variable: %v", err)
	}
	fixed, err := ComputeInterest(principal, rate, 365, RateTypeFixed, InterestParams{})
	if err != nil {
		t.Fatalf("fixed: %v", err)
	}

	if !variable.TotalInterest.Equal(fixed.TotalInterest) {
		t.Errorf("variable without tiers = %s, want fixed result %s",
			variable.TotalInterest.StringFixed(2), fixed.TotalInterest.StringFixed(2))
	}
}

func TestComputeInterest_DecliningChargesOnOpeningBalance(t *testing.T) {
	// 1200 at 12% over 90 days, monthly periods: 3 payments of 400 principal.
	// Interest: 1200, 800, 400 opening balances at 12%/365 daily.
	result, err := ComputeInterest(decimal.NewFromInt(1200), decimal.NewFromInt(12), 90, RateTypeDeclining, InterestParams{
		PeriodUnit: FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(result.Periods) != 3 {
		t.Fatalf("Expected 3 periods, got %d", len(result.Periods))
	}
	if result.Periods[0].OpeningBalance.StringFixed(2) != "1200.00" {
		t.Errorf("Period 1 opening = %s, want 1200.00", result.Periods[0].OpeningBalance.StringFixed(2))
	}
	if result.Periods[1].OpeningBalance.StringFixed(2) != "800.00" {
		t.Errorf("Period 2 opening = %s, want 800.00", result.Periods[1].OpeningBalance.StringFixed(2))
	}
	if result.Periods[2].ClosingBalance.StringFixed(2) != "0.00" {
		t.Errorf("Final closing balance = %s, want 0.00", result.Periods[2].ClosingBalance.StringFixed(2))
	}

	// Declining interest must be less than fixed interest on the same terms
	fixed, err := ComputeInterest(decimal.NewFromInt(1200), decimal.NewFromInt(12), 90, RateTypeFixed, InterestParams{})
	if err != nil {
		t.Fatalf("fixed: %v", err)
	}
	if !result.TotalInterest.LessThan(fixed.TotalInterest) {
		t.Errorf("declining interest %s should be less than fixed %s",
			result.TotalInterest.StringFixed(2), fixed.TotalInterest.StringFixed(2))
	}
}

func TestComputeInterest_UnsupportedRateType(t *testing.T) {
	_, err := ComputeInterest(decimal.NewFromInt(1000), decimal.NewFromInt(10), 30, RateType("balloon"), InterestParams{})
	if !errors.Is(err, ErrUnsupportedRateType) {
		t.Errorf("Expected ErrUnsupportedRateType, got %v", err)
	}
}

func TestComputeInterest_InvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		termDays  int
	}{
		{"zero principal", decimal.Zero, decimal.NewFromInt(10), 30},
		{"negative principal", decimal.NewFromInt(-100), decimal.NewFromInt(10), 30},
		{"negative rate", decimal.NewFromInt(1000), decimal.NewFromInt(-1), 30},
		{"negative term", decimal.NewFromInt(1000), decimal.NewFromInt(10), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeInterest(tt.principal, tt.rate, tt.termDays, RateTypeFixed, InterestParams{})
			if !errors.Is(err, ErrInvalidLoanParameters) {
				t.Errorf("Expected ErrInvalidLoanParameters, got %v", err)
			}
		})
	}
}

func TestPaymentFrequency_InstallmentCount(t *testing.T) {
	tests := []struct {
		frequency PaymentFrequency
		termDays  int
		want      int
	}{
		{FrequencyDaily, 30, 30},
		{FrequencyWeekly, 30, 5},
		{FrequencyWeekly, 28, 4},
		{FrequencyMonthly, 30, 1},
		{FrequencyMonthly, 45, 2},
		{FrequencyMonthly, 365, 13},
	}

	for _, tt := range tests {
		got := tt.frequency.InstallmentCount(tt.termDays)
		if got != tt.want {
			t.Errorf("%s/%d days: installments = %d, want %d", tt.frequency, tt.termDays, got, tt.want)
		}
	}
}
