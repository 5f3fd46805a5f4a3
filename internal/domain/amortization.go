package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// CalculateInstallment computes the periodic payment that fully amortizes a
// reducing-balance loan over numberOfInstallments periods.
//
// monthlyRate = annualRatePercent / 12 / 100
// installment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate degrades to a linear split of the principal, which also avoids
// the divide-by-zero in the annuity formula. The power term uses float64;
// monetary arithmetic stays decimal.
func CalculateInstallment(principal, annualRatePercent decimal.Decimal, numberOfInstallments int) decimal.Decimal {
	if numberOfInstallments <= 0 || principal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	monthlyRate := annualRatePercent.InexactFloat64() / 12.0 / 100.0
	if monthlyRate == 0 {
		return principal.Div(decimal.NewFromInt(int64(numberOfInstallments))).Round(2)
	}

	n := float64(numberOfInstallments)
	factor := math.Pow(1+monthlyRate, n)
	installment := principal.InexactFloat64() * monthlyRate * factor / (factor - 1)
	return decimal.NewFromFloat(installment).Round(2)
}
