// internal/pricing/pricing.go
package pricing

import (
	"github.com/shopspring/decimal"

	"garage-backoffice/internal/common/errors"
)

// VATRate is the fixed French VAT multiplier applied to all garage services.
var VATRate = decimal.NewFromFloat(1.20)

// ToTaxInclusive converts a pre-tax (HT) amount to a tax-inclusive (TTC)
// amount at the fixed 20% VAT rate, rounded half-up to 2 decimal places.
// Negative amounts are rejected.
func ToTaxInclusive(amountHT decimal.Decimal) (decimal.Decimal, error) {
	if amountHT.IsNegative() {
		return decimal.Zero, errors.NewInvalidAmountError(amountHT.String())
	}
	return amountHT.Mul(VATRate).Round(2), nil
}

// FormatEuro renders an amount with exactly 2 decimal places and the euro
// suffix used across the site.
func FormatEuro(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " €"
}
