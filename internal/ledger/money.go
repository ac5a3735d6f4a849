// Package ledger holds the income distribution and balance arithmetic.
// All functions are pure; callers persist the results.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
)

var (
	ErrNonPositiveAmount   = domain.NewError(domain.ErrInvalid, "error.amount_must_be_positive")
	ErrRateOutOfRange      = domain.NewError(domain.ErrInvalid, "error.rate_out_of_range")
	ErrShareOutOfRange     = domain.NewError(domain.ErrInvalid, "error.share_out_of_range")
	ErrSharesExceed100     = domain.NewError(domain.ErrRule, "error.shares_exceed_100")
	ErrNoShares            = domain.NewError(domain.ErrRule, "error.no_representatives")
	ErrInsufficientBalance = domain.NewError(domain.ErrRule, "error.insufficient_balance")
	ErrInsufficientReserve = domain.NewError(domain.ErrRule, "error.insufficient_reserve")
	ErrOverCollection      = domain.NewError(domain.ErrRule, "error.collection_exceeds_gross")
)

// Scale is the number of fractional digits kept for money.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round rounds a money value half away from zero to two decimals.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// RoundRate rounds a percentage to the two decimals of a NUMERIC(5,2) column.
func RoundRate(r decimal.Decimal) decimal.Decimal {
	return r.Round(Scale)
}

// ValidRate reports whether r is a percentage in [0, 100].
func ValidRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(hundred)
}

// Percent returns round(amount * rate / 100).
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate).Div(hundred))
}

// Sum adds the values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
