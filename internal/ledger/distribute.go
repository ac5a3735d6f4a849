package ledger

import (
	"github.com/shopspring/decimal"
)

// Share is a percentage of an amount owed to one party.
type Share struct {
	Key        string
	Percentage decimal.Decimal
}

// Allocation is the amount computed for one share.
type Allocation struct {
	Key        string
	Percentage decimal.Decimal
	Amount     decimal.Decimal
}

// ValidateShares requires every share in (0, 100] and a total of at most 100.
func ValidateShares(shares []Share) error {
	total := decimal.Zero
	for _, s := range shares {
		if !s.Percentage.IsPositive() || s.Percentage.GreaterThan(hundred) {
			return ErrShareOutOfRange
		}
		total = total.Add(s.Percentage)
	}
	if total.GreaterThan(hundred) {
		return ErrSharesExceed100
	}
	return nil
}

// TotalShare sums the percentages.
func TotalShare(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Percentage)
	}
	return total
}

// Distribute gives each share round(amount * pct / 100). When the shares sum
// to less than 100 the remainder stays unallocated.
func Distribute(amount decimal.Decimal, shares []Share) ([]Allocation, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}
	if err := ValidateShares(shares); err != nil {
		return nil, err
	}
	out := make([]Allocation, 0, len(shares))
	for _, s := range shares {
		out = append(out, Allocation{Key: s.Key, Percentage: s.Percentage, Amount: Percent(amount, s.Percentage)})
	}
	if TotalShare(shares).Equal(hundred) {
		absorbResidue(amount, out)
	}
	return out, nil
}

// SplitProportional splits the whole amount by the relative weight of each
// share, so the parts always add up to amount exactly.
func SplitProportional(amount decimal.Decimal, shares []Share) ([]Allocation, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}
	if err := ValidateShares(shares); err != nil {
		return nil, err
	}
	total := TotalShare(shares)
	out := make([]Allocation, 0, len(shares))
	for _, s := range shares {
		part := Round(amount.Mul(s.Percentage).Div(total))
		out = append(out, Allocation{Key: s.Key, Percentage: s.Percentage, Amount: part})
	}
	absorbResidue(amount, out)
	return out, nil
}

// absorbResidue puts the rounding difference on the largest share; ties go to
// the first one.
func absorbResidue(amount decimal.Decimal, out []Allocation) {
	allocated := decimal.Zero
	largest := 0
	for i, a := range out {
		allocated = allocated.Add(a.Amount)
		if a.Percentage.GreaterThan(out[largest].Percentage) {
			largest = i
		}
	}
	if residue := amount.Sub(allocated); !residue.IsZero() {
		out[largest].Amount = out[largest].Amount.Add(residue)
	}
}
