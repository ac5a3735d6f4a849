package ledger

import "github.com/shopspring/decimal"

// Breakdown is the split of one invoice's gross amount.
type Breakdown struct {
	Gross          decimal.Decimal `json:"gross_amount"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	VAT            decimal.Decimal `json:"vat_amount"`
	Net            decimal.Decimal `json:"net_amount"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Commission     decimal.Decimal `json:"commission_amount"`
	Distributable  decimal.Decimal `json:"distributable_amount"`
}

// CalculateIncome splits a VAT-inclusive gross amount into VAT, TTO
// commission and the amount distributable to representatives:
//
//	vat           = gross * vatRate / (100 + vatRate)
//	net           = gross - vat
//	commission    = net * commissionRate / 100
//	distributable = net - commission
//
// Amounts and rates are rounded to two decimals first, as they are stored.
func CalculateIncome(gross, vatRate, commissionRate decimal.Decimal) (Breakdown, error) {
	gross = Round(gross)
	if !gross.IsPositive() {
		return Breakdown{}, ErrNonPositiveAmount
	}
	vatRate, commissionRate = RoundRate(vatRate), RoundRate(commissionRate)
	if !ValidRate(vatRate) || !ValidRate(commissionRate) {
		return Breakdown{}, ErrRateOutOfRange
	}
	vat := Round(gross.Mul(vatRate).Div(hundred.Add(vatRate)))
	net := gross.Sub(vat)
	commission := Percent(net, commissionRate)
	return Breakdown{
		Gross:          gross,
		VATRate:        vatRate,
		VAT:            vat,
		Net:            net,
		CommissionRate: commissionRate,
		Commission:     commission,
		Distributable:  net.Sub(commission),
	}, nil
}

// CollectedPortion returns how much of a planned amount is due once
// collectedTotal of gross has been collected. The value is cumulative, so
// callers credit CollectedPortion(...) minus what was already credited; the
// full planned amount is returned once the income is fully collected.
func CollectedPortion(planned, gross, collectedTotal decimal.Decimal) decimal.Decimal {
	if !gross.IsPositive() || !collectedTotal.IsPositive() {
		return decimal.Zero
	}
	if collectedTotal.GreaterThanOrEqual(gross) {
		return planned
	}
	return Round(planned.Mul(collectedTotal).Div(gross))
}

// ValidateCollection checks a new collection against the invoice gross. The
// amount is judged after rounding to cents.
func ValidateCollection(gross, alreadyCollected, amount decimal.Decimal) error {
	amount = Round(amount)
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if alreadyCollected.Add(amount).GreaterThan(gross) {
		return ErrOverCollection
	}
	return nil
}
