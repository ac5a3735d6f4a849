package ledger

import "github.com/shopspring/decimal"

// Balance is the running state of one owner's account.
type Balance struct {
	Available decimal.Decimal `json:"available_amount"`
	Debt      decimal.Decimal `json:"debt_amount"`
	Reserved  decimal.Decimal `json:"reserved_amount"`
}

// Net is available minus debt; reserved money is already promised.
func (b Balance) Net() decimal.Decimal {
	return b.Available.Sub(b.Debt)
}

// Credit adds money, paying down debt first.
func (b Balance) Credit(amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, ErrNonPositiveAmount
	}
	if b.Debt.IsPositive() {
		paid := decimal.Min(b.Debt, amount)
		b.Debt = b.Debt.Sub(paid)
		amount = amount.Sub(paid)
	}
	b.Available = b.Available.Add(amount)
	return b, nil
}

// Debit takes money from available; whatever is missing becomes debt.
func (b Balance) Debit(amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, ErrNonPositiveAmount
	}
	taken := decimal.Min(b.Available, amount)
	b.Available = b.Available.Sub(taken)
	b.Debt = b.Debt.Add(amount.Sub(taken))
	return b, nil
}

// Reserve moves money from available to reserved for a payment instruction.
func (b Balance) Reserve(amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, ErrNonPositiveAmount
	}
	if b.Available.LessThan(amount) {
		return b, ErrInsufficientBalance
	}
	b.Available = b.Available.Sub(amount)
	b.Reserved = b.Reserved.Add(amount)
	return b, nil
}

// Release returns reserved money to available after a rejected payment.
func (b Balance) Release(amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, ErrNonPositiveAmount
	}
	if b.Reserved.LessThan(amount) {
		return b, ErrInsufficientReserve
	}
	b.Reserved = b.Reserved.Sub(amount)
	b.Available = b.Available.Add(amount)
	return b, nil
}

// Settle removes reserved money once the payment has been made.
func (b Balance) Settle(amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, ErrNonPositiveAmount
	}
	if b.Reserved.LessThan(amount) {
		return b, ErrInsufficientReserve
	}
	b.Reserved = b.Reserved.Sub(amount)
	return b, nil
}

// Adjust applies a signed manual correction.
func (b Balance) Adjust(amount decimal.Decimal) (Balance, error) {
	switch amount.Sign() {
	case 1:
		return b.Credit(amount)
	case -1:
		return b.Debit(amount.Neg())
	}
	return b, ErrNonPositiveAmount
}
