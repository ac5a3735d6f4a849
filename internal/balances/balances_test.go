package balances

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bal(available, debt, reserved string) ledger.Balance {
	return ledger.Balance{Available: d(available), Debt: d(debt), Reserved: d(reserved)}
}

func TestOperate(t *testing.T) {
	tests := []struct {
		name    string
		start   ledger.Balance
		typ     domain.TransactionType
		amount  string
		want    ledger.Balance
		wantErr error
	}{
		{name: "income pays debt first", start: bal("0", "30", "0"), typ: domain.TxIncome, amount: "100", want: bal("70", "0", "0")},
		{name: "expense beyond available", start: bal("40", "0", "0"), typ: domain.TxExpense, amount: "100", want: bal("0", "60", "0")},
		{name: "expense reversal credits", start: bal("0", "60", "0"), typ: domain.TxExpenseReversal, amount: "100", want: bal("40", "0", "0")},
		{name: "reserve", start: bal("100", "0", "0"), typ: domain.TxPaymentReserve, amount: "80", want: bal("20", "0", "80")},
		{name: "reserve too much", start: bal("50", "0", "0"), typ: domain.TxPaymentReserve, amount: "80", want: bal("50", "0", "0"), wantErr: ledger.ErrInsufficientBalance},
		{name: "release", start: bal("20", "0", "80"), typ: domain.TxPaymentRelease, amount: "80", want: bal("100", "0", "0")},
		{name: "settle", start: bal("20", "0", "80"), typ: domain.TxPayment, amount: "80", want: bal("20", "0", "0")},
		{name: "settle without reserve", start: bal("20", "0", "0"), typ: domain.TxPayment, amount: "5", want: bal("20", "0", "0"), wantErr: ledger.ErrInsufficientReserve},
		{name: "negative adjustment", start: bal("10", "0", "0"), typ: domain.TxAdjustment, amount: "-25", want: bal("0", "15", "0")},
		{name: "zero adjustment", start: bal("10", "0", "0"), typ: domain.TxAdjustment, amount: "0", want: bal("10", "0", "0"), wantErr: ledger.ErrNonPositiveAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Operate(tt.start, tt.typ, d(tt.amount))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !got.Available.Equal(tt.want.Available) || !got.Debt.Equal(tt.want.Debt) || !got.Reserved.Equal(tt.want.Reserved) {
				t.Errorf("balance = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOperateUnknownType(t *testing.T) {
	if _, err := Operate(bal("1", "0", "0"), domain.TransactionType("gift"), d("1")); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
