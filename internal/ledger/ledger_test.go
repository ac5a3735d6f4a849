package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s = %s, want %s", label, got.StringFixed(2), want)
	}
}

func TestCalculateIncome(t *testing.T) {
	tests := []struct {
		name           string
		gross          string
		vatRate        string
		commissionRate string
		wantErr        error
		vat            string
		net            string
		commission     string
		distributable  string
	}{
		{
			name: "vat inclusive gross with standard rates",
			gross: "1200", vatRate: "20", commissionRate: "15",
			vat: "200", net: "1000", commission: "150", distributable: "850",
		},
		{
			name: "rounding on both steps",
			gross: "1000", vatRate: "18", commissionRate: "10",
			vat: "152.54", net: "847.46", commission: "84.75", distributable: "762.71",
		},
		{
			name: "no vat and no commission",
			gross: "500", vatRate: "0", commissionRate: "0",
			vat: "0", net: "500", commission: "0", distributable: "500",
		},
		{
			name: "rates rounded to cents before use",
			gross: "1205.6", vatRate: "20.555", commissionRate: "14.999",
			vat: "205.6", net: "1000", commission: "150", distributable: "850",
		},
		{name: "zero gross", gross: "0", vatRate: "20", commissionRate: "15", wantErr: ErrNonPositiveAmount},
		{name: "sub-cent gross", gross: "0.004", vatRate: "20", commissionRate: "15", wantErr: ErrNonPositiveAmount},
		{name: "negative gross", gross: "-5", vatRate: "20", commissionRate: "15", wantErr: ErrNonPositiveAmount},
		{name: "vat above 100", gross: "100", vatRate: "101", commissionRate: "15", wantErr: ErrRateOutOfRange},
		{name: "negative commission", gross: "100", vatRate: "20", commissionRate: "-1", wantErr: ErrRateOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := CalculateIncome(d(tt.gross), d(tt.vatRate), d(tt.commissionRate))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertAmount(t, "vat", b.VAT, tt.vat)
			assertAmount(t, "net", b.Net, tt.net)
			assertAmount(t, "commission", b.Commission, tt.commission)
			assertAmount(t, "distributable", b.Distributable, tt.distributable)
			if !b.VAT.Add(b.Commission).Add(b.Distributable).Equal(b.Gross) {
				t.Errorf("vat + commission + distributable != gross")
			}
		})
	}
}

func shares(pcts ...string) []Share {
	out := make([]Share, 0, len(pcts))
	for i, p := range pcts {
		out = append(out, Share{Key: string(rune('a' + i)), Percentage: d(p)})
	}
	return out
}

func TestDistribute(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		shares  []Share
		want    []string
		wantErr error
	}{
		{name: "two representatives", amount: "850", shares: shares("60", "40"), want: []string{"510", "340"}},
		{name: "thirds already exact", amount: "100", shares: shares("33.33", "33.33", "33.34"), want: []string{"33.33", "33.33", "33.34"}},
		{name: "rounding residue goes to largest share", amount: "10", shares: shares("33.33", "33.33", "33.34"), want: []string{"3.33", "3.33", "3.34"}},
		{name: "partial allocation keeps remainder", amount: "1000", shares: shares("50", "30"), want: []string{"500", "300"}},
		{name: "shares above 100", amount: "100", shares: shares("60", "50"), wantErr: ErrSharesExceed100},
		{name: "zero share", amount: "100", shares: shares("0"), wantErr: ErrShareOutOfRange},
		{name: "no representatives", amount: "100", shares: nil, wantErr: ErrNoShares},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distribute(d(tt.amount), tt.shares)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d allocations, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				assertAmount(t, a.Key, a.Amount, tt.want[i])
			}
		})
	}
}

func TestSplitProportional(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		shares []Share
		want   []string
	}{
		{name: "normalizes partial shares", amount: "100", shares: shares("50", "30"), want: []string{"62.5", "37.5"}},
		{name: "equal weights with residue on first", amount: "100", shares: shares("1", "1", "1"), want: []string{"33.34", "33.33", "33.33"}},
		{name: "single share takes everything", amount: "42.42", shares: shares("25"), want: []string{"42.42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitProportional(d(tt.amount), tt.shares)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			total := decimal.Zero
			for i, a := range got {
				assertAmount(t, a.Key, a.Amount, tt.want[i])
				total = total.Add(a.Amount)
			}
			assertAmount(t, "total", total, tt.amount)
		})
	}
}

func TestCollectedPortion(t *testing.T) {
	tests := []struct {
		planned, gross, collected string
		want                      string
	}{
		{"510", "1200", "600", "255"},
		{"510", "1200", "1200", "510"},
		{"333.33", "1000", "333", "111"},
		{"510", "1200", "0", "0"},
		{"510", "0", "100", "0"},
	}
	for _, tt := range tests {
		got := CollectedPortion(d(tt.planned), d(tt.gross), d(tt.collected))
		assertAmount(t, "portion", got, tt.want)
	}
}

func TestCollectedPortionNeverDrifts(t *testing.T) {
	planned, gross := d("333.33"), d("1000")
	credited := decimal.Zero
	collected := decimal.Zero
	for _, step := range []string{"100", "250", "0.01", "333.33", "316.66"} {
		collected = collected.Add(d(step))
		target := CollectedPortion(planned, gross, collected)
		credited = credited.Add(target.Sub(credited))
	}
	if !collected.Equal(gross) {
		t.Fatalf("test steps should sum to gross, got %s", collected)
	}
	assertAmount(t, "credited", credited, "333.33")
}

func TestValidateCollection(t *testing.T) {
	if err := ValidateCollection(d("1000"), d("400"), d("600")); err != nil {
		t.Fatalf("exact remainder should be allowed: %v", err)
	}
	if err := ValidateCollection(d("1000"), d("400"), d("600.01")); !errors.Is(err, ErrOverCollection) {
		t.Fatalf("err = %v, want ErrOverCollection", err)
	}
	if err := ValidateCollection(d("1000"), d("0"), d("0")); !errors.Is(err, ErrNonPositiveAmount) {
		t.Fatalf("err = %v, want ErrNonPositiveAmount", err)
	}
	if err := ValidateCollection(d("1000"), d("0"), d("0.004")); !errors.Is(err, ErrNonPositiveAmount) {
		t.Fatalf("sub-cent: err = %v, want ErrNonPositiveAmount", err)
	}
}

func TestCalculateIncomeStoresRoundedRates(t *testing.T) {
	b, err := CalculateIncome(d("1205.604"), d("20.555"), d("14.999"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertAmount(t, "gross", b.Gross, "1205.6")
	assertAmount(t, "vat rate", b.VATRate, "20.56")
	assertAmount(t, "commission rate", b.CommissionRate, "15")
	// The stored vat must be reproducible from the stored rate.
	want := Round(b.Gross.Mul(b.VATRate).Div(hundred.Add(b.VATRate)))
	if !b.VAT.Equal(want) {
		t.Errorf("vat = %s, want %s", b.VAT, want)
	}
}

func bal(avail, debt, reserved string) Balance {
	return Balance{Available: d(avail), Debt: d(debt), Reserved: d(reserved)}
}

func assertBalance(t *testing.T, got Balance, avail, debt, reserved string) {
	t.Helper()
	assertAmount(t, "available", got.Available, avail)
	assertAmount(t, "debt", got.Debt, debt)
	assertAmount(t, "reserved", got.Reserved, reserved)
}

func TestBalanceOperations(t *testing.T) {
	tests := []struct {
		name    string
		start   Balance
		op      func(Balance) (Balance, error)
		wantErr error
		want    [3]string
	}{
		{
			name:  "credit pays debt first",
			start: bal("0", "30", "0"),
			op:    func(b Balance) (Balance, error) { return b.Credit(d("100")) },
			want:  [3]string{"70", "0", "0"},
		},
		{
			name:  "credit smaller than debt",
			start: bal("0", "100", "0"),
			op:    func(b Balance) (Balance, error) { return b.Credit(d("40")) },
			want:  [3]string{"0", "60", "0"},
		},
		{
			name:  "debit beyond available creates debt",
			start: bal("50", "0", "0"),
			op:    func(b Balance) (Balance, error) { return b.Debit(d("80")) },
			want:  [3]string{"0", "30", "0"},
		},
		{
			name:  "reserve moves available to reserved",
			start: bal("100", "0", "10"),
			op:    func(b Balance) (Balance, error) { return b.Reserve(d("60")) },
			want:  [3]string{"40", "0", "70"},
		},
		{
			name:    "reserve more than available",
			start:   bal("10", "0", "0"),
			op:      func(b Balance) (Balance, error) { return b.Reserve(d("20")) },
			wantErr: ErrInsufficientBalance,
		},
		{
			name:  "release returns reserved money",
			start: bal("0", "0", "20"),
			op:    func(b Balance) (Balance, error) { return b.Release(d("20")) },
			want:  [3]string{"20", "0", "0"},
		},
		{
			name:    "release more than reserved",
			start:   bal("0", "0", "5"),
			op:      func(b Balance) (Balance, error) { return b.Release(d("6")) },
			wantErr: ErrInsufficientReserve,
		},
		{
			name:  "settle pays out reserved money",
			start: bal("10", "0", "20"),
			op:    func(b Balance) (Balance, error) { return b.Settle(d("15")) },
			want:  [3]string{"10", "0", "5"},
		},
		{
			name:  "negative adjustment debits",
			start: bal("5", "0", "0"),
			op:    func(b Balance) (Balance, error) { return b.Adjust(d("-10")) },
			want:  [3]string{"0", "5", "0"},
		},
		{
			name:  "positive adjustment credits",
			start: bal("5", "0", "0"),
			op:    func(b Balance) (Balance, error) { return b.Adjust(d("2.5")) },
			want:  [3]string{"7.5", "0", "0"},
		},
		{
			name:    "zero adjustment",
			start:   bal("5", "0", "0"),
			op:      func(b Balance) (Balance, error) { return b.Adjust(decimal.Zero) },
			wantErr: ErrNonPositiveAmount,
		},
		{
			name:    "negative credit",
			start:   bal("5", "0", "0"),
			op:      func(b Balance) (Balance, error) { return b.Credit(d("-1")) },
			wantErr: ErrNonPositiveAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.start)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				assertBalance(t, got, tt.start.Available.String(), tt.start.Debt.String(), tt.start.Reserved.String())
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertBalance(t, got, tt.want[0], tt.want[1], tt.want[2])
		})
	}
}
