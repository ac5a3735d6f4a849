package incomes

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
)

func TestStatusFor(t *testing.T) {
	gross := decimal.RequireFromString("1200.00")
	tests := []struct {
		collected string
		want      domain.IncomeStatus
	}{
		{"0", domain.IncomePending},
		{"0.01", domain.IncomePartial},
		{"1199.99", domain.IncomePartial},
		{"1200", domain.IncomeCollected},
	}
	for _, tt := range tests {
		if got := StatusFor(gross, decimal.RequireFromString(tt.collected)); got != tt.want {
			t.Errorf("StatusFor(%s) = %s, want %s", tt.collected, got, tt.want)
		}
	}
}
