package reports

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
)

func TestWriteXLSX(t *testing.T) {
	sh := &Sheet{
		Title:   "Incomes",
		Headers: []string{"Project", "Gross", "Status"},
		Rows: [][]any{
			{"P-001", decimal.RequireFromString("1200.00"), "collected"},
			{"P-002", decimal.RequireFromString("99.95"), "pending"},
		},
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sh); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Incomes")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Project" || rows[0][2] != "Status" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "P-001" || rows[2][2] != "pending" {
		t.Errorf("data rows = %v", rows[1:])
	}
	raw, err := f.GetCellValue("Incomes", "B3", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if raw != "99.95" {
		t.Errorf("B3 raw = %q, want 99.95", raw)
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Incomes", want: "Incomes"},
		{in: "P/01:[x]", want: "P01x"},
		{in: "", want: "Report"},
		{in: strings.Repeat("a", 40), want: strings.Repeat("a", 31)},
	}
	for _, tt := range tests {
		if got := sheetName(tt.in); got != tt.want {
			t.Errorf("sheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummarySheet(t *testing.T) {
	s := &ProjectSummary{
		Code:            "TTO-7",
		GrossAmount:     decimal.NewFromInt(1200),
		CollectedAmount: decimal.NewFromInt(600),
		Members: []MemberSummary{
			{Owner: domain.UserOwner(uuid.New()), FullName: "Ayşe Yılmaz", SharePercentage: decimal.NewFromInt(60)},
			{Owner: domain.PersonnelOwner(uuid.New()), FullName: "Mehmet Kaya", SharePercentage: decimal.NewFromInt(40)},
		},
	}
	sh := SummarySheet(s)
	if sh.Title != "TTO-7" {
		t.Errorf("title = %q", sh.Title)
	}
	if got := sh.Rows[1][1]; got != "personnel" {
		t.Errorf("second member owner type = %v", got)
	}
	if len(sh.Rows) != 2+6 {
		t.Errorf("rows = %d, want 8", len(sh.Rows))
	}
}
