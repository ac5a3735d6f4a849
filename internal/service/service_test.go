package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mikbal34/muhasebe-sub003/internal/balances"
	"github.com/Mikbal34/muhasebe-sub003/internal/contracts"
	"github.com/Mikbal34/muhasebe-sub003/internal/db/testutil"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/expenses"
	"github.com/Mikbal34/muhasebe-sub003/internal/incomes"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
	"github.com/Mikbal34/muhasebe-sub003/internal/payments"
	"github.com/Mikbal34/muhasebe-sub003/internal/personnel"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/reports"
	"github.com/Mikbal34/muhasebe-sub003/internal/storage"
	"github.com/Mikbal34/muhasebe-sub003/internal/users"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

const testIBAN = "TR330006100519786457841326"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	pg        *pgxpool.Pool
	users     *users.Repo
	personnel *personnel.Repo
	projects  *projects.Repo
	balances  *balances.Repo
	incomes   *IncomeService
	expenses  *ExpenseService
	payments  *PaymentService
	contracts *ContractService
	adjust    *BalanceService
	reports   *ReportService

	admin     uuid.UUID
	academic  domain.Owner
	assistant domain.Owner
	project   *projects.Project
}

// newFixture builds the services over a fresh schema and a project split
// 60/40 between an academician and an external person.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	pg := testutil.OpenMigratedPool(t)
	ctx := context.Background()
	logger := zap.NewNop()

	f := &fixture{
		pg:        pg,
		users:     users.NewRepo(pg),
		personnel: personnel.NewRepo(pg),
		projects:  projects.NewRepo(pg),
		balances:  balances.NewRepo(pg),
	}
	ir := incomes.NewRepo(pg)
	f.incomes = NewIncomeService(pg, ir, f.projects, f.balances, nil, logger)
	f.expenses = NewExpenseService(pg, expenses.NewRepo(pg), f.projects, f.balances, nil, logger)
	f.payments = NewPaymentService(pg, payments.NewRepo(pg), f.balances, f.users, f.personnel, nil, logger)
	f.contracts = NewContractService(pg, contracts.NewRepo(pg), f.projects, nil, logger)
	f.adjust = NewBalanceService(pg, f.balances, nil, logger)
	f.reports = NewReportService(reports.NewRepo(pg), storage.NewLocal(t.TempDir()), nil, logger)

	admin, err := f.users.Create(ctx, users.CreateParams{
		Email: "admin@example.edu", FullName: "Admin", Role: domain.RoleAdmin, PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	f.admin = admin.ID

	iban := testIBAN
	u, err := f.users.Create(ctx, users.CreateParams{
		Email: "ayse@example.edu", FullName: "Ayse Yilmaz", Role: domain.RoleAcademician,
		PasswordHash: "x", IBAN: &iban,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	p, err := f.personnel.Create(ctx, personnel.CreateParams{FullName: "Mehmet Kaya"})
	if err != nil {
		t.Fatalf("create personnel: %v", err)
	}
	f.academic = domain.UserOwner(u.ID)
	f.assistant = domain.PersonnelOwner(p.ID)

	end := util.NewDate(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
	f.project, err = f.projects.Create(ctx, projects.CreateParams{
		Code: "TTO-2026-001", Name: "Sensor network", Budget: d("100000"),
		StartDate:      util.NewDate(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:        &end,
		CommissionRate: d("15"),
		VATRate:        d("20"),
	}, []projects.RepresentativeInput{
		{Owner: f.academic, SharePercentage: d("60"), Role: domain.RepresentativeLeader},
		{Owner: f.assistant, SharePercentage: d("40"), Role: domain.RepresentativeResearcher},
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return f
}

func (f *fixture) balance(t *testing.T, owner domain.Owner) *balances.Balance {
	t.Helper()
	b, err := f.balances.FindByOwner(context.Background(), owner)
	if err != nil {
		t.Fatalf("balance %s: %v", owner, err)
	}
	return b
}

func assertAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s = %s, want %s", label, got.StringFixed(2), want)
	}
}

func TestIncomeCollectionDistributesByShare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inc, err := f.incomes.Create(ctx, CreateIncome{
		ProjectID:   f.project.ID,
		InvoiceDate: util.Today(),
		GrossAmount: d("1200"),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	assertAmount(t, "vat", inc.VATAmount, "200")
	assertAmount(t, "commission", inc.CommissionAmount, "150")
	assertAmount(t, "distributable", inc.DistributableAmount, "850")
	if inc.Status != domain.IncomePending || len(inc.Distributions) != 2 {
		t.Fatalf("status=%s distributions=%d", inc.Status, len(inc.Distributions))
	}

	inc, err = f.incomes.Collect(ctx, inc.ID, d("600"), util.Today(), nil)
	if err != nil {
		t.Fatalf("first collection: %v", err)
	}
	if inc.Status != domain.IncomePartial {
		t.Errorf("status = %s, want partial", inc.Status)
	}
	assertAmount(t, "academic after half", f.balance(t, f.academic).Available, "255")
	assertAmount(t, "assistant after half", f.balance(t, f.assistant).Available, "170")

	inc, err = f.incomes.Collect(ctx, inc.ID, d("600"), util.Today(), nil)
	if err != nil {
		t.Fatalf("second collection: %v", err)
	}
	if inc.Status != domain.IncomeCollected {
		t.Errorf("status = %s, want collected", inc.Status)
	}
	assertAmount(t, "academic", f.balance(t, f.academic).Available, "510")
	assertAmount(t, "assistant", f.balance(t, f.assistant).Available, "340")

	booked := decimal.Zero
	for _, c := range inc.Commissions {
		booked = booked.Add(c.Amount)
	}
	assertAmount(t, "booked commission", booked, "150")

	if _, err := f.incomes.Collect(ctx, inc.ID, d("0.01"), util.Today(), nil); !errors.Is(err, ledger.ErrOverCollection) {
		t.Errorf("over collection err = %v", err)
	}
	if err := f.incomes.Delete(ctx, inc.ID); !errors.Is(err, incomes.ErrCollected) {
		t.Errorf("delete collected income err = %v", err)
	}
}

func TestIncomeRequiresActiveProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.projects.SetStatus(ctx, f.project.ID, domain.ProjectCompleted); err != nil {
		t.Fatal(err)
	}
	_, err := f.incomes.Create(ctx, CreateIncome{ProjectID: f.project.ID, InvoiceDate: util.Today(), GrossAmount: d("100")})
	if !errors.Is(err, ErrProjectInactive) {
		t.Fatalf("err = %v, want ErrProjectInactive", err)
	}
}

func TestIncomeRequiresRepresentatives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.projects.Create(ctx, projects.CreateParams{
		Code: "TTO-2026-050", Name: "Unstaffed", Budget: d("0"),
		StartDate:      util.Today(),
		CommissionRate: d("15"),
		VATRate:        d("20"),
	}, nil)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	_, err = f.incomes.Create(ctx, CreateIncome{ProjectID: p.ID, InvoiceDate: util.Today(), GrossAmount: d("100")})
	if !errors.Is(err, ledger.ErrNoShares) {
		t.Fatalf("err = %v, want ErrNoShares", err)
	}
}

func TestSubCentAmountsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.incomes.Create(ctx, CreateIncome{ProjectID: f.project.ID, InvoiceDate: util.Today(), GrossAmount: d("0.004")})
	if !errors.Is(err, ledger.ErrNonPositiveAmount) {
		t.Errorf("income err = %v, want ErrNonPositiveAmount", err)
	}
	_, err = f.expenses.Create(ctx, CreateExpense{
		ProjectID: f.project.ID, Amount: d("0.004"), ExpenseDate: util.Today(), ExpenseType: domain.ExpenseShared,
	})
	if !errors.Is(err, ledger.ErrNonPositiveAmount) {
		t.Errorf("expense err = %v, want ErrNonPositiveAmount", err)
	}
	if _, err := f.payments.Create(ctx, CreatePayment{Owner: f.academic, Amount: d("0.001")}); !errors.Is(err, ledger.ErrNonPositiveAmount) {
		t.Errorf("payment err = %v, want ErrNonPositiveAmount", err)
	}

	inc, err := f.incomes.Create(ctx, CreateIncome{ProjectID: f.project.ID, InvoiceDate: util.Today(), GrossAmount: d("100")})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if _, err := f.incomes.Collect(ctx, inc.ID, d("0.004"), util.Today(), nil); !errors.Is(err, ledger.ErrNonPositiveAmount) {
		t.Errorf("collect err = %v, want ErrNonPositiveAmount", err)
	}
}

// Two projects list the same people with opposite share order. Collections on
// both must not deadlock on the shared balances.
func TestConcurrentCollectionsAcrossProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.projects.Create(ctx, projects.CreateParams{
		Code: "TTO-2026-002", Name: "Reversed shares", Budget: d("0"),
		StartDate:      util.Today(),
		CommissionRate: d("15"),
		VATRate:        d("20"),
	}, []projects.RepresentativeInput{
		{Owner: f.academic, SharePercentage: d("30"), Role: domain.RepresentativeResearcher},
		{Owner: f.assistant, SharePercentage: d("70"), Role: domain.RepresentativeLeader},
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	var ids []uuid.UUID
	for _, pid := range []uuid.UUID{f.project.ID, other.ID} {
		inc, err := f.incomes.Create(ctx, CreateIncome{ProjectID: pid, InvoiceDate: util.Today(), GrossAmount: d("1200")})
		if err != nil {
			t.Fatalf("create income: %v", err)
		}
		ids = append(ids, inc.ID)
	}

	for i := 0; i < 10; i++ {
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range ids {
			id := id
			g.Go(func() error {
				_, err := f.incomes.Collect(gctx, id, d("60"), util.Today(), nil)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
	}

	// Half of each income is collected: 850/2 split 60/40 plus 850/2 split 30/70.
	assertAmount(t, "academic", f.balance(t, f.academic).Available, "382.5")
	assertAmount(t, "assistant", f.balance(t, f.assistant).Available, "467.5")
}

func TestSharedExpenseDebitsAndReverses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.expenses.Create(ctx, CreateExpense{
		ProjectID: f.project.ID, Amount: d("100"), ExpenseDate: util.Today(), ExpenseType: domain.ExpenseShared,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	// Empty balances turn the debit into debt.
	assertAmount(t, "academic debt", f.balance(t, f.academic).Debt, "60")
	assertAmount(t, "assistant debt", f.balance(t, f.assistant).Debt, "40")

	if err := f.expenses.Delete(ctx, e.ID, nil); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	b := f.balance(t, f.academic)
	assertAmount(t, "academic debt after reversal", b.Debt, "0")
	assertAmount(t, "academic available after reversal", b.Available, "0")
}

func TestTTOExpenseLeavesBalances(t *testing.T) {
	f := newFixture(t)
	_, err := f.expenses.Create(context.Background(), CreateExpense{
		ProjectID: f.project.ID, Amount: d("75"), ExpenseDate: util.Today(), ExpenseType: domain.ExpenseTTO,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	assertAmount(t, "academic debt", f.balance(t, f.academic).Debt, "0")
}

func TestPaymentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin
	if _, err := f.adjust.Adjust(ctx, f.balance(t, f.academic).ID, d("500"), "opening", admin); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	if _, err := f.payments.Create(ctx, CreatePayment{Owner: f.academic, Amount: d("600")}); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("over-reserve err = %v", err)
	}
	if _, err := f.payments.Create(ctx, CreatePayment{Owner: f.assistant, Amount: d("1")}); !errors.Is(err, ErrIBANRequired) {
		t.Fatalf("missing iban err = %v", err)
	}

	pi, err := f.payments.Create(ctx, CreatePayment{Owner: f.academic, Amount: d("400")})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if pi.IBAN != testIBAN || pi.Status != domain.PaymentPending || pi.InstructionNumber == "" {
		t.Fatalf("unexpected instruction %+v", pi)
	}
	b := f.balance(t, f.academic)
	assertAmount(t, "available", b.Available, "100")
	assertAmount(t, "reserved", b.Reserved, "400")

	if _, err := f.payments.SetStatus(ctx, pi.ID, domain.PaymentCompleted, "", admin); !errors.Is(err, payments.ErrInvalidTransition) {
		t.Fatalf("pending -> completed err = %v", err)
	}
	if _, err := f.payments.SetStatus(ctx, pi.ID, domain.PaymentApproved, "", admin); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.payments.SetStatus(ctx, pi.ID, domain.PaymentCompleted, "paid", admin); err != nil {
		t.Fatalf("complete: %v", err)
	}
	b = f.balance(t, f.academic)
	assertAmount(t, "available after settle", b.Available, "100")
	assertAmount(t, "reserved after settle", b.Reserved, "0")

	rej, err := f.payments.Create(ctx, CreatePayment{Owner: f.academic, Amount: d("100")})
	if err != nil {
		t.Fatalf("create second payment: %v", err)
	}
	if _, err := f.payments.SetStatus(ctx, rej.ID, domain.PaymentRejected, "wrong iban", admin); err != nil {
		t.Fatalf("reject: %v", err)
	}
	assertAmount(t, "available after release", f.balance(t, f.academic).Available, "100")
}

func TestSupplementaryContractApplyAndRevert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tooEarly := util.NewDate(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if _, err := f.contracts.Create(ctx, f.project.ID, CreateContract{AmendmentDate: util.Today(), NewEndDate: &tooEarly}); !errors.Is(err, ErrEndNotExtended) {
		t.Fatalf("err = %v, want ErrEndNotExtended", err)
	}
	if _, err := f.contracts.Create(ctx, f.project.ID, CreateContract{AmendmentDate: util.Today()}); !errors.Is(err, ErrAmendmentEmpty) {
		t.Fatalf("err = %v, want ErrAmendmentEmpty", err)
	}

	newEnd := util.NewDate(time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC))
	extra := d("25000")
	first, err := f.contracts.Create(ctx, f.project.ID, CreateContract{AmendmentDate: util.Today(), NewEndDate: &newEnd})
	if err != nil {
		t.Fatalf("first contract: %v", err)
	}
	second, err := f.contracts.Create(ctx, f.project.ID, CreateContract{AmendmentDate: util.Today(), AdditionalBudget: &extra})
	if err != nil {
		t.Fatalf("second contract: %v", err)
	}
	p, _ := f.projects.FindByID(ctx, f.project.ID)
	assertAmount(t, "budget", p.Budget, "125000")
	if p.EndDate == nil || !p.EndDate.Equal(newEnd.Time) {
		t.Errorf("end date = %v, want %s", p.EndDate, newEnd)
	}

	if err := f.contracts.Delete(ctx, first.ID); !errors.Is(err, ErrContractNotLatest) {
		t.Fatalf("delete older err = %v", err)
	}
	if err := f.contracts.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete latest: %v", err)
	}
	if err := f.contracts.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete first: %v", err)
	}
	p, _ = f.projects.FindByID(ctx, f.project.ID)
	assertAmount(t, "budget restored", p.Budget, "100000")
	if p.EndDate == nil || p.EndDate.String() != "2026-12-31" {
		t.Errorf("end date restored = %v", p.EndDate)
	}
}

func TestGenerateReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.incomes.Create(ctx, CreateIncome{
		ProjectID: f.project.ID, InvoiceDate: util.Today(), GrossAmount: d("1200"), Collected: ptr(d("1200")),
	}); err != nil {
		t.Fatal(err)
	}

	rep, err := f.reports.Generate(ctx, domain.ReportIncomes, reports.Params{ProjectID: &f.project.ID}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.RowCount != 1 {
		t.Errorf("row count = %d, want 1", rep.RowCount)
	}
	if _, _, err := f.reports.Open(ctx, rep.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.reports.Delete(ctx, rep.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := f.reports.Open(ctx, rep.ID); !errors.Is(err, reports.ErrNotFound) {
		t.Errorf("open deleted err = %v", err)
	}

	if _, err := f.reports.Generate(ctx, domain.ReportProjectSummary, reports.Params{}, nil); !errors.Is(err, domain.ErrInvalid) {
		t.Errorf("summary without project err = %v", err)
	}

	dash, err := f.reports.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.ActiveProjects != 1 {
		t.Errorf("active projects = %d", dash.ActiveProjects)
	}
}

func ptr[T any](v T) *T { return &v }
