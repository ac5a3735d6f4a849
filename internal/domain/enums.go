package domain

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleAcademician Role = "academician"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAcademician:
		return true
	}
	return false
}

// IsStaff reports roles that manage finances for every project.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

type RepresentativeRole string

const (
	RepresentativeLeader     RepresentativeRole = "leader"
	RepresentativeResearcher RepresentativeRole = "researcher"
)

func (r RepresentativeRole) Valid() bool {
	return r == RepresentativeLeader || r == RepresentativeResearcher
}

type IncomeStatus string

const (
	IncomePending   IncomeStatus = "pending"
	IncomePartial   IncomeStatus = "partial"
	IncomeCollected IncomeStatus = "collected"
)

func (s IncomeStatus) Valid() bool {
	switch s {
	case IncomePending, IncomePartial, IncomeCollected:
		return true
	}
	return false
}

type ExpenseType string

const (
	// ExpenseShared is charged to the project representatives by share.
	ExpenseShared ExpenseType = "shared"
	// ExpenseTTO is borne by the technology transfer office.
	ExpenseTTO ExpenseType = "tto"
)

func (t ExpenseType) Valid() bool {
	return t == ExpenseShared || t == ExpenseTTO
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRejected  PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentApproved, PaymentCompleted, PaymentRejected:
		return true
	}
	return false
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentApproved, PaymentRejected},
	PaymentApproved: {PaymentCompleted, PaymentRejected},
}

// CanTransition reports whether a payment instruction may move from s to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Open reports statuses whose amount is still held in the reserved balance.
func (s PaymentStatus) Open() bool {
	return s == PaymentPending || s == PaymentApproved
}

type TransactionType string

const (
	TxIncome          TransactionType = "income"
	TxExpense         TransactionType = "expense"
	TxExpenseReversal TransactionType = "expense_reversal"
	TxPayment         TransactionType = "payment"
	TxPaymentReserve  TransactionType = "payment_reserve"
	TxPaymentRelease  TransactionType = "payment_release"
	TxAdjustment      TransactionType = "adjustment"
)

type ReportType string

const (
	ReportIncomes        ReportType = "incomes"
	ReportExpenses       ReportType = "expenses"
	ReportBalances       ReportType = "balances"
	ReportPayments       ReportType = "payments"
	ReportProjectSummary ReportType = "project_summary"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportIncomes, ReportExpenses, ReportBalances, ReportPayments, ReportProjectSummary:
		return true
	}
	return false
}
