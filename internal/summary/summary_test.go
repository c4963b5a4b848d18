package summary

import (
	"math"
	"testing"
	"time"

	"taskfin/internal/core"
)

func ptr(s string) *string { return &s }

func money(units int64) core.Money { return core.Money{Cents: units * 100} }

func TestBalanceBankScenario(t *testing.T) {
	bank := core.Account{ID: "bank", Name: "Bank", Type: core.AccountBank, OpeningBalance: money(1000)}
	txs := []core.Transaction{
		{ID: "1", AccountID: "bank", Type: core.TxIncome, Amount: money(500), Status: core.TxCleared},
		{ID: "2", AccountID: "bank", Type: core.TxExpense, Amount: money(-200), Status: core.TxPending},
	}
	if got := Balance(bank, txs); got != money(1500) {
		t.Fatalf("Balance() = %s, want 1500.00", got)
	}
}

func TestBalanceProperties(t *testing.T) {
	acc := core.Account{ID: "a", OpeningBalance: money(250)}

	if got := Balance(acc, nil); got != acc.OpeningBalance {
		t.Fatalf("no transactions: got %s", got)
	}

	income := core.Transaction{AccountID: "a", Type: core.TxIncome, Amount: money(40), Status: core.TxCleared}
	if got := Balance(acc, []core.Transaction{income}); got != money(290) {
		t.Fatalf("one income: got %s", got)
	}

	for _, typ := range []core.TransactionType{core.TxIncome, core.TxExpense, core.TxTransfer} {
		pending := core.Transaction{AccountID: "a", DestinationAccountID: ptr("b"), Type: typ, Amount: money(-999), Status: core.TxPending}
		if got := Balance(acc, []core.Transaction{income, pending}); got != money(290) {
			t.Fatalf("pending %s changed balance: %s", typ, got)
		}
	}
}

func TestBalanceTransfers(t *testing.T) {
	from := core.Account{ID: "from", OpeningBalance: money(100)}
	to := core.Account{ID: "to", OpeningBalance: money(0)}

	t.Run("single record with destination", func(t *testing.T) {
		txs := []core.Transaction{
			{AccountID: "from", DestinationAccountID: ptr("to"), Type: core.TxTransfer, Amount: money(30), Status: core.TxCleared},
		}
		if got := Balance(from, txs); got != money(70) {
			t.Fatalf("from = %s", got)
		}
		if got := Balance(to, txs); got != money(30) {
			t.Fatalf("to = %s", got)
		}
	})

	t.Run("linked legs", func(t *testing.T) {
		txs := []core.Transaction{
			{AccountID: "from", DestinationAccountID: ptr("to"), Type: core.TxTransfer, Amount: money(-30), Status: core.TxCleared, Meta: core.TransferMeta("L", core.TransferOut)},
			{AccountID: "to", DestinationAccountID: ptr("from"), Type: core.TxTransfer, Amount: money(30), Status: core.TxCleared, Meta: core.TransferMeta("L", core.TransferIn)},
		}
		if got := Balance(from, txs); got != money(70) {
			t.Fatalf("from = %s", got)
		}
		if got := Balance(to, txs); got != money(30) {
			t.Fatalf("to = %s", got)
		}
	})
}

func TestBalancesOrder(t *testing.T) {
	accounts := []core.Account{
		{ID: "1", Name: "Zeta"},
		{ID: "2", Name: "alpha", Archived: true},
		{ID: "3", Name: "Beta"},
	}
	got := Balances(accounts, nil)
	want := []string{"3", "1", "2"}
	for i, row := range got {
		if row.Account.ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, row.Account.ID, want[i])
		}
	}
}

func TestBudgetScenario(t *testing.T) {
	b := core.Budget{CategoryID: "food", Planned: money(1000), YearMonth: "2026-04", AlertThreshold: 80}
	txs := []core.Transaction{
		{Date: core.NewDate(2026, 4, 3), Type: core.TxExpense, CategoryID: ptr("food"), Amount: money(-500), Status: core.TxCleared},
		{Date: core.NewDate(2026, 4, 20), Type: core.TxExpense, CategoryID: ptr("food"), Amount: money(-350), Status: core.TxCleared},
		// ignored: pending, other month, other category, income
		{Date: core.NewDate(2026, 4, 21), Type: core.TxExpense, CategoryID: ptr("food"), Amount: money(-400), Status: core.TxPending},
		{Date: core.NewDate(2026, 5, 1), Type: core.TxExpense, CategoryID: ptr("food"), Amount: money(-400), Status: core.TxCleared},
		{Date: core.NewDate(2026, 4, 1), Type: core.TxExpense, CategoryID: ptr("fun"), Amount: money(-400), Status: core.TxCleared},
		{Date: core.NewDate(2026, 4, 1), Type: core.TxIncome, CategoryID: ptr("food"), Amount: money(400), Status: core.TxCleared},
	}
	got := Budget(b, txs)
	if got.Spent != money(850) {
		t.Fatalf("spent = %s, want 850", got.Spent)
	}
	if math.Abs(got.Percentage-85) > 1e-9 {
		t.Fatalf("percentage = %v, want 85", got.Percentage)
	}
	if got.Status != BudgetWarning {
		t.Fatalf("status = %s, want warning", got.Status)
	}
}

func TestBudgetStatusThresholds(t *testing.T) {
	spend := func(units int64) []core.Transaction {
		return []core.Transaction{{Date: core.NewDate(2026, 1, 5), Type: core.TxExpense, CategoryID: ptr("c"), Amount: money(-units), Status: core.TxCleared}}
	}
	tests := []struct {
		name      string
		planned   int64
		threshold int
		spent     int64
		wantPct   float64
		want      BudgetState
	}{
		{"under threshold", 100, 80, 79, 79, BudgetOK},
		{"at threshold", 100, 80, 80, 80, BudgetWarning},
		{"exactly full", 100, 80, 100, 100, BudgetWarning},
		{"over", 100, 80, 101, 101, BudgetExceeded},
		{"default threshold", 100, 0, 80, 80, BudgetWarning},
		{"planned zero", 0, 80, 500, 0, BudgetOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := core.Budget{CategoryID: "c", Planned: money(tt.planned), YearMonth: "2026-01", AlertThreshold: tt.threshold}
			got := Budget(b, spend(tt.spent))
			if math.IsNaN(got.Percentage) || math.IsInf(got.Percentage, 0) {
				t.Fatalf("percentage not finite: %v", got.Percentage)
			}
			if math.Abs(got.Percentage-tt.wantPct) > 1e-9 || got.Status != tt.want {
				t.Fatalf("got %v%% %s, want %v%% %s", got.Percentage, got.Status, tt.wantPct, tt.want)
			}
		})
	}
}

func TestBudgetsFiltersByMonth(t *testing.T) {
	budgets := []core.Budget{
		{ID: "1", CategoryID: "c", YearMonth: "2026-01"},
		{ID: "2", CategoryID: "c", YearMonth: "2026-02"},
	}
	if got := Budgets(budgets, nil, "2026-02"); len(got) != 1 || got[0].Budget.ID != "2" {
		t.Fatalf("unexpected budgets %+v", got)
	}
	if got := Budgets(budgets, nil, ""); len(got) != 2 {
		t.Fatalf("expected all budgets, got %d", len(got))
	}
}

func TestTaskProgress(t *testing.T) {
	if got := TaskProgress(nil); got != (Progress{}) {
		t.Fatalf("empty progress = %+v", got)
	}
	tasks := []core.Task{
		{ListID: "a", Status: core.TaskDone},
		{ListID: "a", Status: core.TaskPending},
		{ListID: "a", Status: core.TaskPending},
		{ListID: "b", Status: core.TaskDone},
	}
	if got := TaskProgress(tasks[:3]); got.Percentage != 33 || got.Completed != 1 || got.Total != 3 {
		t.Fatalf("progress = %+v", got)
	}
	byList := TaskProgressByList([]core.TaskList{{ID: "a"}, {ID: "b"}, {ID: "empty"}}, tasks)
	if byList[1].Progress.Percentage != 100 || byList[2].Progress.Total != 0 {
		t.Fatalf("by list = %+v", byList)
	}
}

func TestUpcomingRecurrences(t *testing.T) {
	now := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	rec := func(id string, y, m, d int, active bool) core.Recurrence {
		return core.Recurrence{ID: id, NextOccurrence: core.NewDate(y, m, d), Active: active}
	}
	recs := []core.Recurrence{
		rec("late", 2026, 6, 25, true),
		rec("past", 2026, 5, 31, true),
		rec("inactive", 2026, 6, 2, false),
		rec("today", 2026, 6, 1, true),
		rec("edge", 2026, 7, 1, true),
		rec("beyond", 2026, 7, 2, true),
		rec("tie", 2026, 6, 25, true),
	}

	got := UpcomingRecurrences(recs, now, 0)
	want := []string{"today", "late", "tie", "edge"}
	if len(got) != len(want) {
		t.Fatalf("got %d recurrences, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, want[i])
		}
	}

	if got := UpcomingRecurrences(recs, now, 1); len(got) != 1 || got[0].ID != "today" {
		t.Fatalf("1-day window: %+v", got)
	}
}

func TestOverviewRollsUpChildren(t *testing.T) {
	categories := []core.Category{
		{ID: "home", Name: "Home", Type: core.CategoryExpense},
		{ID: "rent", Name: "Rent", Type: core.CategoryExpense, ParentID: ptr("home")},
		{ID: "food", Name: "Food", Type: core.CategoryExpense},
	}
	d := core.NewDate(2026, 3, 10)
	txs := []core.Transaction{
		{Date: d, Type: core.TxExpense, CategoryID: ptr("rent"), Amount: money(-700), Status: core.TxCleared},
		{Date: d, Type: core.TxExpense, CategoryID: ptr("home"), Amount: money(-50), Status: core.TxCleared},
		{Date: d, Type: core.TxExpense, CategoryID: ptr("food"), Amount: money(-200), Status: core.TxCleared},
		{Date: d, Type: core.TxExpense, Amount: money(-5), Status: core.TxCleared},
		{Date: d, Type: core.TxIncome, Amount: money(2000), Status: core.TxCleared},
		{Date: d, Type: core.TxTransfer, DestinationAccountID: ptr("x"), Amount: money(300), Status: core.TxCleared},
		{Date: d, Type: core.TxExpense, CategoryID: ptr("food"), Amount: money(-99), Status: core.TxPending},
	}
	ov := Overview(txs, categories, 2026, 3)
	if ov.Income != money(2000) || ov.Expense != money(955) || ov.Net != money(1045) {
		t.Fatalf("totals = %+v", ov)
	}
	want := []CategoryAmount{
		{CategoryID: "home", Name: "Home", Amount: money(750)},
		{CategoryID: "food", Name: "Food", Amount: money(200)},
		{CategoryID: "", Name: UncategorizedName, Amount: money(5)},
	}
	if len(ov.ByCategory) != len(want) {
		t.Fatalf("by category = %+v", ov.ByCategory)
	}
	for i := range want {
		if ov.ByCategory[i] != want[i] {
			t.Fatalf("position %d: got %+v, want %+v", i, ov.ByCategory[i], want[i])
		}
	}
}
