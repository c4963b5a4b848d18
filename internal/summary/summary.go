// Package summary reduces record collections to dashboard numbers: account
// balances, budget consumption, task progress, upcoming recurrences and
// monthly totals. All functions are pure.
package summary

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"taskfin/internal/core"
	"taskfin/internal/filter"
)

// DefaultUpcomingDays is the forward window used when none is given.
const DefaultUpcomingDays = 30

type BudgetState string

const (
	BudgetOK       BudgetState = "ok"
	BudgetWarning  BudgetState = "warning"
	BudgetExceeded BudgetState = "exceeded"
)

type (
	// AccountBalance pairs an account with its computed balance.
	AccountBalance struct {
		Account core.Account `json:"account"`
		Balance core.Money   `json:"balance"`
	}

	BudgetStatus struct {
		Budget     core.Budget `json:"budget"`
		Spent      core.Money  `json:"spent"`
		Percentage float64     `json:"percentage"`
		Status     BudgetState `json:"status"`
	}

	Progress struct {
		Completed  int `json:"completed"`
		Total      int `json:"total"`
		Percentage int `json:"percentage"`
	}

	ListProgress struct {
		List     core.TaskList `json:"list"`
		Progress Progress      `json:"progress"`
	}

	// CategoryAmount represents an amount aggregated by category.
	CategoryAmount struct {
		CategoryID string     `json:"category_id"`
		Name       string     `json:"name"`
		Amount     core.Money `json:"amount"`
	}

	// MonthOverview is a compact summary for a specific year+month.
	MonthOverview struct {
		Year       int              `json:"year"`
		Month      int              `json:"month"` // 1-12
		Income     core.Money       `json:"income"`
		Expense    core.Money       `json:"expense"`
		Net        core.Money       `json:"net"`
		ByCategory []CategoryAmount `json:"by_category"`
	}
)

// Balance returns opening balance plus the signed effect of every cleared
// transaction touching the account. Pending transactions never count.
func Balance(account core.Account, txs []core.Transaction) core.Money {
	balance := account.OpeningBalance
	for _, tx := range txs {
		if !tx.IsCleared() {
			continue
		}
		balance = balance.Add(effect(account.ID, tx))
	}
	return balance
}

// effect is the amount tx moves into (positive) or out of the account.
func effect(accountID string, tx core.Transaction) core.Money {
	amount := tx.Amount.Abs()
	switch tx.Type {
	case core.TxIncome:
		if tx.AccountID == accountID {
			return amount
		}
	case core.TxExpense:
		if tx.AccountID == accountID {
			return amount.Neg()
		}
	case core.TxTransfer:
		// A linked leg only ever moves money for its own account.
		if link, ok := tx.Meta.Transfer(); ok {
			if tx.AccountID != accountID {
				return core.Money{}
			}
			if link.Direction == core.TransferIn {
				return amount
			}
			return amount.Neg()
		}
		if tx.AccountID == accountID {
			return amount.Neg()
		}
		if tx.DestinationAccountID != nil && *tx.DestinationAccountID == accountID {
			return amount
		}
	}
	return core.Money{}
}

// Balances computes every account balance, active accounts first, then by name.
func Balances(accounts []core.Account, txs []core.Transaction) []AccountBalance {
	out := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountBalance{Account: a, Balance: Balance(a, txs)})
	}
	slices.SortStableFunc(out, func(a, b AccountBalance) int {
		if a.Account.Archived != b.Account.Archived {
			if a.Account.Archived {
				return 1
			}
			return -1
		}
		return cmp.Compare(strings.ToLower(a.Account.Name), strings.ToLower(b.Account.Name))
	})
	return out
}

// Budget computes consumption of one budget: cleared expenses in exactly
// the budget's category and year-month.
func Budget(b core.Budget, txs []core.Transaction) BudgetStatus {
	var spent core.Money
	for _, tx := range txs {
		if tx.Type != core.TxExpense || !tx.IsCleared() {
			continue
		}
		if tx.CategoryID == nil || *tx.CategoryID != b.CategoryID {
			continue
		}
		if tx.Date.YearMonth() != b.YearMonth {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}

	var pct float64
	if b.Planned.Cents > 0 {
		pct = float64(spent.Cents) / float64(b.Planned.Cents) * 100
	}

	status := BudgetOK
	switch {
	case pct > 100:
		status = BudgetExceeded
	case pct >= float64(b.Threshold()):
		status = BudgetWarning
	}
	return BudgetStatus{Budget: b, Spent: spent, Percentage: pct, Status: status}
}

// Budgets computes the status of every budget in yearMonth ("" for all).
func Budgets(budgets []core.Budget, txs []core.Transaction, yearMonth string) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		if yearMonth != "" && b.YearMonth != yearMonth {
			continue
		}
		out = append(out, Budget(b, txs))
	}
	return out
}

// TaskProgress counts completed tasks. An empty collection is 0%.
func TaskProgress(tasks []core.Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, t := range tasks {
		if t.IsDone() {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p
}

// TaskProgressByList computes progress for each list in the given order.
func TaskProgressByList(lists []core.TaskList, tasks []core.Task) []ListProgress {
	byList := make(map[string][]core.Task, len(lists))
	for _, t := range tasks {
		byList[t.ListID] = append(byList[t.ListID], t)
	}
	out := make([]ListProgress, 0, len(lists))
	for _, l := range lists {
		out = append(out, ListProgress{List: l, Progress: TaskProgress(byList[l.ID])})
	}
	return out
}

// UpcomingRecurrences returns active recurrences due in [today, today+days],
// ascending by next occurrence. days <= 0 means DefaultUpcomingDays.
func UpcomingRecurrences(recs []core.Recurrence, now time.Time, days int) []core.Recurrence {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	loc := now.Location()
	out := make([]core.Recurrence, 0)
	for _, r := range recs {
		if !r.Active || r.NextOccurrence.IsZero() {
			continue
		}
		n := filter.DaysBetween(now, r.NextOccurrence.At(loc), loc)
		if n >= 0 && n <= days {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Recurrence) int {
		return a.NextOccurrence.Compare(b.NextOccurrence.Time)
	})
	return out
}

func inMonth(d core.Date, year, month int) bool {
	return d.Year() == year && d.Month() == month
}

// MonthTotals sums cleared income and expenses of one month. Transfers move
// money between own accounts and are left out.
func MonthTotals(txs []core.Transaction, year, month int) MonthOverview {
	ov := MonthOverview{Year: year, Month: month}
	for _, tx := range txs {
		if !tx.IsCleared() || !inMonth(tx.Date, year, month) {
			continue
		}
		switch tx.Type {
		case core.TxIncome:
			ov.Income = ov.Income.Add(tx.Amount.Abs())
		case core.TxExpense:
			ov.Expense = ov.Expense.Add(tx.Amount.Abs())
		}
	}
	ov.Net = ov.Income.Sub(ov.Expense)
	return ov
}

// UncategorizedName labels transactions without a category.
const UncategorizedName = "Uncategorized"

// CategorySums totals cleared transactions of typ per category for one month.
// Child categories roll up into their parent. Results are sorted by amount,
// largest first.
func CategorySums(txs []core.Transaction, categories []core.Category, year, month int, typ core.TransactionType) []CategoryAmount {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	totals := make(map[string]core.Money)
	var order []string
	for _, tx := range txs {
		if tx.Type != typ || !tx.IsCleared() || !inMonth(tx.Date, year, month) {
			continue
		}
		key := ""
		if tx.CategoryID != nil {
			key = rootCategory(*tx.CategoryID, byID)
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(tx.Amount.Abs())
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, id := range order {
		name := UncategorizedName
		if c, ok := byID[id]; ok {
			name = c.Name
		} else if id != "" {
			name = id
		}
		out = append(out, CategoryAmount{CategoryID: id, Name: name, Amount: totals[id]})
	}
	slices.SortStableFunc(out, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func rootCategory(id string, byID map[string]core.Category) string {
	c, ok := byID[id]
	if !ok || c.ParentID == nil || *c.ParentID == "" {
		return id
	}
	if _, ok := byID[*c.ParentID]; !ok {
		return id
	}
	return *c.ParentID
}

// Overview combines MonthTotals with the per-category expense breakdown.
func Overview(txs []core.Transaction, categories []core.Category, year, month int) MonthOverview {
	ov := MonthTotals(txs, year, month)
	ov.ByCategory = CategorySums(txs, categories, year, month, core.TxExpense)
	return ov
}
