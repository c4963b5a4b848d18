package memory

import (
	"context"
	"errors"
	"testing"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

func TestListCascadeDeletesTasks(t *testing.T) {
	ctx := context.Background()
	s := New()

	list, err := s.Lists().Create(ctx, core.TaskList{ID: "l1", UserID: "u", Name: "Home"})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"t1", "t2"} {
		task := core.Task{ID: id, UserID: "u", Title: id, Priority: core.PriorityLow, Status: core.TaskPending, ListID: list.ID}
		if _, err := s.Tasks().Create(ctx, task); err != nil {
			t.Fatal(err)
		}
	}
	other := core.Task{ID: "t3", UserID: "someone-else", Title: "x", Priority: core.PriorityLow, Status: core.TaskPending, ListID: list.ID}
	if _, err := s.Tasks().Create(ctx, other); err != nil {
		t.Fatal(err)
	}

	if err := s.Lists().Delete(ctx, "u", list.ID); err != nil {
		t.Fatal(err)
	}
	tasks, _ := s.Tasks().List(ctx, "u")
	if len(tasks) != 0 {
		t.Fatalf("expected tasks to be cascaded, got %d", len(tasks))
	}
	others, _ := s.Tasks().List(ctx, "someone-else")
	if len(others) != 1 {
		t.Fatalf("cascade must stay within the user")
	}
}

func TestAccountAndCategoryCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	mustCreate := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	_, err := s.Accounts().Create(ctx, core.Account{ID: "a1", UserID: "u", Name: "Bank", Type: core.AccountBank, Currency: "EUR"})
	mustCreate(err)
	_, err = s.Accounts().Create(ctx, core.Account{ID: "a2", UserID: "u", Name: "Cash", Type: core.AccountCash, Currency: "EUR"})
	mustCreate(err)
	_, err = s.Categories().Create(ctx, core.Category{ID: "c1", UserID: "u", Name: "Food", Type: core.CategoryExpense})
	mustCreate(err)
	cat := "c1"
	dest := "a1"
	_, err = s.Transactions().Create(ctx, core.Transaction{ID: "x1", UserID: "u", Date: core.NewDate(2026, 1, 1), AccountID: "a1", Amount: core.Money{Cents: -100}, Type: core.TxExpense, Status: core.TxCleared, CategoryID: &cat})
	mustCreate(err)
	_, err = s.Transactions().Create(ctx, core.Transaction{ID: "x2", UserID: "u", Date: core.NewDate(2026, 1, 1), AccountID: "a2", DestinationAccountID: &dest, Amount: core.Money{Cents: 100}, Type: core.TxTransfer, Status: core.TxCleared})
	mustCreate(err)
	_, err = s.Budgets().Create(ctx, core.Budget{ID: "b1", UserID: "u", CategoryID: "c1", Planned: core.Money{Cents: 1000}, YearMonth: "2026-01", AlertThreshold: 80})
	mustCreate(err)

	mustCreate(s.Categories().Delete(ctx, "u", "c1"))
	budgets, _ := s.Budgets().List(ctx, "u")
	if len(budgets) != 0 {
		t.Fatalf("budgets should cascade with category")
	}
	txs, _ := s.Transactions().List(ctx, "u")
	if txs[0].CategoryID != nil {
		t.Fatalf("category reference should be cleared")
	}

	mustCreate(s.Accounts().Delete(ctx, "u", "a1"))
	txs, _ = s.Transactions().List(ctx, "u")
	if len(txs) != 0 {
		t.Fatalf("transactions from and into the account should cascade, got %+v", txs)
	}
}

func TestRepoErrors(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := core.TaskList{ID: "l1", UserID: "u", Name: "Home"}
	if _, err := s.Lists().Create(ctx, l); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Lists().Create(ctx, l); err == nil || store.IsRetryable(err) {
		t.Fatalf("duplicate create must fail permanently, got %v", err)
	}
	if _, err := s.Lists().Update(ctx, core.TaskList{ID: "nope", UserID: "u", Name: "x"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Lists().Delete(ctx, "other-user", "l1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete across users must not find the row, got %v", err)
	}
	if _, err := s.Lists().Create(ctx, core.TaskList{ID: "l2", UserID: "u"}); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
