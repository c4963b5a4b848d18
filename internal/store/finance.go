package store

import (
	"context"
	"fmt"
	"strings"

	"taskfin/internal/core"
)

func (s *Store) checkAccount(field, id string) error {
	if _, err := s.Account(id); err != nil {
		return &core.ValidationError{Field: field, Err: fmt.Errorf("account %q: %w", id, err)}
	}
	return nil
}

func (s *Store) checkCategory(field string, id *string) error {
	if id == nil {
		return nil
	}
	s.mu.RLock()
	_, ok := find(s.categories.Items, *id, categoryID)
	s.mu.RUnlock()
	if !ok {
		return &core.ValidationError{Field: field, Err: fmt.Errorf("category %q: %w", *id, core.ErrNotFound)}
	}
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = core.NewID()
	}
	a.UserID = s.cfg.UserID
	a.Name = strings.TrimSpace(a.Name)
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	created, err := mutate(ctx, s, TableAccounts, "create", func(ctx context.Context) (core.Account, error) {
		return s.collab.Accounts().Create(ctx, a)
	})
	if err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	put(s, &s.accounts, created, accountID)
	s.mu.Unlock()
	s.confirmed(ctx, TableAccounts, "create", created.ID)
	return created, nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, patch AccountPatch) (core.Account, error) {
	current, err := s.Account(id)
	if err != nil {
		return core.Account{}, err
	}
	merged := patch.apply(current)
	merged.Currency = strings.ToUpper(strings.TrimSpace(merged.Currency))
	if err := merged.Validate(); err != nil {
		return core.Account{}, err
	}
	updated, err := mutate(ctx, s, TableAccounts, "update", func(ctx context.Context) (core.Account, error) {
		return s.collab.Accounts().Update(ctx, merged)
	})
	if err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	put(s, &s.accounts, updated, accountID)
	s.mu.Unlock()
	s.confirmed(ctx, TableAccounts, "update", id)
	return updated, nil
}

// DeleteAccount deletes the account together with, locally, its
// transactions and recurrences. Transfers into the account go with it.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	if _, err := s.Account(id); err != nil {
		return err
	}
	err := s.call(ctx, TableAccounts, "delete", func(ctx context.Context) error {
		return s.collab.Accounts().Delete(ctx, s.cfg.UserID, id)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	drop(s, &s.accounts, func(a core.Account) bool { return a.ID == id })
	drop(s, &s.transactions, func(t core.Transaction) bool {
		return t.AccountID == id || (t.DestinationAccountID != nil && *t.DestinationAccountID == id)
	})
	drop(s, &s.recurrences, func(r core.Recurrence) bool { return r.AccountID == id })
	s.mu.Unlock()
	s.confirmed(ctx, TableAccounts, "delete", id)
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		c.ID = core.NewID()
	}
	c.UserID = s.cfg.UserID
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ParentID != nil {
		s.mu.RLock()
		parent, ok := find(s.categories.Items, *c.ParentID, categoryID)
		s.mu.RUnlock()
		if !ok {
			return core.Category{}, &core.ValidationError{Field: "parent_id", Err: core.ErrNotFound}
		}
		if parent.ParentID != nil {
			return core.Category{}, &core.ValidationError{Field: "parent_id", Err: fmt.Errorf("categories nest one level only")}
		}
	}
	created, err := mutate(ctx, s, TableCategories, "create", func(ctx context.Context) (core.Category, error) {
		return s.collab.Categories().Create(ctx, c)
	})
	if err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	put(s, &s.categories, created, categoryID)
	s.mu.Unlock()
	s.confirmed(ctx, TableCategories, "create", created.ID)
	return created, nil
}

// DeleteCategory removes the category. Budgets on it go with it; other
// references are cleared.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := s.checkCategory("id", &id); err != nil {
		return core.ErrNotFound
	}
	err := s.call(ctx, TableCategories, "delete", func(ctx context.Context) error {
		return s.collab.Categories().Delete(ctx, s.cfg.UserID, id)
	})
	if err != nil {
		return err
	}
	refersTo := func(p *string) bool { return p != nil && *p == id }
	s.mu.Lock()
	drop(s, &s.categories, func(c core.Category) bool { return c.ID == id })
	rewrite(s, &s.categories, func(c core.Category) (core.Category, bool) {
		if !refersTo(c.ParentID) {
			return c, false
		}
		c.ParentID = nil
		return c, true
	})
	rewrite(s, &s.transactions, func(t core.Transaction) (core.Transaction, bool) {
		if !refersTo(t.CategoryID) {
			return t, false
		}
		t.CategoryID = nil
		return t, true
	})
	rewrite(s, &s.recurrences, func(r core.Recurrence) (core.Recurrence, bool) {
		if !refersTo(r.CategoryID) {
			return r, false
		}
		r.CategoryID = nil
		return r, true
	})
	drop(s, &s.budgets, func(b core.Budget) bool { return b.CategoryID == id })
	s.mu.Unlock()
	s.confirmed(ctx, TableCategories, "delete", id)
	return nil
}

func (s *Store) prepareTransaction(t core.Transaction) (core.Transaction, error) {
	t.UserID = s.cfg.UserID
	t.Description = strings.TrimSpace(t.Description)
	t.Tags = core.JoinTags(core.SplitTags(t.Tags))
	if t.Status == "" {
		t.Status = core.TxCleared
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	if err := s.checkAccount("account_id", t.AccountID); err != nil {
		return t, err
	}
	if t.DestinationAccountID != nil {
		if err := s.checkAccount("destination_account_id", *t.DestinationAccountID); err != nil {
			return t, err
		}
	}
	if err := s.checkCategory("category_id", t.CategoryID); err != nil {
		return t, err
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = core.NewID()
	}
	t, err := s.prepareTransaction(t)
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := mutate(ctx, s, TableTransactions, "create", func(ctx context.Context) (core.Transaction, error) {
		return s.collab.Transactions().Create(ctx, t)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	put(s, &s.transactions, created, transactionID)
	s.mu.Unlock()
	s.confirmed(ctx, TableTransactions, "create", created.ID)
	return created, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (core.Transaction, error) {
	current, err := s.Transaction(id)
	if err != nil {
		return core.Transaction{}, err
	}
	merged, err := s.prepareTransaction(patch.apply(current))
	if err != nil {
		return core.Transaction{}, err
	}
	updated, err := mutate(ctx, s, TableTransactions, "update", func(ctx context.Context) (core.Transaction, error) {
		return s.collab.Transactions().Update(ctx, merged)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	put(s, &s.transactions, updated, transactionID)
	s.mu.Unlock()
	s.confirmed(ctx, TableTransactions, "update", id)
	return updated, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.Transaction(id); err != nil {
		return err
	}
	err := s.call(ctx, TableTransactions, "delete", func(ctx context.Context) error {
		return s.collab.Transactions().Delete(ctx, s.cfg.UserID, id)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	drop(s, &s.transactions, func(t core.Transaction) bool { return t.ID == id })
	s.mu.Unlock()
	s.confirmed(ctx, TableTransactions, "delete", id)
	return nil
}

// TransferLegs returns the transactions sharing a transfer link id.
func (s *Store) TransferLegs(linkID string) []core.Transaction {
	var legs []core.Transaction
	for _, t := range s.AllTransactions() {
		if link, ok := t.Meta.Transfer(); ok && link.LinkID == linkID {
			legs = append(legs, t)
		}
	}
	return legs
}

func (s *Store) CreateRecurrence(ctx context.Context, r core.Recurrence) (core.Recurrence, error) {
	if r.ID == "" {
		r.ID = core.NewID()
	}
	r.UserID = s.cfg.UserID
	r.Description = strings.TrimSpace(r.Description)
	if err := r.Validate(); err != nil {
		return core.Recurrence{}, err
	}
	if err := s.checkAccount("account_id", r.AccountID); err != nil {
		return core.Recurrence{}, err
	}
	if err := s.checkCategory("category_id", r.CategoryID); err != nil {
		return core.Recurrence{}, err
	}
	created, err := mutate(ctx, s, TableRecurrences, "create", func(ctx context.Context) (core.Recurrence, error) {
		return s.collab.Recurrences().Create(ctx, r)
	})
	if err != nil {
		return core.Recurrence{}, err
	}
	s.mu.Lock()
	put(s, &s.recurrences, created, recurrenceID)
	s.mu.Unlock()
	s.confirmed(ctx, TableRecurrences, "create", created.ID)
	return created, nil
}

func (s *Store) UpdateRecurrence(ctx context.Context, id string, patch RecurrencePatch) (core.Recurrence, error) {
	current, err := s.Recurrence(id)
	if err != nil {
		return core.Recurrence{}, err
	}
	merged := patch.apply(current)
	if err := merged.Validate(); err != nil {
		return core.Recurrence{}, err
	}
	if err := s.checkAccount("account_id", merged.AccountID); err != nil {
		return core.Recurrence{}, err
	}
	if err := s.checkCategory("category_id", merged.CategoryID); err != nil {
		return core.Recurrence{}, err
	}
	updated, err := mutate(ctx, s, TableRecurrences, "update", func(ctx context.Context) (core.Recurrence, error) {
		return s.collab.Recurrences().Update(ctx, merged)
	})
	if err != nil {
		return core.Recurrence{}, err
	}
	s.mu.Lock()
	put(s, &s.recurrences, updated, recurrenceID)
	s.mu.Unlock()
	s.confirmed(ctx, TableRecurrences, "update", id)
	return updated, nil
}

func (s *Store) DeleteRecurrence(ctx context.Context, id string) error {
	if _, err := s.Recurrence(id); err != nil {
		return err
	}
	err := s.call(ctx, TableRecurrences, "delete", func(ctx context.Context) error {
		return s.collab.Recurrences().Delete(ctx, s.cfg.UserID, id)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	drop(s, &s.recurrences, func(r core.Recurrence) bool { return r.ID == id })
	s.mu.Unlock()
	s.confirmed(ctx, TableRecurrences, "delete", id)
	return nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = core.NewID()
	}
	b.UserID = s.cfg.UserID
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkCategory("category_id", &b.CategoryID); err != nil {
		return core.Budget{}, err
	}
	created, err := mutate(ctx, s, TableBudgets, "create", func(ctx context.Context) (core.Budget, error) {
		return s.collab.Budgets().Create(ctx, b)
	})
	if err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	put(s, &s.budgets, created, budgetID)
	s.mu.Unlock()
	s.confirmed(ctx, TableBudgets, "create", created.ID)
	return created, nil
}

func (s *Store) UpdateBudget(ctx context.Context, id string, patch BudgetPatch) (core.Budget, error) {
	current, err := s.Budget(id)
	if err != nil {
		return core.Budget{}, err
	}
	merged := patch.apply(current)
	if err := merged.Validate(); err != nil {
		return core.Budget{}, err
	}
	updated, err := mutate(ctx, s, TableBudgets, "update", func(ctx context.Context) (core.Budget, error) {
		return s.collab.Budgets().Update(ctx, merged)
	})
	if err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	put(s, &s.budgets, updated, budgetID)
	s.mu.Unlock()
	s.confirmed(ctx, TableBudgets, "update", id)
	return updated, nil
}

func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	if _, err := s.Budget(id); err != nil {
		return err
	}
	err := s.call(ctx, TableBudgets, "delete", func(ctx context.Context) error {
		return s.collab.Budgets().Delete(ctx, s.cfg.UserID, id)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	drop(s, &s.budgets, func(b core.Budget) bool { return b.ID == id })
	s.mu.Unlock()
	s.confirmed(ctx, TableBudgets, "delete", id)
	return nil
}
