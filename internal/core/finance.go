package core

import (
	"errors"
	"strings"
)

type (
	AccountType       string
	CategoryType      string
	TransactionType   string
	TransactionStatus string
	Frequency         string
)

const (
	AccountCash AccountType = "cash"
	AccountBank AccountType = "bank"
	AccountCard AccountType = "card"

	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"

	TxExpense  TransactionType = "expense"
	TxIncome   TransactionType = "income"
	TxTransfer TransactionType = "transfer"

	TxPending TransactionStatus = "pending"
	TxCleared TransactionStatus = "cleared"

	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
	Custom  Frequency = "custom"
)

// DefaultAlertThreshold applies to budgets created without a threshold.
const DefaultAlertThreshold = 80

type (
	Account struct {
		ID             string      `json:"id"`
		UserID         string      `json:"user_id"`
		Name           string      `json:"name"`
		Type           AccountType `json:"type"`
		OpeningBalance Money       `json:"opening_balance"`
		Currency       string      `json:"currency"`
		Color          string      `json:"color,omitempty"`
		Archived       bool        `json:"archived"`
	}

	// Category supports one level of hierarchy through ParentID.
	Category struct {
		ID       string       `json:"id"`
		UserID   string       `json:"user_id"`
		Name     string       `json:"name"`
		Type     CategoryType `json:"type"`
		ParentID *string      `json:"parent_id,omitempty"`
	}

	// Transaction amounts are signed: expenses are stored negative, income
	// positive. Reducers rely on Type, not on the sign.
	Transaction struct {
		ID                   string            `json:"id"`
		UserID               string            `json:"user_id"`
		Date                 Date              `json:"date"`
		AccountID            string            `json:"account_id"`
		DestinationAccountID *string           `json:"destination_account_id,omitempty"`
		Amount               Money             `json:"amount"`
		Type                 TransactionType   `json:"type"`
		CategoryID           *string           `json:"category_id,omitempty"`
		Description          string            `json:"description,omitempty"`
		Tags                 string            `json:"tags,omitempty"`
		Status               TransactionStatus `json:"status"`
		Meta                 TransactionMeta   `json:"meta"`
	}

	// Recurrence is a template that periodically generates transactions.
	// BaseDay is the day of month for monthly and yearly recurrences and the
	// weekday (0 = Sunday) for weekly ones. IntervalDays is used by custom.
	Recurrence struct {
		ID             string          `json:"id"`
		UserID         string          `json:"user_id"`
		Type           TransactionType `json:"type"`
		Frequency      Frequency       `json:"frequency"`
		IntervalDays   int             `json:"interval_days,omitempty"`
		BaseDay        int             `json:"base_day"`
		NextOccurrence Date            `json:"next_occurrence"`
		Amount         Money           `json:"amount"`
		AccountID      string          `json:"account_id"`
		CategoryID     *string         `json:"category_id,omitempty"`
		Description    string          `json:"description,omitempty"`
		Active         bool            `json:"active"`
	}

	Budget struct {
		ID             string `json:"id"`
		UserID         string `json:"user_id"`
		CategoryID     string `json:"category_id"`
		Planned        Money  `json:"planned"`
		YearMonth      string `json:"year_month"`
		AlertThreshold int    `json:"alert_threshold"`
	}
)

func (t AccountType) Valid() bool {
	return t == AccountCash || t == AccountBank || t == AccountCard
}

func (t CategoryType) Valid() bool { return t == CategoryExpense || t == CategoryIncome }

func (t TransactionType) Valid() bool {
	return t == TxExpense || t == TxIncome || t == TxTransfer
}

func (s TransactionStatus) Valid() bool { return s == TxPending || s == TxCleared }

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Yearly, Custom:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if !a.Type.Valid() {
		return invalidf("type", "unknown account type %q", a.Type)
	}
	if strings.TrimSpace(a.Currency) == "" {
		return invalid("currency", errors.New("currency required"))
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if !c.Type.Valid() {
		return invalidf("type", "unknown category type %q", c.Type)
	}
	if c.ParentID != nil && *c.ParentID == c.ID && c.ID != "" {
		return invalid("parent_id", errors.New("category cannot be its own parent"))
	}
	return nil
}

// IsCleared reports whether the transaction contributes to balances.
func (t Transaction) IsCleared() bool { return t.Status == TxCleared }

// TagList returns the comma-joined tags as values.
func (t Transaction) TagList() []string { return SplitTags(t.Tags) }

func copyRef(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (c Category) Clone() Category {
	c.ParentID = copyRef(c.ParentID)
	return c
}

func (t Transaction) Clone() Transaction {
	t.DestinationAccountID = copyRef(t.DestinationAccountID)
	t.CategoryID = copyRef(t.CategoryID)
	return t
}

func (r Recurrence) Clone() Recurrence {
	r.CategoryID = copyRef(r.CategoryID)
	return r
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return invalid("account_id", ErrMissingAccount)
	}
	if err := t.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if !t.Type.Valid() {
		return invalidf("type", "unknown transaction type %q", t.Type)
	}
	if !t.Status.Valid() {
		return invalidf("status", "unknown status %q", t.Status)
	}
	if len(t.Description) > maxTitleLen {
		return invalidf("description", "too long (max %d characters)", maxTitleLen)
	}
	if err := t.Meta.Validate(); err != nil {
		return invalid("meta", err)
	}
	if t.Type == TxTransfer {
		_, linked := t.Meta.Transfer()
		if !linked && (t.DestinationAccountID == nil || *t.DestinationAccountID == "") {
			return invalid("destination_account_id", errors.New("transfer requires a destination account"))
		}
		if t.DestinationAccountID != nil && *t.DestinationAccountID == t.AccountID {
			return invalid("destination_account_id", errors.New("transfer to the same account"))
		}
	} else if t.DestinationAccountID != nil {
		return invalid("destination_account_id", errors.New("only transfers have a destination"))
	}
	return nil
}

func (r Recurrence) Validate() error {
	if r.Type != TxExpense && r.Type != TxIncome {
		return invalidf("type", "recurrences are expense or income, got %q", r.Type)
	}
	if !r.Frequency.Valid() {
		return invalidf("frequency", "unknown frequency %q", r.Frequency)
	}
	switch r.Frequency {
	case Weekly:
		if r.BaseDay < 0 || r.BaseDay > 6 {
			return invalidf("base_day", "weekday must be 0-6, got %d", r.BaseDay)
		}
	case Monthly, Yearly:
		if r.BaseDay < 1 || r.BaseDay > 31 {
			return invalidf("base_day", "day of month must be 1-31, got %d", r.BaseDay)
		}
	case Custom:
		if r.IntervalDays < 1 {
			return invalidf("interval_days", "must be positive, got %d", r.IntervalDays)
		}
	}
	if err := r.NextOccurrence.Validate(); err != nil {
		return invalid("next_occurrence", err)
	}
	if err := r.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if strings.TrimSpace(r.AccountID) == "" {
		return invalid("account_id", ErrMissingAccount)
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return invalid("category_id", ErrMissingCategory)
	}
	if b.Planned.Cents < 0 {
		return invalid("planned", ErrInvalidAmount)
	}
	if _, _, err := ParseYearMonth(b.YearMonth); err != nil {
		return invalid("year_month", err)
	}
	if b.AlertThreshold < 1 || b.AlertThreshold > 100 {
		return invalidf("alert_threshold", "must be 1-100, got %d", b.AlertThreshold)
	}
	return nil
}

// Threshold returns the alert threshold. The default covers zero-value
// budgets that never went through Validate.
func (b Budget) Threshold() int {
	if b.AlertThreshold <= 0 {
		return DefaultAlertThreshold
	}
	return b.AlertThreshold
}
