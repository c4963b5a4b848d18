package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func strp(s string) *string { return &s }

func TestTransactionValidate(t *testing.T) {
	base := Transaction{
		Date:      NewDate(2026, 2, 1),
		AccountID: "a1",
		Amount:    Money{Cents: -1500},
		Type:      TxExpense,
		Status:    TxCleared,
	}
	tests := []struct {
		name   string
		mutate func(*Transaction)
		ok     bool
	}{
		{"valid expense", func(*Transaction) {}, true},
		{"zero amount", func(t *Transaction) { t.Amount = Money{} }, false},
		{"missing account", func(t *Transaction) { t.AccountID = "" }, false},
		{"zero date", func(t *Transaction) { t.Date = Date{} }, false},
		{"transfer without destination", func(t *Transaction) { t.Type = TxTransfer }, false},
		{"transfer with destination", func(t *Transaction) { t.Type = TxTransfer; t.DestinationAccountID = strp("a2") }, true},
		{"transfer to same account", func(t *Transaction) { t.Type = TxTransfer; t.DestinationAccountID = strp("a1") }, false},
		{"linked transfer leg", func(t *Transaction) { t.Type = TxTransfer; t.Meta = TransferMeta("L1", TransferOut) }, true},
		{"expense with destination", func(t *Transaction) { t.DestinationAccountID = strp("a2") }, false},
		{"bad status", func(t *Transaction) { t.Status = "void" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := base
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestRecurrenceValidate(t *testing.T) {
	base := Recurrence{
		Type:           TxExpense,
		Frequency:      Monthly,
		BaseDay:        31,
		NextOccurrence: NewDate(2026, 1, 31),
		Amount:         Money{Cents: 5000},
		AccountID:      "a1",
		Active:         true,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	transfer := base
	transfer.Type = TxTransfer
	if err := transfer.Validate(); err == nil {
		t.Fatalf("transfers cannot recur")
	}

	custom := base
	custom.Frequency = Custom
	if err := custom.Validate(); err == nil {
		t.Fatalf("custom needs interval_days")
	}
	custom.IntervalDays = 10
	if err := custom.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	weekly := base
	weekly.Frequency = Weekly
	if err := weekly.Validate(); err == nil {
		t.Fatalf("weekday 31 must be rejected")
	}
}

func TestBudgetValidateAndThreshold(t *testing.T) {
	b := Budget{CategoryID: "c1", Planned: Money{Cents: 0}, YearMonth: "2026-03", AlertThreshold: 50}
	if err := b.Validate(); err != nil {
		t.Fatalf("zero planned is allowed: %v", err)
	}
	if b.Threshold() != 50 {
		t.Fatalf("threshold = %d, want 50", b.Threshold())
	}
	for _, threshold := range []int{0, -1, 101} {
		c := b
		c.AlertThreshold = threshold
		var verr *ValidationError
		if err := c.Validate(); !errors.As(err, &verr) || verr.Field != "alert_threshold" {
			t.Errorf("threshold %d: err = %v, want alert_threshold validation error", threshold, err)
		}
	}
	if (Budget{}).Threshold() != DefaultAlertThreshold {
		t.Fatalf("zero-value budget should report the default threshold")
	}
	b.YearMonth = "2026-13"
	if err := b.Validate(); err == nil {
		t.Fatalf("expected invalid year-month")
	}
	b.YearMonth = "2026-03"
	b.CategoryID = ""
	if err := b.Validate(); !errors.Is(err, ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
}

func TestTransactionMetaJSON(t *testing.T) {
	tx := Transaction{ID: "x", Meta: TransferMeta("L1", TransferIn)}
	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"kind":"transfer_link"`) {
		t.Fatalf("meta not tagged: %s", data)
	}

	var back Transaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	link, ok := back.Meta.Transfer()
	if !ok || link.LinkID != "L1" || link.Direction != TransferIn {
		t.Fatalf("round trip lost link: %+v", link)
	}

	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"null", `null`, true},
		{"none", `{"kind":"none"}`, true},
		{"empty object", `{}`, true},
		{"missing link id", `{"kind":"transfer_link","direction":"in"}`, false},
		{"bad direction", `{"kind":"transfer_link","link_id":"L","direction":"up"}`, false},
		{"unknown kind", `{"kind":"split"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m TransactionMeta
			err := json.Unmarshal([]byte(tt.in), &m)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
