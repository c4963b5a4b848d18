package sheets

import (
	"testing"

	"taskfin/internal/core"
)

func ptr(s string) *string { return &s }

func TestBuildRows(t *testing.T) {
	accounts := []core.Account{{ID: "a1", Name: "Bank"}}
	categories := []core.Category{
		{ID: "food", Name: "Food"},
		{ID: "bars", Name: "Bars", ParentID: ptr("food")},
	}
	txs := []core.Transaction{
		{Date: core.NewDate(2026, 3, 20), AccountID: "a1", Type: core.TxExpense, CategoryID: ptr("bars"), Amount: core.Money{Cents: -450}, Status: core.TxCleared, Description: "Coffee"},
		{Date: core.NewDate(2026, 2, 28), AccountID: "a1", Type: core.TxExpense, Amount: core.Money{Cents: -100}, Status: core.TxCleared},
		{Date: core.NewDate(2026, 3, 1), AccountID: "a1", Type: core.TxIncome, Amount: core.Money{Cents: 250000}, Status: core.TxPending, Description: "Salary"},
		{Date: core.NewDate(2026, 3, 5), AccountID: "gone", Type: core.TxExpense, CategoryID: ptr("missing"), Amount: core.Money{Cents: -99}, Status: core.TxCleared},
	}

	rows := BuildRows(txs, accounts, categories, 2026, 3)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows in March, got %d", len(rows))
	}
	if rows[0].Description != "Salary" || rows[2].Description != "Coffee" {
		t.Errorf("rows not sorted by date: %+v", rows)
	}
	if rows[2].Category != "Food > Bars" || rows[2].Account != "Bank" {
		t.Errorf("names not resolved: %+v", rows[2])
	}
	if rows[1].Account != "" || rows[1].Category != "" {
		t.Errorf("unknown references should render empty: %+v", rows[1])
	}

	want := []any{"2026-03-20", "Bank", "expense", "Food > Bars", "Coffee", "-4.50", "cleared"}
	got := rows[2].Values()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseRow(t *testing.T) {
	tests := []struct {
		name string
		cols []string
		ok   bool
		want Row
	}{
		{name: "header", cols: Header},
		{name: "short", cols: []string{"2026-03-01", "Bank"}},
		{name: "bad amount", cols: []string{"2026-03-01", "Bank", "expense", "", "x", "abc", "cleared"}},
		{
			name: "decimal comma",
			cols: []string{"2026-03-01", " Bank ", "expense", "Food", "Lunch", "-12,30", "cleared"},
			ok:   true,
			want: Row{Date: core.NewDate(2026, 3, 1), Account: "Bank", Type: "expense", Category: "Food", Description: "Lunch", Amount: core.Money{Cents: -1230}, Status: "cleared"},
		},
		{
			name: "missing status",
			cols: []string{"2026-03-02", "Cash", "income", "", "Gift", "20"},
			ok:   true,
			want: Row{Date: core.NewDate(2026, 3, 2), Account: "Cash", Type: "income", Description: "Gift", Amount: core.Money{Cents: 2000}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRow(tt.cols)
			if ok != tt.ok {
				t.Fatalf("ParseRow() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseRow() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
