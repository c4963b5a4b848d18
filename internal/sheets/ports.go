// Package sheets renders transactions as spreadsheet rows and defines the
// ports the exporters implement.
package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"taskfin/internal/core"
)

// Ports for outbound adapters.
type (
	// MonthExporter replaces one month of rows in the year's sheet and
	// returns a reference to the written range.
	MonthExporter interface {
		ExportMonth(ctx context.Context, year, month int, rows []Row) (ref string, err error)
	}

	// MonthLister reads back the exported rows of one month.
	MonthLister interface {
		ListMonth(ctx context.Context, year, month int) ([]Row, error)
	}
)

// Header is the first row of every exported sheet.
var Header = []string{"Date", "Account", "Type", "Category", "Description", "Amount", "Status"}

type Row struct {
	Date        core.Date
	Account     string
	Type        string
	Category    string
	Description string
	Amount      core.Money
	Status      string
}

// Values renders the row in Header order.
func (r Row) Values() []any {
	return []any{r.Date.String(), r.Account, r.Type, r.Category, r.Description, r.Amount.String(), r.Status}
}

// ParseRow reads a row back from cell strings. ok is false for the header
// and for anything that does not start with a date.
func ParseRow(cols []string) (Row, bool) {
	if len(cols) < 6 {
		return Row{}, false
	}
	date, err := core.ParseDate(cols[0])
	if err != nil {
		return Row{}, false
	}
	cents, err := core.ParseSignedDecimalToCents(cols[5])
	if err != nil {
		return Row{}, false
	}
	r := Row{
		Date:        date,
		Account:     strings.TrimSpace(cols[1]),
		Type:        strings.TrimSpace(cols[2]),
		Category:    strings.TrimSpace(cols[3]),
		Description: strings.TrimSpace(cols[4]),
		Amount:      core.Money{Cents: cents},
	}
	if len(cols) > 6 {
		r.Status = strings.TrimSpace(cols[6])
	}
	return r, true
}

// InMonth reports whether the row's date falls in year/month.
func (r Row) InMonth(year, month int) bool {
	return r.Date.Year() == year && r.Date.Month() == month
}

// BuildRows renders the transactions of one month, oldest first. Account and
// category ids are replaced by their names; a child category is shown as
// "Parent > Child".
func BuildRows(txs []core.Transaction, accounts []core.Account, categories []core.Category, year, month int) []Row {
	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	categoryName := func(id *string) string {
		if id == nil {
			return ""
		}
		c, ok := byID[*id]
		if !ok {
			return ""
		}
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				return fmt.Sprintf("%s > %s", parent.Name, c.Name)
			}
		}
		return c.Name
	}

	var rows []Row
	for _, tx := range txs {
		if tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		rows = append(rows, Row{
			Date:        tx.Date,
			Account:     accountNames[tx.AccountID],
			Type:        string(tx.Type),
			Category:    categoryName(tx.CategoryID),
			Description: tx.Description,
			Amount:      tx.Amount,
			Status:      string(tx.Status),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date.Time) })
	return rows
}
