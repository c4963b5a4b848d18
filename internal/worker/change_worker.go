package worker

import (
	"context"
	"fmt"
	"log/slog"

	"taskfin/internal/amqp"
	"taskfin/internal/core"
	"taskfin/internal/sheets"
	"taskfin/internal/store"
)

// Ledger is the slice of the record store the worker reads from.
type Ledger interface {
	UserID() string
	Refresh(ctx context.Context, table store.Table) error
	AllTransactions() []core.Transaction
	Accounts() []core.Account
	Categories() []core.Category
	Today() core.Date
}

var _ Ledger = (*store.Store)(nil)

// ChangeWorker keeps the transactions spreadsheet in step with the backend.
// Each change notification for a finance table triggers a refresh of that
// table and a full rewrite of the current month.
type ChangeWorker struct {
	ledger   Ledger
	exporter sheets.MonthExporter
}

func NewChangeWorker(ledger Ledger, exporter sheets.MonthExporter) *ChangeWorker {
	return &ChangeWorker{ledger: ledger, exporter: exporter}
}

// HandleChangeMessage processes a single change notification from AMQP.
// Returning an error makes the consumer requeue the message.
func (w *ChangeWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg == nil || msg.UserID != w.ledger.UserID() {
		return nil
	}
	switch msg.Table {
	case store.TableTransactions, store.TableAccounts, store.TableCategories:
	default:
		return nil
	}

	slog.InfoContext(ctx, "Processing change message",
		"table", msg.Table,
		"timestamp", msg.Timestamp)

	if err := w.ledger.Refresh(ctx, msg.Table); err != nil {
		return fmt.Errorf("refresh %s: %w", msg.Table, err)
	}

	today := w.ledger.Today()
	if _, err := w.ExportMonth(ctx, today.Year(), today.Month()); err != nil {
		return err
	}
	return nil
}

// ExportMonth writes every transaction dated in year/month to the sheet
// and returns the exporter's reference for the written range.
func (w *ChangeWorker) ExportMonth(ctx context.Context, year, month int) (string, error) {
	rows := sheets.BuildRows(w.ledger.AllTransactions(), w.ledger.Accounts(), w.ledger.Categories(), year, month)

	ref, err := w.exporter.ExportMonth(ctx, year, month, rows)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to export month",
			"year_month", fmt.Sprintf("%04d-%02d", year, month),
			"error", err)
		return "", fmt.Errorf("export %04d-%02d: %w", year, month, err)
	}

	slog.InfoContext(ctx, "Exported month",
		"year_month", fmt.Sprintf("%04d-%02d", year, month),
		"rows", len(rows),
		"sheets_ref", ref)
	return ref, nil
}

// StartupExport rewrites the current and the previous month. It catches up
// on notifications missed while the worker was down; edits to older months
// need an explicit ExportMonth.
func (w *ChangeWorker) StartupExport(ctx context.Context) error {
	today := w.ledger.Today()
	prev := core.NewDate(today.Year(), today.Month(), 1).AddDays(-1)

	var failed int
	for _, d := range []core.Date{prev, today} {
		if _, err := w.ExportMonth(ctx, d.Year(), d.Month()); err != nil {
			failed++
		}
	}

	slog.InfoContext(ctx, "Startup export completed", "months", 2, "errors", failed)
	if failed > 0 {
		return fmt.Errorf("startup export: %d of 2 months failed", failed)
	}
	return nil
}
