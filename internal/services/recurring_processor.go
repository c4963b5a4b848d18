package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

// maxCatchUp bounds how many occurrences of one recurrence a single run
// materializes. Anything left is picked up by the next run.
const maxCatchUp = 400

// RecurringProcessor turns due recurrences into transactions.
type RecurringProcessor struct {
	store TransactionStore
}

func NewRecurringProcessor(s TransactionStore) *RecurringProcessor {
	return &RecurringProcessor{store: s}
}

// ProcessDue materializes every active recurrence whose next occurrence is
// on or before the calendar day of now, then advances it. A recurrence that
// fell several periods behind produces one transaction per missed period.
// Failures are logged per recurrence and do not stop the run.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	today := core.DateOf(now)
	recurrences := p.store.Recurrences()

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total", len(recurrences),
		"processing_date", today.String())

	processed := 0
	for _, r := range recurrences {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if !r.Active || r.NextOccurrence.After(today.Time) {
			continue
		}
		processed += p.catchUp(ctx, r, today)
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(recurrences))

	return processed, nil
}

func (p *RecurringProcessor) catchUp(ctx context.Context, r core.Recurrence, today core.Date) int {
	created := 0
	for i := 0; i < maxCatchUp && !r.NextOccurrence.After(today.Time); i++ {
		next, err := NextOccurrence(r)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to compute next occurrence",
				"recurrence_id", r.ID,
				"frequency", r.Frequency,
				"error", err)
			return created
		}

		// Advance first: an occurrence is materialized at most once.
		prev := r.NextOccurrence
		updated, err := p.store.UpdateRecurrence(ctx, r.ID, store.RecurrencePatch{NextOccurrence: &next})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to advance recurrence",
				"recurrence_id", r.ID,
				"next_occurrence", next.String(),
				"error", err)
			return created
		}

		tx, err := p.store.CreateTransaction(ctx, transactionFor(r))
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurrence",
				"recurrence_id", r.ID,
				"description", r.Description,
				"error", err)
			if _, rbErr := p.store.UpdateRecurrence(ctx, r.ID, store.RecurrencePatch{NextOccurrence: &prev}); rbErr != nil {
				slog.ErrorContext(ctx, "Failed to restore recurrence after create failure",
					"recurrence_id", r.ID,
					"next_occurrence", prev.String(),
					"error", rbErr)
			}
			return created
		}
		created++

		slog.InfoContext(ctx, "Created transaction from recurrence",
			"recurrence_id", r.ID,
			"transaction_id", tx.ID,
			"date", r.NextOccurrence.String(),
			"amount_cents", tx.Amount.Cents,
			"frequency", r.Frequency)
		r = updated
	}
	return created
}

// transactionFor builds the cleared transaction for r's current occurrence.
// Expense amounts are stored negative.
func transactionFor(r core.Recurrence) core.Transaction {
	amount := r.Amount.Abs()
	if r.Type == core.TxExpense {
		amount = amount.Neg()
	}
	var category *string
	if r.CategoryID != nil {
		id := *r.CategoryID
		category = &id
	}
	return core.Transaction{
		Date:        r.NextOccurrence,
		AccountID:   r.AccountID,
		Amount:      amount,
		Type:        r.Type,
		CategoryID:  category,
		Description: r.Description,
		Status:      core.TxCleared,
	}
}
