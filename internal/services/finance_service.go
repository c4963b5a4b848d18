package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"taskfin/internal/core"
	applog "taskfin/internal/log"
	"taskfin/internal/store"
)

// TransactionStore is the part of the record store the finance services
// write through. *store.Store implements it.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	TransferLegs(linkID string) []core.Transaction
	Recurrences() []core.Recurrence
	UpdateRecurrence(ctx context.Context, id string, patch store.RecurrencePatch) (core.Recurrence, error)
}

var _ TransactionStore = (*store.Store)(nil)

// TransferRequest describes money moved between two of the user's accounts.
type TransferRequest struct {
	FromAccountID string                 `json:"from_account_id"`
	ToAccountID   string                 `json:"to_account_id"`
	Amount        core.Money             `json:"amount"`
	Date          core.Date              `json:"date"`
	Description   string                 `json:"description,omitempty"`
	Status        core.TransactionStatus `json:"status,omitempty"`
}

func (r TransferRequest) Validate() error {
	if strings.TrimSpace(r.FromAccountID) == "" {
		return &core.ValidationError{Field: "from_account_id", Err: core.ErrMissingAccount}
	}
	if strings.TrimSpace(r.ToAccountID) == "" {
		return &core.ValidationError{Field: "to_account_id", Err: core.ErrMissingAccount}
	}
	if r.FromAccountID == r.ToAccountID {
		return &core.ValidationError{Field: "to_account_id", Err: errors.New("transfer to the same account")}
	}
	if err := r.Amount.Validate(); err != nil {
		return &core.ValidationError{Field: "amount", Err: err}
	}
	if err := r.Date.Validate(); err != nil {
		return &core.ValidationError{Field: "date", Err: err}
	}
	return nil
}

// Transfer is a pair of linked legs.
type Transfer struct {
	LinkID string           `json:"link_id"`
	Out    core.Transaction `json:"out"`
	In     core.Transaction `json:"in"`
}

// FinanceService orchestrates finance operations that touch more than one
// record.
type FinanceService struct {
	store TransactionStore
}

func NewFinanceService(s TransactionStore) *FinanceService {
	return &FinanceService{store: s}
}

// CreateTransfer records a transfer as two legs sharing one link id: an
// outgoing leg on the source account and an incoming leg on the
// destination. When the second leg fails the first is removed again.
func (s *FinanceService) CreateTransfer(ctx context.Context, req TransferRequest) (Transfer, error) {
	if err := req.Validate(); err != nil {
		return Transfer{}, err
	}
	status := req.Status
	if status == "" {
		status = core.TxCleared
	}

	linkID := core.NewID()
	from, to := req.FromAccountID, req.ToAccountID
	amount := req.Amount.Abs()

	out, err := s.store.CreateTransaction(ctx, core.Transaction{
		Date:                 req.Date,
		AccountID:            from,
		DestinationAccountID: &to,
		Amount:               amount.Neg(),
		Type:                 core.TxTransfer,
		Description:          req.Description,
		Status:               status,
		Meta:                 core.TransferMeta(linkID, core.TransferOut),
	})
	if err != nil {
		return Transfer{}, fmt.Errorf("create outgoing leg: %w", err)
	}

	in, err := s.store.CreateTransaction(ctx, core.Transaction{
		Date:                 req.Date,
		AccountID:            to,
		DestinationAccountID: &from,
		Amount:               amount,
		Type:                 core.TxTransfer,
		Description:          req.Description,
		Status:               status,
		Meta:                 core.TransferMeta(linkID, core.TransferIn),
	})
	if err != nil {
		if delErr := s.store.DeleteTransaction(ctx, out.ID); delErr != nil {
			slog.ErrorContext(ctx, "Failed to remove orphaned transfer leg",
				"transaction_id", out.ID,
				"link_id", linkID,
				"error", delErr)
		}
		return Transfer{}, fmt.Errorf("create incoming leg: %w", err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpTransfer).
		WithTransaction(from, amount.Cents)
	applog.FromContext(ctx).WithComponent(applog.ComponentFinance).
		InfoContext(ctx, "Created transfer", append(fields.ToSlice(), "link_id", linkID, "to_account", to)...)

	return Transfer{LinkID: linkID, Out: out, In: in}, nil
}

// DeleteTransfer removes every leg carrying linkID.
func (s *FinanceService) DeleteTransfer(ctx context.Context, linkID string) error {
	legs := s.store.TransferLegs(linkID)
	if len(legs) == 0 {
		return core.ErrNotFound
	}
	for _, leg := range legs {
		if err := s.store.DeleteTransaction(ctx, leg.ID); err != nil {
			return fmt.Errorf("delete transfer leg %s: %w", leg.ID, err)
		}
	}
	slog.InfoContext(ctx, "Deleted transfer", "link_id", linkID, "legs", len(legs))
	return nil
}
