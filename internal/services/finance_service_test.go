package services

import (
	"context"
	"errors"
	"testing"

	"taskfin/internal/core"
	"taskfin/internal/summary"
)

func validTransfer() TransferRequest {
	return TransferRequest{
		FromAccountID: "bank",
		ToAccountID:   "cash",
		Amount:        core.Money{Cents: 5000},
		Date:          core.NewDate(2026, 3, 10),
		Description:   "ATM",
	}
}

func TestFinanceService_CreateTransfer(t *testing.T) {
	fake := newFakeStore()
	svc := NewFinanceService(fake)

	tr, err := svc.CreateTransfer(context.Background(), validTransfer())
	if err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}
	if len(fake.transactions) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(fake.transactions))
	}

	outLink, _ := tr.Out.Meta.Transfer()
	inLink, _ := tr.In.Meta.Transfer()
	if outLink.LinkID != tr.LinkID || inLink.LinkID != tr.LinkID {
		t.Errorf("legs not linked: out=%+v in=%+v link=%s", outLink, inLink, tr.LinkID)
	}
	if outLink.Direction != core.TransferOut || inLink.Direction != core.TransferIn {
		t.Errorf("directions = %s/%s", outLink.Direction, inLink.Direction)
	}
	if tr.Out.Amount.Cents != -5000 || tr.In.Amount.Cents != 5000 {
		t.Errorf("amounts = %d/%d", tr.Out.Amount.Cents, tr.In.Amount.Cents)
	}
	if tr.Out.Status != core.TxCleared {
		t.Errorf("status = %s, want cleared", tr.Out.Status)
	}

	bank := core.Account{ID: "bank", OpeningBalance: core.Money{Cents: 10000}}
	cash := core.Account{ID: "cash"}
	if got := summary.Balance(bank, fake.transactions); got.Cents != 5000 {
		t.Errorf("bank balance = %s, want 50.00", got)
	}
	if got := summary.Balance(cash, fake.transactions); got.Cents != 5000 {
		t.Errorf("cash balance = %s, want 50.00", got)
	}
}

func TestFinanceService_CreateTransferValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TransferRequest)
		field  string
	}{
		{name: "missing source", mutate: func(r *TransferRequest) { r.FromAccountID = "" }, field: "from_account_id"},
		{name: "missing destination", mutate: func(r *TransferRequest) { r.ToAccountID = " " }, field: "to_account_id"},
		{name: "same account", mutate: func(r *TransferRequest) { r.ToAccountID = r.FromAccountID }, field: "to_account_id"},
		{name: "zero amount", mutate: func(r *TransferRequest) { r.Amount = core.Money{} }, field: "amount"},
		{name: "zero date", mutate: func(r *TransferRequest) { r.Date = core.Date{} }, field: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeStore()
			req := validTransfer()
			tt.mutate(&req)

			_, err := NewFinanceService(fake).CreateTransfer(context.Background(), req)
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
			if len(fake.transactions) != 0 {
				t.Errorf("nothing should be written, got %d", len(fake.transactions))
			}
		})
	}
}

func TestFinanceService_CreateTransferCompensates(t *testing.T) {
	fake := newFakeStore()
	fake.failCreateAfter = 1

	_, err := NewFinanceService(fake).CreateTransfer(context.Background(), validTransfer())
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(fake.transactions) != 0 {
		t.Errorf("outgoing leg should be removed, got %+v", fake.transactions)
	}
}

func TestFinanceService_DeleteTransfer(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStore()
	svc := NewFinanceService(fake)

	tr, err := svc.CreateTransfer(ctx, validTransfer())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTransfer(ctx, tr.LinkID); err != nil {
		t.Fatalf("DeleteTransfer() error = %v", err)
	}
	if len(fake.transactions) != 0 {
		t.Errorf("expected both legs deleted, got %d", len(fake.transactions))
	}
	if err := svc.DeleteTransfer(ctx, tr.LinkID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete = %v, want not found", err)
	}
}
