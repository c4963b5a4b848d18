package services

import (
	"context"
	"errors"
	"fmt"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

var errBackend = errors.New("backend unavailable")

type fakeStore struct {
	transactions []core.Transaction
	recurrences  []core.Recurrence
	seq          int

	// failCreateAfter makes every create after that many successes fail.
	failCreateAfter int
	failUpdate      bool
	failDelete      bool
}

func newFakeStore() *fakeStore { return &fakeStore{failCreateAfter: -1} }

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if f.failCreateAfter >= 0 && f.seq >= f.failCreateAfter {
		return core.Transaction{}, errBackend
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	f.seq++
	t.ID = fmt.Sprintf("tx-%d", f.seq)
	f.transactions = append(f.transactions, t)
	return t, nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id string) error {
	if f.failDelete {
		return errBackend
	}
	for i, t := range f.transactions {
		if t.ID == id {
			f.transactions = append(f.transactions[:i], f.transactions[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeStore) TransferLegs(linkID string) []core.Transaction {
	var legs []core.Transaction
	for _, t := range f.transactions {
		if link, ok := t.Meta.Transfer(); ok && link.LinkID == linkID {
			legs = append(legs, t)
		}
	}
	return legs
}

func (f *fakeStore) Recurrences() []core.Recurrence {
	return append([]core.Recurrence(nil), f.recurrences...)
}

func (f *fakeStore) UpdateRecurrence(_ context.Context, id string, patch store.RecurrencePatch) (core.Recurrence, error) {
	if f.failUpdate {
		return core.Recurrence{}, errBackend
	}
	for i, r := range f.recurrences {
		if r.ID == id {
			if patch.NextOccurrence != nil {
				r.NextOccurrence = *patch.NextOccurrence
			}
			f.recurrences[i] = r
			return r, nil
		}
	}
	return core.Recurrence{}, core.ErrNotFound
}
