package http

import (
	"errors"
	"net/http"
	"strings"

	"taskfin/internal/core"
	"taskfin/internal/services"
	"taskfin/internal/store"
)

var errTransferEndpoint = errors.New("transfers are managed through /api/transfers")

// signed applies the storage sign convention: expenses negative, income
// positive. Transfers keep the sign they were given.
func signed(typ core.TransactionType, m core.Money) core.Money {
	switch typ {
	case core.TxExpense:
		return m.Abs().Neg()
	case core.TxIncome:
		return m.Abs()
	}
	return m
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("archived") == "true"
	var out []core.Account
	for _, a := range s.store.Accounts() {
		if includeArchived || !a.Archived {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, orEmpty(out))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = ""
	created, err := s.store.CreateAccount(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var patch store.AccountPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateAccount(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteAccount deletes the account with its transactions and
// recurrences.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	balance, err := s.store.Balance(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_id": id, "balance": balance})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.CategoryType(strings.ToLower(r.URL.Query().Get("type")))
	var out []core.Category
	for _, c := range s.store.Categories() {
		if typ == "" || c.Type == typ {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, orEmpty(out))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = ""
	created, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilterSpec(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(s.store.Transactions(spec)))
}

// handleCreateTransaction records an expense or income. Transfers go
// through /api/transfers so both legs are written.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	if t.Type == core.TxTransfer {
		writeError(w, r, &core.ValidationError{Field: "type", Err: errTransferEndpoint})
		return
	}
	t.ID = ""
	t.Meta = core.NoMeta()
	t.Amount = signed(t.Type, t.Amount)
	created, err := s.store.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch store.TransactionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	id := r.PathValue("id")
	current, err := s.store.Transaction(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, linked := current.Meta.Transfer(); linked && (patch.Amount != nil || patch.AccountID != nil || patch.Type != nil) {
		writeError(w, r, &core.ValidationError{Field: "amount", Err: errTransferEndpoint})
		return
	}
	if patch.Amount != nil {
		typ := current.Type
		if patch.Type != nil {
			typ = *patch.Type
		}
		amount := signed(typ, *patch.Amount)
		patch.Amount = &amount
	}
	updated, err := s.store.UpdateTransaction(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteTransaction deletes one transaction. Deleting a leg of a
// linked transfer deletes both legs.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, err := s.store.Transaction(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if link, ok := current.Meta.Transfer(); ok {
		err = s.finance.DeleteTransfer(r.Context(), link.LinkID)
	} else {
		err = s.store.DeleteTransaction(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req services.TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = s.store.Today()
	}
	transfer, err := s.finance.CreateTransfer(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transfer)
}

func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteTransfer(r.Context(), r.PathValue("link")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRecurrences(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	var out []core.Recurrence
	for _, rec := range s.store.Recurrences() {
		if !activeOnly || rec.Active {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, orEmpty(out))
}

func (s *Server) handleCreateRecurrence(w http.ResponseWriter, r *http.Request) {
	var rec core.Recurrence
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, r, err)
		return
	}
	rec.ID = ""
	rec.Amount = rec.Amount.Abs()
	created, err := s.store.CreateRecurrence(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRecurrence(w http.ResponseWriter, r *http.Request) {
	var patch store.RecurrencePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Amount != nil {
		abs := patch.Amount.Abs()
		patch.Amount = &abs
	}
	updated, err := s.store.UpdateRecurrence(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecurrence(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRecurrence(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	var out []core.Budget
	for _, b := range s.store.Budgets() {
		if month == "" || b.YearMonth == month {
			out = append(out, b)
		}
	}
	writeJSON(w, http.StatusOK, orEmpty(out))
}

// budgetRequest tells an omitted alert_threshold apart from an explicit 0.
type budgetRequest struct {
	core.Budget
	AlertThreshold *int `json:"alert_threshold"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b := req.Budget
	b.ID = ""
	b.AlertThreshold = core.DefaultAlertThreshold
	if req.AlertThreshold != nil {
		b.AlertThreshold = *req.AlertThreshold
	}
	created, err := s.store.CreateBudget(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var patch store.BudgetPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateBudget(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBudget(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
