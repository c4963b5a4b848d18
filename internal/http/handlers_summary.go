package http

import (
	"net/http"
)

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.store.Balances()))
}

// handleBudgetStatuses reports spending against each budget of ?month=YYYY-MM
// (default: this month).
func (s *Server) handleBudgetStatuses(w http.ResponseWriter, r *http.Request) {
	month, err := ParseYearMonth(r.URL.Query(), "month", s.store.Today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(s.store.BudgetStatuses(month)))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"overall": s.store.Progress(),
		"lists":   orEmpty(s.store.ProgressByList()),
	})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days, err := ParseIntParam(r.URL.Query(), "days", s.upcomingDays, 1, 366)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(s.store.Upcoming(days)))
}

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	year, month, err := ParseMonthParams(r.URL.Query(), s.store.Today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.MonthOverview(year, month))
}
