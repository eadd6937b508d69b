package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"financas/internal/analytics"
	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/services"
)

type (
	accountSummaryJSON struct {
		OpenTotal          decimal.Decimal                              `json:"open_total"`
		OpenTotalFormatted string                                       `json:"open_total_formatted"`
		ByStatus           map[core.AccountStatus]analytics.StatusGroup `json:"by_status"`
		Overdue            []accountJSON                                `json:"overdue"`
		Upcoming           []accountJSON                                `json:"upcoming"`
	}

	accountListResponse struct {
		Items   []accountJSON      `json:"items"`
		Summary accountSummaryJSON `json:"summary"`
	}
)

func toAccountSummaryJSON(s analytics.AccountSummary) accountSummaryJSON {
	return accountSummaryJSON{
		OpenTotal:          s.OpenTotal,
		OpenTotalFormatted: core.FormatAmount(s.OpenTotal),
		ByStatus:           s.ByStatus,
		Overdue:            toAccountsJSON(s.Overdue),
		Upcoming:           toAccountsJSON(s.Upcoming),
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context(), s.userID(r))
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	NewResponse().JSON(accountListResponse{
		Items:   toAccountsJSON(accounts),
		Summary: toAccountSummaryJSON(analytics.SummarizeAccounts(accounts)),
	}).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	in := services.AccountInput{
		Title:   p.Get("title"),
		Amount:  p.Get("amount"),
		DueDate: p.Get("due_date"),
		Status:  core.AccountStatus(p.Get("status")),
		Notes:   p.Get("notes"),
	}
	a, err := s.accounts.Create(r.Context(), s.userID(r), in)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", r.URL.Path+"/"+a.ID).
		JSON(toAccountJSON(a)).
		Write(w)
}

func (s *Server) handleToggleAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequestError("missing id").Write(w)
		return
	}
	a, err := s.accounts.ToggleStatus(r.Context(), s.userID(r), id)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	NewResponse().JSON(toAccountJSON(a)).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequestError("missing id").Write(w)
		return
	}
	if err := s.accounts.Delete(r.Context(), s.userID(r), id); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
