package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"financas/internal/analytics"
	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/services"
)

type transactionListResponse struct {
	Items          []transactionJSON `json:"items"`
	Total          decimal.Decimal   `json:"total"`
	TotalFormatted string            `json:"total_formatted"`
}

func (s *Server) handleListTransactions(typ core.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := s.transactions.List(r.Context(), s.userID(r), typ)
		if err != nil {
			s.fail(w, r, applog.OpList, err)
			return
		}
		total := analytics.Sum(core.Records(txs))
		NewResponse().JSON(transactionListResponse{
			Items:          toTransactionsJSON(txs),
			Total:          total,
			TotalFormatted: core.FormatAmount(total),
		}).Write(w)
	}
}

// handleCreateTransaction accepts JSON or form bodies. The date defaults to
// today; the amount may be localized text or a JSON number.
func (s *Server) handleCreateTransaction(typ core.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err != nil {
			BadRequestError("invalid request body").Write(w)
			return
		}

		date := p.Get("date")
		if date == "" {
			date = s.now().Format(core.DateLayout)
		}
		in := services.TransactionInput{
			Type:        typ,
			Amount:      p.Get("amount"),
			Description: p.Get("description"),
			Category:    p.Get("category"),
			Date:        date,
			Notes:       p.Get("notes"),
		}

		t, err := s.transactions.Create(r.Context(), s.userID(r), in)
		if err != nil {
			s.fail(w, r, applog.OpCreate, err)
			return
		}

		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogTransactionCreated(r.Context(), t.ID, string(t.Type), t.Amount.String(), t.Category)

		NewResponse().
			Status(http.StatusCreated).
			Header("Location", r.URL.Path+"/"+t.ID).
			JSON(toTransactionJSON(t)).
			Write(w)
	}
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequestError("missing id").Write(w)
		return
	}
	if err := s.transactions.Delete(r.Context(), s.userID(r), id); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
