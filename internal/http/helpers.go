package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// HeaderUserID is set by the upstream auth gateway.
const HeaderUserID = "X-User-ID"

// userID returns the caller's identity, falling back to the configured default.
func (s *Server) userID(r *http.Request) string {
	if id := sanitizeInput(r.Header.Get(HeaderUserID)); id != "" {
		return id
	}
	return s.defaultUserID
}

// Wire shapes. Amounts travel as decimal strings, dates as YYYY-MM-DD.
type (
	transactionJSON struct {
		ID              string          `json:"id"`
		Type            string          `json:"type"`
		Amount          decimal.Decimal `json:"amount"`
		AmountFormatted string          `json:"amount_formatted"`
		Description     string          `json:"description"`
		Category        string          `json:"category"`
		Date            string          `json:"date"`
		Notes           string          `json:"notes,omitempty"`
		CreatedAt       time.Time       `json:"created_at"`
	}

	accountJSON struct {
		ID              string          `json:"id"`
		Title           string          `json:"title"`
		Amount          decimal.Decimal `json:"amount"`
		AmountFormatted string          `json:"amount_formatted"`
		Status          string          `json:"status"`
		DueDate         string          `json:"due_date"`
		Notes           string          `json:"notes,omitempty"`
		CreatedAt       time.Time       `json:"created_at"`
	}
)

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:              t.ID,
		Type:            string(t.Type),
		Amount:          t.Amount,
		AmountFormatted: core.FormatAmount(t.Amount),
		Description:     t.Description,
		Category:        t.Category,
		Date:            t.Date.String(),
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
	}
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:              a.ID,
		Title:           a.Title,
		Amount:          a.Amount,
		AmountFormatted: core.FormatAmount(a.Amount),
		Status:          string(a.Status),
		DueDate:         a.DueDate.String(),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
	}
}

func toAccountsJSON(accounts []core.Account) []accountJSON {
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	return out
}

// pathID reads the {id} wildcard, rejecting blanks.
func pathID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	return id, id != ""
}
