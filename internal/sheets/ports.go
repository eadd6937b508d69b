package sheets

import (
	"context"

	"financas/internal/core"
	"financas/internal/report"
)

// Ports for outbound adapters.
type (
	// TransactionWriter mirrors a stored transaction as a spreadsheet row.
	TransactionWriter interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionDeleter removes a transaction's row. A row that is already
	// gone is not an error.
	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, id string) error
	}

	// ReportExporter writes a report to its own tab and returns the range written.
	ReportExporter interface {
		ExportReport(ctx context.Context, r report.Report) (rangeRef string, err error)
	}
)
