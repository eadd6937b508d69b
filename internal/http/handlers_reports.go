package http

import (
	"bytes"
	"net/http"
	"strings"

	"financas/internal/analytics"
	applog "financas/internal/log"
	"financas/internal/report"
)

// Export formats accepted by /api/reports/export.
const (
	formatPDF    = "pdf"
	formatCSV    = "csv"
	formatSheets = "sheets"
)

type sheetsExportResponse struct {
	Sheet string `json:"sheet"`
	Range string `json:"range"`
}

// buildReport aggregates the caller's records for the period query parameter.
func (s *Server) buildReport(r *http.Request) (report.Report, error) {
	entries, exits, err := s.transactions.Records(r.Context(), s.userID(r))
	if err != nil {
		return report.Report{}, err
	}
	period := analytics.ParsePeriod(r.URL.Query().Get("period"))
	rep := report.Build(entries, exits, period, s.now())
	if rep.Rows == nil {
		rep.Rows = []analytics.ReportRow{}
	}
	return rep, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.buildReport(r)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(rep).Write(w)
}

// handleExportReport renders the report as a PDF or CSV download, or writes
// it to a new tab of the configured spreadsheet.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = formatPDF
	}
	if format != formatPDF && format != formatCSV && format != formatSheets {
		UnprocessableEntityError("unknown export format: " + format).Write(w)
		return
	}
	if format == formatSheets && s.exporter == nil {
		ServiceUnavailableError("Google Sheets export is not configured").Write(w)
		return
	}

	rep, err := s.buildReport(r)
	if err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}
	logger := applog.FromContext(r.Context())

	switch format {
	case formatSheets:
		ref, err := s.exporter.ExportReport(r.Context(), rep)
		if err != nil {
			s.fail(w, r, applog.OpExport, err)
			return
		}
		logger.InfoContext(r.Context(), "Report exported",
			applog.FieldPeriod, string(rep.Period),
			applog.FieldFormat, format,
			applog.FieldSheetsRef, ref)
		NewResponse().JSON(sheetsExportResponse{Sheet: rep.SheetTitle(), Range: ref}).Write(w)

	case formatCSV, formatPDF:
		var buf bytes.Buffer
		contentType := "text/csv; charset=utf-8"
		write := report.WriteCSV
		if format == formatPDF {
			contentType = "application/pdf"
			write = report.WritePDF
		}
		if err := write(&buf, rep); err != nil {
			s.fail(w, r, applog.OpExport, err)
			return
		}
		logger.InfoContext(r.Context(), "Report exported",
			applog.FieldPeriod, string(rep.Period),
			applog.FieldFormat, format)
		NewResponse().Attachment(rep.Filename(format), contentType, buf.Bytes()).Write(w)
	}
}
