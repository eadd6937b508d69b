package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/analytics"
	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/settings"
)

// Upper bounds for the dashboard window overrides.
const (
	maxMonths = 36
	maxDays   = 92
	maxTop    = 50
)

type (
	dashboardResponse struct {
		GeneratedAt     time.Time                  `json:"generated_at"`
		Overview        analytics.Overview         `json:"overview"`
		Monthly         []analytics.MonthBucket    `json:"monthly"`
		Performance     []analytics.DayBucket      `json:"performance"`
		Categories      []analytics.CategoryBucket `json:"categories"`
		Accounts        accountSummaryJSON         `json:"accounts"`
		VisibleSections []settings.Section         `json:"visible_sections"`
	}

	calendarDay struct {
		Date     string        `json:"date"`
		Day      int           `json:"day"`
		InMonth  bool          `json:"in_month"`
		Today    bool          `json:"today"`
		Accounts []accountJSON `json:"accounts"`
	}

	calendarResponse struct {
		Year  int             `json:"year"`
		Month int             `json:"month"`
		Label string          `json:"label"`
		Weeks [][]calendarDay `json:"weeks"`
	}
)

// dashboardData is everything one dashboard request reads from storage.
type dashboardData struct {
	entries, exits []core.Record
	accounts       []core.Account
	prefs          settings.Settings
}

// loadDashboardData reads records, bills and settings concurrently.
func (s *Server) loadDashboardData(ctx context.Context, userID string) (dashboardData, error) {
	ctx, cancel := context.WithTimeout(ctx, dashboardTimeout)
	defer cancel()

	var d dashboardData
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.entries, d.exits, err = s.transactions.Records(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		d.accounts, err = s.accounts.List(ctx, userID)
		return err
	})
	g.Go(func() error {
		if s.settings == nil {
			d.prefs = settings.Default()
			return nil
		}
		var err error
		d.prefs, err = s.settings.LoadSettings(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return dashboardData{}, err
	}
	return d, nil
}

// handleDashboard serves every chart of the dashboard in one response.
// The months, days and top query parameters override the default windows.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboardData(r.Context(), s.userID(r))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}

	q := r.URL.Query()
	months := IntParam(q, "months", analytics.DefaultMonths, maxMonths)
	days := IntParam(q, "days", analytics.DefaultDays, maxDays)
	top := IntParam(q, "top", analytics.DefaultTopCategories, maxTop)

	now := s.now()
	categories := analytics.AggregateCategories(d.entries, d.exits, top)
	if categories == nil {
		categories = []analytics.CategoryBucket{}
	}

	NewResponse().JSON(dashboardResponse{
		GeneratedAt:     now,
		Overview:        analytics.BuildOverview(d.entries, d.exits, d.accounts, now),
		Monthly:         analytics.AggregateByMonth(d.entries, d.exits, months, now),
		Performance:     analytics.AggregatePerformance(d.entries, d.exits, days, now),
		Categories:      categories,
		Accounts:        toAccountSummaryJSON(analytics.SummarizeAccounts(d.accounts)),
		VisibleSections: d.prefs.VisibleSections(),
	}).Write(w)
}

// handleCalendar lays the bills of one month out on a Sunday-first grid.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context(), s.userID(r))
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}

	now := s.now()
	params := ParseMonthParams(r.URL.Query(), now)
	visible := params.Time(now.Location())
	today := now.Format(core.DateLayout)
	byDue := analytics.GroupAccountsByDue(accounts)

	resp := calendarResponse{
		Year:  params.Year,
		Month: params.Month,
		Label: analytics.MonthLabel(visible.Month()) + " " + visible.Format("2006"),
	}
	for _, week := range analytics.BuildMonthMatrix(visible) {
		row := make([]calendarDay, 0, len(week))
		for _, day := range week {
			key := day.Format(core.DateLayout)
			row = append(row, calendarDay{
				Date:     key,
				Day:      day.Day(),
				InMonth:  day.Month() == visible.Month(),
				Today:    key == today,
				Accounts: toAccountsJSON(byDue[key]),
			})
		}
		resp.Weeks = append(resp.Weeks, row)
	}

	NewResponse().JSON(resp).Write(w)
}
