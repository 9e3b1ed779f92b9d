package http

import (
	"net/http"

	"lumen/internal/core"
)

// reportMonthsLimit bounds the month-over-month table.
const reportMonthsLimit = 12

type reportsPage struct {
	pageData
	MonthRows    []monthReportView
	CategoryRows []categoryReportView
}

// handleReports renders the month-over-month totals and the per-category
// expense breakdown for the selected month.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	ctx := r.Context()
	user := userFromContext(ctx)
	month := core.ResolveMonth(r.URL.Query().Get("month"))

	months, err := s.ledger.AvailableMonths(ctx)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	monthRows, err := s.ledger.ReportMonths(ctx, reportMonthsLimit)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	categoryRows, err := s.ledger.ReportCategories(ctx, month)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	page := reportsPage{
		pageData: pageData{
			Title:    "Отчеты",
			Username: user.Username,
			Month:    month,
			Months:   months,
		},
		MonthRows:    newMonthReportViews(monthRows),
		CategoryRows: newCategoryReportViews(categoryRows),
	}
	s.render(w, r, "reports.html", page)
}
