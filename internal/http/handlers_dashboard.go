package http

import (
	"net/http"

	"lumen/internal/core"
	"lumen/internal/log"
)

// recentTransactionsLimit bounds the dashboard list; the full ledger lives on
// /transactions.
const recentTransactionsLimit = 10

type dashboardPage struct {
	pageData
	Income  string
	Expense string
	Net     string
	NetNeg  bool
	Recent  []transactionView
	Budgets []budgetView
}

// handleDashboard renders the month overview. An explicit ?month=YYYY-MM
// overrides the current month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
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

	income, expense, err := s.ledger.MonthTotals(ctx, month)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	recent, err := s.ledger.Transactions(ctx, month, recentTransactionsLimit)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	budgets, err := s.ledger.Budgets(ctx, month)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	net := income - expense
	page := dashboardPage{
		pageData: pageData{
			Title:    "Обзор",
			Username: user.Username,
			Month:    month,
			Months:   months,
		},
		Income:  core.FormatCents(income),
		Expense: core.FormatCents(expense),
		Net:     core.FormatCents(net),
		NetNeg:  net < 0,
		Recent:  newTransactionViews(recent),
		Budgets: newBudgetViews(budgets),
	}

	s.logger.DebugContext(ctx, "dashboard rendered", log.FieldMonth, month)
	s.render(w, r, "dashboard.html", page)
}
