package http

import (
	"net/http"

	"lumen/internal/core"
	"lumen/internal/log"
)

type budgetsPage struct {
	pageData
	Budgets    []budgetView
	Categories []core.Category
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderBudgets(w, r, "")
	case http.MethodPost:
		s.createBudget(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) renderBudgets(w http.ResponseWriter, r *http.Request, errMsg string) {
	ctx := r.Context()
	user := userFromContext(ctx)
	month := core.ResolveMonth(r.URL.Query().Get("month"))

	months, err := s.ledger.AvailableMonths(ctx)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	rows, err := s.ledger.Budgets(ctx, month)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	cats, err := s.ledger.Categories(ctx)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	// Budgets only make sense for expense categories.
	expenseCats := make([]core.Category, 0, len(cats))
	for _, c := range cats {
		if c.Kind == core.Expense {
			expenseCats = append(expenseCats, c)
		}
	}

	page := budgetsPage{
		pageData: pageData{
			Title:    "Бюджеты",
			Username: user.Username,
			Month:    month,
			Months:   months,
			Error:    errMsg,
		},
		Budgets:    newBudgetViews(rows),
		Categories: expenseCats,
	}
	s.render(w, r, "budgets.html", page)
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderBudgets(w, r, "Некорректный запрос")
		return
	}

	b, err := parseBudgetForm(r.Form)
	if err != nil {
		s.renderBudgets(w, r, formErrorMessage(err))
		return
	}

	id, err := s.ledger.CreateBudget(r.Context(), b)
	if err != nil {
		s.renderBudgets(w, r, formErrorMessage(err))
		return
	}

	s.logger.InfoContext(r.Context(), "budget created",
		"budget_id", id, log.FieldMonth, b.Month, log.FieldAmount, b.AmountCents)
	http.Redirect(w, r, "/budgets?month="+b.Month, http.StatusSeeOther)
}
