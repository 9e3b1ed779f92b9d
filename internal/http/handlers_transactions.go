package http

import (
	"net/http"

	"lumen/internal/core"
	"lumen/internal/log"
)

// transactionsPageLimit bounds the transaction list per month.
const transactionsPageLimit = 200

type transactionsPage struct {
	pageData
	Transactions []transactionView
	Categories   []core.Category
	Today        string
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderTransactions(w, r, "", "")
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) renderTransactions(w http.ResponseWriter, r *http.Request, errMsg, notice string) {
	ctx := r.Context()
	user := userFromContext(ctx)
	month := core.ResolveMonth(r.URL.Query().Get("month"))

	months, err := s.ledger.AvailableMonths(ctx)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	rows, err := s.ledger.Transactions(ctx, month, transactionsPageLimit)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	cats, err := s.ledger.Categories(ctx)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	page := transactionsPage{
		pageData: pageData{
			Title:    "Операции",
			Username: user.Username,
			Month:    month,
			Months:   months,
			Error:    errMsg,
			Notice:   notice,
		},
		Transactions: newTransactionViews(rows),
		Categories:   cats,
		Today:        core.TodayYMD(),
	}
	s.render(w, r, "transactions.html", page)
}

// createTransaction saves a new ledger row. A receipt upload is only kept
// when the category passes the receipt gate.
func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		if err := r.ParseForm(); err != nil {
			s.renderTransactions(w, r, "Некорректный запрос", "")
			return
		}
	}

	t, err := parseTransactionForm(r.Form)
	if err != nil {
		s.renderTransactions(w, r, formErrorMessage(err), "")
		return
	}

	categoryName, err := s.ledger.CategoryName(ctx, t.CategoryID)
	if err != nil {
		s.renderTransactions(w, r, formErrorMessage(err), "")
		return
	}

	if core.AcceptReceipt(t.Kind, categoryName) {
		name, err := s.saveReceipt(r)
		if err != nil {
			s.renderTransactions(w, r, formErrorMessage(err), "")
			return
		}
		t.ReceiptPath = name
	}

	id, err := s.ledger.CreateTransaction(ctx, t)
	if err != nil {
		s.renderTransactions(w, r, formErrorMessage(err), "")
		return
	}

	s.logger.InfoContext(ctx, "transaction created",
		log.FieldTxID, id,
		log.FieldKind, string(t.Kind),
		log.FieldAmount, t.AmountCents,
		log.FieldCategory, categoryName)

	http.Redirect(w, r, "/transactions?month="+core.MonthOf(t.OccurredOn), http.StatusSeeOther)
}
