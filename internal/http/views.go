package http

import (
	"html/template"
	"math"

	"lumen/internal/core"
	"lumen/internal/storage"
)

// View models carry pre-formatted strings so templates stay logic-free.

type pageData struct {
	Title    string
	Username string
	Month    string
	Months   []string
	Error    string
	Notice   string
}

type transactionView struct {
	ID         int64
	Date       string
	Kind       core.Kind
	Category   string
	Amount     string
	Note       string
	ReceiptURL string
	IsExpense  bool
}

type budgetView struct {
	Category  string
	Month     string
	Allocated string
	Spent     string
	Remaining string
	Percent   int
	Over      bool
}

type monthReportView struct {
	Month   string
	Income  string
	Expense string
	Net     string
	NetNeg  bool
}

type categoryReportView struct {
	Category string
	Expense  string
}

func newTransactionView(row storage.TransactionRow) transactionView {
	v := transactionView{
		ID:        row.ID,
		Date:      row.OccurredOn,
		Kind:      row.Kind,
		Category:  row.CategoryName,
		Amount:    core.FormatCents(row.AmountCents),
		Note:      row.Note,
		IsExpense: row.Kind == core.Expense,
	}
	if row.ReceiptPath != "" {
		v.ReceiptURL = "/receipts/" + row.ReceiptPath
	}
	return v
}

func newTransactionViews(rows []storage.TransactionRow) []transactionView {
	views := make([]transactionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newTransactionView(row))
	}
	return views
}

// newBudgetView computes spent-of-allocated percent, rounded to the nearest
// integer. A zero allocation always reads as 0% to avoid division by zero.
func newBudgetView(row storage.BudgetRow) budgetView {
	percent := 0
	if row.AmountCents > 0 {
		percent = int(math.Round(float64(row.SpentCents) / float64(row.AmountCents) * 100))
	}
	return budgetView{
		Category:  row.CategoryName,
		Month:     row.Month,
		Allocated: core.FormatCents(row.AmountCents),
		Spent:     core.FormatCents(row.SpentCents),
		Remaining: core.FormatCents(row.AmountCents - row.SpentCents),
		Percent:   percent,
		Over:      row.SpentCents > row.AmountCents,
	}
}

func newBudgetViews(rows []storage.BudgetRow) []budgetView {
	views := make([]budgetView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newBudgetView(row))
	}
	return views
}

func newMonthReportViews(rows []storage.MonthReportRow) []monthReportView {
	views := make([]monthReportView, 0, len(rows))
	for _, row := range rows {
		views = append(views, monthReportView{
			Month:   row.Month,
			Income:  core.FormatCents(row.IncomeCents),
			Expense: core.FormatCents(row.ExpenseCents),
			Net:     core.FormatCents(row.NetCents),
			NetNeg:  row.NetCents < 0,
		})
	}
	return views
}

func newCategoryReportViews(rows []storage.CategoryReportRow) []categoryReportView {
	views := make([]categoryReportView, 0, len(rows))
	for _, row := range rows {
		views = append(views, categoryReportView{
			Category: row.CategoryName,
			Expense:  core.FormatCents(row.ExpenseCents),
		})
	}
	return views
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": core.FormatCents,
	}
}
