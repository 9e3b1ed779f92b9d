package http

import (
	"net/http"

	"lumen/internal/core"
	"lumen/internal/log"
)

type categoriesPage struct {
	pageData
	Income  []core.Category
	Expense []core.Category
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderCategories(w, r, "")
	case http.MethodPost:
		s.createCategory(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) renderCategories(w http.ResponseWriter, r *http.Request, errMsg string) {
	ctx := r.Context()
	user := userFromContext(ctx)

	cats, err := s.ledger.Categories(ctx)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	page := categoriesPage{
		pageData: pageData{
			Title:    "Категории",
			Username: user.Username,
			Error:    errMsg,
		},
	}
	for _, c := range cats {
		if c.Kind == core.Income {
			page.Income = append(page.Income, c)
		} else {
			page.Expense = append(page.Expense, c)
		}
	}
	s.render(w, r, "categories.html", page)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderCategories(w, r, "Некорректный запрос")
		return
	}

	c, err := parseCategoryForm(r.Form)
	if err != nil {
		s.renderCategories(w, r, formErrorMessage(err))
		return
	}

	id, err := s.ledger.CreateCategory(r.Context(), c)
	if err != nil {
		s.renderCategories(w, r, formErrorMessage(err))
		return
	}

	s.logger.InfoContext(r.Context(), "category created",
		"category_id", id, log.FieldCategory, c.Name, log.FieldKind, string(c.Kind))
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}
