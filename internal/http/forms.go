package http

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"lumen/internal/auth"
	"lumen/internal/core"
)

// Form parsing produces domain values; handlers never read url.Values twice.

func parseTransactionForm(form url.Values) (core.Transaction, error) {
	kind, err := core.ParseKind(form.Get("kind"))
	if err != nil {
		return core.Transaction{}, err
	}

	cents, err := core.ParseAmountCents(form.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}

	occurredOn := strings.TrimSpace(form.Get("date"))
	if occurredOn == "" {
		occurredOn = core.TodayYMD()
	}

	t := core.Transaction{
		Kind:        kind,
		AmountCents: cents,
		OccurredOn:  occurredOn,
		Note:        sanitizeInput(form.Get("note")),
	}

	if raw := strings.TrimSpace(form.Get("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return core.Transaction{}, core.ErrNotFound
		}
		t.CategoryID = &id
	}

	return t, t.Validate()
}

func parseCategoryForm(form url.Values) (core.Category, error) {
	kind, err := core.ParseKind(form.Get("kind"))
	if err != nil {
		return core.Category{}, err
	}
	c := core.Category{
		Name: sanitizeInput(form.Get("name")),
		Kind: kind,
	}
	return c, c.Validate()
}

func parseBudgetForm(form url.Values) (core.Budget, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(form.Get("category_id")), 10, 64)
	if err != nil || id <= 0 {
		return core.Budget{}, core.ErrNotFound
	}

	cents, err := core.ParseAmountCents(form.Get("amount"))
	if err != nil {
		return core.Budget{}, err
	}

	month := strings.TrimSpace(form.Get("month"))
	if month == "" {
		month = core.CurrentMonth()
	}

	b := core.Budget{
		CategoryID:  id,
		Month:       month,
		AmountCents: cents,
	}
	return b, b.Validate()
}

type credentialsForm struct {
	Username string
	Password string
	Confirm  string
}

func parseCredentialsForm(form url.Values) credentialsForm {
	return credentialsForm{
		Username: sanitizeInput(form.Get("username")),
		Password: form.Get("password"),
		Confirm:  form.Get("confirm"),
	}
}

type passwordForm struct {
	Current string
	Next    string
	Confirm string
}

func parsePasswordForm(form url.Values) passwordForm {
	return passwordForm{
		Current: form.Get("current_password"),
		Next:    form.Get("new_password"),
		Confirm: form.Get("confirm_password"),
	}
}

// formErrorMessage maps domain errors to messages shown next to the form.
func formErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Некорректная сумма"
	case errors.Is(err, core.ErrInvalidKind):
		return "Некорректный тип операции"
	case errors.Is(err, core.ErrInvalidDate):
		return "Некорректная дата"
	case errors.Is(err, core.ErrInvalidMonth):
		return "Некорректный месяц"
	case errors.Is(err, core.ErrEmptyName):
		return "Название не может быть пустым"
	case errors.Is(err, core.ErrNotFound):
		return "Категория не найдена"
	case errors.Is(err, core.ErrIOFailure):
		return "Не удалось сохранить файл"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Неверное имя пользователя или пароль"
	case errors.Is(err, auth.ErrPasswordTooShort):
		return "Пароль слишком короткий"
	case errors.Is(err, auth.ErrPasswordMismatch):
		return "Пароли не совпадают"
	case errors.Is(err, auth.ErrEmptyUsername):
		return "Имя пользователя не может быть пустым"
	case errors.Is(err, auth.ErrSetupDone):
		return "Учетная запись уже создана"
	default:
		return "Не удалось выполнить операцию"
	}
}
