package http

import (
	"net/http"

	"lumen/internal/log"
)

type authPage struct {
	Title string
	Error string
}

type settingsPage struct {
	pageData
	Sessions int64
}

// handleSetup creates the single account. Once a user exists the page always
// redirects to /login.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	needsSetup, err := s.auth.NeedsSetup(r.Context())
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}
	if !needsSetup {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "setup.html", authPage{Title: "Первый запуск"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.render(w, r, "setup.html", authPage{Title: "Первый запуск", Error: "Некорректный запрос"})
			return
		}
		form := parseCredentialsForm(r.Form)
		token, err := s.auth.Setup(r.Context(), form.Username, form.Password, form.Confirm)
		if err != nil {
			s.render(w, r, "setup.html", authPage{Title: "Первый запуск", Error: formErrorMessage(err)})
			return
		}
		s.logger.InfoContext(r.Context(), "account created", log.FieldUser, form.Username)
		setSessionCookie(w, token)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	needsSetup, err := s.auth.NeedsSetup(r.Context())
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}
	if needsSetup {
		http.Redirect(w, r, "/setup", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", authPage{Title: "Вход"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.render(w, r, "login.html", authPage{Title: "Вход", Error: "Некорректный запрос"})
			return
		}
		form := parseCredentialsForm(r.Form)
		token, err := s.auth.Login(r.Context(), form.Username, form.Password)
		if err != nil {
			s.logger.WarnContext(r.Context(), "login failed",
				log.FieldUser, form.Username, log.FieldClientIP, extractClientIP(r))
			s.render(w, r, "login.html", authPage{Title: "Вход", Error: formErrorMessage(err)})
			return
		}
		setSessionCookie(w, token)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.logger.WarnContext(r.Context(), "logout failed", log.FieldError, err)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	user := userFromContext(r.Context())

	count, err := s.auth.SessionCount(r.Context(), user.ID)
	if err != nil {
		s.renderServerError(w, r, err)
		return
	}

	page := settingsPage{
		pageData: pageData{
			Title:    "Настройки",
			Username: user.Username,
			Error:    r.URL.Query().Get("error"),
			Notice:   r.URL.Query().Get("notice"),
		},
		Sessions: count,
	}
	s.render(w, r, "settings.html", page)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/settings?error=Некорректный+запрос", http.StatusSeeOther)
		return
	}

	user := userFromContext(r.Context())
	form := parsePasswordForm(r.Form)
	if err := s.auth.ChangePassword(r.Context(), user, form.Current, form.Next, form.Confirm); err != nil {
		http.Redirect(w, r, "/settings?error="+queryEscape(formErrorMessage(err)), http.StatusSeeOther)
		return
	}

	s.logger.InfoContext(r.Context(), "password changed", log.FieldUser, user.Username)
	http.Redirect(w, r, "/settings?notice="+queryEscape("Пароль обновлен"), http.StatusSeeOther)
}

// handleLogoutAll drops every session, including the current one.
func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	user := userFromContext(r.Context())
	if err := s.auth.LogoutAll(r.Context(), user.ID); err != nil {
		s.renderServerError(w, r, err)
		return
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
