// Package http serves the rendered pages of the ledger. Every page is plain
// server-side HTML; the only state a browser holds is the session cookie.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"lumen/internal/auth"
	"lumen/internal/log"
	"lumen/internal/middleware/ratelimit"
	"lumen/internal/services"
	appweb "lumen/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	ledger      *services.LedgerService
	auth        *auth.Service
	rateLimiter *ratelimit.Limiter
	receiptsDir string
	logger      *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, authSvc *auth.Service, receiptsDir string, logger *log.Logger) (*Server, error) {
	mux := http.NewServeMux()

	s := &Server{
		ledger:      ledger,
		auth:        authSvc,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		receiptsDir: receiptsDir,
		logger:      logger.WithComponent(log.ComponentHTTP),
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/setup", s.withRequest(s.handleSetup))
	mux.HandleFunc("/login", s.withRequest(s.handleLogin))
	mux.HandleFunc("/logout", s.withRequest(s.requireUser(s.handleLogout)))
	mux.HandleFunc("/settings", s.withRequest(s.requireUser(s.handleSettings)))
	mux.HandleFunc("/settings/password", s.withRequest(s.requireUser(s.handleChangePassword)))
	mux.HandleFunc("/settings/logout_all", s.withRequest(s.requireUser(s.handleLogoutAll)))

	mux.HandleFunc("/", s.withRequest(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("/transactions", s.withRequest(s.requireUser(s.handleTransactions)))
	mux.HandleFunc("/categories", s.withRequest(s.requireUser(s.handleCategories)))
	mux.HandleFunc("/budgets", s.withRequest(s.requireUser(s.handleBudgets)))
	mux.HandleFunc("/reports", s.withRequest(s.requireUser(s.handleReports)))
	mux.HandleFunc("/receipts/", s.withRequest(s.requireUser(s.handleReceiptFile)))

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.rateLimiter.Middleware(extractClientIP)(mux),
	}

	return s, nil
}

// Shutdown stops the listener and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequest attaches security headers and request-scoped logging.
func (s *Server) withRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		clientIP := extractClientIP(r)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
