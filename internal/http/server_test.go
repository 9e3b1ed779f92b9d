package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"lumen/internal/auth"
	"lumen/internal/core"
	"lumen/internal/log"
	"lumen/internal/services"
	"lumen/internal/storage"
)

type testEnv struct {
	server *Server
	repo   *storage.SQLiteRepository
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "lumen.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	ledger := services.NewLedgerService(repo, nil, logger)
	authSvc := auth.NewService(repo, 5)

	srv, err := NewServer(":0", ledger, authSvc, filepath.Join(dir, "receipts"), logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &testEnv{server: srv, repo: repo}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

// login runs the setup flow and stores the session cookie for later requests.
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	rec := e.postForm(t, "/setup", url.Values{
		"username": {"owner"},
		"password": {"secret123"},
		"confirm":  {"secret123"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("setup status = %d, want 303", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			e.cookie = c
			return
		}
	}
	t.Fatal("setup did not set a session cookie")
}

func TestAnonymousRedirects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/setup" {
		t.Errorf("Location = %q, want /setup before an account exists", loc)
	}

	env.login(t)
	env.cookie = nil // forget the session

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login once an account exists", loc)
	}
}

func TestSetupRedirectsOnceAccountExists(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.cookie = nil

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/setup", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("GET /setup after setup = (%d, %q), want (303, /login)",
			rec.Code, rec.Header().Get("Location"))
	}
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.cookie = nil

	rec := env.postForm(t, "/login", url.Values{
		"username": {"owner"},
		"password": {"wrong"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (re-rendered form)", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Неверное имя пользователя или пароль") {
		t.Error("response should contain the credentials error")
	}
}

func TestDashboardRenders(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/?month=2024-03", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Обзор за 2024-03") {
		t.Error("dashboard should show the selected month")
	}
	if !strings.Contains(body, "0.00") {
		t.Error("empty month should render zero totals")
	}
}

func TestCreateCategoryAndTransaction(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()

	rec := env.postForm(t, "/categories", url.Values{
		"name": {"Продукты"},
		"kind": {"expense"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create category status = %d, want 303", rec.Code)
	}

	cats, err := env.repo.ListCategories(ctx)
	if err != nil || len(cats) != 1 {
		t.Fatalf("categories = %v err = %v, want one row", cats, err)
	}

	rec = env.postForm(t, "/transactions", url.Values{
		"kind":        {"expense"},
		"amount":      {"12.50"},
		"date":        {"2024-03-10"},
		"category_id": {strconv.FormatInt(cats[0].ID, 10)},
		"note":        {"рынок"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create transaction status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/transactions?month=2024-03" {
		t.Errorf("Location = %q, want the transaction month", loc)
	}

	rows, err := env.repo.ListTransactions(ctx, "2024-03", 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("transactions = %v err = %v, want one row", rows, err)
	}
	if rows[0].AmountCents != 1250 {
		t.Errorf("AmountCents = %d, want 1250", rows[0].AmountCents)
	}
}

func TestCreateTransactionInvalidAmount(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.postForm(t, "/transactions", url.Values{
		"kind":   {"expense"},
		"amount": {"1.234"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (re-rendered form)", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Некорректная сумма") {
		t.Error("response should contain the amount error")
	}
}

func TestReceiptUploadForGateCategory(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()

	catID, err := env.repo.InsertCategory(ctx, core.Category{Name: "ЖКХ", Kind: core.Expense})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("kind", "expense")
	_ = mw.WriteField("amount", "45.00")
	_ = mw.WriteField("date", "2024-03-12")
	_ = mw.WriteField("category_id", strconv.FormatInt(catID, 10))
	fw, _ := mw.CreateFormFile("receipt", "scan.png")
	_, _ = fw.Write([]byte("png-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/transactions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := env.do(t, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rows, err := env.repo.ListTransactions(ctx, "2024-03", 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("transactions = %v err = %v", rows, err)
	}
	if rows[0].ReceiptPath == "" {
		t.Fatal("gate category transaction should store a receipt path")
	}
	if !strings.HasSuffix(rows[0].ReceiptPath, ".png") {
		t.Errorf("ReceiptPath = %q, want .png suffix", rows[0].ReceiptPath)
	}

	stored := filepath.Join(env.server.receiptsDir, rows[0].ReceiptPath)
	if _, err := os.Stat(stored); err != nil {
		t.Errorf("stored receipt missing: %v", err)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/receipts/"+rows[0].ReceiptPath, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET receipt status = %d, want 200", rec.Code)
	}
}

func TestReceiptIgnoredForOtherCategories(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()

	catID, err := env.repo.InsertCategory(ctx, core.Category{Name: "Продукты", Kind: core.Expense})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("kind", "expense")
	_ = mw.WriteField("amount", "5")
	_ = mw.WriteField("category_id", strconv.FormatInt(catID, 10))
	fw, _ := mw.CreateFormFile("receipt", "scan.jpg")
	_, _ = fw.Write([]byte("jpg-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/transactions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := env.do(t, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rows, err := env.repo.ListTransactions(ctx, core.CurrentMonth(), 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("transactions = %v err = %v", rows, err)
	}
	if rows[0].ReceiptPath != "" {
		t.Errorf("ReceiptPath = %q, want empty for a non-gate category", rows[0].ReceiptPath)
	}
}

func TestBudgetsPage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()

	catID, err := env.repo.InsertCategory(ctx, core.Category{Name: "Продукты", Kind: core.Expense})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}

	rec := env.postForm(t, "/budgets", url.Values{
		"category_id": {strconv.FormatInt(catID, 10)},
		"amount":      {"300"},
		"month":       {"2024-03"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create budget status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/budgets?month=2024-03", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /budgets status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "300.00") {
		t.Error("budgets page should show the allocation")
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.postForm(t, "/logout", url.Values{})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("logout = (%d, %q), want (303, /login)", rec.Code, rec.Header().Get("Location"))
	}

	// The old cookie is now invalid.
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status with dead session = %d, want redirect", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
