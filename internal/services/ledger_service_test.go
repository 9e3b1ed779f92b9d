package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"lumen/internal/core"
	"lumen/internal/log"
	"lumen/internal/storage"
)

type recordingPublisher struct {
	ids []int64
	err error
}

func (p *recordingPublisher) PublishTransactionSync(_ context.Context, id, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}

func newTestService(t *testing.T, pub TransactionPublisher) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "lumen.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	return NewLedgerService(repo, pub, logger)
}

func TestCreateTransactionPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	id, err := svc.CreateTransaction(ctx, core.Transaction{
		Kind: core.Expense, AmountCents: 500, OccurredOn: "2024-02-10",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if len(pub.ids) != 1 || pub.ids[0] != id {
		t.Errorf("published ids = %v, want [%d]", pub.ids, id)
	}
}

func TestCreateTransactionSurvivesPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)
	ctx := context.Background()

	id, err := svc.CreateTransaction(ctx, core.Transaction{
		Kind: core.Income, AmountCents: 10000, OccurredOn: "2024-02-01",
	})
	if err != nil {
		t.Fatalf("CreateTransaction with failing publisher: %v", err)
	}

	// The row stays pending so the sweep can retry.
	row, err := svc.Transaction(ctx, id)
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if row.SyncStatus != storage.SyncPending {
		t.Errorf("SyncStatus = %q, want %q", row.SyncStatus, storage.SyncPending)
	}
}

func TestCreateTransactionValidates(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Kind: "transfer", AmountCents: 100, OccurredOn: "2024-02-10",
	})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("error = %v, want ErrInvalidKind", err)
	}
}

func TestAvailableMonthsIncludesCurrent(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	months, err := svc.AvailableMonths(ctx)
	if err != nil {
		t.Fatalf("AvailableMonths: %v", err)
	}
	if len(months) != 1 || months[0] != core.CurrentMonth() {
		t.Fatalf("AvailableMonths on empty ledger = %v, want [%s]", months, core.CurrentMonth())
	}
}

func TestAvailableMonthsCacheInvalidatedByWrite(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.AvailableMonths(ctx); err != nil {
		t.Fatalf("AvailableMonths: %v", err)
	}

	if _, err := svc.CreateTransaction(ctx, core.Transaction{
		Kind: core.Expense, AmountCents: 100, OccurredOn: "2019-06-15",
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	months, err := svc.AvailableMonths(ctx)
	if err != nil {
		t.Fatalf("AvailableMonths after write: %v", err)
	}
	found := false
	for _, m := range months {
		if m == "2019-06" {
			found = true
		}
	}
	if !found {
		t.Errorf("months after write = %v, want to include 2019-06", months)
	}
}

func TestAvailableMonthsOrdering(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for _, m := range []string{"2020-01-15", "2021-07-01"} {
		if _, err := svc.CreateTransaction(ctx, core.Transaction{
			Kind: core.Expense, AmountCents: 100, OccurredOn: m,
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	months, err := svc.AvailableMonths(ctx)
	if err != nil {
		t.Fatalf("AvailableMonths: %v", err)
	}
	for i := 1; i < len(months); i++ {
		if months[i-1] <= months[i] {
			t.Fatalf("months not in descending order: %v", months)
		}
	}
}

func TestCategoryNameNilID(t *testing.T) {
	svc := newTestService(t, nil)
	name, err := svc.CategoryName(context.Background(), nil)
	if err != nil || name != "" {
		t.Errorf("CategoryName(nil) = (%q, %v), want (\"\", nil)", name, err)
	}
}

func TestCreateBudgetValidatesMonth(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	catID, err := svc.CreateCategory(ctx, core.Category{Name: "ЖКХ", Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	if _, err := svc.CreateBudget(ctx, core.Budget{CategoryID: catID, Month: "2024-1", AmountCents: 1000}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("error = %v, want ErrInvalidMonth", err)
	}
	if _, err := svc.CreateBudget(ctx, core.Budget{CategoryID: catID, Month: "2024-01", AmountCents: 1000}); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
}
