// Package services orchestrates ledger operations across storage, the export
// queue, and the month-menu cache.
package services

import (
	"context"
	"fmt"
	"time"

	"lumen/internal/cache"
	"lumen/internal/core"
	"lumen/internal/log"
	"lumen/internal/storage"
)

// monthMenuLimit bounds the month dropdown on every page.
const monthMenuLimit = 24

const monthMenuKey = "month-menu"

// TransactionPublisher enqueues export requests. The AMQP client satisfies
// it; a nil publisher disables queueing and leaves rows for the sweep.
type TransactionPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
}

type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher TransactionPublisher
	months    *cache.LRUCache[[]string]
	logger    *log.Logger
}

func NewLedgerService(storage *storage.SQLiteRepository, publisher TransactionPublisher, logger *log.Logger) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		months:    cache.NewLRUCache[[]string](4, 5*time.Minute),
		logger:    logger.WithComponent(log.ComponentApp),
	}
}

func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.storage.ListCategories(ctx)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return s.storage.InsertCategory(ctx, c)
}

// CategoryName resolves a category ID for the receipt gate. A nil ID means
// the transaction is uncategorized.
func (s *LedgerService) CategoryName(ctx context.Context, id *int64) (string, error) {
	if id == nil {
		return "", nil
	}
	return s.storage.CategoryNameByID(ctx, *id)
}

// CreateTransaction saves the row locally, then enqueues an export request.
// A publish failure never fails the request; the pending sweep retries it.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.InsertTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}
	s.months.Purge()

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "export queue not configured, skipping sync message", log.FieldTxID, id)
		return id, nil
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, 1); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sync message",
			log.FieldTxID, id, log.FieldError, err)
	}
	return id, nil
}

func (s *LedgerService) Transactions(ctx context.Context, month string, limit int) ([]storage.TransactionRow, error) {
	return s.storage.ListTransactions(ctx, month, limit)
}

func (s *LedgerService) Transaction(ctx context.Context, id int64) (storage.TransactionRow, error) {
	return s.storage.GetTransaction(ctx, id)
}

// AvailableMonths returns the month menu, newest first. The current month is
// always present even when the ledger is empty.
func (s *LedgerService) AvailableMonths(ctx context.Context) ([]string, error) {
	if months, ok := s.months.Get(monthMenuKey); ok {
		return months, nil
	}

	txMonths, err := s.storage.ListTransactionMonths(ctx, monthMenuLimit)
	if err != nil {
		return nil, fmt.Errorf("list transaction months: %w", err)
	}
	budgetMonths, err := s.storage.ListBudgetMonths(ctx, monthMenuLimit)
	if err != nil {
		return nil, fmt.Errorf("list budget months: %w", err)
	}

	months := core.MergeMonths(core.CurrentMonth(), txMonths, budgetMonths)
	s.months.Set(monthMenuKey, months)
	return months, nil
}

func (s *LedgerService) MonthTotals(ctx context.Context, month string) (income, expense int64, err error) {
	return s.storage.MonthTotals(ctx, month)
}

func (s *LedgerService) Budgets(ctx context.Context, month string) ([]storage.BudgetRow, error) {
	return s.storage.ListBudgets(ctx, month)
}

func (s *LedgerService) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.InsertBudget(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("save budget: %w", err)
	}
	s.months.Purge()
	return id, nil
}

func (s *LedgerService) ReportMonths(ctx context.Context, limit int) ([]storage.MonthReportRow, error) {
	return s.storage.ReportMonths(ctx, limit)
}

func (s *LedgerService) ReportCategories(ctx context.Context, month string) ([]storage.CategoryReportRow, error) {
	return s.storage.ReportCategories(ctx, month)
}

// StartCacheCleanup evicts stale month menus in the background.
func (s *LedgerService) StartCacheCleanup(ctx context.Context, interval time.Duration) {
	s.months.StartCleanup(ctx, interval)
}
