// Package worker copies ledger rows from SQLite to the configured export
// destination, driven by AMQP messages with a periodic sweep as backstop.
package worker

import (
	"context"
	"fmt"

	"lumen/internal/amqp"
	"lumen/internal/core"
	"lumen/internal/export"
	"lumen/internal/log"
	"lumen/internal/storage"
)

type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  export.TransactionAppender
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(storage *storage.SQLiteRepository, appender export.TransactionAppender, batchSize int, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	w.logger.InfoContext(ctx, "processing sync message", log.FieldTxID, msg.ID)

	row, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.exportTransaction(ctx, row); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	return nil
}

// ProcessPendingExports picks up rows the queue missed, for example when the
// web process could not reach the broker at insert time.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending transactions", "count", len(pending))

	for _, p := range pending {
		row, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "failed to load pending transaction",
				log.FieldTxID, p.ID, log.FieldError, err)
			if markErr := w.storage.MarkExportError(ctx, p.ID); markErr != nil {
				w.logger.ErrorContext(ctx, "failed to mark export error",
					log.FieldTxID, p.ID, log.FieldError, markErr)
			}
			continue
		}

		if err := w.exportTransaction(ctx, row); err != nil {
			w.logger.ErrorContext(ctx, "failed to export pending transaction",
				log.FieldTxID, p.ID, log.FieldError, err)
			continue
		}
	}
	return nil
}

// StartupSweep drains a larger pending batch once at worker start to recover
// from downtime.
func (w *ExportWorker) StartupSweep(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending transactions for startup sweep: %w", err)
	}
	if len(pending) == 0 {
		w.logger.InfoContext(ctx, "no pending transactions on startup")
		return nil
	}

	w.logger.InfoContext(ctx, "found pending transactions on startup", "count", len(pending))

	exported := 0
	failed := 0
	for _, p := range pending {
		row, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			if markErr := w.storage.MarkExportError(ctx, p.ID); markErr != nil {
				w.logger.ErrorContext(ctx, "failed to mark export error",
					log.FieldTxID, p.ID, log.FieldError, markErr)
			}
			failed++
			continue
		}
		if err := w.exportTransaction(ctx, row); err != nil {
			failed++
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "startup sweep completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) exportTransaction(ctx context.Context, row storage.TransactionRow) error {
	ref, err := w.appender.Append(ctx, exportRecord(row))
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, row.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark export error",
				log.FieldTxID, row.ID, log.FieldError, markErr)
		}
		return fmt.Errorf("append row: %w", err)
	}

	if err := w.storage.MarkExported(ctx, row.ID); err != nil {
		// The append succeeded; the sweep will retry the status update.
		w.logger.ErrorContext(ctx, "failed to mark as exported",
			log.FieldTxID, row.ID, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "exported transaction",
		log.FieldTxID, row.ID,
		"row_ref", ref,
		log.FieldAmount, row.AmountCents)
	return nil
}

// exportRecord flattens a stored row into spreadsheet columns. Expenses carry
// a leading minus so destination sums come out right.
func exportRecord(row storage.TransactionRow) export.Record {
	amount := row.AmountCents
	if row.Kind == core.Expense {
		amount = -amount
	}
	return export.Record{
		Date:     row.OccurredOn,
		Kind:     string(row.Kind),
		Category: row.CategoryName,
		Amount:   core.FormatCents(amount),
		Note:     row.Note,
	}
}
