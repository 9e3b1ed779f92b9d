// Package export defines the outbound port for copying ledger rows to an
// external destination, plus the record shape every destination receives.
package export

import "context"

// Record is one exported ledger row. Amount carries the formatted decimal
// string, signed for expenses, so spreadsheet columns stay human readable.
type Record struct {
	Date     string
	Kind     string
	Category string
	Amount   string
	Note     string
}

// TransactionAppender appends one record to the export destination and
// returns an opaque reference to the written row.
type TransactionAppender interface {
	Append(ctx context.Context, rec Record) (rowRef string, err error)
}
