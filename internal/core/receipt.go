package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ReceiptCategory is the single category whose expense transactions may carry
// an uploaded receipt image.
const ReceiptCategory = "жкх"

// DefaultReceiptExt is used when the uploaded filename carries no recognized
// image extension.
const DefaultReceiptExt = "jpg"

var allowedReceiptExts = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"heic": {},
}

// AcceptReceipt decides whether an uploaded file is persisted at all: only
// expense transactions in the designated category keep their receipt, with
// the category name matched case-insensitively after trimming. Everything
// else is silently discarded.
func AcceptReceipt(kind Kind, categoryName string) bool {
	if kind != Expense {
		return false
	}
	return strings.ToLower(strings.TrimSpace(categoryName)) == ReceiptCategory
}

// ReceiptExt normalizes the extension of an uploaded filename against the
// allow-list. An unrecognized extension falls back to DefaultReceiptExt
// rather than failing.
func ReceiptExt(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := allowedReceiptExts[ext]; ok {
		return ext
	}
	return DefaultReceiptExt
}

// ReceiptFilename builds the stored name for an accepted upload. Names are
// timestamp-based with millisecond granularity and no collision check;
// concurrent uploads within the same millisecond can overwrite each other.
// Known limitation, kept as observed behavior.
func ReceiptFilename(now time.Time, uploadName string) string {
	return fmt.Sprintf("receipt-%d.%s", now.UnixMilli(), ReceiptExt(uploadName))
}
