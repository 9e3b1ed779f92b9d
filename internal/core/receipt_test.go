package core

import (
	"testing"
	"time"
)

func TestAcceptReceipt(t *testing.T) {
	cases := []struct {
		kind     Kind
		category string
		want     bool
	}{
		{Expense, "ЖКХ", true},
		{Expense, "жкх", true},
		{Expense, " ЖКХ ", true},
		{Income, "ЖКХ", false},
		{Expense, "Продукты", false},
		{Expense, "", false},
	}
	for _, tc := range cases {
		if got := AcceptReceipt(tc.kind, tc.category); got != tc.want {
			t.Fatalf("AcceptReceipt(%q, %q) = %v, want %v", tc.kind, tc.category, got, tc.want)
		}
	}
}

func TestReceiptExt(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"scan.jpg", "jpg"},
		{"scan.JPEG", "jpeg"},
		{"scan.PNG", "png"},
		{"scan.webp", "webp"},
		{"scan.heic", "heic"},
		{"scan.pdf", "jpg"},
		{"scan", "jpg"},
		{"", "jpg"},
	}
	for _, tc := range cases {
		if got := ReceiptExt(tc.name); got != tc.want {
			t.Fatalf("ReceiptExt(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestReceiptFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got, want := ReceiptFilename(now, "bill.png"), "receipt-1700000000123.png"; got != want {
		t.Fatalf("ReceiptFilename = %q, want %q", got, want)
	}
	if got, want := ReceiptFilename(now, "bill.exe"), "receipt-1700000000123.jpg"; got != want {
		t.Fatalf("ReceiptFilename fallback = %q, want %q", got, want)
	}
}
