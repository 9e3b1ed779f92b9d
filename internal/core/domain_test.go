package core

import "testing"

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" expense "); err != nil || k != Expense {
		t.Fatalf("ParseKind(expense) = %v, %v", k, err)
	}
	if k, err := ParseKind("income"); err != nil || k != Income {
		t.Fatalf("ParseKind(income) = %v, %v", k, err)
	}
	if _, err := ParseKind("transfer"); err != ErrInvalidKind {
		t.Fatalf("ParseKind(transfer) err = %v, want ErrInvalidKind", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	tx := Transaction{Kind: Expense, AmountCents: 500, OccurredOn: "2024-01-10"}
	if err := tx.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"bad kind", Transaction{Kind: "transfer", AmountCents: 1, OccurredOn: "2024-01-10"}, ErrInvalidKind},
		{"negative amount", Transaction{Kind: Expense, AmountCents: -1, OccurredOn: "2024-01-10"}, ErrInvalidAmount},
		{"bad date", Transaction{Kind: Expense, AmountCents: 1, OccurredOn: "10.01.2024"}, ErrInvalidDate},
	}
	for _, tc := range cases {
		if err := tc.tx.Validate(); err != tc.want {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{CategoryID: 1, Month: "2024-01", AmountCents: 10000}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}
	if err := (Budget{CategoryID: 0, Month: "2024-01"}).Validate(); err != ErrNotFound {
		t.Fatalf("missing category err = %v", err)
	}
	if err := (Budget{CategoryID: 1, Month: "January"}).Validate(); err != ErrInvalidMonth {
		t.Fatalf("bad month err = %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Продукты", Kind: Expense}).Validate(); err != nil {
		t.Fatalf("valid category rejected: %v", err)
	}
	if err := (Category{Name: "  ", Kind: Expense}).Validate(); err != ErrEmptyName {
		t.Fatalf("blank name err = %v", err)
	}
	if err := (Category{Name: "x", Kind: "other"}).Validate(); err != ErrInvalidKind {
		t.Fatalf("bad kind err = %v", err)
	}
}
