package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind partitions categories and transactions into the two ledger sides.
	Kind string

	Category struct {
		ID   int64
		Name string
		Kind Kind
	}

	// Transaction stores the amount as a non-negative magnitude in cents;
	// the sign is carried by Kind, never by the stored value.
	Transaction struct {
		ID          int64
		Kind        Kind
		AmountCents int64
		CategoryID  *int64
		OccurredOn  string // YYYY-MM-DD
		Note        string
		ReceiptPath string
	}

	// Budget allocates an amount to a category for one month. Several budget
	// rows may exist for the same (category, month) pair; reporting sums them.
	Budget struct {
		ID          int64
		CategoryID  int64
		Month       string // YYYY-MM
		AmountCents int64
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Session struct {
		ID        int64
		Token     string
		UserID    int64
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid kind")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrEmptyName          = errors.New("empty name")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrIOFailure          = errors.New("io failure")
)

// ParseKind validates a user-supplied kind tag.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.TrimSpace(s)) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.AmountCents < 0 {
		return ErrInvalidAmount
	}
	if _, err := time.Parse("2006-01-02", t.OccurredOn); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID <= 0 {
		return ErrNotFound
	}
	if b.AmountCents < 0 {
		return ErrInvalidAmount
	}
	if _, err := time.Parse("2006-01", b.Month); err != nil {
		return ErrInvalidMonth
	}
	return nil
}
