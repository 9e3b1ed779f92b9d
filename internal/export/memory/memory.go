// Package memory is an in-process export destination used in development and
// in tests, where a Google Sheets credential is not available.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lumen/internal/export"
)

type Store struct {
	mu    sync.Mutex
	items []export.Record
}

var _ export.TransactionAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, rec export.Record) (string, error) {
	if rec.Date == "" || rec.Kind == "" {
		return "", errors.New("incomplete export record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Records returns a copy of everything appended so far.
func (s *Store) Records() []export.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.Record(nil), s.items...)
}
