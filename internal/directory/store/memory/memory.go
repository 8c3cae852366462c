// Package memory is an in-memory RecordStore for tests and dev environments.
// It honors the same contract as the file-backed stores: whole-table replace,
// table order preserved, rows normalized to the canonical field set.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mquispe/accessdir/internal/directory/store"
	"github.com/mquispe/accessdir/internal/directory/types"
)

type Store struct {
	mu   sync.Mutex
	rows []map[string]string
}

func New() *Store {
	return &Store{}
}

func (s *Store) ReadAll(_ context.Context) ([]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = cloneRow(row)
	}
	return out, nil
}

func (s *Store) WriteAll(_ context.Context, rows []map[string]string) error {
	next := make([]map[string]string, len(rows))
	for i, row := range rows {
		if types.NormalizeIdentifier(row["identifier"]) == "" {
			return fmt.Errorf("row %d: %w", i, store.ErrMissingIdentifier)
		}
		next[i] = cloneRow(row)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = next
	return nil
}

// cloneRow copies row onto the canonical field set, dropping unknown keys
// and filling missing ones with empty strings.
func cloneRow(row map[string]string) map[string]string {
	out := make(map[string]string, len(types.FieldNames))
	for _, f := range types.FieldNames {
		out[f] = row[f]
	}
	return out
}
