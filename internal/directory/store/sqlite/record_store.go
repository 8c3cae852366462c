// Package sqlite is an alternate RecordStore backend for deployments that
// outgrow the flat file. It preserves the exact read-all / write-all
// contract of the canonical store — whole-table replace, table order
// preserved — with writes serialized through a single-writer transaction
// worker.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	dbpkg "github.com/mquispe/accessdir/internal/db"
	"github.com/mquispe/accessdir/internal/directory/store"
	"github.com/mquispe/accessdir/internal/directory/types"
)

type RecordStore struct {
	db     *sql.DB
	writer *dbpkg.Writer
}

func NewRecordStore(db *sql.DB, writer *dbpkg.Writer) *RecordStore {
	return &RecordStore{db: db, writer: writer}
}

// ReadAll returns every row in table order as raw field maps.
func (s *RecordStore) ReadAll(ctx context.Context) ([]map[string]string, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM records ORDER BY pos;",
		strings.Join(types.FieldNames, ", "),
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ReadAll query: %w", err)
	}
	defer rows.Close()

	var out []map[string]string
	vals := make([]string, len(types.FieldNames))
	ptrs := make([]any, len(types.FieldNames))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("ReadAll scan: %w", err)
		}
		row := make(map[string]string, len(types.FieldNames))
		for i, f := range types.FieldNames {
			row[f] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReadAll rows: %w", err)
	}
	return out, nil
}

// WriteAll replaces the whole table in a single transaction, preserving the
// given row order.
func (s *RecordStore) WriteAll(ctx context.Context, rowMaps []map[string]string) error {
	for i, row := range rowMaps {
		if types.NormalizeIdentifier(row["identifier"]) == "" {
			return fmt.Errorf("row %d: %w", i, store.ErrMissingIdentifier)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(types.FieldNames)), ", ")
	insert := fmt.Sprintf(
		"INSERT INTO records(%s) VALUES (%s);",
		strings.Join(types.FieldNames, ", "),
		placeholders,
	)

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM records;"); err != nil {
			return fmt.Errorf("WriteAll clear: %w", err)
		}

		args := make([]any, len(types.FieldNames))
		for _, row := range rowMaps {
			for i, f := range types.FieldNames {
				args[i] = row[f]
			}
			if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
				return fmt.Errorf("WriteAll insert %q: %w", row["identifier"], err)
			}
		}
		return nil
	})
}
