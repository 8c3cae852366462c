// Package csvfile is the canonical record store: one CSV file with a header
// row in the canonical field order, rewritten whole on every mutation. Schema
// drift (columns added or removed across versions) is migrated in place on
// read, non-destructively for retained columns.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mquispe/accessdir/internal/directory/store"
	"github.com/mquispe/accessdir/internal/directory/types"
)

const (
	recordsFile = "records.csv"
	backupsDir  = "backups"
	exportsDir  = "exports"
)

// Store persists the record table under a data directory:
//
//	<dir>/records.csv
//	<dir>/backups/records_<timestamp>.csv
//	<dir>/exports/<prefix>_<timestamp>.csv
type Store struct {
	dir         string
	recordsPath string
	backupsPath string
	exportsPath string
}

// New creates the data directory layout if needed and returns a store rooted
// at dir. The records file itself is created lazily on first read.
func New(dir string) (*Store, error) {
	s := &Store{
		dir:         dir,
		recordsPath: filepath.Join(dir, recordsFile),
		backupsPath: filepath.Join(dir, backupsDir),
		exportsPath: filepath.Join(dir, exportsDir),
	}
	for _, d := range []string{dir, s.backupsPath, s.exportsPath} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", d, err)
		}
	}
	return s, nil
}

// ReadAll returns every persisted row in file order. The backing file is
// created with the canonical header if absent, and migrated first when its
// header differs from the canonical field set.
func (s *Store) ReadAll(ctx context.Context) ([]map[string]string, error) {
	if err := s.ensureFile(ctx); err != nil {
		return nil, err
	}

	header, raw, err := s.readRaw()
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(raw))
	for _, rec := range raw {
		row := make(map[string]string, len(types.FieldNames))
		for _, f := range types.FieldNames {
			row[f] = ""
		}
		for i, name := range header {
			if i < len(rec) {
				if _, canonical := row[name]; canonical {
					row[name] = rec[i]
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteAll atomically replaces the whole table: rows are written to a
// temporary file in the same directory and renamed over the live one, so a
// failed write never leaves a truncated table behind.
func (s *Store) WriteAll(ctx context.Context, rows []map[string]string) error {
	for i, row := range rows {
		if types.NormalizeIdentifier(row["identifier"]) == "" {
			return fmt.Errorf("row %d: %w", i, store.ErrMissingIdentifier)
		}
	}
	return s.writeFile(s.recordsPath, rows)
}

// MigrateSchema rewrites the table with the canonical field list when the
// persisted header differs from it: newly introduced fields are filled with
// empty strings, removed legacy fields are dropped, everything else is
// preserved. A missing file is not an error — ReadAll creates it.
func (s *Store) MigrateSchema(ctx context.Context) error {
	if _, err := os.Stat(s.recordsPath); os.IsNotExist(err) {
		return nil
	}

	header, raw, err := s.readRaw()
	if err != nil {
		return err
	}
	if sameFields(header, types.FieldNames) {
		return nil
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}

	rows := make([]map[string]string, 0, len(raw))
	for _, rec := range raw {
		row := make(map[string]string, len(types.FieldNames))
		for _, f := range types.FieldNames {
			if i, ok := pos[f]; ok && i < len(rec) {
				row[f] = rec[i]
			} else {
				row[f] = ""
			}
		}
		rows = append(rows, row)
	}

	return s.writeFile(s.recordsPath, rows)
}

// Backup copies the current table to a timestamped file under backups/.
func (s *Store) Backup(ctx context.Context) (string, error) {
	if err := s.ensureFile(ctx); err != nil {
		return "", err
	}

	src, err := os.Open(s.recordsPath)
	if err != nil {
		return "", fmt.Errorf("open records for backup: %w", err)
	}
	defer src.Close()

	ts := time.Now().UTC().Format("20060102_150405.000000000")
	dstPath := filepath.Join(s.backupsPath, fmt.Sprintf("records_%s.csv", ts))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}
	return dstPath, nil
}

// PruneBackupsOlderThan removes backup files last modified before cutoff and
// returns how many were deleted.
func (s *Store) PruneBackupsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	entries, err := os.ReadDir(s.backupsPath)
	if err != nil {
		return 0, fmt.Errorf("read backups dir: %w", err)
	}

	var deleted int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.backupsPath, e.Name())); err != nil {
				return deleted, fmt.Errorf("remove backup %s: %w", e.Name(), err)
			}
			deleted++
		}
	}
	return deleted, nil
}

// Export writes the given rows (or a filtered subset prepared by the caller)
// to a timestamped CSV under exports/ and returns its path.
func (s *Store) Export(prefix string, rows []map[string]string) (string, error) {
	if prefix == "" {
		prefix = "export_records"
	}
	ts := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(s.exportsPath, fmt.Sprintf("%s_%s.csv", prefix, ts))
	if err := s.writeFile(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) ensureFile(ctx context.Context) error {
	if _, err := os.Stat(s.recordsPath); os.IsNotExist(err) {
		return s.writeFile(s.recordsPath, nil)
	} else if err != nil {
		return fmt.Errorf("stat records file: %w", err)
	}
	return s.MigrateSchema(ctx)
}

// readRaw returns the persisted header and data records as-is.
func (s *Store) readRaw() (header []string, records [][]string, err error) {
	f, err := os.Open(s.recordsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows from hand-edited tables

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read records file: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// writeFile writes header + rows to a temp file and renames it into place.
func (s *Store) writeFile(path string, rows []map[string]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".records-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	w := csv.NewWriter(tmp)
	if err := w.Write(types.FieldNames); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		rec := make([]string, len(types.FieldNames))
		for i, f := range types.FieldNames {
			rec[i] = row[f]
		}
		if err := w.Write(rec); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}

func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
