// Package store defines the persistence contract for the directory engine.
// A RecordStore holds the full record set as a flat table; reads return every
// row in table order and writes replace the whole table atomically. The
// in-memory index is always rebuilt from a fresh ReadAll after a write — the
// store is the single source of truth.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrMissingIdentifier rejects a write containing a row without an
// identifier, before anything reaches disk.
var ErrMissingIdentifier = errors.New("row is missing an identifier")

// RecordStore is the durable flat-table contract. Rows are raw field maps
// keyed by the canonical field names (types.FieldNames); implementations fill
// missing fields with empty strings and drop unknown ones.
type RecordStore interface {
	// ReadAll returns every persisted row in table order, creating the
	// backing table with its canonical header if it does not exist yet.
	ReadAll(ctx context.Context) ([]map[string]string, error)

	// WriteAll atomically replaces the entire table. No partial write is
	// ever observable as a valid state.
	WriteAll(ctx context.Context, rows []map[string]string) error
}

// BackupStore is the optional snapshot capability: copy the current table to
// a timestamped location before a destructive write.
type BackupStore interface {
	Backup(ctx context.Context) (string, error)
}

// BackupPruner deletes backups older than a cutoff. Implemented by stores
// whose Backup accumulates files on disk.
type BackupPruner interface {
	PruneBackupsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Exporter writes a caller-prepared row set to a timestamped file outside the
// live table, for handing off to other systems.
type Exporter interface {
	Export(prefix string, rows []map[string]string) (string, error)
}
