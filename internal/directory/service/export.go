package service

import (
	"errors"
	"fmt"
)

// ErrExportUnsupported is returned when the configured store has no export
// capability.
var ErrExportUnsupported = errors.New("export not supported by this store backend")

// Export writes the records matching the query to a timestamped export file
// and returns its path. The export is a point-in-time copy of the current
// snapshot; the live table is untouched.
func (s *Service) Export(q Query, actor string) (string, error) {
	if s.exporter == nil {
		return "", ErrExportUnsupported
	}

	recs := s.Filter(q)
	rows := make([]map[string]string, len(recs))
	for i, rec := range recs {
		rows[i] = rec.Fields()
	}

	path, err := s.exporter.Export("records", rows)
	if err != nil {
		return "", fmt.Errorf("export records: %w", err)
	}

	s.recordEvent(actor, ActionExport, fmt.Sprintf("%d rows to %s", len(rows), path))
	return path, nil
}
