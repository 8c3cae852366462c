package db

import (
	"context"
	"database/sql"
	"fmt"
)

// SeedDev inserts a couple of sample access records into an empty dev
// database so the dashboard and filters have something to show. No-op when
// the table already has rows.
func SeedDev(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records;").Scan(&n); err != nil {
		return fmt.Errorf("seed count: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := db.ExecContext(ctx, `
INSERT INTO records(
  identifier, first_names, last_names, contract_type,
  site, department, access_tier, social_media_access,
  vpn_active, special_permissions_active, status
) VALUES
  ('jperez', 'Juan', 'Perez', 'CAS',
   'CENTRAL', 'IT', 'NORMAL', 'NO', 'NO', 'NO', 'ACTIVE'),
  ('mgarcia', 'Maria', 'Garcia', 'CONTRACTOR',
   'CENTRAL', 'OPERATIONS', 'REMOTE', 'NO', 'SI', 'SI', 'ACTIVE');
`); err != nil {
		return fmt.Errorf("seed records: %w", err)
	}

	return nil
}
