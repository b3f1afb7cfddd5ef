package database

import (
	"context"
	"fmt"
)

// InitSchema loads schemaSQL when the bitacoras table is missing. Databases
// that already have it are left to Migrate.
func (db *DB) InitSchema(ctx context.Context, schemaSQL []byte) error {
	var present bool
	if err := db.Pool.QueryRow(ctx,
		`SELECT to_regclass('public.bitacoras') IS NOT NULL`,
	).Scan(&present); err != nil {
		return fmt.Errorf("check bitacoras table: %w", err)
	}
	if present {
		db.log.Debug().Msg("bitacoras table present, schema load skipped")
		return nil
	}

	if _, err := db.Pool.Exec(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	db.log.Info().Int("bytes", len(schemaSQL)).Msg("bitacoras schema created")
	return nil
}
