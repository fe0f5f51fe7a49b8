package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// schemaVersion is the on-disk schema this build expects. When a database
// carries a different version, the locations table is dropped and recreated;
// rows written under the old version are discarded.
const schemaVersion = 1

// migrate brings the database at db up to schemaVersion.
func migrate(db *sqlx.DB, logger zerolog.Logger) error {
	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS schema_info (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_info: %w", err)
	}

	var stored int
	err := db.Get(&stored, `SELECT value FROM schema_info WHERE key = 'version'`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		stored = 0
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if stored != 0 && stored != schemaVersion {
		logger.Warn().
			Int("stored_version", stored).
			Int("current_version", schemaVersion).
			Msg("Schema version changed, dropping locations table")
		if _, err := db.Exec(`DROP TABLE IF EXISTS locations`); err != nil {
			return fmt.Errorf("failed to drop outdated locations table: %w", err)
		}
	}

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS locations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			timestamp TEXT NOT NULL,
			name TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create locations table: %w", err)
	}

	if _, err := db.Exec(
		`INSERT INTO schema_info (key, value) VALUES ('version', ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}
