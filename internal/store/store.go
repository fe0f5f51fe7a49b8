// Package store persists saved locations in a local SQLite database.
package store

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/waypost/waypost/internal/models"
)

// ErrInvalidInput marks a rejected create: empty name or timestamp, or a
// coordinate that is not a finite value in range. Zero is a valid coordinate;
// validation is by range, never by truthiness.
var ErrInvalidInput = errors.New("invalid saved location input")

// LocationStore is the persistence contract for saved locations. There is no
// update operation: rows are created and deleted only.
type LocationStore interface {
	Create(latitude, longitude float64, timestamp, name string) (int64, error)
	ListAll() ([]models.SavedLocation, error)
	DeleteByID(id int64) (bool, error)
	Close() error
}

// SQLiteStore implements LocationStore on a local SQLite file. The handle is
// opened once at startup and passed to whoever needs it; there is no ambient
// global.
type SQLiteStore struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// Open opens (creating if necessary) the SQLite database at path and brings
// its schema up to the current version.
func Open(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}

	if err := migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate store at %s: %w", path, err)
	}

	logger.Debug().Str("path", path).Msg("Location store opened")
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Create inserts a new saved location and returns its assigned id.
func (s *SQLiteStore) Create(latitude, longitude float64, timestamp, name string) (int64, error) {
	if err := validate(latitude, longitude, timestamp, name); err != nil {
		return 0, err
	}

	res, err := s.db.Exec(
		`INSERT INTO locations (latitude, longitude, timestamp, name) VALUES (?, ?, ?, ?)`,
		latitude, longitude, timestamp, name,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert saved location: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read assigned id: %w", err)
	}

	s.logger.Info().Int64("id", id).Str("name", name).Msg("Saved location created")
	return id, nil
}

// ListAll returns every saved location in creation order.
func (s *SQLiteStore) ListAll() ([]models.SavedLocation, error) {
	locations := []models.SavedLocation{}
	err := s.db.Select(&locations,
		`SELECT id, latitude, longitude, timestamp, name FROM locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved locations: %w", err)
	}
	return locations, nil
}

// DeleteByID removes the saved location with the given id. It returns false
// when no row matched; a missing id is a no-op, not an error.
func (s *SQLiteStore) DeleteByID(id int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete saved location %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected > 0 {
		s.logger.Info().Int64("id", id).Msg("Saved location deleted")
	}
	return affected > 0, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func validate(latitude, longitude float64, timestamp, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if timestamp == "" {
		return fmt.Errorf("%w: timestamp must not be empty", ErrInvalidInput)
	}
	if math.IsNaN(latitude) || math.IsInf(latitude, 0) || latitude < -90 || latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidInput, latitude)
	}
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) || longitude < -180 || longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidInput, longitude)
	}
	return nil
}
