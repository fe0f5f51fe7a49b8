package models

import "github.com/waypost/waypost/pkg/location"

// SavedLocation is a labelled point persisted in the local store. Rows are
// only ever created and deleted; coordinates are never mutated after creation,
// and an id is never reused once its row is gone.
type SavedLocation struct {
	ID        int64   `db:"id" json:"id"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
	Timestamp string  `db:"timestamp" json:"timestamp"`
	Name      string  `db:"name" json:"name"`
}

// CheckResult is the outcome of comparing a freshly acquired position against
// the saved set.
type CheckResult struct {
	Position location.Fix `json:"position"`

	// Nearest is nil when the store is empty.
	Nearest        *SavedLocation `json:"nearest,omitempty"`
	DistanceMeters float64        `json:"distance_meters"`

	// Matched reports whether the nearest candidate is within the configured
	// threshold.
	Matched         bool    `json:"matched"`
	ThresholdMeters float64 `json:"threshold_meters"`
}
