package services

import (
	"context"
	"errors"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/waypost/waypost/internal/models"
	"github.com/waypost/waypost/internal/store"
	"github.com/waypost/waypost/pkg/geo"
	"github.com/waypost/waypost/pkg/location"
)

// ErrAcquisitionInFlight is returned when a position acquisition is requested
// for an action that already has one running. Repeated triggers are rejected
// outright rather than coalesced.
var ErrAcquisitionInFlight = errors.New("a position acquisition is already in flight for this action")

// PositionAcquirer resolves the device's current position. The arbiter is the
// production implementation.
type PositionAcquirer interface {
	Acquire(ctx context.Context) (location.Fix, error)
}

// WaypointService implements the user-facing flows: save the current position
// under a label, check it against the saved set, list, and remove.
type WaypointService struct {
	store          store.LocationStore
	acquirer       PositionAcquirer
	matchThreshold float64
	logger         zerolog.Logger

	// inflight guards each logical action against concurrent acquisitions.
	inflight cmap.ConcurrentMap[string, bool]
}

// NewWaypointService creates a new WaypointService instance with the provided
// store, acquirer, and match threshold in meters.
func NewWaypointService(locationStore store.LocationStore, acquirer PositionAcquirer, matchThreshold float64, logger zerolog.Logger) *WaypointService {
	return &WaypointService{
		store:          locationStore,
		acquirer:       acquirer,
		matchThreshold: matchThreshold,
		logger:         logger,
		inflight:       cmap.New[bool](),
	}
}

// SaveCurrentLocation acquires the current position and persists it under the
// given name. Arbitration failures surface unchanged; nothing is retried here.
func (w *WaypointService) SaveCurrentLocation(ctx context.Context, name string) (models.SavedLocation, error) {
	if !w.inflight.SetIfAbsent("save", true) {
		return models.SavedLocation{}, ErrAcquisitionInFlight
	}
	defer w.inflight.Remove("save")

	fix, err := w.acquirer.Acquire(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to acquire position for save")
		return models.SavedLocation{}, err
	}

	timestamp := fix.CapturedAt.UTC().Format(time.RFC3339)
	id, err := w.store.Create(fix.Latitude, fix.Longitude, timestamp, name)
	if err != nil {
		w.logger.Error().Err(err).Str("name", name).Msg("Failed to persist saved location")
		return models.SavedLocation{}, err
	}

	saved := models.SavedLocation{
		ID:        id,
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Timestamp: timestamp,
		Name:      name,
	}
	w.logger.Info().
		Int64("id", id).
		Str("name", name).
		Stringer("source", fix.Source).
		Msg("Current location saved")
	return saved, nil
}

// CheckCurrentLocation acquires the current position and reports the nearest
// saved location. An empty store is not an error: the result carries no
// candidate and an infinite distance.
func (w *WaypointService) CheckCurrentLocation(ctx context.Context) (models.CheckResult, error) {
	if !w.inflight.SetIfAbsent("check", true) {
		return models.CheckResult{}, ErrAcquisitionInFlight
	}
	defer w.inflight.Remove("check")

	fix, err := w.acquirer.Acquire(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to acquire position for check")
		return models.CheckResult{}, err
	}

	saved, err := w.store.ListAll()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list saved locations")
		return models.CheckResult{}, err
	}

	coords := make([]geo.Coordinate, len(saved))
	for i, loc := range saved {
		coords[i] = geo.Coordinate{Lat: loc.Latitude, Lon: loc.Longitude}
	}

	idx, distance := geo.FindNearest(fix.Latitude, fix.Longitude, coords)

	result := models.CheckResult{
		Position:        fix,
		DistanceMeters:  distance,
		ThresholdMeters: w.matchThreshold,
	}
	if idx >= 0 {
		result.Nearest = &saved[idx]
		result.Matched = distance <= w.matchThreshold
	}

	w.logger.Info().
		Bool("matched", result.Matched).
		Float64("distance_m", distance).
		Int("candidates", len(saved)).
		Msg("Proximity check completed")
	return result, nil
}

// ListLocations returns all saved locations.
func (w *WaypointService) ListLocations() ([]models.SavedLocation, error) {
	return w.store.ListAll()
}

// RemoveLocation deletes a saved location by id, reporting whether a row was
// actually removed.
func (w *WaypointService) RemoveLocation(id int64) (bool, error) {
	return w.store.DeleteByID(id)
}
