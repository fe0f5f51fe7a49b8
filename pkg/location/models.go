package location

import "time"

// Source identifies which positioning source produced a fix.
type Source int

const (
	// SourcePrecise is the satellite-based GPS sensor.
	SourcePrecise Source = iota
	// SourceApproximate is the network geolocation fallback.
	SourceApproximate
)

// String returns a human-readable source name for logging.
func (s Source) String() string {
	switch s {
	case SourcePrecise:
		return "precise"
	case SourceApproximate:
		return "approximate"
	default:
		return "unknown"
	}
}

// Fix is a single positioning result. Fixes are ephemeral: they are produced
// by a watcher, consumed by the arbiter and its caller, and never persisted.
type Fix struct {
	Latitude  float64
	Longitude float64

	// Accuracy is the estimated horizontal error radius in meters. A degraded
	// source may not report one; HasAccuracy is false in that case and
	// Accuracy must be ignored.
	Accuracy    float64
	HasAccuracy bool

	Source     Source
	CapturedAt time.Time
}
