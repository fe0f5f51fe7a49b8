// Package geo implements great-circle distance math and the nearest-candidate
// scan used to match a position against saved locations.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Coordinate is a point in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Distance calculates the great-circle distance in meters between two
// geographic coordinates using the haversine formula. The result is
// non-negative and exactly 0 only for coincident points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// FindNearest returns the index of the candidate closest to the query point
// and its distance in meters. The scan is a single linear pass with a strict
// less-than comparison, so of several equidistant candidates the earliest in
// the slice wins. An empty slice yields (-1, +Inf); the scan itself never
// fails. Match classification against a threshold is the caller's concern.
func FindNearest(lat, lon float64, candidates []Coordinate) (int, float64) {
	nearest := -1
	nearestDist := math.Inf(1)

	for i, c := range candidates {
		if d := Distance(lat, lon, c.Lat, c.Lon); d < nearestDist {
			nearest = i
			nearestDist = d
		}
	}

	return nearest, nearestDist
}
