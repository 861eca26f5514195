// Package geo holds great-circle distance math and unit conversions shared by
// the tiling planner and the radius filter.
package geo

import (
	"math"

	"github.com/sells-group/insights-cli/internal/model"
)

const (
	// EarthRadiusMeters is the mean earth radius used for haversine distances.
	EarthRadiusMeters = 6371000.0

	// MetersPerMile converts statute miles to meters.
	MetersPerMile = 1609.344
)

// MilesToMeters converts statute miles to meters.
func MilesToMeters(mi float64) float64 { return mi * MetersPerMile }

// MetersToMiles converts meters to statute miles.
func MetersToMiles(m float64) float64 { return m / MetersPerMile }

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b model.Coordinate) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lng - a.Lng)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// HaversineMiles returns the great-circle distance in statute miles.
func HaversineMiles(a, b model.Coordinate) float64 {
	return MetersToMiles(HaversineMeters(a, b))
}

// MetersToLatDegrees converts a north-south distance to degrees of latitude.
func MetersToLatDegrees(m float64) float64 {
	return (m / EarthRadiusMeters) * (180.0 / math.Pi)
}

// MetersToLngDegrees converts an east-west distance to degrees of longitude
// at the given latitude. Longitude degrees shrink toward the poles.
func MetersToLngDegrees(m, atLatDegrees float64) float64 {
	cosLat := math.Cos(radians(atLatDegrees))
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	return (m / (EarthRadiusMeters * cosLat)) * (180.0 / math.Pi)
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }
