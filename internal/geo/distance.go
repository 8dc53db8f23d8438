// Package geo computes great-circle distances between coordinates given in degrees.
package geo

import "math"

// EarthRadiusKm is the sphere radius used by Distance.
const EarthRadiusKm = 6371.0

// Distance calculates the distance between two points in kilometers using the Haversine formula
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	dlat := lat2Rad - lat1Rad
	dlng := toRadians(lng2) - toRadians(lng1)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlng/2)*math.Sin(dlng/2)
	// rounding can push a past 1 for near-antipodal points
	a = math.Min(a, 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Valid reports whether both coordinates are finite numbers.
func Valid(lat, lng float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) && !math.IsNaN(lng) && !math.IsInf(lng, 0)
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
