// Package geo computes great-circle distances between project sites and suppliers.
package geo

import "math"

const (
	// EarthRadiusMiles is the mean Earth radius used by Miles.
	EarthRadiusMiles = 3959.0

	// UnknownDistanceMiles is returned when a coordinate is missing or invalid.
	// Callers rank it last; it is not an error.
	UnknownDistanceMiles = 9999.0

	// UltraLocalMiles is the radius that earns the ultra-local mention.
	UltraLocalMiles = 50.0
	// LocalMiles is the default upper bound of the local band.
	LocalMiles = 100.0
	// RegionalMiles is the upper bound of the regional band.
	RegionalMiles = 500.0
	// NationalMiles is the upper bound of the national band.
	NationalMiles = 1500.0
)

// Distance categories reported on each match.
const (
	CategoryLocal         = "local"
	CategoryRegional      = "regional"
	CategoryNational      = "national"
	CategoryInternational = "international"
	CategoryUnknown       = "unknown"
)

// Miles returns the Haversine distance in miles. A zero, NaN, infinite or
// out-of-range coordinate yields UnknownDistanceMiles.
func Miles(lat1, lng1, lat2, lng2 float64) float64 {
	if !valid(lat1, 90) || !valid(lng1, 180) || !valid(lat2, 90) || !valid(lng2, 180) {
		return UnknownDistanceMiles
	}
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}

	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// IsUnknown reports whether d is the sentinel distance.
func IsUnknown(d float64) bool {
	return d >= UnknownDistanceMiles
}

// Category buckets a distance into the sourcing bands used for reporting,
// with the default local band.
func Category(miles float64) string {
	return CategoryWithin(miles, LocalMiles)
}

// CategoryWithin is Category with the local band ending at localMiles. A
// non-positive localMiles falls back to LocalMiles.
func CategoryWithin(miles, localMiles float64) string {
	if localMiles <= 0 || math.IsNaN(localMiles) {
		localMiles = LocalMiles
	}
	switch {
	case IsUnknown(miles) || math.IsNaN(miles):
		return CategoryUnknown
	case miles <= localMiles:
		return CategoryLocal
	case miles <= RegionalMiles:
		return CategoryRegional
	case miles <= NationalMiles:
		return CategoryNational
	default:
		return CategoryInternational
	}
}

func valid(v, limit float64) bool {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= -limit && v <= limit
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
