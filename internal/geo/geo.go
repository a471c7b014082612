// Package geo provides great-circle distance math for feed ranking and
// nearby-place lookups.
package geo

import "math"

// earthRadiusM is the spherical earth radius used by the haversine
// formula.
const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// DistanceMeters returns the great-circle distance between two points,
// rounded to the nearest meter.
func DistanceMeters(a, b Point) int {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return int(math.Round(earthRadiusM * c))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
