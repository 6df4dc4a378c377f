package geo

import (
	"math"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
)

// earthRadiusM is the mean Earth radius in meters.
const earthRadiusM = 6371000

// Distance returns the great-circle (haversine) distance between two
// coordinates in meters. Symmetric in argument order; identical coordinates
// yield exactly 0.
func Distance(a, b domain.Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Geofence validates presence inside a circular proximity threshold around
// a reference coordinate.
type Geofence struct {
	RadiusM float64
}

// Within reports whether pos is within the fence radius of ref. The boundary
// is inclusive: a position exactly RadiusM away passes.
func (g Geofence) Within(pos, ref domain.Coordinate) bool {
	return Distance(pos, ref) <= g.RadiusM
}
