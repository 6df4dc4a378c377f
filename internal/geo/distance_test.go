package geo

import (
	"math"
	"testing"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
)

func TestDistance_IdenticalCoordinates(t *testing.T) {
	p := domain.Coordinate{Lat: 25.031757, Lng: 121.544729}
	if d := Distance(p, p); d != 0 {
		t.Fatalf("Distance(p, p) = %v; want exactly 0", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := domain.Coordinate{Lat: 25.031757, Lng: 121.544729}
	b := domain.Coordinate{Lat: 25.017126, Lng: 121.540572}
	if d1, d2 := Distance(a, b), Distance(b, a); d1 != d2 {
		t.Fatalf("Distance(a,b) = %v but Distance(b,a) = %v", d1, d2)
	}
}

func TestDistance_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude at the equator is about 111.2 km.
	a := domain.Coordinate{Lat: 0, Lng: 0}
	b := domain.Coordinate{Lat: 1, Lng: 0}
	d := Distance(a, b)
	if math.Abs(d-111195) > 500 {
		t.Fatalf("Distance over 1 degree latitude = %v m; want ~111195 m", d)
	}
}

func TestDistance_ShortHop(t *testing.T) {
	// ~15 m apart: two points on the same campus block.
	a := domain.Coordinate{Lat: 25.031757, Lng: 121.544729}
	b := domain.Coordinate{Lat: 25.031890, Lng: 121.544729}
	d := Distance(a, b)
	if d < 10 || d > 20 {
		t.Fatalf("short hop distance = %v m; want between 10 and 20", d)
	}
}

func TestGeofence_Within(t *testing.T) {
	ref := domain.Coordinate{Lat: 25.031757, Lng: 121.544729}
	near := domain.Coordinate{Lat: 25.031800, Lng: 121.544729} // ~5 m north
	far := domain.Coordinate{Lat: 25.032757, Lng: 121.544729}  // ~111 m north

	fence := Geofence{RadiusM: 20}
	if !fence.Within(near, ref) {
		t.Fatalf("expected %v to be inside 20 m fence (distance %v)", near, Distance(near, ref))
	}
	if fence.Within(far, ref) {
		t.Fatalf("expected %v to be outside 20 m fence (distance %v)", far, Distance(far, ref))
	}
}

func TestGeofence_BoundaryInclusive(t *testing.T) {
	ref := domain.Coordinate{Lat: 0, Lng: 0}
	pos := domain.Coordinate{Lat: 0.0001, Lng: 0} // ~11.1 m

	d := Distance(pos, ref)
	fence := Geofence{RadiusM: d}
	if !fence.Within(pos, ref) {
		t.Fatalf("position exactly on the fence boundary must pass")
	}
}
