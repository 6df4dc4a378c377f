package domain

// Coordinate is a WGS84 point in floating point degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is one physical staircase site. Locations are immutable and come
// from the static catalog file, not from the database.
type Location struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Coord  Coordinate `json:"coordinate"`
	Floors []string   `json:"floors"`
}
