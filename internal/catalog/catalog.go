package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
)

var (
	ErrInvalidLocation = errors.New("unknown location")
	ErrInvalidFloor    = errors.New("invalid floor for location")
)

// Catalog is the static lookup of valid locations. It is loaded once at
// startup and read-only afterwards, so no locking is needed.
type Catalog struct {
	locations map[string]domain.Location
}

// Load reads the location catalog from a JSON file: an array of
// {id, name, coordinate:{lat,lng}, floors:[...]} objects.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}

	var list []domain.Location
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse locations file: %w", err)
	}

	return New(list)
}

// New builds a catalog from a location list, validating floor labels up
// front so bad entries fail at startup instead of at scan time.
func New(list []domain.Location) (*Catalog, error) {
	locs := make(map[string]domain.Location, len(list))
	for _, loc := range list {
		if loc.ID == "" {
			return nil, errors.New("location with empty id")
		}
		if len(loc.Floors) == 0 {
			return nil, fmt.Errorf("location %s has no floors", loc.ID)
		}
		for _, f := range loc.Floors {
			if _, err := FloorLevel(f); err != nil {
				return nil, fmt.Errorf("location %s: %w", loc.ID, err)
			}
		}
		if _, dup := locs[loc.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %s", loc.ID)
		}
		locs[loc.ID] = loc
	}
	return &Catalog{locations: locs}, nil
}

// Lookup validates a (location, floor) pair. Matching is exact and
// case-sensitive. On success it returns the location's reference coordinate
// and the numeric floor level.
func (c *Catalog) Lookup(locationID, floor string) (domain.Coordinate, int, error) {
	loc, ok := c.locations[locationID]
	if !ok {
		return domain.Coordinate{}, 0, ErrInvalidLocation
	}
	for _, f := range loc.Floors {
		if f == floor {
			level, err := FloorLevel(floor)
			if err != nil {
				return domain.Coordinate{}, 0, ErrInvalidFloor
			}
			return loc.Coord, level, nil
		}
	}
	return domain.Coordinate{}, 0, ErrInvalidFloor
}

// Get returns a location by id.
func (c *Catalog) Get(locationID string) (domain.Location, bool) {
	loc, ok := c.locations[locationID]
	return loc, ok
}

// Len returns the number of locations.
func (c *Catalog) Len() int {
	return len(c.locations)
}

// FloorLevel parses a floor label of the form "<n>F" (e.g. "3F") into its
// numeric level. This is the single floor encoding used everywhere: the
// ledger stores the parsed level and impact stats sum it.
func FloorLevel(label string) (int, error) {
	num, ok := strings.CutSuffix(label, "F")
	if !ok || num == "" {
		return 0, fmt.Errorf("floor label %q: want <n>F", label)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("floor label %q: want <n>F", label)
	}
	return n, nil
}
