package domain

// ProgressionRecord is per-user cumulative points/level state. Points equal
// the sum of points awarded by the user's accepted scans. Rank is a snapshot
// assigned by the last leaderboard recompute; 0 means not ranked yet.
type ProgressionRecord struct {
	UserID       string `db:"user_id" json:"user_id"`
	Points       int    `db:"points" json:"points"`
	Level        int    `db:"level" json:"level"`
	PointsToNext int    `db:"points_to_next" json:"points_to_next"`
	Rank         int    `db:"rank" json:"rank,omitempty"`
}

// ImpactStats are environmental equivalents derived from floors climbed.
type ImpactStats struct {
	FloorsClimbed int     `json:"floors_climbed"`
	CO2SavedKg    float64 `json:"co2_saved_kg"`
	Trees         float64 `json:"trees_equivalent"`
	WasteKg       float64 `json:"waste_recycled_kg"`
}
