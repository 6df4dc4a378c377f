package domain

import "time"

// ScanEvent is one accepted scan. The scan log is append-only; the sequence
// of a user's events is the source of truth for floors climbed.
type ScanEvent struct {
	ID         int64     `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	LocationID string    `db:"location_id" json:"location_id"`
	FloorLabel string    `db:"floor_label" json:"floor_label"`
	FloorLevel int       `db:"floor_level" json:"floor_level"`
	ScannedAt  time.Time `db:"scanned_at" json:"scanned_at"`
}
