package domain

import "time"

type User struct {
	ID              string    `db:"id" json:"id"`
	Language        string    `db:"language" json:"language"`
	LocationConsent bool      `db:"location_consent" json:"location_consent"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
