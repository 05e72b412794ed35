package models

import "time"

type Checkpoint struct {
	ID        int       `json:"id" db:"id"`
	RaceID    int       `json:"race_id" db:"race_id"`
	Name      string    `json:"name" db:"name"`
	Points    int       `json:"points" db:"points"`
	Latitude  *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64  `json:"longitude,omitempty" db:"longitude"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
