package models

import "time"

type Task struct {
	ID          int       `json:"id" db:"id"`
	RaceID      int       `json:"race_id" db:"race_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Points      int       `json:"points" db:"points"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
