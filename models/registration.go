package models

import "time"

// Registration - заявка команды на гонку в конкретной категории.
// Команда может иметь не более одной регистрации на гонку.
type Registration struct {
	ID         int       `json:"id" db:"id"`
	RaceID     int       `json:"race_id" db:"race_id"`
	TeamID     int       `json:"team_id" db:"team_id"`
	CategoryID int       `json:"category_id" db:"category_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Team     *Team     `json:"team,omitempty" db:"-"`
	Category *Category `json:"category,omitempty" db:"-"`
}
