package models

import "time"

// Race представляет гонку с двумя временными окнами:
// logging_window - когда не-администраторы могут отмечать/снимать отметки,
// display_window - когда контрольные пункты видны участникам.
// Обе границы трактуются как [start, end).
type Race struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description,omitempty" db:"description"`
	LoggingStart time.Time `json:"logging_start" db:"logging_start"`
	LoggingEnd   time.Time `json:"logging_end" db:"logging_end"`
	DisplayStart time.Time `json:"display_start" db:"display_start"`
	DisplayEnd   time.Time `json:"display_end" db:"display_end"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Checkpoints   []Checkpoint   `json:"checkpoints,omitempty" db:"-"`
	Tasks         []Task         `json:"tasks,omitempty" db:"-"`
	Registrations []Registration `json:"registrations,omitempty" db:"-"`
}
