package models

import "time"

// CheckpointVisit - отметка команды на контрольном пункте. Уникальности
// нет: команда может отметить один и тот же пункт несколько раз, и каждая
// отметка приносит полную стоимость пункта.
type CheckpointVisit struct {
	ID           int       `json:"id" db:"id"`
	RaceID       int       `json:"race_id" db:"race_id"`
	CheckpointID int       `json:"checkpoint_id" db:"checkpoint_id"`
	TeamID       int       `json:"team_id" db:"team_id"`
	EvidenceID   *int      `json:"-" db:"evidence_id"`
	Latitude     *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64  `json:"longitude,omitempty" db:"longitude"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Evidence *EvidenceImage `json:"evidence,omitempty" db:"-"`
}

// TaskCompletion - выполнение задания. Уникально по (race_id, task_id,
// team_id): повторная попытка для той же команды - конфликт.
type TaskCompletion struct {
	ID         int       `json:"id" db:"id"`
	RaceID     int       `json:"race_id" db:"race_id"`
	TaskID     int       `json:"task_id" db:"task_id"`
	TeamID     int       `json:"team_id" db:"team_id"`
	EvidenceID *int      `json:"-" db:"evidence_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Evidence *EvidenceImage `json:"evidence,omitempty" db:"-"`
}
