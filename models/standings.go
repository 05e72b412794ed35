package models

// StandingsEntry - производная строка турнирной таблицы. Не хранится в БД,
// пересчитывается на каждый запрос; TotalPoints всегда равен сумме двух
// слагаемых, прочитанных в рамках одного снимка событий.
type StandingsEntry struct {
	TeamID           int    `json:"team_id"`
	TeamName         string `json:"team_name"`
	CategoryName     string `json:"category_name"`
	CheckpointPoints int    `json:"checkpoint_points"`
	TaskPoints       int    `json:"task_points"`
	TotalPoints      int    `json:"total_points"`
}

// ScoredEvent - событие, уже соединённое со стоимостью своей цели.
// Используется агрегатором при построении сумм.
type ScoredEvent struct {
	TeamID int
	Points int
}
