package services

import (
	"time"

	"github.com/Nurbek02/adventure-race-system/models"
)

// LoggingAllowed сообщает, разрешено ли сейчас отмечать или снимать отметки
// в гонке. Администратору разрешено всегда; остальным - только внутри окна
// [logging_start, logging_end): начало включительно, конец исключительно.
// Функция чистая: время передаётся снаружи.
func LoggingAllowed(race *models.Race, now time.Time, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	return !now.Before(race.LoggingStart) && now.Before(race.LoggingEnd)
}
