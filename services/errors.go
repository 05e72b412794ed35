package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурсы
	ErrNotFound           = errors.New("requested resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrRaceNotFound       = errors.New("race not found")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCompletionNotFound = errors.New("completion event not found")

	// Валидация и бизнес-правила
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrTeamNameRequired      = errors.New("team name is required")
	ErrRaceNameRequired      = errors.New("race name is required")
	ErrRaceInvalidTimeWindow = errors.New("race window end must be after start")
	ErrPointsNotPositive     = errors.New("point value must be positive")
	ErrUserAlreadyInTeam     = errors.New("user is already in a team")

	// Конфликты
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrRegistrationConflict = errors.New("team is already registered for this race")
	ErrTaskAlreadyCompleted = errors.New("task is already completed by this team")

	// Авторизация и временные ворота журнала
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrLoggingWindowClosed  = errors.New("logging window is closed for this race")
	ErrRegistrationNotFound = errors.New("team registration not found")

	// Журнал записан/удалён, но хранилище фотоподтверждений дало сбой.
	ErrEvidenceStorageDegraded = errors.New("evidence storage operation failed")
)
