package models

// Principal - аутентифицированный субъект запроса, извлечённый из JWT.
type Principal struct {
	UserID  int
	IsAdmin bool
}
