package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
)

// AccessGuard решает, может ли субъект действовать от имени команды в
// рамках гонки: администратор - всегда, иначе нужно и членство в команде,
// и действующая регистрация команды на эту гонку. Проверка одинакова для
// записи и отзыва отметок.
type AccessGuard struct {
	userRepo         repositories.UserRepository
	registrationRepo repositories.RegistrationRepository
}

func NewAccessGuard(
	userRepo repositories.UserRepository,
	registrationRepo repositories.RegistrationRepository,
) *AccessGuard {
	return &AccessGuard{
		userRepo:         userRepo,
		registrationRepo: registrationRepo,
	}
}

// Authorize возвращает nil, если действие разрешено, ErrForbiddenOperation -
// если запрещено, и иную ошибку при сбое хранилища.
func (g *AccessGuard) Authorize(ctx context.Context, principal models.Principal, raceID, teamID int) error {
	if principal.IsAdmin {
		return nil
	}

	user, err := g.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrForbiddenOperation
		}
		return fmt.Errorf("failed to load acting user: %w", err)
	}
	if user.TeamID == nil || *user.TeamID != teamID {
		return ErrForbiddenOperation
	}

	// Членства недостаточно: команда обязана быть зарегистрирована именно
	// на эту гонку.
	if _, err := g.registrationRepo.FindByRaceAndTeam(ctx, raceID, teamID); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrForbiddenOperation
		}
		return fmt.Errorf("failed to check team registration: %w", err)
	}
	return nil
}
