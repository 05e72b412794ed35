package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
)

type RegistrationService struct {
	registrationRepo repositories.RegistrationRepository
	raceRepo         repositories.RaceRepository
	teamRepo         repositories.TeamRepository
	categoryRepo     repositories.CategoryRepository
	userRepo         repositories.UserRepository
	emailService     *EmailService
	logger           *slog.Logger
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	raceRepo repositories.RaceRepository,
	teamRepo repositories.TeamRepository,
	categoryRepo repositories.CategoryRepository,
	userRepo repositories.UserRepository,
	emailService *EmailService,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		registrationRepo: registrationRepo,
		raceRepo:         raceRepo,
		teamRepo:         teamRepo,
		categoryRepo:     categoryRepo,
		userRepo:         userRepo,
		emailService:     emailService,
		logger:           logger,
	}
}

// RegisterTeam заявляет команду на гонку в указанной категории. Заявить
// может участник команды или администратор; одна регистрация на гонку.
func (s *RegistrationService) RegisterTeam(ctx context.Context, raceID, teamID, categoryID int, principal models.Principal) (*models.Registration, error) {
	race, err := s.raceRepo.GetByID(ctx, raceID)
	if err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, err
	}
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	if !principal.IsAdmin {
		user, err := s.userRepo.GetByID(ctx, principal.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, ErrForbiddenOperation
			}
			return nil, err
		}
		if user.TeamID == nil || *user.TeamID != teamID {
			return nil, ErrForbiddenOperation
		}
	}

	reg := &models.Registration{RaceID: raceID, TeamID: teamID, CategoryID: categoryID}
	if err := s.registrationRepo.Create(ctx, reg); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrRegistrationRaceInvalid):
			return nil, ErrRaceNotFound
		case errors.Is(err, repositories.ErrRegistrationTeamInvalid):
			return nil, ErrTeamNotFound
		case errors.Is(err, repositories.ErrRegistrationCategoryInvalid):
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	s.sendConfirmation(ctx, race, principal)
	return reg, nil
}

// sendConfirmation шлёт письмо о регистрации. Сбой почты не отменяет
// регистрацию.
func (s *RegistrationService) sendConfirmation(ctx context.Context, race *models.Race, principal models.Principal) {
	if s.emailService == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		return
	}
	if err := s.emailService.SendRegistrationEmail(user.Email, race.Name); err != nil {
		s.logger.WarnContext(ctx, "failed to send registration email",
			slog.String("email", user.Email), slog.Any("error", err))
	}
}

func (s *RegistrationService) ListByRace(ctx context.Context, raceID int) ([]*models.Registration, error) {
	if _, err := s.raceRepo.GetByID(ctx, raceID); err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, err
	}
	return s.registrationRepo.ListByRace(ctx, raceID)
}

// CancelRegistration снимает команду с гонки. Доступно участнику команды и
// администратору.
func (s *RegistrationService) CancelRegistration(ctx context.Context, raceID, teamID int, principal models.Principal) error {
	if !principal.IsAdmin {
		user, err := s.userRepo.GetByID(ctx, principal.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrForbiddenOperation
			}
			return err
		}
		if user.TeamID == nil || *user.TeamID != teamID {
			return ErrForbiddenOperation
		}
	}

	if err := s.registrationRepo.DeleteByRaceAndTeam(ctx, raceID, teamID); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to cancel registration: %w", err)
	}
	return nil
}
