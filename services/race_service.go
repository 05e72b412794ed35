package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
)

// RaceService - каталожный слой: CRUD гонок, контрольных пунктов и заданий.
// Журнал отметок эти сущности только читает.
type RaceService struct {
	raceRepo       repositories.RaceRepository
	checkpointRepo repositories.CheckpointRepository
	taskRepo       repositories.TaskRepository

	now func() time.Time
}

func NewRaceService(
	raceRepo repositories.RaceRepository,
	checkpointRepo repositories.CheckpointRepository,
	taskRepo repositories.TaskRepository,
) *RaceService {
	return &RaceService{
		raceRepo:       raceRepo,
		checkpointRepo: checkpointRepo,
		taskRepo:       taskRepo,
		now:            time.Now,
	}
}

func validateRaceWindows(race *models.Race) error {
	if race.Name == "" {
		return ErrRaceNameRequired
	}
	if race.LoggingStart.IsZero() || race.LoggingEnd.IsZero() ||
		race.DisplayStart.IsZero() || race.DisplayEnd.IsZero() {
		return fmt.Errorf("%w: all window boundaries are required", ErrValidationFailed)
	}
	if !race.LoggingStart.Before(race.LoggingEnd) {
		return fmt.Errorf("%w: logging window", ErrRaceInvalidTimeWindow)
	}
	if !race.DisplayStart.Before(race.DisplayEnd) {
		return fmt.Errorf("%w: display window", ErrRaceInvalidTimeWindow)
	}
	return nil
}

func (s *RaceService) CreateRace(ctx context.Context, race *models.Race) error {
	if err := validateRaceWindows(race); err != nil {
		return err
	}
	return s.raceRepo.Create(ctx, race)
}

func (s *RaceService) GetRace(ctx context.Context, id int) (*models.Race, error) {
	race, err := s.raceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, err
	}
	return race, nil
}

func (s *RaceService) ListRaces(ctx context.Context) ([]*models.Race, error) {
	return s.raceRepo.List(ctx)
}

func (s *RaceService) UpdateRace(ctx context.Context, race *models.Race) error {
	if err := validateRaceWindows(race); err != nil {
		return err
	}
	if err := s.raceRepo.Update(ctx, race); err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return ErrRaceNotFound
		}
		return err
	}
	return nil
}

func (s *RaceService) DeleteRace(ctx context.Context, id int) error {
	if err := s.raceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return ErrRaceNotFound
		}
		return err
	}
	return nil
}

func (s *RaceService) CreateCheckpoint(ctx context.Context, cp *models.Checkpoint) error {
	if cp.Points <= 0 {
		return ErrPointsNotPositive
	}
	if _, err := s.GetRace(ctx, cp.RaceID); err != nil {
		return err
	}
	return s.checkpointRepo.Create(ctx, cp)
}

// ListCheckpoints возвращает пункты гонки. Для не-администраторов список
// ограничен окном видимости гонки: вне [display_start, display_end) пункты
// скрыты. Это чисто читающий фильтр, журнал его не применяет.
func (s *RaceService) ListCheckpoints(ctx context.Context, raceID int, principal models.Principal) ([]*models.Checkpoint, error) {
	if _, err := s.GetRace(ctx, raceID); err != nil {
		return nil, err
	}
	var visibleAt *time.Time
	if !principal.IsAdmin {
		now := s.now()
		visibleAt = &now
	}
	return s.checkpointRepo.ListByRace(ctx, raceID, visibleAt)
}

func (s *RaceService) CreateTask(ctx context.Context, task *models.Task) error {
	if task.Points <= 0 {
		return ErrPointsNotPositive
	}
	if _, err := s.GetRace(ctx, task.RaceID); err != nil {
		return err
	}
	return s.taskRepo.Create(ctx, task)
}

func (s *RaceService) ListTasks(ctx context.Context, raceID int) ([]*models.Task, error) {
	if _, err := s.GetRace(ctx, raceID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListByRace(ctx, raceID)
}
