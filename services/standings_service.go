package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
	"golang.org/x/sync/errgroup"
)

// StandingsService пересчитывает турнирную таблицу гонки на каждый запрос.
// Ничего не кэшируется: итог всегда складывается из двух сумм, прочитанных
// в одном снимке событий.
type StandingsService struct {
	raceRepo         repositories.RaceRepository
	registrationRepo repositories.RegistrationRepository
	completionRepo   repositories.CompletionRepository
	logger           *slog.Logger
}

func NewStandingsService(
	raceRepo repositories.RaceRepository,
	registrationRepo repositories.RegistrationRepository,
	completionRepo repositories.CompletionRepository,
	logger *slog.Logger,
) *StandingsService {
	return &StandingsService{
		raceRepo:         raceRepo,
		registrationRepo: registrationRepo,
		completionRepo:   completionRepo,
		logger:           logger,
	}
}

// ComputeStandings возвращает по одной строке на каждую регистрацию гонки,
// включая команды без единого события, в порядке возрастания team_id.
func (s *StandingsService) ComputeStandings(ctx context.Context, raceID int) ([]models.StandingsEntry, error) {
	if _, err := s.raceRepo.GetByID(ctx, raceID); err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to load race: %w", err)
	}

	var (
		registrations []*models.Registration
		visits        []models.ScoredEvent
		taskEvents    []models.ScoredEvent
	)

	// Регистрации и снимок событий независимы; обе суммы внутри снимка
	// читаются одной транзакцией в репозитории.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		registrations, err = s.registrationRepo.ListByRace(gctx, raceID)
		if err != nil {
			return fmt.Errorf("failed to list registrations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		visits, taskEvents, err = s.completionRepo.SnapshotScores(gctx, raceID)
		if err != nil {
			return fmt.Errorf("failed to snapshot scores: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	checkpointPoints := make(map[int]int, len(registrations))
	for _, e := range visits {
		checkpointPoints[e.TeamID] += e.Points
	}
	taskPoints := make(map[int]int, len(registrations))
	for _, e := range taskEvents {
		taskPoints[e.TeamID] += e.Points
	}

	// Перечисление ведут регистрации, а не таблицы событий: команда без
	// отметок получает нулевую строку, а не пропадает из таблицы.
	entries := make([]models.StandingsEntry, 0, len(registrations))
	for _, reg := range registrations {
		entry := models.StandingsEntry{
			TeamID:           reg.TeamID,
			CheckpointPoints: checkpointPoints[reg.TeamID],
			TaskPoints:       taskPoints[reg.TeamID],
		}
		entry.TotalPoints = entry.CheckpointPoints + entry.TaskPoints
		if reg.Team != nil {
			entry.TeamName = reg.Team.Name
		}
		if reg.Category != nil {
			entry.CategoryName = reg.Category.Name
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TeamID < entries[j].TeamID
	})
	return entries, nil
}
