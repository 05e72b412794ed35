package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/stretchr/testify/require"
)

// Сценарные тесты гоняют журнал и агрегатор над одними и теми же
// in-memory репозиториями: записали - пересчитали - сверили итог.

func newScoringStack(t *testing.T) (*ledgerFixture, *StandingsService) {
	t.Helper()
	f := newLedgerFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	standings := NewStandingsService(f.svc.raceRepo, f.regRepo, f.completionRepo, logger)
	return f, standings
}

func teamEntry(t *testing.T, entries []models.StandingsEntry, teamID int) models.StandingsEntry {
	t.Helper()
	for _, e := range entries {
		if e.TeamID == teamID {
			return e
		}
	}
	t.Fatalf("no standings entry for team %d", teamID)
	return models.StandingsEntry{}
}

func TestScenarioRepeatCheckpointWithAdminOverride(t *testing.T) {
	f, standings := newScoringStack(t)
	ctx := context.Background()

	// Два визита внутри окна: 2, затем 4 очка.
	_, err := f.svc.LogCheckpoint(ctx, f.checkpointInput())
	require.NoError(t, err)
	_, err = f.svc.LogCheckpoint(ctx, f.checkpointInput())
	require.NoError(t, err)

	entries, err := standings.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Equal(t, 4, teamEntry(t, entries, f.teamID).TotalPoints)

	// Окно закрылось: участнику отказ, счёт не меняется.
	f.svc.now = func() time.Time { return f.race.LoggingEnd.Add(time.Hour) }
	_, err = f.svc.LogCheckpoint(ctx, f.checkpointInput())
	require.ErrorIs(t, err, ErrLoggingWindowClosed)

	entries, err = standings.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Equal(t, 4, teamEntry(t, entries, f.teamID).TotalPoints)

	// Администратор дописывает третий визит от имени команды: 6 очков.
	input := f.checkpointInput()
	input.Principal = f.admin
	_, err = f.svc.LogCheckpoint(ctx, input)
	require.NoError(t, err)

	entries, err = standings.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Equal(t, 6, teamEntry(t, entries, f.teamID).TotalPoints)
}

func TestScenarioTaskCompleteRevokeRelog(t *testing.T) {
	f, standings := newScoringStack(t)
	ctx := context.Background()

	_, err := f.svc.LogTask(ctx, f.taskInput())
	require.NoError(t, err)

	entries, err := standings.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Equal(t, 5, teamEntry(t, entries, f.teamID).TaskPoints)

	// Повтор - конфликт, очки не удваиваются.
	_, err = f.svc.LogTask(ctx, f.taskInput())
	require.ErrorIs(t, err, ErrTaskAlreadyCompleted)

	entries, err = standings.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Equal(t, 5, teamEntry(t, entries, f.teamID).TaskPoints)

	// Отзыв обнуляет, повторная запись снова даёт ровно 5.
	err = f.svc.UnlogTask(ctx, UnlogInput{
		RaceID: f.race.ID, TargetID: f.task.ID, TeamID: f.teamID, Principal: f.member,
	})
	require.NoError(t, err)

	entries, err = standings.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Zero(t, teamEntry(t, entries, f.teamID).TaskPoints)

	_, err = f.svc.LogTask(ctx, f.taskInput())
	require.NoError(t, err)

	entries, err = standings.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Equal(t, 5, teamEntry(t, entries, f.teamID).TotalPoints)
}
