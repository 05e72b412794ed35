package services

import (
	"context"
	"testing"
	"time"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/stretchr/testify/require"
)

func validRace() *models.Race {
	start := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	return &models.Race{
		Name:         "Forest Sprint",
		LoggingStart: start,
		LoggingEnd:   start.Add(6 * time.Hour),
		DisplayStart: start.Add(-24 * time.Hour),
		DisplayEnd:   start.Add(24 * time.Hour),
	}
}

func TestCreateRaceValidation(t *testing.T) {
	svc := NewRaceService(newFakeRaceRepo(), newFakeCheckpointRepo(), newFakeTaskRepo())
	ctx := context.Background()

	t.Run("valid race is created", func(t *testing.T) {
		race := validRace()
		require.NoError(t, svc.CreateRace(ctx, race))
		require.NotZero(t, race.ID)
	})

	t.Run("name is required", func(t *testing.T) {
		race := validRace()
		race.Name = ""
		require.ErrorIs(t, svc.CreateRace(ctx, race), ErrRaceNameRequired)
	})

	t.Run("missing window boundary", func(t *testing.T) {
		race := validRace()
		race.LoggingEnd = time.Time{}
		require.ErrorIs(t, svc.CreateRace(ctx, race), ErrValidationFailed)
	})

	t.Run("logging end must be after start", func(t *testing.T) {
		race := validRace()
		race.LoggingEnd = race.LoggingStart
		require.ErrorIs(t, svc.CreateRace(ctx, race), ErrRaceInvalidTimeWindow)
	})

	t.Run("display end must be after start", func(t *testing.T) {
		race := validRace()
		race.DisplayEnd = race.DisplayStart.Add(-time.Hour)
		require.ErrorIs(t, svc.CreateRace(ctx, race), ErrRaceInvalidTimeWindow)
	})
}

func TestCreateCheckpointAndTaskValidation(t *testing.T) {
	raceRepo := newFakeRaceRepo()
	svc := NewRaceService(raceRepo, newFakeCheckpointRepo(), newFakeTaskRepo())
	ctx := context.Background()

	race := validRace()
	require.NoError(t, svc.CreateRace(ctx, race))

	t.Run("checkpoint points must be positive", func(t *testing.T) {
		err := svc.CreateCheckpoint(ctx, &models.Checkpoint{RaceID: race.ID, Name: "CP", Points: 0})
		require.ErrorIs(t, err, ErrPointsNotPositive)
	})

	t.Run("task points must be positive", func(t *testing.T) {
		err := svc.CreateTask(ctx, &models.Task{RaceID: race.ID, Name: "T", Points: -1})
		require.ErrorIs(t, err, ErrPointsNotPositive)
	})

	t.Run("checkpoint needs an existing race", func(t *testing.T) {
		err := svc.CreateCheckpoint(ctx, &models.Checkpoint{RaceID: 404, Name: "CP", Points: 1})
		require.ErrorIs(t, err, ErrRaceNotFound)
	})

	t.Run("valid checkpoint and task", func(t *testing.T) {
		require.NoError(t, svc.CreateCheckpoint(ctx, &models.Checkpoint{RaceID: race.ID, Name: "CP", Points: 2}))
		require.NoError(t, svc.CreateTask(ctx, &models.Task{RaceID: race.ID, Name: "T", Points: 5}))
	})
}
