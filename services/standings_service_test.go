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

type standingsFixture struct {
	svc            *StandingsService
	raceRepo       *fakeRaceRepo
	regRepo        *fakeRegistrationRepo
	checkpointRepo *fakeCheckpointRepo
	taskRepo       *fakeTaskRepo
	completionRepo *fakeCompletionRepo
	race           *models.Race
}

func newStandingsFixture(t *testing.T) *standingsFixture {
	t.Helper()
	ctx := context.Background()

	raceRepo := newFakeRaceRepo()
	regRepo := newFakeRegistrationRepo()
	checkpointRepo := newFakeCheckpointRepo()
	taskRepo := newFakeTaskRepo()
	completionRepo := newFakeCompletionRepo(checkpointRepo, taskRepo)

	start := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	race := &models.Race{Name: "Forest Sprint", LoggingStart: start, LoggingEnd: start.Add(6 * time.Hour)}
	require.NoError(t, raceRepo.Create(ctx, race))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &standingsFixture{
		svc:            NewStandingsService(raceRepo, regRepo, completionRepo, logger),
		raceRepo:       raceRepo,
		regRepo:        regRepo,
		checkpointRepo: checkpointRepo,
		taskRepo:       taskRepo,
		completionRepo: completionRepo,
		race:           race,
	}
}

func (f *standingsFixture) register(t *testing.T, teamID int, teamName string) {
	t.Helper()
	reg := &models.Registration{
		RaceID:     f.race.ID,
		TeamID:     teamID,
		CategoryID: 1,
		Team:       &models.Team{ID: teamID, Name: teamName},
		Category:   &models.Category{ID: 1, Name: "Open"},
	}
	require.NoError(t, f.regRepo.Create(context.Background(), reg))
}

func (f *standingsFixture) visit(t *testing.T, checkpointID, teamID int) {
	t.Helper()
	err := f.completionRepo.CreateVisit(context.Background(), &models.CheckpointVisit{
		RaceID: f.race.ID, CheckpointID: checkpointID, TeamID: teamID,
	}, nil)
	require.NoError(t, err)
}

func (f *standingsFixture) complete(t *testing.T, taskID, teamID int) {
	t.Helper()
	err := f.completionRepo.CreateTaskCompletion(context.Background(), &models.TaskCompletion{
		RaceID: f.race.ID, TaskID: taskID, TeamID: teamID,
	}, nil)
	require.NoError(t, err)
}

func TestComputeStandingsUnknownRace(t *testing.T) {
	f := newStandingsFixture(t)
	_, err := f.svc.ComputeStandings(context.Background(), 404)
	require.ErrorIs(t, err, ErrRaceNotFound)
}

func TestComputeStandingsZeroEventTeamsIncluded(t *testing.T) {
	f := newStandingsFixture(t)
	f.register(t, 10, "Wolves")
	f.register(t, 20, "Foxes")

	entries, err := f.svc.ComputeStandings(context.Background(), f.race.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		require.Zero(t, entry.CheckpointPoints)
		require.Zero(t, entry.TaskPoints)
		require.Zero(t, entry.TotalPoints)
	}
}

func TestComputeStandingsRepeatVisitsAccrueFullValue(t *testing.T) {
	f := newStandingsFixture(t)
	ctx := context.Background()

	cp := &models.Checkpoint{RaceID: f.race.ID, Name: "CP-1", Points: 2}
	require.NoError(t, f.checkpointRepo.Create(ctx, cp))

	f.register(t, 10, "Wolves")
	f.visit(t, cp.ID, 10)
	f.visit(t, cp.ID, 10)
	f.visit(t, cp.ID, 10)

	entries, err := f.svc.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 6, entries[0].CheckpointPoints)
	require.Equal(t, 6, entries[0].TotalPoints)
}

func TestComputeStandingsTotalsAndOrdering(t *testing.T) {
	f := newStandingsFixture(t)
	ctx := context.Background()

	cp := &models.Checkpoint{RaceID: f.race.ID, Name: "CP-1", Points: 2}
	require.NoError(t, f.checkpointRepo.Create(ctx, cp))
	task := &models.Task{RaceID: f.race.ID, Name: "Rope bridge", Points: 5}
	require.NoError(t, f.taskRepo.Create(ctx, task))

	// Регистрации намеренно не по порядку team_id.
	f.register(t, 30, "Owls")
	f.register(t, 10, "Wolves")
	f.register(t, 20, "Foxes")

	f.visit(t, cp.ID, 30)
	f.visit(t, cp.ID, 30)
	f.complete(t, task.ID, 30)
	f.complete(t, task.ID, 10)

	entries, err := f.svc.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, []int{10, 20, 30}, []int{entries[0].TeamID, entries[1].TeamID, entries[2].TeamID})

	require.Equal(t, 0, entries[0].CheckpointPoints)
	require.Equal(t, 5, entries[0].TaskPoints)
	require.Equal(t, 5, entries[0].TotalPoints)

	require.Zero(t, entries[1].TotalPoints)

	require.Equal(t, 4, entries[2].CheckpointPoints)
	require.Equal(t, 5, entries[2].TaskPoints)
	require.Equal(t, 9, entries[2].TotalPoints)

	require.Equal(t, "Wolves", entries[0].TeamName)
	require.Equal(t, "Open", entries[0].CategoryName)
}

func TestComputeStandingsIgnoresOtherRaces(t *testing.T) {
	f := newStandingsFixture(t)
	ctx := context.Background()

	other := &models.Race{Name: "Other", LoggingStart: f.race.LoggingStart, LoggingEnd: f.race.LoggingEnd}
	require.NoError(t, f.raceRepo.Create(ctx, other))
	otherCp := &models.Checkpoint{RaceID: other.ID, Name: "CP-O", Points: 100}
	require.NoError(t, f.checkpointRepo.Create(ctx, otherCp))

	f.register(t, 10, "Wolves")
	require.NoError(t, f.completionRepo.CreateVisit(ctx, &models.CheckpointVisit{
		RaceID: other.ID, CheckpointID: otherCp.ID, TeamID: 10,
	}, nil))

	entries, err := f.svc.ComputeStandings(ctx, f.race.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Zero(t, entries[0].TotalPoints)
}
