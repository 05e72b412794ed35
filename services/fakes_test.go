package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
	"github.com/Nurbek02/adventure-race-system/storage"
)

// --- In-memory репозитории для юнит-тестов сервисного слоя ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = len(r.users) + 1
	user.CreatedAt = time.Now()
	// Копия: вызывающий может чистить PasswordHash в своём экземпляре.
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateTeam(ctx context.Context, userID int, teamID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.TeamID = teamID
	return nil
}

func (r *fakeUserRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make([]*models.User, 0)
	for _, user := range r.users {
		if user.TeamID != nil && *user.TeamID == teamID {
			copied := *user
			members = append(members, &copied)
		}
	}
	return members, nil
}

type regKey struct{ raceID, teamID int }

type fakeRegistrationRepo struct {
	mu   sync.Mutex
	regs map[regKey]*models.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{regs: make(map[regKey]*models.Registration)}
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := regKey{reg.RaceID, reg.TeamID}
	if _, exists := r.regs[key]; exists {
		return repositories.ErrRegistrationConflict
	}
	reg.ID = len(r.regs) + 1
	reg.CreatedAt = time.Now()
	r.regs[key] = reg
	return nil
}

func (r *fakeRegistrationRepo) FindByRaceAndTeam(ctx context.Context, raceID, teamID int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[regKey{raceID, teamID}]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	return reg, nil
}

func (r *fakeRegistrationRepo) ListByRace(ctx context.Context, raceID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Registration, 0)
	for key, reg := range r.regs {
		if key.raceID == raceID {
			result = append(result, reg)
		}
	}
	return result, nil
}

func (r *fakeRegistrationRepo) DeleteByRaceAndTeam(ctx context.Context, raceID, teamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := regKey{raceID, teamID}
	if _, ok := r.regs[key]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(r.regs, key)
	return nil
}

type fakeRaceRepo struct {
	mu    sync.Mutex
	races map[int]*models.Race
}

func newFakeRaceRepo() *fakeRaceRepo {
	return &fakeRaceRepo{races: make(map[int]*models.Race)}
}

func (r *fakeRaceRepo) Create(ctx context.Context, race *models.Race) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	race.ID = len(r.races) + 1
	race.CreatedAt = time.Now()
	r.races[race.ID] = race
	return nil
}

func (r *fakeRaceRepo) GetByID(ctx context.Context, id int) (*models.Race, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	race, ok := r.races[id]
	if !ok {
		return nil, repositories.ErrRaceNotFound
	}
	copied := *race
	return &copied, nil
}

func (r *fakeRaceRepo) List(ctx context.Context) ([]*models.Race, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Race, 0, len(r.races))
	for _, race := range r.races {
		result = append(result, race)
	}
	return result, nil
}

func (r *fakeRaceRepo) Update(ctx context.Context, race *models.Race) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.races[race.ID]; !ok {
		return repositories.ErrRaceNotFound
	}
	r.races[race.ID] = race
	return nil
}

func (r *fakeRaceRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.races[id]; !ok {
		return repositories.ErrRaceNotFound
	}
	delete(r.races, id)
	return nil
}

type fakeCheckpointRepo struct {
	mu          sync.Mutex
	checkpoints map[int]*models.Checkpoint
}

func newFakeCheckpointRepo() *fakeCheckpointRepo {
	return &fakeCheckpointRepo{checkpoints: make(map[int]*models.Checkpoint)}
}

func (r *fakeCheckpointRepo) Create(ctx context.Context, cp *models.Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp.ID = len(r.checkpoints) + 1
	r.checkpoints[cp.ID] = cp
	return nil
}

func (r *fakeCheckpointRepo) GetByID(ctx context.Context, id int) (*models.Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp, ok := r.checkpoints[id]
	if !ok {
		return nil, repositories.ErrCheckpointNotFound
	}
	copied := *cp
	return &copied, nil
}

func (r *fakeCheckpointRepo) ListByRace(ctx context.Context, raceID int, visibleAt *time.Time) ([]*models.Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Checkpoint, 0)
	for _, cp := range r.checkpoints {
		if cp.RaceID == raceID {
			result = append(result, cp)
		}
	}
	return result, nil
}

func (r *fakeCheckpointRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checkpoints[id]; !ok {
		return repositories.ErrCheckpointNotFound
	}
	delete(r.checkpoints, id)
	return nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[int]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int]*models.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = len(r.tasks) + 1
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id int) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) ListByRace(ctx context.Context, raceID int) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Task, 0)
	for _, task := range r.tasks {
		if task.RaceID == raceID {
			result = append(result, task)
		}
	}
	return result, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return repositories.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// fakeCompletionRepo воспроизводит уникальное ограничение заданий и снимок
// очков. Стоимости целей берёт из связанных fake-репозиториев каталога.
type fakeCompletionRepo struct {
	mu          sync.Mutex
	nextID      int
	visits      []*models.CheckpointVisit
	completions []*models.TaskCompletion

	// validTeams имитирует FK на teams: nil отключает проверку.
	validTeams map[int]struct{}

	checkpointRepo *fakeCheckpointRepo
	taskRepo       *fakeTaskRepo
}

func newFakeCompletionRepo(cpRepo *fakeCheckpointRepo, taskRepo *fakeTaskRepo) *fakeCompletionRepo {
	return &fakeCompletionRepo{checkpointRepo: cpRepo, taskRepo: taskRepo}
}

func (r *fakeCompletionRepo) teamFK(teamID int) error {
	if r.validTeams == nil {
		return nil
	}
	if _, ok := r.validTeams[teamID]; !ok {
		return repositories.ErrCompletionTeamInvalid
	}
	return nil
}

func (r *fakeCompletionRepo) CreateVisit(ctx context.Context, visit *models.CheckpointVisit, evidence *models.EvidenceImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.teamFK(visit.TeamID); err != nil {
		return err
	}
	r.nextID++
	visit.ID = r.nextID
	visit.CreatedAt = time.Now()
	if evidence != nil {
		r.nextID++
		evidence.ID = r.nextID
		visit.EvidenceID = &evidence.ID
		visit.Evidence = evidence
	}
	r.visits = append(r.visits, visit)
	return nil
}

func (r *fakeCompletionRepo) CreateTaskCompletion(ctx context.Context, tc *models.TaskCompletion, evidence *models.EvidenceImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.teamFK(tc.TeamID); err != nil {
		return err
	}
	for _, existing := range r.completions {
		if existing.RaceID == tc.RaceID && existing.TaskID == tc.TaskID && existing.TeamID == tc.TeamID {
			return repositories.ErrTaskCompletionConflict
		}
	}
	r.nextID++
	tc.ID = r.nextID
	tc.CreatedAt = time.Now()
	if evidence != nil {
		r.nextID++
		evidence.ID = r.nextID
		tc.EvidenceID = &evidence.ID
		tc.Evidence = evidence
	}
	r.completions = append(r.completions, tc)
	return nil
}

func (r *fakeCompletionRepo) FindLatestVisit(ctx context.Context, raceID, checkpointID, teamID int) (*models.CheckpointVisit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.CheckpointVisit
	for _, v := range r.visits {
		if v.RaceID == raceID && v.CheckpointID == checkpointID && v.TeamID == teamID {
			if latest == nil || v.ID > latest.ID {
				latest = v
			}
		}
	}
	if latest == nil {
		return nil, repositories.ErrVisitNotFound
	}
	return latest, nil
}

func (r *fakeCompletionRepo) FindTaskCompletion(ctx context.Context, raceID, taskID, teamID int) (*models.TaskCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tc := range r.completions {
		if tc.RaceID == raceID && tc.TaskID == taskID && tc.TeamID == teamID {
			return tc, nil
		}
	}
	return nil, repositories.ErrTaskCompletionNotFound
}

func (r *fakeCompletionRepo) DeleteVisit(ctx context.Context, visitID int, evidenceID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.visits {
		if v.ID == visitID {
			r.visits = append(r.visits[:i], r.visits[i+1:]...)
			return nil
		}
	}
	return repositories.ErrVisitNotFound
}

func (r *fakeCompletionRepo) DeleteTaskCompletion(ctx context.Context, completionID int, evidenceID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, tc := range r.completions {
		if tc.ID == completionID {
			r.completions = append(r.completions[:i], r.completions[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTaskCompletionNotFound
}

func (r *fakeCompletionRepo) SnapshotScores(ctx context.Context, raceID int) ([]models.ScoredEvent, []models.ScoredEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	visits := make([]models.ScoredEvent, 0)
	for _, v := range r.visits {
		if v.RaceID != raceID {
			continue
		}
		cp, err := r.checkpointRepo.GetByID(ctx, v.CheckpointID)
		if err != nil {
			return nil, nil, err
		}
		visits = append(visits, models.ScoredEvent{TeamID: v.TeamID, Points: cp.Points})
	}
	tasks := make([]models.ScoredEvent, 0)
	for _, tc := range r.completions {
		if tc.RaceID != raceID {
			continue
		}
		task, err := r.taskRepo.GetByID(ctx, tc.TaskID)
		if err != nil {
			return nil, nil, err
		}
		tasks = append(tasks, models.ScoredEvent{TeamID: tc.TeamID, Points: task.Points})
	}
	return visits, tasks, nil
}

// fakeUploader хранит «загруженные» байты в памяти и умеет имитировать
// сбои хранилища.
type fakeUploader struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failUpload bool
	failDelete bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failUpload {
		return nil, errors.New("simulated upload failure")
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, err
	}
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failDelete {
		return errors.New("simulated delete failure")
	}
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (u *fakeUploader) has(key string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.objects[key]
	return ok
}

func (u *fakeUploader) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.objects)
}
