package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Nurbek02/adventure-race-system/metrics"
	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
	"github.com/Nurbek02/adventure-race-system/storage"
	"github.com/google/uuid"
)

// EvidenceUpload - опциональное фотоподтверждение отметки.
type EvidenceUpload struct {
	Content     io.Reader
	ContentType string
}

type LogCheckpointInput struct {
	RaceID       int
	CheckpointID int
	TeamID       int
	Principal    models.Principal
	Evidence     *EvidenceUpload
	Latitude     *float64
	Longitude    *float64
}

type LogTaskInput struct {
	RaceID    int
	TaskID    int
	TeamID    int
	Principal models.Principal
	Evidence  *EvidenceUpload
}

type UnlogInput struct {
	RaceID    int
	TargetID  int // checkpoint или task, в зависимости от операции
	TeamID    int
	Principal models.Principal
}

// LedgerService - журнал отметок: единственный путь записи и отзыва событий
// прохождения. Каждая мутация проходит временные ворота, затем проверку
// прав, и только потом меняет хранилище.
type LedgerService struct {
	completionRepo repositories.CompletionRepository
	raceRepo       repositories.RaceRepository
	checkpointRepo repositories.CheckpointRepository
	taskRepo       repositories.TaskRepository
	guard          *AccessGuard
	uploader       storage.FileUploader
	logger         *slog.Logger

	// подменяется в тестах
	now func() time.Time
}

func NewLedgerService(
	completionRepo repositories.CompletionRepository,
	raceRepo repositories.RaceRepository,
	checkpointRepo repositories.CheckpointRepository,
	taskRepo repositories.TaskRepository,
	guard *AccessGuard,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		completionRepo: completionRepo,
		raceRepo:       raceRepo,
		checkpointRepo: checkpointRepo,
		taskRepo:       taskRepo,
		guard:          guard,
		uploader:       uploader,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *LedgerService) resolveRace(ctx context.Context, raceID int) (*models.Race, error) {
	race, err := s.raceRepo.GetByID(ctx, raceID)
	if err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to load race: %w", err)
	}
	return race, nil
}

func (s *LedgerService) resolveCheckpoint(ctx context.Context, raceID, checkpointID int) (*models.Checkpoint, error) {
	cp, err := s.checkpointRepo.GetByID(ctx, checkpointID)
	if err != nil {
		if errors.Is(err, repositories.ErrCheckpointNotFound) {
			return nil, ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp.RaceID != raceID {
		return nil, ErrCheckpointNotFound
	}
	return cp, nil
}

func (s *LedgerService) resolveTask(ctx context.Context, raceID, taskID int) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task.RaceID != raceID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// checkGates выполняет обе проверки в фиксированном порядке: сначала окно,
// потом права.
func (s *LedgerService) checkGates(ctx context.Context, race *models.Race, principal models.Principal, teamID int) error {
	if !LoggingAllowed(race, s.now(), principal.IsAdmin) {
		return ErrLoggingWindowClosed
	}
	return s.guard.Authorize(ctx, principal, race.ID, teamID)
}

// storeEvidence загружает фотоподтверждение в хранилище. Загрузка - best
// effort: неподдерживаемый тип или сбой хранилища дают nil, событие
// записывается без фото.
func (s *LedgerService) storeEvidence(ctx context.Context, raceID int, upload *EvidenceUpload) *models.EvidenceImage {
	if upload == nil || upload.Content == nil {
		return nil
	}
	ext, ok := extensionForImageType(upload.ContentType)
	if !ok {
		s.logger.InfoContext(ctx, "unsupported evidence media type ignored",
			slog.String("content_type", upload.ContentType))
		return nil
	}

	key := fmt.Sprintf("evidence/%d/%s%s", raceID, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, upload.ContentType, upload.Content)
	if err != nil {
		metrics.EvidenceFailures.WithLabelValues("upload").Inc()
		s.logger.WarnContext(ctx, "evidence upload failed, recording event without evidence",
			slog.String("key", key), slog.Any("error", err))
		return nil
	}

	evidence := &models.EvidenceImage{StorageKey: result.Key}
	if result.Location != "" {
		evidence.URL = &result.Location
	}
	return evidence
}

// discardEvidence убирает уже загруженные байты, если событие так и не
// записалось (например, конфликт уникальности задания).
func (s *LedgerService) discardEvidence(ctx context.Context, evidence *models.EvidenceImage) {
	if evidence == nil {
		return
	}
	if err := s.uploader.Delete(ctx, evidence.StorageKey); err != nil {
		metrics.EvidenceFailures.WithLabelValues("delete").Inc()
		s.logger.WarnContext(ctx, "failed to clean up orphaned evidence",
			slog.String("key", evidence.StorageKey), slog.Any("error", err))
	}
}

// LogCheckpoint записывает посещение контрольного пункта. Уникальности нет:
// каждая отметка добавляется отдельной строкой и приносит полную стоимость
// пункта.
func (s *LedgerService) LogCheckpoint(ctx context.Context, input LogCheckpointInput) (*models.CheckpointVisit, error) {
	race, err := s.resolveRace(ctx, input.RaceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveCheckpoint(ctx, input.RaceID, input.CheckpointID); err != nil {
		return nil, err
	}
	if err := s.checkGates(ctx, race, input.Principal, input.TeamID); err != nil {
		return nil, err
	}

	evidence := s.storeEvidence(ctx, input.RaceID, input.Evidence)

	visit := &models.CheckpointVisit{
		RaceID:       input.RaceID,
		CheckpointID: input.CheckpointID,
		TeamID:       input.TeamID,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
	}
	if err := s.completionRepo.CreateVisit(ctx, visit, evidence); err != nil {
		s.discardEvidence(ctx, evidence)
		if errors.Is(err, repositories.ErrCompletionTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to record checkpoint visit: %w", err)
	}

	metrics.EventsRecorded.WithLabelValues("checkpoint").Inc()
	return visit, nil
}

// LogTask записывает выполнение задания. Повторная запись для той же
// команды возвращает ErrTaskAlreadyCompleted: уникальность обеспечивается
// ограничением БД, а не проверкой перед вставкой.
func (s *LedgerService) LogTask(ctx context.Context, input LogTaskInput) (*models.TaskCompletion, error) {
	race, err := s.resolveRace(ctx, input.RaceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveTask(ctx, input.RaceID, input.TaskID); err != nil {
		return nil, err
	}
	if err := s.checkGates(ctx, race, input.Principal, input.TeamID); err != nil {
		return nil, err
	}

	evidence := s.storeEvidence(ctx, input.RaceID, input.Evidence)

	completion := &models.TaskCompletion{
		RaceID: input.RaceID,
		TaskID: input.TaskID,
		TeamID: input.TeamID,
	}
	if err := s.completionRepo.CreateTaskCompletion(ctx, completion, evidence); err != nil {
		s.discardEvidence(ctx, evidence)
		switch {
		case errors.Is(err, repositories.ErrTaskCompletionConflict):
			return nil, ErrTaskAlreadyCompleted
		case errors.Is(err, repositories.ErrCompletionTeamInvalid):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to record task completion: %w", err)
	}

	metrics.EventsRecorded.WithLabelValues("task").Inc()
	return completion, nil
}

// UnlogCheckpoint отзывает самую свежую отметку команды на пункте. Отзыв
// проходит те же ворота, что и запись. Если байты фото удалить не удалось,
// событие всё равно удаляется, а вызывающему возвращается
// ErrEvidenceStorageDegraded.
func (s *LedgerService) UnlogCheckpoint(ctx context.Context, input UnlogInput) error {
	race, err := s.resolveRace(ctx, input.RaceID)
	if err != nil {
		return err
	}
	if _, err := s.resolveCheckpoint(ctx, input.RaceID, input.TargetID); err != nil {
		return err
	}
	if err := s.checkGates(ctx, race, input.Principal, input.TeamID); err != nil {
		return err
	}

	visit, err := s.completionRepo.FindLatestVisit(ctx, input.RaceID, input.TargetID, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrVisitNotFound) {
			return ErrCompletionNotFound
		}
		return fmt.Errorf("failed to find checkpoint visit: %w", err)
	}

	storageErr := s.deleteEvidenceBytes(ctx, visit.Evidence)

	if err := s.completionRepo.DeleteVisit(ctx, visit.ID, visit.EvidenceID); err != nil {
		if errors.Is(err, repositories.ErrVisitNotFound) {
			// Параллельный отзыв успел раньше.
			return ErrCompletionNotFound
		}
		return fmt.Errorf("failed to delete checkpoint visit: %w", err)
	}

	metrics.EventsRevoked.WithLabelValues("checkpoint").Inc()
	if storageErr != nil {
		return fmt.Errorf("%w: %s", ErrEvidenceStorageDegraded, storageErr)
	}
	return nil
}

// UnlogTask отзывает выполнение задания; семантика та же, что и у
// UnlogCheckpoint.
func (s *LedgerService) UnlogTask(ctx context.Context, input UnlogInput) error {
	race, err := s.resolveRace(ctx, input.RaceID)
	if err != nil {
		return err
	}
	if _, err := s.resolveTask(ctx, input.RaceID, input.TargetID); err != nil {
		return err
	}
	if err := s.checkGates(ctx, race, input.Principal, input.TeamID); err != nil {
		return err
	}

	completion, err := s.completionRepo.FindTaskCompletion(ctx, input.RaceID, input.TargetID, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskCompletionNotFound) {
			return ErrCompletionNotFound
		}
		return fmt.Errorf("failed to find task completion: %w", err)
	}

	storageErr := s.deleteEvidenceBytes(ctx, completion.Evidence)

	if err := s.completionRepo.DeleteTaskCompletion(ctx, completion.ID, completion.EvidenceID); err != nil {
		if errors.Is(err, repositories.ErrTaskCompletionNotFound) {
			return ErrCompletionNotFound
		}
		return fmt.Errorf("failed to delete task completion: %w", err)
	}

	metrics.EventsRevoked.WithLabelValues("task").Inc()
	if storageErr != nil {
		return fmt.Errorf("%w: %s", ErrEvidenceStorageDegraded, storageErr)
	}
	return nil
}

// deleteEvidenceBytes удаляет байты фото до удаления строк. Сбой хранилища
// не блокирует отзыв: запись журнала не должна становиться неудаляемой
// из-за недоступного блоба.
func (s *LedgerService) deleteEvidenceBytes(ctx context.Context, evidence *models.EvidenceImage) error {
	if evidence == nil {
		return nil
	}
	if err := s.uploader.Delete(ctx, evidence.StorageKey); err != nil {
		metrics.EvidenceFailures.WithLabelValues("delete").Inc()
		s.logger.WarnContext(ctx, "failed to delete evidence bytes on revoke",
			slog.String("key", evidence.StorageKey), slog.Any("error", err))
		return err
	}
	return nil
}
