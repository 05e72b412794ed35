package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/lib/pq"
)

var (
	ErrVisitNotFound          = errors.New("checkpoint visit not found")
	ErrTaskCompletionNotFound = errors.New("task completion not found")
	ErrTaskCompletionConflict = errors.New("task is already completed by this team")
	ErrCompletionTeamInvalid  = errors.New("completion team conflict or invalid")
)

// CompletionRepository - хранилище событий журнала. Каждая мутация - одна
// транзакция, покрывающая и строку события, и строку его фотоподтверждения,
// чтобы событие никогда не ссылалось на отсутствующую запись.
type CompletionRepository interface {
	CreateVisit(ctx context.Context, visit *models.CheckpointVisit, evidence *models.EvidenceImage) error
	// CreateTaskCompletion выполняет атомарную вставку под уникальным
	// ограничением (race_id, task_id, team_id); при нарушении возвращает
	// ErrTaskCompletionConflict.
	CreateTaskCompletion(ctx context.Context, tc *models.TaskCompletion, evidence *models.EvidenceImage) error
	// FindLatestVisit возвращает самую свежую отметку команды на пункте.
	FindLatestVisit(ctx context.Context, raceID, checkpointID, teamID int) (*models.CheckpointVisit, error)
	FindTaskCompletion(ctx context.Context, raceID, taskID, teamID int) (*models.TaskCompletion, error)
	DeleteVisit(ctx context.Context, visitID int, evidenceID *int) error
	DeleteTaskCompletion(ctx context.Context, completionID int, evidenceID *int) error
	// SnapshotScores читает обе суммы очков в одной read-only транзакции
	// REPEATABLE READ, чтобы агрегатор не смешивал два логических момента.
	SnapshotScores(ctx context.Context, raceID int) (visits []models.ScoredEvent, tasks []models.ScoredEvent, err error)
}

type postgresCompletionRepository struct {
	db *sql.DB
}

func NewPostgresCompletionRepository(db *sql.DB) CompletionRepository {
	return &postgresCompletionRepository{db: db}
}

func (r *postgresCompletionRepository) insertEvidence(ctx context.Context, exec SQLExecutor, evidence *models.EvidenceImage) error {
	query := `INSERT INTO evidence_images (storage_key) VALUES ($1) RETURNING id`
	return exec.QueryRowContext(ctx, query, evidence.StorageKey).Scan(&evidence.ID)
}

func (r *postgresCompletionRepository) CreateVisit(ctx context.Context, visit *models.CheckpointVisit, evidence *models.EvidenceImage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin visit transaction: %w", err)
	}
	defer tx.Rollback()

	if evidence != nil {
		if err := r.insertEvidence(ctx, tx, evidence); err != nil {
			return fmt.Errorf("failed to insert evidence image: %w", err)
		}
		visit.EvidenceID = &evidence.ID
		visit.Evidence = evidence
	}

	query := `
		INSERT INTO checkpoint_visits (race_id, checkpoint_id, team_id, evidence_id, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		visit.RaceID, visit.CheckpointID, visit.TeamID,
		visit.EvidenceID, visit.Latitude, visit.Longitude,
	).Scan(&visit.ID, &visit.CreatedAt)
	if err != nil {
		// Guard пропускает администратора без проверки команды, так что
		// несуществующий team_id впервые ловится здесь, на FK.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" &&
			pqErr.Constraint == "checkpoint_visits_team_id_fkey" {
			return ErrCompletionTeamInvalid
		}
		return fmt.Errorf("failed to create checkpoint visit: %w", err)
	}

	return tx.Commit()
}

func (r *postgresCompletionRepository) CreateTaskCompletion(ctx context.Context, tc *models.TaskCompletion, evidence *models.EvidenceImage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin task completion transaction: %w", err)
	}
	defer tx.Rollback()

	if evidence != nil {
		if err := r.insertEvidence(ctx, tx, evidence); err != nil {
			return fmt.Errorf("failed to insert evidence image: %w", err)
		}
		tc.EvidenceID = &evidence.ID
		tc.Evidence = evidence
	}

	query := `
		INSERT INTO task_completions (race_id, task_id, team_id, evidence_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		tc.RaceID, tc.TaskID, tc.TeamID, tc.EvidenceID,
	).Scan(&tc.ID, &tc.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch {
			case pqErr.Code == "23505":
				return ErrTaskCompletionConflict
			case pqErr.Code == "23503" && pqErr.Constraint == "task_completions_team_id_fkey":
				return ErrCompletionTeamInvalid
			}
		}
		return fmt.Errorf("failed to create task completion: %w", err)
	}

	return tx.Commit()
}

func (r *postgresCompletionRepository) FindLatestVisit(ctx context.Context, raceID, checkpointID, teamID int) (*models.CheckpointVisit, error) {
	query := `
		SELECT
			v.id, v.race_id, v.checkpoint_id, v.team_id, v.evidence_id,
			v.latitude, v.longitude, v.created_at,
			ei.storage_key
		FROM checkpoint_visits v
		LEFT JOIN evidence_images ei ON v.evidence_id = ei.id
		WHERE v.race_id = $1 AND v.checkpoint_id = $2 AND v.team_id = $3
		ORDER BY v.created_at DESC, v.id DESC
		LIMIT 1`

	var v models.CheckpointVisit
	var storageKey sql.NullString
	err := r.db.QueryRowContext(ctx, query, raceID, checkpointID, teamID).Scan(
		&v.ID, &v.RaceID, &v.CheckpointID, &v.TeamID, &v.EvidenceID,
		&v.Latitude, &v.Longitude, &v.CreatedAt,
		&storageKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to find checkpoint visit: %w", err)
	}
	if v.EvidenceID != nil && storageKey.Valid {
		v.Evidence = &models.EvidenceImage{ID: *v.EvidenceID, StorageKey: storageKey.String}
	}
	return &v, nil
}

func (r *postgresCompletionRepository) FindTaskCompletion(ctx context.Context, raceID, taskID, teamID int) (*models.TaskCompletion, error) {
	query := `
		SELECT
			tc.id, tc.race_id, tc.task_id, tc.team_id, tc.evidence_id, tc.created_at,
			ei.storage_key
		FROM task_completions tc
		LEFT JOIN evidence_images ei ON tc.evidence_id = ei.id
		WHERE tc.race_id = $1 AND tc.task_id = $2 AND tc.team_id = $3`

	var tc models.TaskCompletion
	var storageKey sql.NullString
	err := r.db.QueryRowContext(ctx, query, raceID, taskID, teamID).Scan(
		&tc.ID, &tc.RaceID, &tc.TaskID, &tc.TeamID, &tc.EvidenceID, &tc.CreatedAt,
		&storageKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskCompletionNotFound
		}
		return nil, fmt.Errorf("failed to find task completion: %w", err)
	}
	if tc.EvidenceID != nil && storageKey.Valid {
		tc.Evidence = &models.EvidenceImage{ID: *tc.EvidenceID, StorageKey: storageKey.String}
	}
	return &tc, nil
}

func (r *postgresCompletionRepository) deleteEvent(ctx context.Context, table string, eventID int, evidenceID *int, notFound error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if err := checkAffectedRows(result, notFound); err != nil {
		return err
	}

	if evidenceID != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM evidence_images WHERE id = $1`, *evidenceID); err != nil {
			return fmt.Errorf("failed to delete evidence image: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresCompletionRepository) DeleteVisit(ctx context.Context, visitID int, evidenceID *int) error {
	return r.deleteEvent(ctx, "checkpoint_visits", visitID, evidenceID, ErrVisitNotFound)
}

func (r *postgresCompletionRepository) DeleteTaskCompletion(ctx context.Context, completionID int, evidenceID *int) error {
	return r.deleteEvent(ctx, "task_completions", completionID, evidenceID, ErrTaskCompletionNotFound)
}

func (r *postgresCompletionRepository) SnapshotScores(ctx context.Context, raceID int) ([]models.ScoredEvent, []models.ScoredEvent, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	visits, err := r.scoredEvents(ctx, tx, `
		SELECT v.team_id, cp.points
		FROM checkpoint_visits v
		JOIN checkpoints cp ON v.checkpoint_id = cp.id
		WHERE v.race_id = $1`, raceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read checkpoint scores: %w", err)
	}

	tasks, err := r.scoredEvents(ctx, tx, `
		SELECT tc.team_id, t.points
		FROM task_completions tc
		JOIN tasks t ON tc.task_id = t.id
		WHERE tc.race_id = $1`, raceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read task scores: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}
	return visits, tasks, nil
}

func (r *postgresCompletionRepository) scoredEvents(ctx context.Context, exec SQLExecutor, query string, raceID int) ([]models.ScoredEvent, error) {
	rows, err := exec.QueryContext(ctx, query, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.ScoredEvent, 0)
	for rows.Next() {
		var e models.ScoredEvent
		if err := rows.Scan(&e.TeamID, &e.Points); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
