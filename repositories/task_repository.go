package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nurbek02/adventure-race-system/models"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id int) (*models.Task, error)
	ListByRace(ctx context.Context, raceID int) ([]*models.Task, error)
	Delete(ctx context.Context, id int) error
}

type postgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTaskRepository(db *sql.DB) TaskRepository {
	return &postgresTaskRepository{db: db}
}

func (r *postgresTaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (race_id, name, description, points)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		task.RaceID, task.Name, task.Description, task.Points,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *postgresTaskRepository) GetByID(ctx context.Context, id int) (*models.Task, error) {
	query := `
		SELECT id, race_id, name, description, points, created_at
		FROM tasks WHERE id = $1`
	var t models.Task
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.RaceID, &t.Name, &t.Description, &t.Points, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

func (r *postgresTaskRepository) ListByRace(ctx context.Context, raceID int) ([]*models.Task, error) {
	query := `
		SELECT id, race_id, name, description, points, created_at
		FROM tasks WHERE race_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by race: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		var t models.Task
		err := rows.Scan(&t.ID, &t.RaceID, &t.Name, &t.Description, &t.Points, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *postgresTaskRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return checkAffectedRows(result, ErrTaskNotFound)
}
