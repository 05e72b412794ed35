package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Nurbek02/adventure-race-system/models"
)

var ErrCheckpointNotFound = errors.New("checkpoint not found")

type CheckpointRepository interface {
	Create(ctx context.Context, cp *models.Checkpoint) error
	GetByID(ctx context.Context, id int) (*models.Checkpoint, error)
	// ListByRace возвращает контрольные пункты гонки. Если visibleAt задан,
	// список пуст вне окна видимости гонки [display_start, display_end).
	ListByRace(ctx context.Context, raceID int, visibleAt *time.Time) ([]*models.Checkpoint, error)
	Delete(ctx context.Context, id int) error
}

type postgresCheckpointRepository struct {
	db *sql.DB
}

func NewPostgresCheckpointRepository(db *sql.DB) CheckpointRepository {
	return &postgresCheckpointRepository{db: db}
}

func (r *postgresCheckpointRepository) Create(ctx context.Context, cp *models.Checkpoint) error {
	query := `
		INSERT INTO checkpoints (race_id, name, points, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		cp.RaceID, cp.Name, cp.Points, cp.Latitude, cp.Longitude,
	).Scan(&cp.ID, &cp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	return nil
}

func (r *postgresCheckpointRepository) GetByID(ctx context.Context, id int) (*models.Checkpoint, error) {
	query := `
		SELECT id, race_id, name, points, latitude, longitude, created_at
		FROM checkpoints WHERE id = $1`
	var cp models.Checkpoint
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cp.ID, &cp.RaceID, &cp.Name, &cp.Points, &cp.Latitude, &cp.Longitude, &cp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return &cp, nil
}

func (r *postgresCheckpointRepository) ListByRace(ctx context.Context, raceID int, visibleAt *time.Time) ([]*models.Checkpoint, error) {
	query := `
		SELECT cp.id, cp.race_id, cp.name, cp.points, cp.latitude, cp.longitude, cp.created_at
		FROM checkpoints cp`
	args := []interface{}{raceID}

	if visibleAt != nil {
		query += `
		JOIN races r ON cp.race_id = r.id
		WHERE cp.race_id = $1 AND r.display_start <= $2 AND $2 < r.display_end`
		args = append(args, *visibleAt)
	} else {
		query += `
		WHERE cp.race_id = $1`
	}
	query += ` ORDER BY cp.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints by race: %w", err)
	}
	defer rows.Close()

	checkpoints := make([]*models.Checkpoint, 0)
	for rows.Next() {
		var cp models.Checkpoint
		err := rows.Scan(&cp.ID, &cp.RaceID, &cp.Name, &cp.Points, &cp.Latitude, &cp.Longitude, &cp.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		checkpoints = append(checkpoints, &cp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return checkpoints, nil
}

func (r *postgresCheckpointRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return checkAffectedRows(result, ErrCheckpointNotFound)
}
