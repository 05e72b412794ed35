package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nurbek02/adventure-race-system/models"
)

var ErrRaceNotFound = errors.New("race not found")

type RaceRepository interface {
	Create(ctx context.Context, race *models.Race) error
	GetByID(ctx context.Context, id int) (*models.Race, error)
	List(ctx context.Context) ([]*models.Race, error)
	Update(ctx context.Context, race *models.Race) error
	Delete(ctx context.Context, id int) error
}

type postgresRaceRepository struct {
	db *sql.DB
}

func NewPostgresRaceRepository(db *sql.DB) RaceRepository {
	return &postgresRaceRepository{db: db}
}

func (r *postgresRaceRepository) Create(ctx context.Context, race *models.Race) error {
	query := `
		INSERT INTO races (name, description, logging_start, logging_end, display_start, display_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		race.Name, race.Description,
		race.LoggingStart, race.LoggingEnd,
		race.DisplayStart, race.DisplayEnd,
	).Scan(&race.ID, &race.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create race: %w", err)
	}
	return nil
}

func (r *postgresRaceRepository) scanRace(rowScanner interface{ Scan(...interface{}) error }) (*models.Race, error) {
	var race models.Race
	err := rowScanner.Scan(
		&race.ID, &race.Name, &race.Description,
		&race.LoggingStart, &race.LoggingEnd,
		&race.DisplayStart, &race.DisplayEnd,
		&race.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRaceNotFound
		}
		return nil, err
	}
	return &race, nil
}

func (r *postgresRaceRepository) GetByID(ctx context.Context, id int) (*models.Race, error) {
	query := `
		SELECT id, name, description, logging_start, logging_end, display_start, display_end, created_at
		FROM races WHERE id = $1`
	return r.scanRace(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRaceRepository) List(ctx context.Context) ([]*models.Race, error) {
	query := `
		SELECT id, name, description, logging_start, logging_end, display_start, display_end, created_at
		FROM races ORDER BY logging_start DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	defer rows.Close()

	races := make([]*models.Race, 0)
	for rows.Next() {
		race, errScan := r.scanRace(rows)
		if errScan != nil {
			return nil, errScan
		}
		races = append(races, race)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return races, nil
}

func (r *postgresRaceRepository) Update(ctx context.Context, race *models.Race) error {
	query := `
		UPDATE races SET
			name = $1, description = $2,
			logging_start = $3, logging_end = $4,
			display_start = $5, display_end = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(ctx, query,
		race.Name, race.Description,
		race.LoggingStart, race.LoggingEnd,
		race.DisplayStart, race.DisplayEnd,
		race.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update race: %w", err)
	}
	return checkAffectedRows(result, ErrRaceNotFound)
}

func (r *postgresRaceRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM races WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete race: %w", err)
	}
	return checkAffectedRows(result, ErrRaceNotFound)
}
