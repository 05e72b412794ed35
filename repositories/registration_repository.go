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
	ErrRegistrationNotFound        = errors.New("registration not found")
	ErrRegistrationConflict        = errors.New("team is already registered for this race")
	ErrRegistrationRaceInvalid     = errors.New("registration race conflict or invalid")
	ErrRegistrationTeamInvalid     = errors.New("registration team conflict or invalid")
	ErrRegistrationCategoryInvalid = errors.New("registration category conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByRaceAndTeam(ctx context.Context, raceID, teamID int) (*models.Registration, error)
	// ListByRace возвращает регистрации гонки вместе с командой и категорией.
	ListByRace(ctx context.Context, raceID int) ([]*models.Registration, error)
	DeleteByRaceAndTeam(ctx context.Context, raceID, teamID int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (race_id, team_id, category_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, reg.RaceID, reg.TeamID, reg.CategoryID).
		Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrRegistrationConflict
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "registrations_race_id_fkey":
					return ErrRegistrationRaceInvalid
				case "registrations_team_id_fkey":
					return ErrRegistrationTeamInvalid
				case "registrations_category_id_fkey":
					return ErrRegistrationCategoryInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) FindByRaceAndTeam(ctx context.Context, raceID, teamID int) (*models.Registration, error) {
	query := `
		SELECT id, race_id, team_id, category_id, created_at
		FROM registrations WHERE race_id = $1 AND team_id = $2`
	var reg models.Registration
	err := r.db.QueryRowContext(ctx, query, raceID, teamID).
		Scan(&reg.ID, &reg.RaceID, &reg.TeamID, &reg.CategoryID, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return &reg, nil
}

func (r *postgresRegistrationRepository) ListByRace(ctx context.Context, raceID int) ([]*models.Registration, error) {
	query := `
		SELECT
			reg.id, reg.race_id, reg.team_id, reg.category_id, reg.created_at,
			t.id, t.name, t.captain_id, t.created_at,
			c.id, c.name
		FROM registrations reg
		JOIN teams t ON reg.team_id = t.id
		JOIN categories c ON reg.category_id = c.id
		WHERE reg.race_id = $1
		ORDER BY reg.team_id ASC`

	rows, err := r.db.QueryContext(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by race: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var t models.Team
		var c models.Category
		err := rows.Scan(
			&reg.ID, &reg.RaceID, &reg.TeamID, &reg.CategoryID, &reg.CreatedAt,
			&t.ID, &t.Name, &t.CaptainID, &t.CreatedAt,
			&c.ID, &c.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		reg.Team = &t
		reg.Category = &c
		registrations = append(registrations, &reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) DeleteByRaceAndTeam(ctx context.Context, raceID, teamID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM registrations WHERE race_id = $1 AND team_id = $2`, raceID, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}
