package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/lib/pq"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id int) (*models.Category, error)
	// List возвращает категории с названиями на запрошенном языке.
	// Для категорий без перевода остаётся название по умолчанию.
	List(ctx context.Context, lang string) ([]*models.Category, error)
	UpsertTranslation(ctx context.Context, tr *models.CategoryTranslation) error
}

type postgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

func (r *postgresCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := `INSERT INTO categories (name) VALUES ($1) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, category.Name).Scan(&category.ID); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (r *postgresCategoryRepository) List(ctx context.Context, lang string) ([]*models.Category, error) {
	query := `
		SELECT c.id, COALESCE(ct.name, c.name)
		FROM categories c
		LEFT JOIN category_translations ct ON ct.category_id = c.id AND ct.lang = $1
		ORDER BY c.id ASC`
	rows, err := r.db.QueryContext(ctx, query, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *postgresCategoryRepository) UpsertTranslation(ctx context.Context, tr *models.CategoryTranslation) error {
	query := `
		INSERT INTO category_translations (category_id, lang, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_id, lang) DO UPDATE SET name = EXCLUDED.name`
	_, err := r.db.ExecContext(ctx, query, tr.CategoryID, tr.Lang, tr.Name)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to upsert category translation: %w", err)
	}
	return nil
}
