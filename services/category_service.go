package services

import (
	"context"
	"errors"

	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/repositories"
)

const defaultLang = "ru"

type CategoryService struct {
	categoryRepo repositories.CategoryRepository
}

func NewCategoryService(categoryRepo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	category := &models.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories возвращает категории на запрошенном языке с откатом на
// язык по умолчанию для непереведённых названий.
func (s *CategoryService) ListCategories(ctx context.Context, lang string) ([]*models.Category, error) {
	if lang == "" {
		lang = defaultLang
	}
	return s.categoryRepo.List(ctx, lang)
}

func (s *CategoryService) SetTranslation(ctx context.Context, categoryID int, lang, name string) error {
	if lang == "" || name == "" {
		return ErrValidationFailed
	}
	err := s.categoryRepo.UpsertTranslation(ctx, &models.CategoryTranslation{
		CategoryID: categoryID,
		Lang:       lang,
		Name:       name,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}
