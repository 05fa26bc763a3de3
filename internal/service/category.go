package service

import (
	"context"
	"fmt"

	"github.com/ruivenancio/finance-app/internal/storage"
	"github.com/ruivenancio/finance-app/models"
)

type CategoryService struct {
	store storage.Store
}

func NewCategoryService(store storage.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]models.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *CategoryService) Create(ctx context.Context, userID, name string, typ models.CategoryType, parentID *string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown category type %q", ErrInvalidInput, typ)
	}
	if parentID != nil {
		if _, err := s.store.GetCategory(ctx, *parentID, userID); err != nil {
			return nil, err
		}
	}
	category := &models.Category{
		UserID:   userID,
		Name:     name,
		Type:     typ,
		ParentID: parentID,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, patch models.CategoryPatch) (*models.Category, error) {
	category, err := s.store.GetCategory(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
		}
		category.Name = *patch.Name
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown category type %q", ErrInvalidInput, *patch.Type)
		}
		category.Type = *patch.Type
	}
	if patch.ParentID.Set {
		if patch.ParentID.Valid {
			// The hierarchy is shallow; only direct self-reference is rejected.
			if patch.ParentID.Value == id {
				return nil, fmt.Errorf("%w: category cannot be its own parent", ErrInvalidInput)
			}
			if _, err := s.store.GetCategory(ctx, patch.ParentID.Value, userID); err != nil {
				return nil, err
			}
		}
		category.ParentID = patch.ParentID.Ptr()
	}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteCategory(ctx, id, userID)
}
