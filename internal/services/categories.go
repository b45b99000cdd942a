package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ems/internal/cache"
	"ems/internal/core"
	"ems/internal/log"
)

const globalCategoriesKey = "global"

// CategoryInput is the caller-editable part of a category.
type CategoryInput struct {
	Name        string
	Description string
	Icon        string
	Type        core.CategoryType
}

// CategoryService owns the visibility and mutation rules for categories.
// Global categories are cached because no user can change them.
type CategoryService struct {
	store   CategoryStore
	globals *cache.Loader[[]core.Category]
	logger  *log.Logger
}

// NewCategoryService builds the service. A nil globals cache makes every
// listing read the global categories from the store.
func NewCategoryService(store CategoryStore, globals cache.Cache[[]core.Category]) *CategoryService {
	return &CategoryService{
		store: store,
		globals: cache.NewLoader(globals, func(ctx context.Context, _ string) ([]core.Category, error) {
			return store.ListGlobalCategories(ctx)
		}),
		logger: log.ForComponent(log.ComponentCategory),
	}
}

// ResolveForUse returns the category when user may read it or attach
// records to it. A deleted category is NotFound; another user's private
// category is Forbidden. It never writes.
func (s *CategoryService) ResolveForUse(ctx context.Context, id, user uuid.UUID) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if c.State != core.CategoryActive {
		return core.Category{}, core.NotFoundf("Category not found")
	}
	if !c.VisibleTo(user) {
		return core.Category{}, core.Forbiddenf("You do not have permission to access or modify this category.")
	}
	return c, nil
}

// ResolveForKind is ResolveForUse plus the check that the category's type
// matches the record kind it is about to be used for.
func (s *CategoryService) ResolveForKind(ctx context.Context, id, user uuid.UUID, kind core.CategoryType) (core.Category, error) {
	c, err := s.ResolveForUse(ctx, id, user)
	if err != nil {
		return core.Category{}, err
	}
	if c.Type != kind {
		return core.Category{}, core.InvalidArgumentf(
			"Category type mismatch: cannot use %s category for %s", c.Type, kind.Noun())
	}
	return c, nil
}

func (s *CategoryService) resolveForMutation(ctx context.Context, id, user uuid.UUID) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if c.State != core.CategoryActive {
		return core.Category{}, core.NotFoundf("Category not found")
	}
	if err := c.CheckMutableBy(user); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// List returns the global categories followed by the user's own, active
// only. An empty typ lists both types.
func (s *CategoryService) List(ctx context.Context, user uuid.UUID, typ core.CategoryType) ([]core.Category, error) {
	globals, err := s.globalCategories(ctx)
	if err != nil {
		return nil, err
	}
	own, err := s.store.ListUserCategories(ctx, user, typ)
	if err != nil {
		return nil, err
	}

	out := make([]core.Category, 0, len(globals)+len(own))
	for _, c := range globals {
		if typ == "" || c.Type == typ {
			out = append(out, c)
		}
	}
	return append(out, own...), nil
}

func (s *CategoryService) globalCategories(ctx context.Context) ([]core.Category, error) {
	globals, err := s.globals.Get(ctx, globalCategoriesKey)
	if err != nil {
		return nil, fmt.Errorf("list global categories: %w", err)
	}
	return globals, nil
}

func (s *CategoryService) Create(ctx context.Context, user uuid.UUID, in CategoryInput) (core.Category, error) {
	c := core.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Icon:        strings.TrimSpace(in.Icon),
		Type:        in.Type,
		Owner:       core.OwnedBy(user),
		State:       core.CategoryActive,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Category created", log.FieldCategoryID, c.ID, log.FieldUserID, user)
	return c, nil
}

// Update edits a private category. Changing the type of a category that
// records or budgets already reference is rejected.
func (s *CategoryService) Update(ctx context.Context, user, id uuid.UUID, in CategoryInput) (core.Category, error) {
	c, err := s.resolveForMutation(ctx, id, user)
	if err != nil {
		return core.Category{}, err
	}

	updated := c
	updated.Name = strings.TrimSpace(in.Name)
	updated.Description = strings.TrimSpace(in.Description)
	updated.Icon = strings.TrimSpace(in.Icon)
	updated.Type = in.Type
	if err := updated.Validate(); err != nil {
		return core.Category{}, err
	}

	if updated.Type != c.Type {
		inUse, err := s.store.CategoryInUse(ctx, id)
		if err != nil {
			return core.Category{}, err
		}
		if inUse {
			return core.Category{}, core.InvalidArgumentf(
				"Cannot change the type of category '%s' while it is in use.", c.Name)
		}
	}

	if err := s.store.UpdateCategory(ctx, updated); err != nil {
		return core.Category{}, err
	}
	return updated, nil
}

// Delete soft-deletes a private category. Records keep pointing at it.
func (s *CategoryService) Delete(ctx context.Context, user, id uuid.UUID) error {
	if _, err := s.resolveForMutation(ctx, id, user); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Category deleted", log.FieldCategoryID, id, log.FieldUserID, user)
	return nil
}
