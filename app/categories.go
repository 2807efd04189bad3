package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// CategoryService manages transaction categories.
type CategoryService struct {
	categories ports.CategoryStore
	ids        ports.IDGenerator
	clock      ports.Clock
	logger     zerolog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(categories ports.CategoryStore, ids ports.IDGenerator, clock ports.Clock, logger zerolog.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		ids:        ids,
		clock:      clock,
		logger:     logger.With().Str("service", "categories").Logger(),
	}
}

// Create validates and stores a new category.
func (s *CategoryService) Create(ctx context.Context, c finance.Category) (finance.Category, error) {
	c.ID = s.ids.New()
	c.CreatedAt = s.clock.Now().UTC()

	if err := c.Validate(); err != nil {
		return finance.Category{}, err
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return finance.Category{}, err
	}
	return c, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, ownerID, id string) (finance.Category, error) {
	return s.categories.Get(ctx, ownerID, id)
}

// List returns the owner's categories.
func (s *CategoryService) List(ctx context.Context, ownerID string) ([]finance.Category, error) {
	return s.categories.ListByOwner(ctx, ownerID)
}

// Update rewrites a category.
func (s *CategoryService) Update(ctx context.Context, c finance.Category) (finance.Category, error) {
	if err := c.Validate(); err != nil {
		return finance.Category{}, err
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return finance.Category{}, err
	}
	return s.categories.Get(ctx, c.OwnerID, c.ID)
}

// Delete removes a category. Records pointing at it fall back to no
// category rather than disappearing.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id string) error {
	return s.categories.Delete(ctx, ownerID, id)
}
