package blog

import (
	"context"

	"github.com/google/uuid"

	"quillpress/internal/models"
	"quillpress/internal/store"
)

// CategoryRepository is the category persistence the service needs. Find
// methods return nil, nil when nothing matches. Implemented by
// store.CategoryStore and memory.CategoryStore.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// PostRepository is the post persistence the service needs. Implemented by
// store.PostStore and memory.PostStore.
type PostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, f store.PostFilter) ([]models.Post, int, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	CountByOGImage(ctx context.Context, url string) (int, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
