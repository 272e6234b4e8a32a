package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"quillpress/internal/models"
	"quillpress/internal/slug"
	"quillpress/internal/store"
)

// CategoryInput is the admin payload for creating or updating a category.
// A nil Description leaves the stored description untouched on update.
type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

var errCategoryExists = &ConflictError{Message: "Category already exists"}

// ListCategories returns every category sorted by name.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// GetCategoryBySlug returns the category with the given slug.
func (s *Service) GetCategoryBySlug(ctx context.Context, slugValue string) (*models.Category, error) {
	c, err := s.categories.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return nil, errCategoryNotFound
	}
	return c, nil
}

// CategoryPosts returns a category and one page of its published posts,
// newest first, without content.
func (s *Service) CategoryPosts(ctx context.Context, slugValue string, page, limit int) (*models.Category, *Page, error) {
	c, err := s.GetCategoryBySlug(ctx, slugValue)
	if err != nil {
		return nil, nil, err
	}

	page, limit, offset := pageBounds(page, limit, DefaultPublicLimit)
	posts, total, err := s.posts.List(ctx, store.PostFilter{
		Status:         models.PostStatusPublished,
		CategoryID:     &c.ID,
		Limit:          limit,
		Offset:         offset,
		Order:          store.OrderByPublished,
		WithoutContent: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list category posts: %w", err)
	}
	return c, newPage(posts, total, page, limit), nil
}

// CreateCategory validates in and stores a new category with a unique slug
// derived from its name.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	c := &models.Category{Name: strings.TrimSpace(in.Name)}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if err := validateCategory(c); err != nil {
		return nil, err
	}

	existing, err := s.categories.FindByName(ctx, c.Name)
	if err != nil {
		return nil, fmt.Errorf("check category name: %w", err)
	}
	if existing != nil {
		return nil, errCategoryExists
	}

	created, err := writeWithSlug(ctx, slug.Generate(c.Name), s.categories.SlugExists, nil,
		func(candidate string) (*models.Category, error) {
			c.Slug = candidate
			return s.categories.Create(ctx, c)
		})
	if err != nil {
		return nil, categoryWriteError("create category", err)
	}
	return created, nil
}

// UpdateCategory renames a category (regenerating its slug) and updates its
// description when one is supplied.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	current, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if current == nil {
		return nil, errCategoryNotFound
	}

	next := *current
	name := strings.TrimSpace(in.Name)
	renamed := name != "" && name != current.Name
	if renamed {
		next.Name = name
	}
	if in.Description != nil {
		next.Description = strings.TrimSpace(*in.Description)
	}
	if err := validateCategory(&next); err != nil {
		return nil, err
	}

	write := func(candidate string) (*models.Category, error) {
		next.Slug = candidate
		return s.categories.Update(ctx, &next)
	}

	if renamed {
		other, err := s.categories.FindByName(ctx, next.Name)
		if err != nil {
			return nil, fmt.Errorf("check category name: %w", err)
		}
		if other != nil && other.ID != id {
			return nil, errCategoryExists
		}
	}

	var updated *models.Category
	if renamed {
		updated, err = writeWithSlug(ctx, slug.Generate(next.Name), s.categories.SlugExists, &id, write)
	} else {
		updated, err = write(current.Slug)
	}
	if err != nil {
		return nil, categoryWriteError("update category", err)
	}
	if updated == nil {
		return nil, errCategoryNotFound
	}
	return updated, nil
}

// CanDeleteCategory reports whether no post references the category, along
// with the number of posts that do.
func (s *Service) CanDeleteCategory(ctx context.Context, id uuid.UUID) (bool, int, error) {
	n, err := s.posts.CountByCategory(ctx, id)
	if err != nil {
		return false, 0, fmt.Errorf("count category posts: %w", err)
	}
	return n == 0, n, nil
}

// DeleteCategory removes a category that no post references. It never
// cascades: a category in use is refused with an *InUseError.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	ok, n, err := s.CanDeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &InUseError{Count: n}
	}

	deleted, err := s.categories.Delete(ctx, id)
	if errors.Is(err, store.ErrCategoryInUse) {
		// A post was attached between the count and the delete.
		_, n, cerr := s.CanDeleteCategory(ctx, id)
		if cerr != nil {
			return cerr
		}
		return &InUseError{Count: max(n, 1)}
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if !deleted {
		return errCategoryNotFound
	}
	return nil
}

// categoryWriteError maps store sentinels to service errors.
func categoryWriteError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicateName):
		return errCategoryExists
	case errors.Is(err, ErrConflict):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
