// Package blog implements the post and category operations behind the API:
// validation, defaults, slug allocation, the publish lifecycle and the
// category deletion guard. Persistence is reached through the repository
// interfaces so the same service runs on PostgreSQL or in memory.
package blog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/models"
	"quillpress/internal/slug"
	"quillpress/internal/store"
)

// maxWriteAttempts bounds how often a write is retried after losing a slug
// race to a concurrent writer.
const maxWriteAttempts = 3

// Pagination limits.
const (
	DefaultPublicLimit = 10
	DefaultAdminLimit  = 20
	MaxLimit           = 100
)

// Service is the blog domain service.
type Service struct {
	categories CategoryRepository
	posts      PostRepository
	now        func() time.Time
}

// NewService returns a Service over the given repositories.
func NewService(categories CategoryRepository, posts PostRepository) *Service {
	return &Service{
		categories: categories,
		posts:      posts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// errSlugTaken is returned when every write attempt lost its slug.
var errSlugTaken = &ConflictError{Message: "Slug is already in use"}

// writeWithSlug resolves a free slug from base and runs write with it. When
// the storage unique index rejects the slug anyway, resolution and the write
// are retried up to maxWriteAttempts times.
func writeWithSlug[T any](ctx context.Context, base string, exists slug.ExistsFunc, excludeID *uuid.UUID, write func(string) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		candidate, err := slug.Resolve(ctx, base, exists, excludeID)
		if err != nil {
			return zero, fmt.Errorf("resolve slug: %w", err)
		}

		out, err := write(candidate)
		if !errors.Is(err, store.ErrDuplicateSlug) {
			return out, err
		}
		if attempt == maxWriteAttempts {
			return zero, errSlugTaken
		}
	}
}

// Page is one page of a post listing.
type Page struct {
	Posts       []models.Post
	Total       int
	TotalPages  int
	CurrentPage int
}

// pageBounds normalises page and limit and returns the store offset. page is
// capped so the offset stays within int.
func pageBounds(page, limit, defaultLimit int) (int, int, int) {
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	page = min(max(page, 1), math.MaxInt/limit)
	return page, limit, (page - 1) * limit
}

func newPage(posts []models.Post, total, page, limit int) *Page {
	return &Page{
		Posts:       posts,
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}
}
