package blog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"quillpress/internal/lifecycle"
	"quillpress/internal/models"
	"quillpress/internal/slug"
	"quillpress/internal/store"
)

// PostInput is the admin payload for creating a post. Category is the id of
// an existing category.
type PostInput struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Excerpt         string   `json:"excerpt"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	Keywords        []string `json:"keywords"`
	CanonicalURL    string   `json:"canonicalUrl"`
	OGImage         string   `json:"ogImage"`
	Category        string   `json:"category"`
	Status          string   `json:"status"`
}

// PostPatch is the admin payload for updating a post. Nil fields are left
// unchanged.
type PostPatch struct {
	Title           *string   `json:"title"`
	Slug            *string   `json:"slug"`
	Content         *string   `json:"content"`
	Excerpt         *string   `json:"excerpt"`
	MetaTitle       *string   `json:"metaTitle"`
	MetaDescription *string   `json:"metaDescription"`
	Keywords        *[]string `json:"keywords"`
	CanonicalURL    *string   `json:"canonicalUrl"`
	OGImage         *string   `json:"ogImage"`
	Category        *string   `json:"category"`
	Status          *string   `json:"status"`
}

// PostQuery selects a page of posts. Public queries only ever see published
// posts; Status is honoured for admin queries only. Category is a category
// slug.
type PostQuery struct {
	Page     int
	Limit    int
	Status   string
	Category string
	Search   string
	Admin    bool
}

var (
	errRequired        = invalid("Title, content, and category are required")
	errInvalidCategory = invalid("Invalid category")
	errSlugInUse       = &ConflictError{Message: "Slug is already in use"}
)

// lifecycleError maps lifecycle rule violations to validation errors.
func lifecycleError(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrSlugImmutable):
		return &ValidationError{Message: "Cannot modify slug of published blog", Err: err}
	case errors.Is(err, lifecycle.ErrUnpublish):
		return &ValidationError{Message: "Published blogs cannot be moved back to draft", Err: err}
	case errors.Is(err, lifecycle.ErrInvalidStatus):
		return &ValidationError{Message: "Status must be draft or published", Err: err}
	}
	return err
}

// postWriteError maps store sentinels to service errors.
func postWriteError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrUnknownCategory):
		return errInvalidCategory
	case errors.Is(err, store.ErrDuplicateSlug):
		return errSlugInUse
	case errors.Is(err, ErrConflict):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// resolveCategory parses a category id and checks it exists.
func (s *Service) resolveCategory(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, errInvalidCategory
	}
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("find category: %w", err)
	}
	if c == nil {
		return uuid.Nil, errInvalidCategory
	}
	return id, nil
}

// CreatePost validates in, fills defaults and stores a new post with a slug
// derived from its title. author is the authenticated admin.
func (s *Service) CreatePost(ctx context.Context, author string, in PostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Content) == "" || strings.TrimSpace(in.Category) == "" {
		return nil, errRequired
	}

	categoryID, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	p := &models.Post{
		Title:           title,
		Content:         in.Content,
		Excerpt:         in.Excerpt,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		Keywords:        models.NewKeywords(in.Keywords),
		CanonicalURL:    in.CanonicalURL,
		OGImage:         in.OGImage,
		CategoryID:      categoryID,
		Status:          models.PostStatus(in.Status),
		Author:          author,
	}
	applyDefaults(p, in.Excerpt)

	if err := validatePost(p); err != nil {
		return nil, err
	}
	if err := lifecycle.Apply(nil, p, s.now()); err != nil {
		return nil, lifecycleError(err)
	}

	created, err := writeWithSlug(ctx, slug.Generate(title), s.posts.SlugExists, nil,
		func(candidate string) (*models.Post, error) {
			p.Slug = candidate
			return s.posts.Create(ctx, p)
		})
	if err != nil {
		return nil, postWriteError("create post", err)
	}
	return created, nil
}

// applyDefaults fills the optional fields of a new post. excerpt is the
// caller-supplied excerpt, which seeds the meta description.
func applyDefaults(p *models.Post, excerpt string) {
	if p.Excerpt == "" {
		p.Excerpt = truncate(p.Content, 200) + "..."
	}
	if p.MetaTitle == "" {
		p.MetaTitle = truncate(p.Title, models.MaxMetaTitleLen)
	}
	if p.MetaDescription == "" {
		src := excerpt
		if src == "" {
			src = p.Content
		}
		p.MetaDescription = truncate(src, models.MaxMetaDescriptionLen)
	}
	if p.OGImage == "" {
		p.OGImage = models.DefaultOGImage
	}
	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	if p.Author == "" {
		p.Author = models.DefaultAuthor
	}
}

// UpdatePost applies patch to the post. Slug rules: a published post keeps
// its slug; an unpublished post whose title changes gets a fresh slug; an
// explicit slug on an unpublished post is normalised and must be free. A
// rejected update leaves the stored post unchanged.
func (s *Service) UpdatePost(ctx context.Context, id uuid.UUID, patch PostPatch) (*models.Post, error) {
	current, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if current == nil {
		return nil, errPostNotFound
	}

	var explicitSlug string
	if patch.Slug != nil {
		explicitSlug = slug.Generate(*patch.Slug)
		if current.IsPublished && explicitSlug != current.Slug {
			return nil, lifecycleError(lifecycle.ErrSlugImmutable)
		}
	}

	next := *current
	next.Keywords = slices.Clone(current.Keywords)
	if err := s.applyPatch(ctx, &next, patch); err != nil {
		return nil, err
	}
	if err := validatePost(&next); err != nil {
		return nil, err
	}

	regenerate := lifecycle.ShouldRegenerateSlug(current, &next)
	if !regenerate && patch.Slug != nil && !current.IsPublished && explicitSlug != current.Slug {
		if explicitSlug == "" {
			return nil, invalid("Slug must contain letters or digits")
		}
		taken, err := s.posts.SlugExists(ctx, explicitSlug, &id)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return nil, errSlugInUse
		}
		next.Slug = explicitSlug
	}

	if err := lifecycle.Apply(current, &next, s.now()); err != nil {
		return nil, lifecycleError(err)
	}

	var updated *models.Post
	if regenerate {
		updated, err = writeWithSlug(ctx, slug.Generate(next.Title), s.posts.SlugExists, &id,
			func(candidate string) (*models.Post, error) {
				next.Slug = candidate
				return s.posts.Update(ctx, &next)
			})
	} else {
		updated, err = s.posts.Update(ctx, &next)
	}
	if err != nil {
		return nil, postWriteError("update post", err)
	}
	if updated == nil {
		return nil, errPostNotFound
	}
	return updated, nil
}

func (s *Service) applyPatch(ctx context.Context, p *models.Post, patch PostPatch) error {
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		p.Excerpt = *patch.Excerpt
	}
	if patch.MetaTitle != nil {
		p.MetaTitle = *patch.MetaTitle
	}
	if patch.MetaDescription != nil {
		p.MetaDescription = *patch.MetaDescription
	}
	if patch.Keywords != nil {
		p.Keywords = models.NewKeywords(*patch.Keywords)
	}
	if patch.CanonicalURL != nil {
		p.CanonicalURL = *patch.CanonicalURL
	}
	if patch.OGImage != nil {
		p.OGImage = *patch.OGImage
		if p.OGImage == "" {
			p.OGImage = models.DefaultOGImage
		}
	}
	if patch.Status != nil {
		p.Status = models.PostStatus(*patch.Status)
	}
	if patch.Category != nil {
		id, err := s.resolveCategory(ctx, *patch.Category)
		if err != nil {
			return err
		}
		if id != p.CategoryID {
			p.CategoryID = id
			p.Category = nil
		}
	}
	return nil
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, id uuid.UUID) error {
	ok, err := s.posts.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if !ok {
		return errPostNotFound
	}
	return nil
}

// ImageInUse reports whether any post still uses url as its OG image.
func (s *Service) ImageInUse(ctx context.Context, url string) (bool, error) {
	n, err := s.posts.CountByOGImage(ctx, url)
	if err != nil {
		return false, fmt.Errorf("count image references: %w", err)
	}
	return n > 0, nil
}

// GetPostByID returns a post in any status.
func (s *Service) GetPostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if p == nil {
		return nil, errPostNotFound
	}
	return p, nil
}

// GetPublishedPost returns the published post with the given slug.
func (s *Service) GetPublishedPost(ctx context.Context, slugValue string) (*models.Post, error) {
	p, err := s.posts.FindPublishedBySlug(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if p == nil {
		return nil, errPostNotFound
	}
	return p, nil
}

// ListPosts returns one page of posts. Public listings hold published posts
// only, newest publication first, without content. Admin listings hold every
// status, most recently updated first. An unknown category slug leaves the
// listing unfiltered.
func (s *Service) ListPosts(ctx context.Context, q PostQuery) (*Page, error) {
	defaultLimit := DefaultPublicLimit
	if q.Admin {
		defaultLimit = DefaultAdminLimit
	}
	page, limit, offset := pageBounds(q.Page, q.Limit, defaultLimit)

	f := store.PostFilter{
		Search: q.Search,
		Limit:  limit,
		Offset: offset,
	}
	if q.Admin {
		f.Order = store.OrderByUpdated
		if q.Status != "" {
			status := models.PostStatus(q.Status)
			if !status.Valid() {
				return nil, lifecycleError(lifecycle.ErrInvalidStatus)
			}
			f.Status = status
		}
	} else {
		f.Status = models.PostStatusPublished
		f.Order = store.OrderByPublished
		f.WithoutContent = true
	}

	if q.Category != "" {
		c, err := s.categories.FindBySlug(ctx, q.Category)
		if err != nil {
			return nil, fmt.Errorf("find category: %w", err)
		}
		if c != nil {
			f.CategoryID = &c.ID
		}
	}

	posts, total, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return newPage(posts, total, page, limit), nil
}

// AllPublished returns every published post without content, newest first.
// Used to build the sitemap.
func (s *Service) AllPublished(ctx context.Context) ([]models.Post, error) {
	posts, _, err := s.posts.List(ctx, store.PostFilter{
		Status:         models.PostStatusPublished,
		Order:          store.OrderByPublished,
		WithoutContent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	return posts, nil
}
