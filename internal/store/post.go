// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"quillpress/internal/models"
)

// PostOrder selects the sort order of a post listing.
type PostOrder int

const (
	// OrderByPublished sorts newest publishedAt first (public listings).
	OrderByPublished PostOrder = iota
	// OrderByUpdated sorts newest updatedAt first (admin listings).
	OrderByUpdated
)

// PostFilter narrows a post listing. Zero values mean "no constraint"; a
// zero Limit returns every matching post.
type PostFilter struct {
	Status         models.PostStatus
	CategoryID     *uuid.UUID
	Search         string
	Limit          int
	Offset         int
	Order          PostOrder
	WithoutContent bool
}

// PostStore handles post persistence. Every read joins the post's category
// so responses can embed it.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func postSelect(withContent bool) string {
	content := "p.content"
	if !withContent {
		content = "''"
	}
	return `
		SELECT p.id, p.title, p.slug, ` + content + `, p.excerpt, p.meta_title,
		       p.meta_description, p.keywords, p.canonical_url, p.og_image,
		       p.category_id, c.name, c.slug, p.status, p.author,
		       p.published_at, p.is_published, p.created_at, p.updated_at
		FROM posts p
		JOIN categories c ON c.id = p.category_id`
}

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var ref models.CategoryRef
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.MetaTitle,
		&p.MetaDescription, &p.Keywords, &p.CanonicalURL, &p.OGImage,
		&p.CategoryID, &ref.Name, &ref.Slug, &p.Status, &p.Author,
		&p.PublishedAt, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ref.ID = p.CategoryID
	p.Category = &ref
	return &p, nil
}

// FindByID retrieves a post in any status. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect(true)+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindPublishedBySlug retrieves a published post by its slug. Used for the
// public single-post view. Returns nil if not found.
func (s *PostStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx,
		postSelect(true)+` WHERE p.slug = $1 AND p.status = 'published'`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// SlugExists reports whether a post other than excludeID uses slug.
func (s *PostStore) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	var err error
	if excludeID == nil {
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, slug,
		).Scan(&exists)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`, slug, *excludeID,
		).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("post slug exists: %w", err)
	}
	return exists, nil
}

// likeEscaper escapes LIKE metacharacters so search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where builds the WHERE clause and arguments for f.
func (f PostFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("p.status = $%d", string(f.Status))
	}
	if f.CategoryID != nil {
		add("p.category_id = $%d", *f.CategoryID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(p.title ILIKE $%d ESCAPE '\' OR p.content ILIKE $%d ESCAPE '\')`, n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of posts matching f and the total number of matches.
func (s *PostStore) List(ctx context.Context, f PostFilter) ([]models.Post, int, error) {
	where, args := f.where()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	order := " ORDER BY p.published_at DESC NULLS LAST, p.created_at DESC"
	if f.Order == OrderByUpdated {
		order = " ORDER BY p.updated_at DESC"
	}

	query := postSelect(!f.WithoutContent) + where + order
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return items, total, nil
}

// CountByCategory returns the number of posts, in any status, that reference
// the category.
func (s *PostStore) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE category_id = $1`, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts by category: %w", err)
	}
	return count, nil
}

// CountByOGImage returns the number of posts whose og_image is url.
func (s *PostStore) CountByOGImage(ctx context.Context, url string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE og_image = $1`, url,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts by og image: %w", err)
	}
	return count, nil
}

// Create inserts a new post and returns it with its category attached.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, content, excerpt, meta_title, meta_description,
		                   keywords, canonical_url, og_image, category_id, status, author,
		                   published_at, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		p.Title, p.Slug, p.Content, p.Excerpt, p.MetaTitle, p.MetaDescription,
		p.Keywords, p.CanonicalURL, p.OGImage, p.CategoryID, string(p.Status), p.Author,
		p.PublishedAt, p.IsPublished,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", translate(err, ErrUnknownCategory))
	}
	return s.FindByID(ctx, id)
}

// Update writes every mutable column of p. Returns nil if the post does not
// exist.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, content = $3, excerpt = $4, meta_title = $5,
			meta_description = $6, keywords = $7, canonical_url = $8, og_image = $9,
			category_id = $10, status = $11, author = $12, published_at = $13,
			is_published = $14, updated_at = NOW()
		WHERE id = $15`,
		p.Title, p.Slug, p.Content, p.Excerpt, p.MetaTitle,
		p.MetaDescription, p.Keywords, p.CanonicalURL, p.OGImage,
		p.CategoryID, string(p.Status), p.Author, p.PublishedAt,
		p.IsPublished, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", translate(err, ErrUnknownCategory))
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update post rows: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return s.FindByID(ctx, p.ID)
}

// Delete removes a post by ID and reports whether a row was removed.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post rows: %w", err)
	}
	return n > 0, nil
}
