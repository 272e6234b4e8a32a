// Package memory provides mutex-guarded in-memory implementations of the
// category and post stores. They enforce the same uniqueness and foreign key
// rules as the PostgreSQL schema and are used by tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/models"
	"quillpress/internal/store"
)

// Store holds categories and posts behind one lock so cross-table rules
// (category in use, unknown category) are checked atomically.
type Store struct {
	mutex      sync.RWMutex
	categories map[uuid.UUID]*models.Category
	posts      map[uuid.UUID]*postRow
	seq        int64
	now        func() time.Time

	Categories *CategoryStore
	Posts      *PostStore
}

type postRow struct {
	post models.Post
	seq  int64
}

// New returns an empty Store.
func New() *Store {
	s := &Store{
		categories: make(map[uuid.UUID]*models.Category),
		posts:      make(map[uuid.UUID]*postRow),
		now:        func() time.Time { return time.Now().UTC() },
	}
	s.Categories = &CategoryStore{s: s}
	s.Posts = &PostStore{s: s}
	return s
}

// CategoryStore is the in-memory category table.
type CategoryStore struct {
	s *Store
}

func (r *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	items := make([]models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		items = append(items, *c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *CategoryStore) find(match func(*models.Category) bool) *models.Category {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	for _, c := range r.s.categories {
		if match(c) {
			cp := *c
			return &cp
		}
	}
	return nil
}

func (r *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return r.find(func(c *models.Category) bool { return c.ID == id }), nil
}

func (r *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.find(func(c *models.Category) bool { return c.Slug == slug }), nil
}

func (r *CategoryStore) FindByName(ctx context.Context, name string) (*models.Category, error) {
	return r.find(func(c *models.Category) bool { return c.Name == name }), nil
}

func (r *CategoryStore) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	c := r.find(func(c *models.Category) bool {
		return c.Slug == slug && (excludeID == nil || c.ID != *excludeID)
	})
	return c != nil, nil
}

// conflict checks uniqueness of name and slug against every other category.
// Callers hold the write lock.
func (r *CategoryStore) conflict(c *models.Category) error {
	for _, other := range r.s.categories {
		if other.ID == c.ID {
			continue
		}
		if other.Name == c.Name {
			return store.ErrDuplicateName
		}
		if other.Slug == c.Slug {
			return store.ErrDuplicateSlug
		}
	}
	return nil
}

func (r *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	row := *c
	row.ID = uuid.New()
	if err := r.conflict(&row); err != nil {
		return nil, err
	}
	row.CreatedAt = r.s.now()
	row.UpdatedAt = row.CreatedAt
	r.s.categories[row.ID] = &row

	out := row
	return &out, nil
}

func (r *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	existing, ok := r.s.categories[c.ID]
	if !ok {
		return nil, nil
	}
	if err := r.conflict(c); err != nil {
		return nil, err
	}

	existing.Name = c.Name
	existing.Slug = c.Slug
	existing.Description = c.Description
	existing.UpdatedAt = r.s.now()

	// Embedded references follow the rename, as a join would.
	for _, p := range r.s.posts {
		if p.post.CategoryID == c.ID {
			p.post.Category = refOf(existing)
		}
	}

	out := *existing
	return &out, nil
}

func (r *CategoryStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return false, nil
	}
	for _, p := range r.s.posts {
		if p.post.CategoryID == id {
			return false, store.ErrCategoryInUse
		}
	}
	delete(r.s.categories, id)
	return true, nil
}

func refOf(c *models.Category) *models.CategoryRef {
	return &models.CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

// PostStore is the in-memory post table.
type PostStore struct {
	s *Store
}

// clonePost copies p so callers never share slices with the store.
func clonePost(p models.Post) *models.Post {
	p.Keywords = slices.Clone(p.Keywords)
	if p.Keywords == nil {
		p.Keywords = models.Keywords{}
	}
	if p.Category != nil {
		ref := *p.Category
		p.Category = &ref
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		p.PublishedAt = &t
	}
	return &p
}

func (r *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	row, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(row.post), nil
}

func (r *PostStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	for _, row := range r.s.posts {
		if row.post.Slug == slug && row.post.Status == models.PostStatusPublished {
			return clonePost(row.post), nil
		}
	}
	return nil, nil
}

func (r *PostStore) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	for _, row := range r.s.posts {
		if row.post.Slug == slug && (excludeID == nil || row.post.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func matches(p *models.Post, f store.PostFilter, search string) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if search != "" &&
		!strings.Contains(strings.ToLower(p.Title), search) &&
		!strings.Contains(strings.ToLower(p.Content), search) {
		return false
	}
	return true
}

// newer reports whether a sorts before b under order.
func newer(a, b *postRow, order store.PostOrder) bool {
	if order == store.OrderByUpdated {
		if !a.post.UpdatedAt.Equal(b.post.UpdatedAt) {
			return a.post.UpdatedAt.After(b.post.UpdatedAt)
		}
		return a.seq > b.seq
	}

	ap, bp := a.post.PublishedAt, b.post.PublishedAt
	switch {
	case ap != nil && bp == nil:
		return true
	case ap == nil && bp != nil:
		return false
	case ap != nil && bp != nil && !ap.Equal(*bp):
		return ap.After(*bp)
	}
	if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
		return a.post.CreatedAt.After(b.post.CreatedAt)
	}
	return a.seq > b.seq
}

func (r *PostStore) List(ctx context.Context, f store.PostFilter) ([]models.Post, int, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var rows []*postRow
	for _, row := range r.s.posts {
		if matches(&row.post, f, search) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return newer(rows[i], rows[j], f.Order) })

	total := len(rows)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = start + min(f.Limit, total-start)
	}

	items := make([]models.Post, 0, end-start)
	for _, row := range rows[start:end] {
		p := clonePost(row.post)
		if f.WithoutContent {
			p.Content = ""
		}
		items = append(items, *p)
	}
	return items, total, nil
}

func (r *PostStore) CountByOGImage(ctx context.Context, url string) (int, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	n := 0
	for _, row := range r.s.posts {
		if row.post.OGImage == url {
			n++
		}
	}
	return n, nil
}

func (r *PostStore) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	r.s.mutex.RLock()
	defer r.s.mutex.RUnlock()

	n := 0
	for _, row := range r.s.posts {
		if row.post.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// check enforces the slug unique index and the category foreign key. Callers
// hold the write lock.
func (r *PostStore) check(p *models.Post) (*models.Category, error) {
	for _, row := range r.s.posts {
		if row.post.ID != p.ID && row.post.Slug == p.Slug {
			return nil, store.ErrDuplicateSlug
		}
	}
	cat, ok := r.s.categories[p.CategoryID]
	if !ok {
		return nil, store.ErrUnknownCategory
	}
	return cat, nil
}

func (r *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	row := &postRow{post: *clonePost(*p)}
	row.post.ID = uuid.New()
	cat, err := r.check(&row.post)
	if err != nil {
		return nil, err
	}
	row.post.Category = refOf(cat)
	row.post.CreatedAt = r.s.now()
	row.post.UpdatedAt = row.post.CreatedAt
	r.s.seq++
	row.seq = r.s.seq
	r.s.posts[row.post.ID] = row

	return clonePost(row.post), nil
}

func (r *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	row, ok := r.s.posts[p.ID]
	if !ok {
		return nil, nil
	}
	cat, err := r.check(p)
	if err != nil {
		return nil, err
	}

	createdAt := row.post.CreatedAt
	row.post = *clonePost(*p)
	row.post.Category = refOf(cat)
	row.post.CreatedAt = createdAt
	row.post.UpdatedAt = r.s.now()
	r.s.seq++
	row.seq = r.s.seq

	return clonePost(row.post), nil
}

func (r *PostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mutex.Lock()
	defer r.s.mutex.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return false, nil
	}
	delete(r.s.posts, id)
	return true, nil
}
