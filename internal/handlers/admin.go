// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"quillpress/internal/blog"
	"quillpress/internal/cache"
	"quillpress/internal/middleware"
	"quillpress/internal/models"
	"quillpress/internal/store"
)

// CacheLogger records public cache invalidations. Implemented by
// store.CacheLogStore.
type CacheLogger interface {
	Log(ctx context.Context, entityType string, entityID uuid.UUID, action string)
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// MediaStorage stores uploaded images. Implemented by storage.Client.
type MediaStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
	ExtractKey(rawURL string) (string, bool)
}

// Admin groups the authenticated write endpoints. Every successful write
// flushes the public response cache.
type Admin struct {
	blog     *blog.Service
	cache    *cache.ResponseCache
	cacheLog CacheLogger
	storage  MediaStorage
}

// NewAdmin creates the admin handler group. rc, cacheLog and storage may be
// nil when Valkey, PostgreSQL or S3 are not configured; pass an untyped nil
// for the interfaces.
func NewAdmin(svc *blog.Service, rc *cache.ResponseCache, cacheLog CacheLogger, storage MediaStorage) *Admin {
	return &Admin{blog: svc, cache: rc, cacheLog: cacheLog, storage: storage}
}

// --- Posts ---

// ListBlogs handles GET /api/admin/blogs: every status, most recently
// updated first.
func (a *Admin) ListBlogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := a.blog.ListPosts(r.Context(), blog.PostQuery{
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Admin:    true,
	})
	if err != nil {
		writeServiceError(w, r, err, "Error fetching blogs")
		return
	}
	writeJSON(w, http.StatusOK, pageOf(page))
}

// GetBlog handles GET /api/admin/blogs/{id}.
func (a *Admin) GetBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}
	post, err := a.blog.GetPostByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Error fetching blog")
		return
	}
	writeData(w, http.StatusOK, "", post)
}

// CreateBlog handles POST /api/admin/blogs.
func (a *Admin) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var in blog.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}

	author := models.DefaultAuthor
	if claims := middleware.ClaimsFromCtx(r.Context()); claims != nil {
		author = claims.Username
	}

	post, err := a.blog.CreatePost(r.Context(), author, in)
	if err != nil {
		writeServiceError(w, r, err, "Error creating blog")
		return
	}

	a.invalidate(r.Context(), store.EntityPost, post.ID, store.ActionCreate)
	writeData(w, http.StatusCreated, "Blog created successfully", post)
}

// UpdateBlog handles PUT /api/admin/blogs/{id}. A replaced OG image that
// lives in our bucket is removed.
func (a *Admin) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}
	var patch blog.PostPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	ctx := r.Context()
	prev, err := a.blog.GetPostByID(ctx, id)
	if err != nil {
		writeServiceError(w, r, err, "Error updating blog")
		return
	}

	post, err := a.blog.UpdatePost(ctx, id, patch)
	if err != nil {
		writeServiceError(w, r, err, "Error updating blog")
		return
	}

	if prev.OGImage != post.OGImage {
		a.removeImage(ctx, prev.OGImage)
	}
	a.invalidate(ctx, store.EntityPost, post.ID, store.ActionUpdate)
	writeData(w, http.StatusOK, "Blog updated successfully", post)
}

// DeleteBlog handles DELETE /api/admin/blogs/{id}.
func (a *Admin) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}

	ctx := r.Context()
	prev, err := a.blog.GetPostByID(ctx, id)
	if err != nil {
		writeServiceError(w, r, err, "Error deleting blog")
		return
	}
	if err := a.blog.DeletePost(ctx, id); err != nil {
		writeServiceError(w, r, err, "Error deleting blog")
		return
	}

	a.removeImage(ctx, prev.OGImage)
	a.invalidate(ctx, store.EntityPost, id, store.ActionDelete)
	writeData(w, http.StatusOK, "Blog deleted successfully", nil)
}

// --- Categories ---

// CreateCategory handles POST /api/admin/categories.
func (a *Admin) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in blog.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := a.blog.CreateCategory(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "Error creating category")
		return
	}
	a.invalidate(r.Context(), store.EntityCategory, c.ID, store.ActionCreate)
	writeData(w, http.StatusCreated, "Category created successfully", c)
}

// UpdateCategory handles PUT /api/admin/categories/{id}.
func (a *Admin) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	var in blog.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := a.blog.UpdateCategory(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err, "Error updating category")
		return
	}
	a.invalidate(r.Context(), store.EntityCategory, c.ID, store.ActionUpdate)
	writeData(w, http.StatusOK, "Category updated successfully", c)
}

// DeleteCategory handles DELETE /api/admin/categories/{id}. Categories that
// still hold posts are refused with 400.
func (a *Admin) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	if err := a.blog.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Error deleting category")
		return
	}
	a.invalidate(r.Context(), store.EntityCategory, id, store.ActionDelete)
	writeData(w, http.StatusOK, "Category deleted successfully", nil)
}

// --- Cache ---

// CacheLog handles GET /api/admin/cache/log: the most recent invalidations.
func (a *Admin) CacheLog(w http.ResponseWriter, r *http.Request) {
	entries := []store.CacheLogEntry{}
	if a.cacheLog != nil {
		limit := queryInt(r, "limit")
		if limit < 1 || limit > blog.MaxLimit {
			limit = blog.DefaultAdminLimit
		}
		got, err := a.cacheLog.RecentEntries(r.Context(), limit)
		if err != nil {
			writeServiceError(w, r, err, "Error fetching cache log")
			return
		}
		if got != nil {
			entries = got
		}
	}
	writeData(w, http.StatusOK, "", entries)
}

// invalidate flushes every cached public response and records why. Any write
// can change listings, the sitemap and category pages, so nothing narrower
// is safe.
func (a *Admin) invalidate(ctx context.Context, entityType string, id uuid.UUID, action string) {
	a.cache.InvalidateAll(ctx)
	if a.cacheLog != nil {
		a.cacheLog.Log(ctx, entityType, id, action)
	}
}

// removeImage deletes an uploaded image when the URL points into our bucket
// and no post references it any more. Failures only cost storage space, so
// they are logged and ignored.
func (a *Admin) removeImage(ctx context.Context, url string) {
	if a.storage == nil || url == "" {
		return
	}
	key, ok := a.storage.ExtractKey(url)
	if !ok {
		return
	}
	inUse, err := a.blog.ImageInUse(ctx, url)
	if err != nil {
		slog.WarnContext(ctx, "check image references failed", "key", key, "error", err)
		return
	}
	if inUse {
		return
	}
	if err := a.storage.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "delete replaced image failed", "key", key, "error", err)
	}
}
