// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"quillpress/internal/blog"
	"quillpress/internal/cache"
	"quillpress/internal/markdown"
	"quillpress/internal/models"
	"quillpress/internal/seo"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeXML  = "application/xml; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
)

// Public groups the unauthenticated read endpoints. Successful responses are
// served from the Valkey response cache when one is configured.
type Public struct {
	blog    *blog.Service
	cache   *cache.ResponseCache
	baseURL string
	now     func() time.Time
}

// NewPublic creates the public handler group. cache may be nil. baseURL is
// the frontend origin used in the sitemap and robots.txt.
func NewPublic(svc *blog.Service, rc *cache.ResponseCache, baseURL string) *Public {
	return &Public{blog: svc, cache: rc, baseURL: baseURL, now: time.Now}
}

// buildFunc produces a cacheable response body.
type buildFunc func(ctx context.Context) (contentType string, body []byte, err error)

// cacheKey identifies a public response by its path and the query
// parameters its handler reads. params is encoded sorted by key, so
// equivalent requests share one entry.
func cacheKey(r *http.Request, params url.Values) string {
	if len(params) == 0 {
		return r.URL.Path
	}
	return r.URL.Path + "?" + params.Encode()
}

// pagingParams returns the normalised page and limit of r. Defaults are
// omitted and limit is clamped the way the service clamps it.
func pagingParams(r *http.Request) url.Values {
	v := url.Values{}
	if n := queryInt(r, "page"); n > 1 {
		v.Set("page", strconv.Itoa(n))
	}
	if n := queryInt(r, "limit"); n > 0 {
		v.Set("limit", strconv.Itoa(min(n, blog.MaxLimit)))
	}
	return v
}

// listKey is the cache key of a post listing with the given trimmed filters.
func listKey(r *http.Request, category, search string) string {
	params := pagingParams(r)
	if category != "" {
		params.Set("category", category)
	}
	if search != "" {
		params.Set("search", search)
	}
	return cacheKey(r, params)
}

// serveCached answers from the cache under key or builds, stores and writes
// the response. Failures are never cached.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key, fallback string, build buildFunc) {
	ctx := r.Context()

	if e, ok := p.cache.Get(ctx, key); ok {
		w.Header().Set("Content-Type", e.ContentType)
		w.Header().Set("X-Cache", "HIT")
		w.Write(e.Body)
		return
	}

	contentType, body, err := build(ctx)
	if err != nil {
		writeServiceError(w, r, err, fallback)
		return
	}

	p.cache.Set(ctx, key, contentType, body)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache", "MISS")
	w.Write(body)
}

// jsonBody encodes v for caching.
func jsonBody(v any) (string, []byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return contentTypeJSON, append(b, '\n'), nil
}

// ListBlogs handles GET /api/blogs.
func (p *Public) ListBlogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	search := strings.TrimSpace(q.Get("search"))
	p.serveCached(w, r, listKey(r, category, search), "Error fetching blogs", func(ctx context.Context) (string, []byte, error) {
		page, err := p.blog.ListPosts(ctx, blog.PostQuery{
			Page:     queryInt(r, "page"),
			Limit:    queryInt(r, "limit"),
			Category: category,
			Search:   search,
		})
		if err != nil {
			return "", nil, err
		}
		return jsonBody(pageOf(page))
	})
}

// GetBlog handles GET /api/blogs/{slug}. The response carries the Markdown
// source and its sanitised HTML rendering.
func (p *Public) GetBlog(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")
	p.serveCached(w, r, cacheKey(r, nil), "Error fetching blog", func(ctx context.Context) (string, []byte, error) {
		post, err := p.blog.GetPublishedPost(ctx, slugValue)
		if err != nil {
			return "", nil, err
		}
		html, err := markdown.ToHTML(post.Content)
		if err != nil {
			slog.WarnContext(ctx, "render markdown failed", "slug", slugValue, "error", err)
		}
		post.ContentHTML = html
		return jsonBody(response{Success: true, Data: post})
	})
}

// ListCategories handles GET /api/categories.
func (p *Public) ListCategories(w http.ResponseWriter, r *http.Request) {
	p.serveCached(w, r, cacheKey(r, nil), "Error fetching categories", func(ctx context.Context) (string, []byte, error) {
		items, err := p.blog.ListCategories(ctx)
		if err != nil {
			return "", nil, err
		}
		if items == nil {
			items = []models.Category{}
		}
		return jsonBody(response{Success: true, Data: items})
	})
}

// GetCategory handles GET /api/categories/{slug}: the category and one page
// of its published posts.
func (p *Public) GetCategory(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")
	p.serveCached(w, r, cacheKey(r, pagingParams(r)), "Error fetching category", func(ctx context.Context) (string, []byte, error) {
		c, page, err := p.blog.CategoryPosts(ctx, slugValue, queryInt(r, "page"), queryInt(r, "limit"))
		if err != nil {
			return "", nil, err
		}
		return jsonBody(response{Success: true, Data: categoryPage{
			Category:    c,
			Blogs:       postsOrEmpty(page.Posts),
			TotalPages:  page.TotalPages,
			CurrentPage: page.CurrentPage,
			Total:       page.Total,
		}})
	})
}

// Sitemap handles GET /sitemap.xml and /api/sitemap.xml.
func (p *Public) Sitemap(w http.ResponseWriter, r *http.Request) {
	p.serveCached(w, r, cacheKey(r, nil), "Error generating sitemap", func(ctx context.Context) (string, []byte, error) {
		posts, err := p.blog.AllPublished(ctx)
		if err != nil {
			return "", nil, err
		}
		categories, err := p.blog.ListCategories(ctx)
		if err != nil {
			return "", nil, err
		}
		body, err := seo.Sitemap(p.baseURL, posts, categories, p.now())
		if err != nil {
			return "", nil, err
		}
		return contentTypeXML, body, nil
	})
}

// Robots handles GET /robots.txt and /api/robots.txt.
func (p *Public) Robots(w http.ResponseWriter, r *http.Request) {
	p.serveCached(w, r, cacheKey(r, nil), "Error generating robots.txt", func(ctx context.Context) (string, []byte, error) {
		return contentTypeText, seo.Robots(p.baseURL), nil
	})
}

// pageOf converts a service page to the paginated envelope.
func pageOf(page *blog.Page) pageResponse {
	return pageResponse{
		Success:     true,
		Data:        postsOrEmpty(page.Posts),
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Total:       page.Total,
	}
}

// postsOrEmpty keeps empty listings encoded as [] rather than null.
func postsOrEmpty(posts []models.Post) []models.Post {
	if posts == nil {
		return []models.Post{}
	}
	return posts
}
