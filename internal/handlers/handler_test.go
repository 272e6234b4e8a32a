// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory store, so no database is needed.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quillpress/internal/auth"
	"quillpress/internal/blog"
	"quillpress/internal/middleware"
	"quillpress/internal/models"
	"quillpress/internal/store"
	"quillpress/internal/store/memory"
)

// fakeCacheLog records invalidations in memory.
type fakeCacheLog struct {
	mu      sync.Mutex
	entries []store.CacheLogEntry
}

func (f *fakeCacheLog) Log(_ context.Context, entityType string, entityID uuid.UUID, action string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, store.CacheLogEntry{
		ID:            int64(len(f.entries) + 1),
		EntityType:    entityType,
		EntityID:      entityID,
		Action:        action,
		InvalidatedAt: time.Now(),
	})
}

func (f *fakeCacheLog) RecentEntries(_ context.Context, limit int) ([]store.CacheLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.CacheLogEntry, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeCacheLog) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		out = append(out, e.EntityType+":"+e.Action)
	}
	return out
}

// fakeStorage keeps uploaded objects in a map.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut bool
}

const fakeStorageURL = "https://cdn.test/"

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if f.failPut {
		return io.ErrUnexpectedEOF
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[key] = b
	f.mu.Unlock()
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeStorage) FileURL(key string) string { return fakeStorageURL + key }

func (f *fakeStorage) ExtractKey(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, fakeStorageURL) {
		return "", false
	}
	return strings.TrimPrefix(rawURL, fakeStorageURL), true
}

// testEnv wires the handlers to an in-memory store behind a chi router
// shaped like the production one.
type testEnv struct {
	t       *testing.T
	mem     *memory.Store
	svc     *blog.Service
	log     *fakeCacheLog
	storage *fakeStorage
	router  chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := memory.New()
	svc := blog.NewService(mem.Categories, mem.Posts)
	env := &testEnv{
		t:       t,
		mem:     mem,
		svc:     svc,
		log:     &fakeCacheLog{},
		storage: newFakeStorage(),
	}

	public := NewPublic(svc, nil, "https://blog.example.com")
	admin := NewAdmin(svc, nil, env.log, env.storage)

	r := chi.NewRouter()
	r.Get("/sitemap.xml", public.Sitemap)
	r.Get("/robots.txt", public.Robots)
	r.Get("/api/blogs", public.ListBlogs)
	r.Get("/api/blogs/{slug}", public.GetBlog)
	r.Get("/api/categories", public.ListCategories)
	r.Get("/api/categories/{slug}", public.GetCategory)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(withAdminClaims)
		r.Get("/blogs", admin.ListBlogs)
		r.Post("/blogs", admin.CreateBlog)
		r.Get("/blogs/{id}", admin.GetBlog)
		r.Put("/blogs/{id}", admin.UpdateBlog)
		r.Delete("/blogs/{id}", admin.DeleteBlog)
		r.Post("/categories", admin.CreateCategory)
		r.Put("/categories/{id}", admin.UpdateCategory)
		r.Delete("/categories/{id}", admin.DeleteCategory)
		r.Post("/media", admin.MediaUpload)
		r.Get("/cache/log", admin.CacheLog)
	})
	env.router = r
	return env
}

// withAdminClaims stands in for RequireAdmin.
func withAdminClaims(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &auth.Claims{Username: "editor", Role: auth.RoleAdmin}
		ctx := context.WithValue(r.Context(), middleware.ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// do sends a request with an optional JSON body.
func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rd = strings.NewReader(s)
		} else {
			b, err := json.Marshal(body)
			if err != nil {
				e.t.Fatalf("marshal body: %v", err)
			}
			rd = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// envelope is the decoded API response.
type envelope struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Total       int             `json:"total"`
	Token       string          `json:"token"`
	OTPRequired bool            `json:"otpRequired"`
	User        *userInfo       `json:"user"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return env
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(decode(t, rr).Data, &out); err != nil {
		t.Fatalf("decode data %q: %v", rr.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

// createCategory creates a category through the API.
func (e *testEnv) createCategory(name string) models.Category {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/api/admin/categories", map[string]string{"name": name})
	expectStatus(e.t, rr, http.StatusCreated)
	return decodeData[models.Category](e.t, rr)
}

// createPost creates a post through the API.
func (e *testEnv) createPost(title string, category uuid.UUID, status string) models.Post {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/api/admin/blogs", map[string]any{
		"title":    title,
		"content":  "# " + title + "\n\nSome **markdown** body.",
		"category": category.String(),
		"status":   status,
	})
	expectStatus(e.t, rr, http.StatusCreated)
	return decodeData[models.Post](e.t, rr)
}
