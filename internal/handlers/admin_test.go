package handlers

import (
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"quillpress/internal/models"
	"quillpress/internal/store"
)

func TestAdminCategoryCRUD(t *testing.T) {
	env := newTestEnv(t)

	first := env.createCategory("Tech Notes")
	if first.Slug != "tech-notes" {
		t.Errorf("slug = %q, want tech-notes", first.Slug)
	}
	second := env.createCategory("Tech Notes!")
	if second.Slug != "tech-notes-1" {
		t.Errorf("slug = %q, want tech-notes-1", second.Slug)
	}

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		code    int
		message string
	}{
		{name: "duplicate name", method: http.MethodPost, path: "/api/admin/categories",
			body: map[string]string{"name": "Tech Notes"}, code: http.StatusConflict, message: "Category already exists"},
		{name: "missing name", method: http.MethodPost, path: "/api/admin/categories",
			body: map[string]string{"name": "  "}, code: http.StatusBadRequest, message: "Category name is required"},
		{name: "name too long", method: http.MethodPost, path: "/api/admin/categories",
			body: map[string]string{"name": strings.Repeat("x", 51)}, code: http.StatusBadRequest, message: "Category name cannot exceed 50 characters"},
		{name: "malformed json", method: http.MethodPost, path: "/api/admin/categories",
			body: "{not json", code: http.StatusBadRequest, message: "Invalid JSON body"},
		{name: "rename onto existing", method: http.MethodPut, path: "/api/admin/categories/" + second.ID.String(),
			body: map[string]string{"name": "Tech Notes"}, code: http.StatusConflict, message: "Category already exists"},
		{name: "update unknown", method: http.MethodPut, path: "/api/admin/categories/" + uuid.NewString(),
			body: map[string]string{"name": "X"}, code: http.StatusNotFound, message: "Category not found"},
		{name: "update bad id", method: http.MethodPut, path: "/api/admin/categories/not-a-uuid",
			body: map[string]string{"name": "X"}, code: http.StatusNotFound, message: "Category not found"},
		{name: "delete unknown", method: http.MethodDelete, path: "/api/admin/categories/" + uuid.NewString(),
			code: http.StatusNotFound, message: "Category not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(tt.method, tt.path, tt.body)
			expectStatus(t, rr, tt.code)
			if got := decode(t, rr); got.Success || got.Message != tt.message {
				t.Errorf("envelope = %+v, want message %q", got, tt.message)
			}
		})
	}

	rr := env.do(http.MethodPut, "/api/admin/categories/"+second.ID.String(), map[string]string{
		"name":        "Go Notes",
		"description": "All things Go",
	})
	expectStatus(t, rr, http.StatusOK)
	updated := decodeData[models.Category](t, rr)
	if updated.Slug != "go-notes" || updated.Description != "All things Go" {
		t.Errorf("updated = %+v", updated)
	}

	rr = env.do(http.MethodDelete, "/api/admin/categories/"+second.ID.String(), nil)
	expectStatus(t, rr, http.StatusOK)
	if got := decode(t, rr); got.Message != "Category deleted successfully" {
		t.Errorf("message = %q", got.Message)
	}
}

// TestAdminDeleteCategoryInUse refuses deletion while posts reference the
// category and allows it once they are gone.
func TestAdminDeleteCategoryInUse(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCategory("Busy")

	var ids []uuid.UUID
	for _, title := range []string{"One", "Two", "Three"} {
		ids = append(ids, env.createPost(title, c.ID, "draft").ID)
	}

	rr := env.do(http.MethodDelete, "/api/admin/categories/"+c.ID.String(), nil)
	expectStatus(t, rr, http.StatusBadRequest)
	msg := decode(t, rr).Message
	if msg != "Cannot delete category with 3 blog(s). Please reassign or delete the blogs first." {
		t.Errorf("message = %q", msg)
	}

	for _, id := range ids {
		expectStatus(t, env.do(http.MethodDelete, "/api/admin/blogs/"+id.String(), nil), http.StatusOK)
	}
	expectStatus(t, env.do(http.MethodDelete, "/api/admin/categories/"+c.ID.String(), nil), http.StatusOK)
}

// TestAdminPostLifecycle walks a draft through publishing and checks the
// slug freezes once published.
func TestAdminPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCategory("Tech Notes")

	draft := env.createPost("Hello World", c.ID, "")
	if draft.Slug != "hello-world" || draft.Status != models.PostStatusDraft || draft.PublishedAt != nil {
		t.Fatalf("draft = %+v", draft)
	}
	if draft.Author != "editor" {
		t.Errorf("author = %q, want the token's username", draft.Author)
	}
	if draft.OGImage != models.DefaultOGImage || draft.MetaTitle != "Hello World" {
		t.Errorf("defaults not applied: %+v", draft)
	}

	path := "/api/admin/blogs/" + draft.ID.String()

	rr := env.do(http.MethodPut, path, map[string]string{"status": "published"})
	expectStatus(t, rr, http.StatusOK)
	published := decodeData[models.Post](t, rr)
	if !published.IsPublished || published.PublishedAt == nil {
		t.Fatalf("published = %+v", published)
	}

	rr = env.do(http.MethodPut, path, map[string]string{"slug": "new-slug"})
	expectStatus(t, rr, http.StatusBadRequest)
	if got := decode(t, rr).Message; got != "Cannot modify slug of published blog" {
		t.Errorf("message = %q", got)
	}

	rr = env.do(http.MethodPut, path, map[string]string{"status": "draft"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = env.do(http.MethodPut, path, map[string]string{"title": "Hello Again"})
	expectStatus(t, rr, http.StatusOK)
	renamed := decodeData[models.Post](t, rr)
	if renamed.Slug != "hello-world" {
		t.Errorf("published title change moved slug to %q", renamed.Slug)
	}
	if !renamed.PublishedAt.Equal(*published.PublishedAt) {
		t.Errorf("publishedAt changed: %v -> %v", published.PublishedAt, renamed.PublishedAt)
	}

	rr = env.do(http.MethodGet, path, nil)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeData[models.Post](t, rr); got.Slug != "hello-world" || got.Title != "Hello Again" {
		t.Errorf("stored = %+v", got)
	}
}

func TestAdminCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCategory("Tech Notes")

	tests := []struct {
		name    string
		body    map[string]any
		code    int
		message string
	}{
		{name: "missing content", body: map[string]any{"title": "T", "category": c.ID.String()},
			code: http.StatusBadRequest, message: "Title, content, and category are required"},
		{name: "missing category", body: map[string]any{"title": "T", "content": "x"},
			code: http.StatusBadRequest, message: "Title, content, and category are required"},
		{name: "malformed category", body: map[string]any{"title": "T", "content": "x", "category": "abc"},
			code: http.StatusBadRequest, message: "Invalid category"},
		{name: "unknown category", body: map[string]any{"title": "T", "content": "x", "category": uuid.NewString()},
			code: http.StatusBadRequest, message: "Invalid category"},
		{name: "bad status", body: map[string]any{"title": "T", "content": "x", "category": c.ID.String(), "status": "archived"},
			code: http.StatusBadRequest, message: "Status must be draft or published"},
		{name: "meta title too long", body: map[string]any{"title": "T", "content": "x", "category": c.ID.String(), "metaTitle": strings.Repeat("m", 61)},
			code: http.StatusBadRequest, message: "Meta title should be under 60 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPost, "/api/admin/blogs", tt.body)
			expectStatus(t, rr, tt.code)
			if got := decode(t, rr).Message; got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestAdminDraftSlugRules(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCategory("Tech Notes")
	taken := env.createPost("Taken", c.ID, "draft")
	p := env.createPost("Working Title", c.ID, "draft")
	path := "/api/admin/blogs/" + p.ID.String()

	rr := env.do(http.MethodPut, path, map[string]string{"slug": "My Custom Slug"})
	expectStatus(t, rr, http.StatusOK)
	if got := decodeData[models.Post](t, rr).Slug; got != "my-custom-slug" {
		t.Errorf("slug = %q, want normalised my-custom-slug", got)
	}

	rr = env.do(http.MethodPut, path, map[string]string{"slug": taken.Slug})
	expectStatus(t, rr, http.StatusConflict)
	if got := decode(t, rr).Message; got != "Slug is already in use" {
		t.Errorf("message = %q", got)
	}

	rr = env.do(http.MethodPut, path, map[string]string{"title": "Final Title"})
	expectStatus(t, rr, http.StatusOK)
	if got := decodeData[models.Post](t, rr).Slug; got != "final-title" {
		t.Errorf("draft title change slug = %q, want final-title", got)
	}
}

func TestAdminListBlogs(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCategory("Tech Notes")
	env.createPost("Draft One", c.ID, "draft")
	env.createPost("Live One", c.ID, "published")

	tests := []struct {
		path  string
		code  int
		total int
	}{
		{path: "/api/admin/blogs", code: http.StatusOK, total: 2},
		{path: "/api/admin/blogs?status=draft", code: http.StatusOK, total: 1},
		{path: "/api/admin/blogs?status=published&category=tech-notes", code: http.StatusOK, total: 1},
		{path: "/api/admin/blogs?status=archived", code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := env.do(http.MethodGet, tt.path, nil)
			expectStatus(t, rr, tt.code)
			if tt.code != http.StatusOK {
				return
			}
			if got := decode(t, rr); got.Total != tt.total {
				t.Errorf("total = %d, want %d", got.Total, tt.total)
			}
		})
	}

	// Admin listings keep content.
	posts := decodeData[[]models.Post](t, env.do(http.MethodGet, "/api/admin/blogs", nil))
	for _, p := range posts {
		if p.Content == "" {
			t.Errorf("admin listing dropped content of %q", p.Title)
		}
	}
}

func TestAdminGetBlogNotFound(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		rr := env.do(http.MethodGet, "/api/admin/blogs/"+id, nil)
		expectStatus(t, rr, http.StatusNotFound)
		if got := decode(t, rr).Message; got != "Blog not found" {
			t.Errorf("%s: message = %q", id, got)
		}
	}
}

// TestAdminWritesAreLogged checks every write records a cache invalidation.
func TestAdminWritesAreLogged(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCategory("Tech Notes")
	p := env.createPost("Hello", c.ID, "draft")
	env.do(http.MethodPut, "/api/admin/blogs/"+p.ID.String(), map[string]string{"title": "Hello 2"})
	env.do(http.MethodDelete, "/api/admin/blogs/"+p.ID.String(), nil)
	env.do(http.MethodPut, "/api/admin/categories/"+c.ID.String(), map[string]string{"name": "Renamed"})
	env.do(http.MethodDelete, "/api/admin/categories/"+c.ID.String(), nil)

	// A refused write logs nothing.
	env.do(http.MethodPost, "/api/admin/categories", map[string]string{"name": ""})

	want := []string{
		"category:create", "post:create", "post:update", "post:delete",
		"category:update", "category:delete",
	}
	if got := env.log.actions(); !reflect.DeepEqual(got, want) {
		t.Errorf("actions = %v, want %v", got, want)
	}

	rr := env.do(http.MethodGet, "/api/admin/cache/log?limit=2", nil)
	expectStatus(t, rr, http.StatusOK)
	entries := decodeData[[]store.CacheLogEntry](t, rr)
	if len(entries) != 2 || entries[0].Action != store.ActionDelete || entries[0].EntityType != store.EntityCategory {
		t.Errorf("recent entries = %+v", entries)
	}
}

// TestAdminReplacedImageIsDeleted checks that uploaded OG images are removed
// from storage once no post uses them.
func TestAdminReplacedImageIsDeleted(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCategory("Tech Notes")
	p := env.createPost("Pictured", c.ID, "draft")
	path := "/api/admin/blogs/" + p.ID.String()

	first := fakeStorageURL + "og/first.jpg"
	second := fakeStorageURL + "og/second.jpg"

	expectStatus(t, env.do(http.MethodPut, path, map[string]string{"ogImage": first}), http.StatusOK)
	if len(env.storage.deleted) != 0 {
		t.Fatalf("default image should not be deleted, got %v", env.storage.deleted)
	}

	expectStatus(t, env.do(http.MethodPut, path, map[string]string{"ogImage": second}), http.StatusOK)
	expectStatus(t, env.do(http.MethodDelete, path, nil), http.StatusOK)

	want := []string{"og/first.jpg", "og/second.jpg"}
	if !reflect.DeepEqual(env.storage.deleted, want) {
		t.Errorf("deleted = %v, want %v", env.storage.deleted, want)
	}
}

// TestAdminSharedImageIsKept checks that an image still used by another post
// survives when one of its posts drops it.
func TestAdminSharedImageIsKept(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCategory("Tech Notes")
	a := env.createPost("First", c.ID, "draft")
	b := env.createPost("Second", c.ID, "draft")

	shared := fakeStorageURL + "og/shared.jpg"
	for _, p := range []models.Post{a, b} {
		expectStatus(t, env.do(http.MethodPut, "/api/admin/blogs/"+p.ID.String(), map[string]string{"ogImage": shared}), http.StatusOK)
	}

	expectStatus(t, env.do(http.MethodPut, "/api/admin/blogs/"+a.ID.String(), map[string]string{"ogImage": fakeStorageURL + "og/own.jpg"}), http.StatusOK)
	if len(env.storage.deleted) != 0 {
		t.Fatalf("shared image deleted while in use: %v", env.storage.deleted)
	}

	expectStatus(t, env.do(http.MethodDelete, "/api/admin/blogs/"+b.ID.String(), nil), http.StatusOK)
	want := []string{"og/shared.jpg"}
	if !reflect.DeepEqual(env.storage.deleted, want) {
		t.Errorf("deleted = %v, want %v", env.storage.deleted, want)
	}
}
