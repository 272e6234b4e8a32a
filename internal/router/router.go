// Package router sets up all HTTP routes and middleware chains for the
// QuillPress API. Routes are organised into public, login and admin groups
// with their own middleware stacks.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"quillpress/internal/handlers"
	"quillpress/internal/middleware"
)

// Pinger reports whether a backing service is reachable. *sql.DB
// satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the handler groups and middleware dependencies of the router.
type Deps struct {
	Public *handlers.Public
	Admin  *handlers.Admin
	Auth   *handlers.Auth

	Verifier     middleware.TokenVerifier
	LoginLimiter *middleware.RateLimiter

	// FrontendURL is the only cross-origin caller allowed. Empty disables
	// CORS.
	FrontendURL string

	// DB is pinged by the health check. Nil for the in-memory store.
	DB Pinger
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(d.FrontendURL))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusNotFound, map[string]any{"success": false, "message": "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "message": "Method not allowed"})
	})

	r.Get("/health", healthHandler(d.DB))

	// Crawlers look for these at the site root.
	r.Get("/sitemap.xml", d.Public.Sitemap)
	r.Get("/robots.txt", d.Public.Robots)

	r.Route("/api", func(r chi.Router) {
		// Login, rate limited per client IP.
		r.With(d.LoginLimiter.Middleware).Post("/auth/login", d.Auth.Login)

		// Public reads.
		r.Get("/blogs", d.Public.ListBlogs)
		r.Get("/blogs/{slug}", d.Public.GetBlog)
		r.Get("/categories", d.Public.ListCategories)
		r.Get("/categories/{slug}", d.Public.GetCategory)
		r.Get("/sitemap.xml", d.Public.Sitemap)
		r.Get("/robots.txt", d.Public.Robots)

		// Admin, bearer token required.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Verifier))

			r.Get("/verify", d.Auth.Verify)
			r.Get("/2fa/qr.png", d.Auth.TwoFAQR)

			r.Route("/blogs", func(r chi.Router) {
				r.Get("/", d.Admin.ListBlogs)
				r.Post("/", d.Admin.CreateBlog)
				r.Get("/{id}", d.Admin.GetBlog)
				r.Put("/{id}", d.Admin.UpdateBlog)
				r.Delete("/{id}", d.Admin.DeleteBlog)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", d.Admin.CreateCategory)
				r.Put("/{id}", d.Admin.UpdateCategory)
				r.Delete("/{id}", d.Admin.DeleteCategory)
			})

			r.Post("/media", d.Admin.MediaUpload)
			r.Get("/cache/log", d.Admin.CacheLog)
		})
	})

	return r
}

// healthHandler reports ok, or 503 when the database does not answer.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				slog.ErrorContext(r.Context(), "health check: database unreachable", "error", err)
				writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
