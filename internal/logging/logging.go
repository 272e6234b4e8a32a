// Package logging builds the process-wide slog logger: text output in
// development, JSON in production, and an optional fan-out to Sentry when a
// DSN is configured. Records logged with a request context carry the chi
// request ID.
package logging

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Options configures New.
type Options struct {
	Env       string // "production" switches to JSON output
	Level     slog.Level
	SentryDSN string
	Release   string
}

// New returns the root logger and a flush function to call before exit.
// When Sentry cannot be initialised the logger falls back to local output
// only and the failure is logged.
func New(w io.Writer, opts Options) (*slog.Logger, func()) {
	hopts := &slog.HandlerOptions{Level: opts.Level}
	var local slog.Handler
	if opts.Env == "production" {
		local = slog.NewJSONHandler(w, hopts)
	} else {
		local = slog.NewTextHandler(w, hopts)
	}

	noop := func() {}
	if opts.SentryDSN == "" {
		return slog.New(&requestIDHandler{next: local}), noop
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         opts.SentryDSN,
		Environment: opts.Env,
		Release:     opts.Release,
		EnableLogs:  true,
	})
	if err != nil {
		logger := slog.New(&requestIDHandler{next: local})
		logger.Error("failed to initialize sentry", "error", err)
		return logger, noop
	}

	remote := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	handler := &requestIDHandler{next: newMultiHandler(local, remote)}
	return slog.New(handler), func() { sentry.Flush(2 * time.Second) }
}

// multiHandler forwards log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func newMultiHandler(handlers ...slog.Handler) slog.Handler {
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, rec.Level) {
			if err := handler.Handle(ctx, rec.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return newMultiHandler(handlers...)
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return newMultiHandler(handlers...)
}

// requestIDHandler adds the chi request ID to records logged with a request
// context.
type requestIDHandler struct {
	next slog.Handler
}

func (h *requestIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *requestIDHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		if id := chimw.GetReqID(ctx); id != "" {
			rec.AddAttrs(slog.String("request_id", id))
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &requestIDHandler{next: h.next.WithAttrs(attrs)}
}

func (h *requestIDHandler) WithGroup(name string) slog.Handler {
	return &requestIDHandler{next: h.next.WithGroup(name)}
}
