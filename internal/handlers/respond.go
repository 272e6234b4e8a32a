// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the QuillPress JSON API. Every JSON response
// uses the same envelope: success, an optional message, and the payload in
// data. Service errors are translated to HTTP statuses here and nowhere
// else.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"quillpress/internal/blog"
	"quillpress/internal/slug"
)

// maxJSONBody caps admin JSON payloads.
const maxJSONBody = 1 << 20

// response is the API envelope.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`

	// Login only.
	Token       string    `json:"token,omitempty"`
	User        *userInfo `json:"user,omitempty"`
	OTPRequired bool      `json:"otpRequired,omitempty"`
}

// pageResponse is the envelope for paginated listings.
type pageResponse struct {
	Success     bool `json:"success"`
	Data        any  `json:"data"`
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
	Total       int  `json:"total"`
}

// categoryPage is the data of a single category response.
type categoryPage struct {
	Category    any `json:"category"`
	Blogs       any `json:"blogs"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Total       int `json:"total"`
}

type userInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// writeData writes a successful envelope.
func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, response{Success: true, Message: message, Data: data})
}

// writeError writes a failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}

// writeServiceError maps a service error to its HTTP status. Unexpected
// errors are logged and answered with fallback so storage details never
// reach the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		validation *blog.ValidationError
		inUse      *blog.InUseError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &inUse):
		writeError(w, http.StatusBadRequest, inUse.Error())
	case errors.Is(err, blog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, blog.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, slug.ErrExhausted):
		slog.ErrorContext(r.Context(), "slug space exhausted", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not generate a unique slug, please choose a different title")
	default:
		slog.ErrorContext(r.Context(), fallback, "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads a JSON request body into dst. It reports false after
// writing a 400 when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
