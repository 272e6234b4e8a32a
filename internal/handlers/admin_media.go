package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"quillpress/internal/imaging"
)

// maxUploadSize is the maximum accepted image upload (10 MB).
const maxUploadSize = 10 << 20

type uploadResult struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MediaUpload handles POST /api/admin/media. The multipart "file" field is
// converted to an Open Graph JPEG and stored in the public bucket; the URL
// is returned for use as a post's ogImage.
func (a *Admin) MediaUpload(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10 MB")
			return
		}
		writeError(w, http.StatusBadRequest, "Expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	img, err := imaging.PrepareOG(data)
	if errors.Is(err, imaging.ErrUnsupportedType) {
		writeError(w, http.StatusBadRequest, "Only JPEG, PNG, GIF and WebP images are allowed")
		return
	}
	if err != nil {
		slog.WarnContext(r.Context(), "image processing failed", "error", err)
		writeError(w, http.StatusBadRequest, "Could not process image")
		return
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("og/%d/%02d/%s.jpg", now.Year(), now.Month(), uuid.New())
	if err := a.storage.Upload(r.Context(), key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		slog.ErrorContext(r.Context(), "s3 upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	slog.InfoContext(r.Context(), "og image uploaded", "key", key, "width", img.Width, "height", img.Height)
	writeData(w, http.StatusCreated, "Image uploaded successfully", uploadResult{
		URL:    a.storage.FileURL(key),
		Key:    key,
		Width:  img.Width,
		Height: img.Height,
	})
}
