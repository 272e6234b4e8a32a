// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package lifecycle holds the draft -> published transition rules for posts.
// Every post save goes through Apply before anything is written, so the
// publish timestamp and slug immutability are decided in one place.
package lifecycle

import (
	"errors"
	"time"

	"quillpress/internal/models"
)

var (
	// ErrSlugImmutable rejects a slug change on a post that has been published.
	ErrSlugImmutable = errors.New("slug cannot be modified after publishing")

	// ErrUnpublish rejects moving a published post back to draft.
	ErrUnpublish = errors.New("published posts cannot return to draft")

	// ErrInvalidStatus rejects statuses other than draft and published.
	ErrInvalidStatus = errors.New("status must be draft or published")
)

// Apply evaluates the transition from prev to next, mutating next's derived
// fields. prev is nil when next is a new post. On error next must not be
// written.
func Apply(prev, next *models.Post, now time.Time) error {
	if !next.Status.Valid() {
		return ErrInvalidStatus
	}

	// Derived fields come from the stored record only.
	if prev == nil {
		next.PublishedAt = nil
		next.IsPublished = false
	} else {
		next.PublishedAt = prev.PublishedAt
		next.IsPublished = prev.IsPublished

		if prev.IsPublished {
			if next.Slug != prev.Slug {
				return ErrSlugImmutable
			}
			if next.Status != models.PostStatusPublished {
				return ErrUnpublish
			}
		}
	}

	if next.Status == models.PostStatusPublished && next.PublishedAt == nil {
		t := now
		next.PublishedAt = &t
		next.IsPublished = true
	}

	return nil
}

// ShouldRegenerateSlug reports whether next needs a fresh slug derived from
// its title: always for new posts, and for unpublished posts whose title
// changed.
func ShouldRegenerateSlug(prev, next *models.Post) bool {
	if prev == nil {
		return true
	}
	if prev.IsPublished {
		return false
	}
	return next.Title != prev.Title
}
