// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Field limits for categories.
const (
	MaxCategoryNameLen        = 50
	MaxCategoryDescriptionLen = 200
)

// Category groups posts. Every post belongs to exactly one category.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// URL returns the public path of the category page.
func (c *Category) URL() string {
	return "/category/" + c.Slug
}

// MarshalJSON adds the virtual url field.
func (c Category) MarshalJSON() ([]byte, error) {
	type plain Category
	return json.Marshal(struct {
		plain
		URL string `json:"url"`
	}{plain: plain(c), URL: c.URL()})
}

// CategoryRef is the short form of a category embedded in post responses.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}
