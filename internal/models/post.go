// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Field limits and defaults for posts.
const (
	MaxTitleLen           = 200
	MaxExcerptLen         = 300
	MaxMetaTitleLen       = 60
	MaxMetaDescriptionLen = 160

	DefaultOGImage = "/images/default-og.jpg"
	DefaultAuthor  = "Admin"
)

// Post is a blog article. PublishedAt and IsPublished are derived from the
// status transition and never set by callers.
type Post struct {
	ID              uuid.UUID    `json:"id"`
	Title           string       `json:"title"`
	Slug            string       `json:"slug"`
	Content         string       `json:"content,omitempty"`
	ContentHTML     string       `json:"contentHtml,omitempty"`
	Excerpt         string       `json:"excerpt"`
	MetaTitle       string       `json:"metaTitle"`
	MetaDescription string       `json:"metaDescription"`
	Keywords        Keywords     `json:"keywords"`
	CanonicalURL    string       `json:"canonicalUrl"`
	OGImage         string       `json:"ogImage"`
	CategoryID      uuid.UUID    `json:"categoryId"`
	Category        *CategoryRef `json:"category,omitempty"`
	Status          PostStatus   `json:"status"`
	Author          string       `json:"author"`
	PublishedAt     *time.Time   `json:"publishedAt"`
	IsPublished     bool         `json:"isPublished"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// URL returns the public path of the post.
func (p *Post) URL() string {
	return "/blog/" + p.Slug
}

// MarshalJSON adds the virtual url field.
func (p Post) MarshalJSON() ([]byte, error) {
	type plain Post
	return json.Marshal(struct {
		plain
		URL string `json:"url"`
	}{plain: plain(p), URL: p.URL()})
}

// Keywords is a set of keywords kept in insertion order. It is stored as a
// JSON array.
type Keywords []string

// NewKeywords trims, drops empties, and removes duplicates.
func NewKeywords(in []string) Keywords {
	seen := make(map[string]bool, len(in))
	out := make(Keywords, 0, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Value implements driver.Valuer.
func (k Keywords) Value() (driver.Value, error) {
	if k == nil {
		k = Keywords{}
	}
	b, err := json.Marshal([]string(k))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (k *Keywords) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*k = Keywords{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("keywords: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("keywords: %w", err)
	}
	*k = Keywords(out)
	return nil
}
