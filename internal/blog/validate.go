package blog

import (
	"strings"
	"unicode/utf8"

	"quillpress/internal/models"
)

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// tooLong reports whether s exceeds max runes.
func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func validateCategory(c *models.Category) error {
	switch {
	case c.Name == "":
		return invalid("Category name is required")
	case tooLong(c.Name, models.MaxCategoryNameLen):
		return invalid("Category name cannot exceed %d characters", models.MaxCategoryNameLen)
	case tooLong(c.Description, models.MaxCategoryDescriptionLen):
		return invalid("Description cannot exceed %d characters", models.MaxCategoryDescriptionLen)
	}
	return nil
}

// validatePost checks the stored field limits. Required fields are checked
// by the callers, which know whether a field was supplied.
func validatePost(p *models.Post) error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return invalid("Title is required")
	case strings.TrimSpace(p.Content) == "":
		return invalid("Content is required")
	case tooLong(p.Title, models.MaxTitleLen):
		return invalid("Title cannot exceed %d characters", models.MaxTitleLen)
	case tooLong(p.Excerpt, models.MaxExcerptLen):
		return invalid("Excerpt cannot exceed %d characters", models.MaxExcerptLen)
	case tooLong(p.MetaTitle, models.MaxMetaTitleLen):
		return invalid("Meta title should be under %d characters", models.MaxMetaTitleLen)
	case tooLong(p.MetaDescription, models.MaxMetaDescriptionLen):
		return invalid("Meta description should be under %d characters", models.MaxMetaDescriptionLen)
	}
	return nil
}
