package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// DefaultCategoryName is the category created on an empty database so the
// first post has somewhere to go.
const DefaultCategoryName = "Uncategorized"

// Seed populates an empty database with development data. It is a no-op
// when any category exists.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, DefaultCategoryName, "uncategorized", "Posts that have not been filed yet")
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	slog.Info("database seeded", "category", DefaultCategoryName)
	return nil
}
