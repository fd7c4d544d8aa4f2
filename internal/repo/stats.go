// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
)

// RecipesStats returns aggregate metadata for the recipes matching f: the
// number of rows and the greatest UpdatedAt among them.
//
// When nothing matches, the returned count is 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total recipes matching f
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func RecipesStats(ctx context.Context, db *gorm.DB, f RecipeFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	q := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), db, f)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	q = applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), db, f)
	if err = q.Select("recipes.updated_at").Order("recipes.updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
