// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file covers the shared reference data: tags and
// ingredients.
package repo

import (
	"context"
	"strings"
	"unicode"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-recipes-backend/internal/domain"
)

// ListTags returns every tag ordered by name.
func ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	var out []domain.Tag
	err := db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// GetTag fetches a tag by id, or ErrNotFound.
func GetTag(ctx context.Context, db *gorm.DB, id uint) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// TagsByIDs returns the tags whose ids are in ids. Missing ids are simply
// absent from the result; callers compare lengths.
func TagsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Tag, error) {
	var out []domain.Tag
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, err
}

// CreateTag inserts a tag; ErrDuplicate on a taken name or slug.
func CreateTag(ctx context.Context, db *gorm.DB, t *domain.Tag) error {
	return dup(db.WithContext(ctx).Create(t).Error)
}

// ListIngredients returns ingredients ordered by name, optionally restricted
// to names starting with prefix (case-insensitive).
func ListIngredients(ctx context.Context, db *gorm.DB, prefix string) ([]domain.Ingredient, error) {
	q := db.WithContext(ctx).Model(&domain.Ingredient{})
	if p := strings.TrimSpace(prefix); p != "" {
		// SQLite's LOWER only folds ASCII, so the capitalized form is matched too.
		lower := escapeLike(strings.ToLower(p)) + "%"
		capital := escapeLike(capitalize(p)) + "%"
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!' OR name LIKE ? ESCAPE '!'", lower, capital)
	}
	var out []domain.Ingredient
	err := q.Order("name").Order("measurement_unit").Find(&out).Error
	return out, err
}

// GetIngredient fetches an ingredient by id, or ErrNotFound.
func GetIngredient(ctx context.Context, db *gorm.DB, id uint) (*domain.Ingredient, error) {
	var in domain.Ingredient
	if err := db.WithContext(ctx).First(&in, id).Error; err != nil {
		return nil, err
	}
	return &in, nil
}

// IngredientsByIDs returns the ingredients whose ids are in ids.
func IngredientsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Ingredient, error) {
	var out []domain.Ingredient
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, err
}

// CreateIngredient inserts an ingredient; ErrDuplicate when the
// (name, unit) pair already exists.
func CreateIngredient(ctx context.Context, db *gorm.DB, in *domain.Ingredient) error {
	return dup(db.WithContext(ctx).Create(in).Error)
}

// ImportIngredients bulk-inserts items, silently skipping pairs that already
// exist, and returns how many rows were actually created.
func ImportIngredients(ctx context.Context, db *gorm.DB, items []domain.Ingredient, batchSize int) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(items, batchSize)
	return res.RowsAffected, res.Error
}

// escapeLike escapes LIKE wildcards with '!' so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
