// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for recipes and
// their tag and ingredient child rows.
//
// Write helpers are meant to be composed inside one transaction by the
// service layer; none of them opens a transaction on its own except
// DeleteRecipe.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
)

// RecipeFilter narrows recipe listings. Zero values disable a criterion.
// Favorited and InCart only apply when ViewerID is set.
type RecipeFilter struct {
	AuthorID  uint
	TagSlugs  []string
	ViewerID  uint
	Favorited *bool
	InCart    *bool
}

// IngredientAmount is one (ingredient, amount) pair of a recipe write.
type IngredientAmount struct {
	IngredientID uint
	Amount       int
}

// CreateRecipe inserts the recipe row only. Child rows are written with
// ReplaceRecipeTags and ReplaceRecipeIngredients.
func CreateRecipe(ctx context.Context, db *gorm.DB, r *domain.Recipe) error {
	return dup(db.WithContext(ctx).Omit("Author", "Tags", "Ingredients").Create(r).Error)
}

// SetShortLinkCode stores the share code of a recipe that has none yet. A
// code that is already taken by another recipe yields ErrDuplicate; a recipe
// that already carries a code yields ErrNotFound (codes never change).
func SetShortLinkCode(ctx context.Context, db *gorm.DB, id uint, code string) error {
	res := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ? AND short_link_code IS NULL", id).
		UpdateColumn("short_link_code", code)
	if res.Error != nil {
		return dup(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRecipeFields updates the scalar columns of a recipe in place.
func UpdateRecipeFields(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Recipe{ID: id}).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRecipeTags deletes every tag link of the recipe and inserts tagIDs.
func ReplaceRecipeTags(ctx context.Context, db *gorm.DB, recipeID uint, tagIDs []uint) error {
	db = db.WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&domain.RecipeTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]domain.RecipeTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, domain.RecipeTag{RecipeID: recipeID, TagID: id})
	}
	return dup(db.Create(&rows).Error)
}

// ReplaceRecipeIngredients deletes every ingredient link of the recipe and
// inserts items. A repeated ingredient yields ErrDuplicate.
func ReplaceRecipeIngredients(ctx context.Context, db *gorm.DB, recipeID uint, items []IngredientAmount) error {
	db = db.WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&domain.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]domain.RecipeIngredient, 0, len(items))
	for _, it := range items {
		rows = append(rows, domain.RecipeIngredient{RecipeID: recipeID, IngredientID: it.IngredientID, Amount: it.Amount})
	}
	return dup(db.Omit("Ingredient").Create(&rows).Error)
}

// GetRecipe loads a recipe with author, tags and ingredient details, or
// ErrNotFound.
func GetRecipe(ctx context.Context, db *gorm.DB, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	err := withRecipeAssociations(db.WithContext(ctx)).First(&r, id).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RecipeAuthorID returns the author of a recipe without loading children.
func RecipeAuthorID(ctx context.Context, db *gorm.DB, id uint) (uint, error) {
	var r domain.Recipe
	err := db.WithContext(ctx).Select("id", "author_id").First(&r, id).Error
	if err != nil {
		return 0, err
	}
	return r.AuthorID, nil
}

// CountRecipes returns the number of recipes matching f.
func CountRecipes(ctx context.Context, db *gorm.DB, f RecipeFilter) (int64, error) {
	var total int64
	err := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), db, f).Count(&total).Error
	return total, err
}

// ListRecipesPage returns recipes matching f, newest first, with all
// associations loaded.
func ListRecipesPage(ctx context.Context, db *gorm.DB, f RecipeFilter, offset, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), db, f)
	err := withRecipeAssociations(q).
		Order("recipes.created_at DESC").
		Order("recipes.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteRecipe removes a recipe and every row that references it in one
// transaction. It returns ErrNotFound when the recipe does not exist.
func DeleteRecipe(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{
			&domain.RecipeTag{},
			&domain.RecipeIngredient{},
			&domain.Favorite{},
			&domain.ShoppingCartItem{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&domain.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RecipeIDByShortCode resolves a share code, or ErrNotFound.
func RecipeIDByShortCode(ctx context.Context, db *gorm.DB, code string) (uint, error) {
	var r domain.Recipe
	err := db.WithContext(ctx).
		Select("id").
		Where("short_link_code = ?", code).
		First(&r).Error
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

// CountRecipesByAuthors returns recipe counts keyed by author id. Authors
// without recipes are absent from the map.
func CountRecipesByAuthors(ctx context.Context, db *gorm.DB, authorIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AuthorID uint
		N        int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Select("author_id, COUNT(*) AS n").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.AuthorID] = r.N
	}
	return out, nil
}

// RecipesByAuthors returns the recipes of the given authors, newest first,
// grouped by author. When perAuthor > 0 each group is capped to that many.
func RecipesByAuthors(ctx context.Context, db *gorm.DB, authorIDs []uint, perAuthor int) (map[uint][]domain.Recipe, error) {
	out := make(map[uint][]domain.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []domain.Recipe
	err := db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if perAuthor > 0 && len(out[r.AuthorID]) >= perAuthor {
			continue
		}
		out[r.AuthorID] = append(out[r.AuthorID], r)
	}
	return out, nil
}

func withRecipeAssociations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// applyRecipeFilter adds the WHERE clauses for f to q. Subqueries are built
// from base so they do not inherit q's conditions.
func applyRecipeFilter(q, base *gorm.DB, f RecipeFilter) *gorm.DB {
	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		sub := base.Session(&gorm.Session{NewDB: true}).
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		q = q.Where("recipes.id IN (?)", sub)
	}
	if f.ViewerID != 0 {
		q = membershipFilter(q, base, CollectionFavorites, f.ViewerID, f.Favorited)
		q = membershipFilter(q, base, CollectionShoppingCart, f.ViewerID, f.InCart)
	}
	return q
}

func membershipFilter(q, base *gorm.DB, c Collection, userID uint, want *bool) *gorm.DB {
	if want == nil {
		return q
	}
	sub := base.Session(&gorm.Session{NewDB: true}).
		Table(c.table()).
		Select("recipe_id").
		Where("user_id = ?", userID)
	if *want {
		return q.Where("recipes.id IN (?)", sub)
	}
	return q.Where("recipes.id NOT IN (?)", sub)
}
