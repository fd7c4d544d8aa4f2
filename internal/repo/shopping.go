// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file aggregates the ingredients of a user's cart.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/shoplist"
)

// AggregateShoppingCart sums ingredient amounts over every recipe in the
// user's cart, one row per (name, unit). Rows come back in byte order; the
// caller applies locale-aware sorting. An empty cart yields an empty slice.
func AggregateShoppingCart(ctx context.Context, db *gorm.DB, userID uint) ([]shoplist.Item, error) {
	var out []shoplist.Item
	err := db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("i.name AS name, i.measurement_unit AS unit, SUM(ri.amount) AS amount").
		Joins("JOIN ingredients AS i ON i.id = ri.ingredient_id").
		Joins("JOIN shopping_cart AS sc ON sc.recipe_id = ri.recipe_id").
		Where("sc.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name").
		Order("i.measurement_unit").
		Scan(&out).Error
	return out, err
}
