// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file handles the per-user recipe collections
// (favorites and shopping cart), which share one shape but live in separate
// tables.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
)

// Collection names a per-user recipe collection.
type Collection string

const (
	CollectionFavorites    Collection = "favorites"
	CollectionShoppingCart Collection = "shopping_cart"
)

func (c Collection) table() string { return string(c) }

func (c Collection) row(userID, recipeID uint) any {
	if c == CollectionShoppingCart {
		return &domain.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
	}
	return &domain.Favorite{UserID: userID, RecipeID: recipeID}
}

func (c Collection) model() any {
	if c == CollectionShoppingCart {
		return &domain.ShoppingCartItem{}
	}
	return &domain.Favorite{}
}

// AddMembership inserts the (user, recipe) pair into c. An existing pair
// yields ErrDuplicate.
func AddMembership(ctx context.Context, db *gorm.DB, c Collection, userID, recipeID uint) error {
	return dup(db.WithContext(ctx).Omit("User", "Recipe").Create(c.row(userID, recipeID)).Error)
}

// RemoveMembership deletes the (user, recipe) pair from c, or returns
// ErrNotFound when it is absent.
func RemoveMembership(ctx context.Context, db *gorm.DB, c Collection, userID, recipeID uint) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(c.model())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MembershipSet returns which of recipeIDs are in the user's collection c.
func MembershipSet(ctx context.Context, db *gorm.DB, c Collection, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := db.WithContext(ctx).
		Model(c.model()).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// CountMemberships returns how many recipes the user has in c.
func CountMemberships(ctx context.Context, db *gorm.DB, c Collection, userID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(c.model()).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
