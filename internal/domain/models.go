// Package domain defines the persistence models for users, the tag and
// ingredient catalog, recipes and the per-user collections built on top of
// them. These types are mapped with GORM and form the core data layer of the
// recipes backend.
package domain

import "time"

// User is a registered account. E-mail is the primary login identifier and
// username is the public handle used in URLs and file names.
//
// Fields:
//   - ID: autoincrement primary key.
//   - Email: unique, at most 254 characters.
//   - Username: unique handle matching ^[\w.@+-]+$; "me" is reserved.
//   - FirstName / LastName: display names, at most 150 characters each.
//   - PasswordHash: bcrypt hash, never serialized.
//   - Avatar: stored image URL (relative to the media host or absolute), empty when unset.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID           uint      `json:"id"         gorm:"primaryKey"`
	Email        string    `json:"email"      gorm:"size:254;not null;uniqueIndex:ux_users_email"`
	Username     string    `json:"username"   gorm:"size:150;not null;uniqueIndex:ux_users_username"`
	FirstName    string    `json:"first_name" gorm:"size:150;not null;default:''"`
	LastName     string    `json:"last_name"  gorm:"size:150;not null;default:''"`
	PasswordHash string    `json:"-"          gorm:"size:255;not null"`
	Avatar       string    `json:"avatar"     gorm:"size:512;not null;default:''"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Tag is shared reference data attached to recipes. Both name and slug are
// unique; slugs are restricted to letters, digits, '-' and '_'.
type Tag struct {
	ID   uint   `json:"id"   gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:32;not null;uniqueIndex:ux_tags_name"`
	Slug string `json:"slug" gorm:"size:32;not null;uniqueIndex:ux_tags_slug"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Ingredient is shared reference data identified by the (name, unit) pair.
// Recipes reference ingredients but never own them.
type Ingredient struct {
	ID              uint   `json:"id"               gorm:"primaryKey"`
	Name            string `json:"name"             gorm:"size:128;not null;uniqueIndex:ux_ingredients_name_unit,priority:1"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:64;not null;uniqueIndex:ux_ingredients_name_unit,priority:2"`
}

// TableName returns the database table name for Ingredient.
func (Ingredient) TableName() string { return "ingredients" }

// Models lists every persisted type in dependency order, for migrations.
func Models() []any {
	return []any{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeTag{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartItem{},
		&Subscription{},
		&Idempotency{},
	}
}
