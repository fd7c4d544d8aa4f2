package domain

import "time"

// Recipe is a dish published by exactly one author. A recipe always carries
// at least one tag and at least one ingredient amount; both sets are
// replaced as a whole on update.
//
// Fields:
//   - ID: autoincrement primary key.
//   - AuthorID: owning user; recipes are cascade-deleted with their author.
//   - Name: title, at most 256 characters.
//   - Image: stored image URL (required).
//   - Text: free-form description.
//   - CookingTime: minutes, at least 1 (enforced by DB constraint).
//   - ShortLinkCode: unique share code, assigned once right after insert.
//   - CreatedAt: set once at insert; drives the default newest-first order.
//   - UpdatedAt: bumped on every write; used for list ETags.
type Recipe struct {
	ID            uint      `json:"id"             gorm:"primaryKey"`
	AuthorID      uint      `json:"author_id"      gorm:"not null;index:idx_recipes_author"`
	Name          string    `json:"name"           gorm:"size:256;not null"`
	Image         string    `json:"image"          gorm:"size:512;not null"`
	Text          string    `json:"text"           gorm:"type:text;not null"`
	CookingTime   int       `json:"cooking_time"   gorm:"not null;check:cooking_time >= 1"`
	ShortLinkCode *string   `json:"short_link_code" gorm:"size:16;uniqueIndex:ux_recipes_short_link"`
	CreatedAt     time.Time `json:"created_at"     gorm:"index:idx_recipes_created"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Author is the owning user. Recipes are cascade-deleted if their
	// author is removed.
	Author User `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Tags is the recipe's tag set, stored in recipe_tags.
	Tags []Tag `json:"tags" gorm:"many2many:recipe_tags;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Ingredients holds the per-recipe amounts.
	Ingredients []RecipeIngredient `json:"ingredients" gorm:"foreignKey:RecipeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipes" }

// RecipeTag is the join row between a recipe and a tag.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey"`
	TagID    uint `gorm:"primaryKey;index:idx_recipe_tags_tag"`
}

// TableName returns the database table name for RecipeTag.
func (RecipeTag) TableName() string { return "recipe_tags" }

// RecipeIngredient links a recipe to an ingredient with an amount. A recipe
// cannot list the same ingredient twice (unique index) and amounts are
// at least 1.
type RecipeIngredient struct {
	ID           uint `json:"-"      gorm:"primaryKey"`
	RecipeID     uint `json:"-"      gorm:"not null;uniqueIndex:ux_recipe_ingredients_pair,priority:1"`
	IngredientID uint `json:"id"     gorm:"not null;uniqueIndex:ux_recipe_ingredients_pair,priority:2;index:idx_recipe_ingredients_ingredient"`
	Amount       int  `json:"amount" gorm:"not null;check:amount >= 1"`

	// Ingredient is the referenced catalog entry.
	Ingredient Ingredient `json:"-" gorm:"foreignKey:IngredientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RecipeIngredient.
func (RecipeIngredient) TableName() string { return "recipe_ingredients" }
