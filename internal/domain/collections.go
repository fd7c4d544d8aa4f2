package domain

import "time"

// Favorite marks a recipe as a favorite of a user. The (user, recipe) pair
// is unique and rows disappear with either side.
type Favorite struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_favorites_user_recipe,priority:1"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:ux_favorites_user_recipe,priority:2;index:idx_favorites_recipe"`
	CreatedAt time.Time

	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// ShoppingCartItem puts a recipe into a user's shopping cart. Same shape and
// invariants as Favorite, kept in its own table.
type ShoppingCartItem struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_shopping_cart_user_recipe,priority:1"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:ux_shopping_cart_user_recipe,priority:2;index:idx_shopping_cart_recipe"`
	CreatedAt time.Time

	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ShoppingCartItem.
func (ShoppingCartItem) TableName() string { return "shopping_cart" }

// Subscription is a directed follow edge: UserID follows AuthorID.
// Pairs are unique and a user can never follow themself (DB check).
type Subscription struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_subscriptions_user_author,priority:1"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:ux_subscriptions_user_author,priority:2;index:idx_subscriptions_author;check:user_id <> author_id"`
	CreatedAt time.Time

	User   User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }
