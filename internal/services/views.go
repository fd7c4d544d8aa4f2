// Package services – read models
//
// This file defines the request-scoped Actor and the representations the
// services hand back to the transport layer. Write models (domain types) are
// never returned directly for recipes and users: read-back always goes
// through these views so membership flags and absolute media URLs are
// present.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/repo"
)

// Actor is the explicit request context passed into every operation: who is
// calling (UserID 0 means anonymous) and the origin used to turn stored
// media paths into absolute URLs.
type Actor struct {
	UserID  uint
	BaseURL string
}

// Authenticated reports whether the actor is a known user.
func (a Actor) Authenticated() bool { return a.UserID != 0 }

// requireUser fails with ErrUnauthenticated for anonymous actors and with
// ErrUnknownActor when the actor's user row is gone.
func requireUser(ctx context.Context, db *gorm.DB, a Actor) error {
	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	ok, err := repo.UserExists(ctx, db, a.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownActor
	}
	return nil
}

// absURL prefixes host-relative media paths with the actor's origin.
func (a Actor) absURL(u string) string {
	if u == "" || a.BaseURL == "" || !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return u
	}
	return strings.TrimRight(a.BaseURL, "/") + u
}

// UserView is the public representation of a user.
type UserView struct {
	Email        string  `json:"email"        example:"cook@example.com"`
	ID           uint    `json:"id"           example:"1"`
	Username     string  `json:"username"     example:"cook"`
	FirstName    string  `json:"first_name"   example:"Ann"`
	LastName     string  `json:"last_name"    example:"Lee"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"       example:"http://localhost:8080/media/users/1.png"`
}

// IngredientAmountView is one ingredient line of a recipe.
type IngredientAmountView struct {
	ID              uint   `json:"id"               example:"3"`
	Name            string `json:"name"             example:"salt"`
	MeasurementUnit string `json:"measurement_unit" example:"g"`
	Amount          int    `json:"amount"           example:"5"`
}

// RecipeView is the full recipe representation.
type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []domain.Tag           `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []IngredientAmountView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"         example:"Soup"`
	Image            string                 `json:"image"        example:"http://localhost:8080/media/recipes/soup.png"`
	Text             string                 `json:"text"         example:"Boil water, add salt."`
	CookingTime      int                    `json:"cooking_time" example:"30"`
}

// RecipeShortView is the compact recipe representation used by collection
// toggles and subscription previews.
type RecipeShortView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionView is a followed author with a preview of their recipes.
type SubscriptionView struct {
	UserView
	Recipes      []RecipeShortView `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

func (a Actor) userView(u domain.User, subscribed bool) UserView {
	v := UserView{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		// Nobody is shown as subscribed to themself.
		IsSubscribed: subscribed && u.ID != a.UserID,
	}
	if u.Avatar != "" {
		s := a.absURL(u.Avatar)
		v.Avatar = &s
	}
	return v
}

func (a Actor) shortView(r domain.Recipe) RecipeShortView {
	return RecipeShortView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       a.absURL(r.Image),
		CookingTime: r.CookingTime,
	}
}

// recipeFlags carries the viewer-dependent booleans of one recipe.
type recipeFlags struct {
	favorited  bool
	inCart     bool
	subscribed bool
}

func (a Actor) recipeView(r domain.Recipe, f recipeFlags) RecipeView {
	tags := r.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	ings := make([]IngredientAmountView, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		ings = append(ings, IngredientAmountView{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}
	return RecipeView{
		ID:               r.ID,
		Tags:             tags,
		Author:           a.userView(r.Author, f.subscribed),
		Ingredients:      ings,
		IsFavorited:      a.Authenticated() && f.favorited,
		IsInShoppingCart: a.Authenticated() && f.inCart,
		Name:             r.Name,
		Image:            a.absURL(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}
