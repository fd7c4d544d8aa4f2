// Package services – ShoppingService
//
// This file renders the shopping list of a user's cart: ingredient amounts
// are summed per (name, unit) across every recipe in the cart, ordered by
// name for the configured locale, and written as a plain-text document.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/repo"
	"github.com/tbourn/go-recipes-backend/internal/shoplist"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ShoppingList is a rendered export ready to be sent as a download.
type ShoppingList struct {
	FileName    string
	ContentType string
	Body        string
	Items       []shoplist.Item
}

// ShoppingService builds shopping lists.
type ShoppingService struct {
	DB     *gorm.DB
	Locale string
}

// NewShoppingService constructs a ShoppingService ordering lines for locale.
func NewShoppingService(db *gorm.DB, locale string) *ShoppingService {
	return &ShoppingService{DB: db, Locale: locale}
}

// Export aggregates the actor's cart and renders it. An empty cart yields
// ErrEmptyCart.
func (s *ShoppingService) Export(ctx context.Context, a Actor) (*ShoppingList, error) {
	tr := otel.Tracer("services/ShoppingService")
	ctx, span := tr.Start(ctx, "Export",
		trace.WithAttributes(attribute.Int64("user.id", int64(a.UserID))),
	)
	defer span.End()

	if !a.Authenticated() {
		return nil, ErrUnauthenticated
	}
	user, err := repo.GetUser(ctx, s.DB, a.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnknownActor
	}
	if err != nil {
		return nil, err
	}

	items, err := repo.AggregateShoppingCart(ctx, s.DB, a.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	shoplist.Sort(items, s.Locale)
	span.SetAttributes(attribute.Int("items", len(items)))
	shoppingListExports.Inc()

	return &ShoppingList{
		FileName:    shoplist.FileName(user.Username),
		ContentType: shoplist.ContentType,
		Body:        shoplist.Render(items, shoplist.DisplayName(user.FirstName, user.Username)),
		Items:       items,
	}, nil
}
