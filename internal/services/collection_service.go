// Package services – CollectionService
//
// This file implements the favorite and shopping-cart toggles. Both
// collections behave identically: adding a recipe that is already present is
// a conflict, removing one that is absent is a not-found.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CollectionService manages per-user recipe collections.
type CollectionService struct {
	DB *gorm.DB
}

// NewCollectionService constructs a CollectionService.
func NewCollectionService(db *gorm.DB) *CollectionService {
	return &CollectionService{DB: db}
}

// Add puts a recipe into the actor's collection c and returns its short
// representation.
func (s *CollectionService) Add(ctx context.Context, a Actor, c repo.Collection, recipeID uint) (*RecipeShortView, error) {
	ctx, span := s.span(ctx, "Add", a, c, recipeID)
	defer span.End()

	if err := requireUser(ctx, s.DB, a); err != nil {
		return nil, err
	}
	r, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := repo.AddMembership(ctx, s.DB, c, a.UserID, recipeID); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrAlreadyInCollection
		case errors.Is(err, repo.ErrMissingReference):
			return nil, ErrReferenceGone
		}
		return nil, err
	}
	collectionChanges.WithLabelValues(string(c), "add").Inc()
	v := a.shortView(*r)
	return &v, nil
}

// Remove takes a recipe out of the actor's collection c.
func (s *CollectionService) Remove(ctx context.Context, a Actor, c repo.Collection, recipeID uint) error {
	ctx, span := s.span(ctx, "Remove", a, c, recipeID)
	defer span.End()

	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}
	if err := repo.RemoveMembership(ctx, s.DB, c, a.UserID, recipeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotInCollection
		}
		return err
	}
	collectionChanges.WithLabelValues(string(c), "remove").Inc()
	return nil
}

func (s *CollectionService) recipe(ctx context.Context, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	err := s.DB.WithContext(ctx).
		Select("id", "name", "image", "cooking_time").
		First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *CollectionService) span(ctx context.Context, op string, a Actor, c repo.Collection, recipeID uint) (context.Context, trace.Span) {
	return otel.Tracer("services/CollectionService").Start(ctx, op,
		trace.WithAttributes(
			attribute.String("collection", string(c)),
			attribute.Int64("recipe.id", int64(recipeID)),
			attribute.Int64("user.id", int64(a.UserID)),
		),
	)
}
