// Package services – SubscriptionService
//
// This file implements the follow graph: subscribing to an author,
// unsubscribing, and listing followed authors with a capped preview of their
// recipes.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SubscriptionService manages subscriptions between users.
type SubscriptionService struct {
	DB *gorm.DB

	PageSize    int
	MaxPageSize int
}

// NewSubscriptionService constructs a SubscriptionService with default paging.
func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{DB: db, PageSize: DefaultPageSize, MaxPageSize: MaxPageSize}
}

// Subscribe makes the actor follow authorID and returns the author with
// their recipe preview. recipesLimit <= 0 means no cap.
func (s *SubscriptionService) Subscribe(ctx context.Context, a Actor, authorID uint, recipesLimit int) (*SubscriptionView, error) {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "Subscribe",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(a.UserID)),
			attribute.Int64("author.id", int64(authorID)),
		),
	)
	defer span.End()

	if !a.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if authorID == a.UserID {
		return nil, ErrSelfSubscription
	}
	if err := requireUser(ctx, s.DB, a); err != nil {
		return nil, err
	}
	author, err := repo.GetUser(ctx, s.DB, authorID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := repo.CreateSubscription(ctx, s.DB, a.UserID, authorID); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrAlreadySubscribed
		case errors.Is(err, repo.ErrMissingReference):
			return nil, ErrReferenceGone
		}
		return nil, err
	}

	views, err := s.withRecipes(ctx, a, []UserView{a.userView(*author, true)}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe removes the actor's subscription to authorID.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, a Actor, authorID uint) error {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "Unsubscribe",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(a.UserID)),
			attribute.Int64("author.id", int64(authorID)),
		),
	)
	defer span.End()

	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	if _, err := repo.GetUser(ctx, s.DB, authorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := repo.DeleteSubscription(ctx, s.DB, a.UserID, authorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotSubscribed
		}
		return err
	}
	return nil
}

// List returns one page of the authors the actor follows, ordered by
// username, and the total number followed.
func (s *SubscriptionService) List(ctx context.Context, a Actor, page, limit, recipesLimit int) ([]SubscriptionView, int64, error) {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(a.UserID)),
			attribute.Int("page", page),
			attribute.Int("limit", limit),
			attribute.Int("recipes_limit", recipesLimit),
		),
	)
	defer span.End()

	if !a.Authenticated() {
		return nil, 0, ErrUnauthenticated
	}
	offset, size := pageWindow(page, limit, s.PageSize, s.MaxPageSize)
	total, err := repo.CountSubscriptions(ctx, s.DB, a.UserID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []SubscriptionView{}, total, nil
	}
	authors, err := repo.ListSubscribedAuthorsPage(ctx, s.DB, a.UserID, offset, size)
	if err != nil {
		return nil, 0, err
	}
	users := make([]UserView, 0, len(authors))
	for _, u := range authors {
		users = append(users, a.userView(u, true))
	}
	views, err := s.withRecipes(ctx, a, users, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *SubscriptionService) withRecipes(ctx context.Context, a Actor, users []UserView, recipesLimit int) ([]SubscriptionView, error) {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := repo.CountRecipesByAuthors(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	if recipesLimit < 0 {
		recipesLimit = 0
	}
	byAuthor, err := repo.RecipesByAuthors(ctx, s.DB, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	out := make([]SubscriptionView, 0, len(users))
	for _, u := range users {
		recipes := make([]RecipeShortView, 0, len(byAuthor[u.ID]))
		for _, r := range byAuthor[u.ID] {
			recipes = append(recipes, a.shortView(r))
		}
		out = append(out, SubscriptionView{
			UserView:     u,
			Recipes:      recipes,
			RecipesCount: counts[u.ID],
		})
	}
	return out, nil
}
