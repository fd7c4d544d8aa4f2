package services

import (
	"context"
	"errors"
	"testing"
)

func TestSubscriptionService_SubscribeUnsubscribe(t *testing.T) {
	db := newSvcDB(t)
	s := NewSubscriptionService(db)
	ctx := context.Background()
	ann := seedUser(t, db, "ann")
	bob := seedUser(t, db, "bob")
	a := Actor{UserID: bob.ID}

	if _, err := s.Subscribe(ctx, a, bob.ID, 0); !errors.Is(err, ErrSelfSubscription) {
		t.Fatalf("want ErrSelfSubscription, got %v", err)
	}
	if _, err := s.Subscribe(ctx, a, 999, 0); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
	if _, err := s.Subscribe(ctx, Actor{}, ann.ID, 0); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}

	v, err := s.Subscribe(ctx, a, ann.ID, 0)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if v.ID != ann.ID || !v.IsSubscribed || v.RecipesCount != 0 || len(v.Recipes) != 0 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if _, err := s.Subscribe(ctx, a, ann.ID, 0); !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("want ErrAlreadySubscribed, got %v", err)
	}

	if err := s.Unsubscribe(ctx, a, ann.ID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := s.Unsubscribe(ctx, a, ann.ID); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("want ErrNotSubscribed, got %v", err)
	}
	if err := s.Unsubscribe(ctx, a, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestSubscriptionService_ListWithRecipePreview(t *testing.T) {
	db := newSvcDB(t)
	s := NewSubscriptionService(db)
	rs := newRecipeSvc(t, db, newMemStorage())
	ctx := context.Background()
	ann := seedUser(t, db, "ann")
	cid := seedUser(t, db, "cid")
	bob := seedUser(t, db, "bob")
	tag := seedTag(t, db, "lunch")
	salt := seedIngredient(t, db, "salt", "g")
	line := IngredientInput{ID: salt.ID, Amount: 1}

	var last *RecipeView
	for _, name := range []string{"A1", "A2", "A3"} {
		last = mustCreate(t, rs, ann.ID, fullInput(name, []uint{tag.ID}, line))
	}
	mustCreate(t, rs, cid.ID, fullInput("C1", []uint{tag.ID}, line))

	a := Actor{UserID: bob.ID}
	for _, id := range []uint{cid.ID, ann.ID} {
		if _, err := s.Subscribe(ctx, a, id, 0); err != nil {
			t.Fatalf("subscribe %d: %v", id, err)
		}
	}

	views, total, err := s.List(ctx, a, 1, 10, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(views) != 2 {
		t.Fatalf("want 2 subscriptions, got total=%d len=%d", total, len(views))
	}
	if views[0].Username != "ann" || views[1].Username != "cid" {
		t.Fatalf("want username order, got %s, %s", views[0].Username, views[1].Username)
	}
	if views[0].RecipesCount != 3 {
		t.Fatalf("recipes_count counts every recipe, got %d", views[0].RecipesCount)
	}
	if len(views[0].Recipes) != 2 || views[0].Recipes[0].ID != last.ID {
		t.Fatalf("preview should be the 2 newest recipes: %+v", views[0].Recipes)
	}
	if !views[0].IsSubscribed {
		t.Fatalf("listed authors are subscribed")
	}

	// A non-positive limit means no cap.
	uncapped, _, _ := s.List(ctx, a, 1, 10, -1)
	if len(uncapped[0].Recipes) != 3 {
		t.Fatalf("invalid recipes_limit should be ignored, got %d recipes", len(uncapped[0].Recipes))
	}

	paged, total, _ := s.List(ctx, a, 2, 1, 0)
	if total != 2 || len(paged) != 1 || paged[0].Username != "cid" {
		t.Fatalf("page 2 of size 1 should hold cid: %+v", paged)
	}

	empty, total, err := s.List(ctx, Actor{UserID: ann.ID}, 1, 10, 0)
	if err != nil || total != 0 || len(empty) != 0 {
		t.Fatalf("ann follows nobody: %v %d %v", empty, total, err)
	}
}
