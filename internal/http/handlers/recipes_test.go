package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-recipes-backend/internal/http/middleware"
	"github.com/tbourn/go-recipes-backend/internal/services"
)

func TestCreateRecipe(t *testing.T) {
	e := newEnv(t)
	cook := e.seedUser("cook")
	tag := e.seedTag("Lunch", "lunch")
	salt := e.seedIngredient("salt", "g")

	body := recipeBody("<b>Soup</b>", tag.ID, map[uint]int{salt.ID: 5})
	expectError(t, e.do(req{method: http.MethodPost, path: "/api/recipes", body: body}), http.StatusUnauthorized, ErrCodeUnauthorized)

	r := e.createRecipe(cook.ID, body)
	if r.Name != "Soup" || r.Author.ID != cook.ID || len(r.Tags) != 1 || len(r.Ingredients) != 1 {
		t.Fatalf("unexpected recipe: %+v", r)
	}
	if r.Ingredients[0].Amount != 5 || r.Ingredients[0].MeasurementUnit != "g" {
		t.Fatalf("ingredient line: %+v", r.Ingredients[0])
	}
	if !strings.HasPrefix(r.Image, testOrigin+"/media/recipes/") {
		t.Fatalf("image = %q", r.Image)
	}

	bad := recipeBody("Soup", tag.ID, map[uint]int{salt.ID: 5})
	bad["cooking_time"] = 0
	er := expectError(t, e.do(req{method: http.MethodPost, path: "/api/recipes", body: bad, user: cook.ID}), http.StatusBadRequest, ErrCodeValidation)
	if _, has := er.Fields["cooking_time"]; !has {
		t.Fatalf("expected cooking_time field: %+v", er)
	}

	missing := recipeBody("Soup", 999, map[uint]int{salt.ID: 5})
	er = expectError(t, e.do(req{method: http.MethodPost, path: "/api/recipes", body: missing, user: cook.ID}), http.StatusBadRequest, ErrCodeValidation)
	if _, has := er.Fields["tags"]; !has {
		t.Fatalf("expected tags field: %+v", er)
	}
}

func TestCreateRecipe_IdempotentReplay(t *testing.T) {
	e := newEnv(t)
	cook := e.seedUser("cook")
	tag := e.seedTag("Lunch", "lunch")
	salt := e.seedIngredient("salt", "g")
	body := recipeBody("Soup", tag.ID, map[uint]int{salt.ID: 5})
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "create-soup-1"}

	w1 := e.do(req{method: http.MethodPost, path: "/api/recipes", body: body, user: cook.ID, header: hdr})
	if w1.Code != http.StatusCreated || w1.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first create: %d %v", w1.Code, w1.Header())
	}
	w2 := e.do(req{method: http.MethodPost, path: "/api/recipes", body: body, user: cook.ID, header: hdr})
	if w2.Code != http.StatusCreated || w2.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay: %d %v", w2.Code, w2.Header())
	}
	if decode[services.RecipeView](t, w1).ID != decode[services.RecipeView](t, w2).ID {
		t.Fatalf("replay must return the first recipe")
	}

	var n int64
	e.db.Table("recipes").Count(&n)
	if n != 1 {
		t.Fatalf("replay must not write, got %d recipes", n)
	}
}

func TestListRecipes_FiltersPagingAndETag(t *testing.T) {
	e := newEnv(t)
	ann := e.seedUser("ann")
	bob := e.seedUser("bob")
	lunch := e.seedTag("Lunch", "lunch")
	dinner := e.seedTag("Dinner", "dinner")
	salt := e.seedIngredient("salt", "g")

	r1 := e.createRecipe(ann.ID, recipeBody("One", lunch.ID, map[uint]int{salt.ID: 1}))
	e.createRecipe(bob.ID, recipeBody("Two", dinner.ID, map[uint]int{salt.ID: 1}))
	r3 := e.createRecipe(ann.ID, recipeBody("Three", dinner.ID, map[uint]int{salt.ID: 1}))

	w := e.do(req{method: http.MethodGet, path: "/api/recipes?limit=2"})
	p := decode[Page[services.RecipeView]](t, w)
	if p.Count != 3 || len(p.Results) != 2 || p.Results[0].ID != r3.ID || p.Next == nil {
		t.Fatalf("newest first, paged: %+v", p)
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("anonymous list should carry a weak ETag, got %q", etag)
	}
	w = e.do(req{method: http.MethodGet, path: "/api/recipes?limit=2", header: map[string]string{"If-None-Match": etag}})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
	e.createRecipe(bob.ID, recipeBody("Four", lunch.ID, map[uint]int{salt.ID: 1}))
	w = e.do(req{method: http.MethodGet, path: "/api/recipes?limit=2", header: map[string]string{"If-None-Match": etag}})
	if w.Code != http.StatusOK {
		t.Fatalf("a new recipe must change the ETag, got %d", w.Code)
	}

	if w := e.do(req{method: http.MethodGet, path: "/api/recipes", user: ann.ID}); w.Header().Get("ETag") != "" {
		t.Fatalf("authenticated lists carry per-viewer flags and no ETag")
	}

	p = decode[Page[services.RecipeView]](t, e.do(req{method: http.MethodGet, path: "/api/recipes?author=" + uintStr(ann.ID) + "&tags=lunch"}))
	if p.Count != 1 || p.Results[0].ID != r1.ID {
		t.Fatalf("author+tag filter: %+v", p)
	}
	p = decode[Page[services.RecipeView]](t, e.do(req{method: http.MethodGet, path: "/api/recipes?tags=lunch&tags=dinner"}))
	if p.Count != 4 {
		t.Fatalf("tags are any-of: %d", p.Count)
	}
	expectError(t, e.do(req{method: http.MethodGet, path: "/api/recipes?author=abc"}), http.StatusBadRequest, ErrCodeValidation)

	if w := e.do(req{method: http.MethodPost, path: "/api/recipes/" + uintStr(r1.ID) + "/favorite", user: bob.ID}); w.Code != http.StatusCreated {
		t.Fatalf("favorite: %d", w.Code)
	}
	p = decode[Page[services.RecipeView]](t, e.do(req{method: http.MethodGet, path: "/api/recipes?is_favorited=1", user: bob.ID}))
	if p.Count != 1 || !p.Results[0].IsFavorited {
		t.Fatalf("favorited filter: %+v", p)
	}
	p = decode[Page[services.RecipeView]](t, e.do(req{method: http.MethodGet, path: "/api/recipes?is_favorited=1"}))
	if p.Count != 4 {
		t.Fatalf("membership filters are ignored for anonymous viewers: %d", p.Count)
	}
}

func TestRecipe_GetUpdateDelete(t *testing.T) {
	e := newEnv(t)
	ann := e.seedUser("ann")
	bob := e.seedUser("bob")
	lunch := e.seedTag("Lunch", "lunch")
	salt := e.seedIngredient("salt", "g")
	pepper := e.seedIngredient("pepper", "g")
	r := e.createRecipe(ann.ID, recipeBody("Soup", lunch.ID, map[uint]int{salt.ID: 1}))
	path := "/api/recipes/" + uintStr(r.ID)

	if got := decode[services.RecipeView](t, e.do(req{method: http.MethodGet, path: path})); got.Name != "Soup" {
		t.Fatalf("get: %+v", got)
	}
	expectError(t, e.do(req{method: http.MethodGet, path: "/api/recipes/999"}), http.StatusNotFound, ErrCodeNotFound)

	patch := map[string]any{
		"name":        "Spicy soup",
		"tags":        []uint{lunch.ID},
		"ingredients": []map[string]any{{"id": pepper.ID, "amount": 2}},
	}
	expectError(t, e.do(req{method: http.MethodPatch, path: path, body: patch, user: bob.ID}), http.StatusForbidden, ErrCodeForbidden)
	w := e.do(req{method: http.MethodPatch, path: path, body: patch, user: ann.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", w.Code, w.Body.String())
	}
	got := decode[services.RecipeView](t, w)
	if got.Name != "Spicy soup" || got.CookingTime != 15 || len(got.Ingredients) != 1 || got.Ingredients[0].ID != pepper.ID {
		t.Fatalf("patched: %+v", got)
	}
	delete(patch, "tags")
	er := expectError(t, e.do(req{method: http.MethodPatch, path: path, body: patch, user: ann.ID}), http.StatusBadRequest, ErrCodeValidation)
	if _, has := er.Fields["tags"]; !has {
		t.Fatalf("tags are required on update: %+v", er)
	}

	expectError(t, e.do(req{method: http.MethodDelete, path: path, user: bob.ID}), http.StatusForbidden, ErrCodeForbidden)
	if w := e.do(req{method: http.MethodDelete, path: path, user: ann.ID}); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	expectError(t, e.do(req{method: http.MethodGet, path: path}), http.StatusNotFound, ErrCodeNotFound)
}

func TestShortLinks(t *testing.T) {
	e := newEnv(t)
	ann := e.seedUser("ann")
	lunch := e.seedTag("Lunch", "lunch")
	salt := e.seedIngredient("salt", "g")
	r := e.createRecipe(ann.ID, recipeBody("Soup", lunch.ID, map[uint]int{salt.ID: 1}))

	w := e.do(req{method: http.MethodGet, path: "/api/recipes/" + uintStr(r.ID) + "/get-link"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"short-link"`) {
		t.Fatalf("get-link: %d %s", w.Code, w.Body.String())
	}
	link := decode[ShortLinkResponse](t, w).ShortLink
	if !strings.HasPrefix(link, testOrigin+"/s/") {
		t.Fatalf("short link = %q", link)
	}
	again := decode[ShortLinkResponse](t, e.do(req{method: http.MethodGet, path: "/api/recipes/" + uintStr(r.ID) + "/get-link"}))
	if again.ShortLink != link {
		t.Fatalf("short link must be stable: %q vs %q", again.ShortLink, link)
	}
	expectError(t, e.do(req{method: http.MethodGet, path: "/api/recipes/999/get-link"}), http.StatusNotFound, ErrCodeNotFound)

	w = e.do(req{method: http.MethodGet, path: strings.TrimPrefix(link, testOrigin)})
	if w.Code != http.StatusFound || w.Header().Get("Location") != testFrontend+"/recipes/"+uintStr(r.ID)+"/" {
		t.Fatalf("redirect: %d %q", w.Code, w.Header().Get("Location"))
	}
	w = e.do(req{method: http.MethodGet, path: "/s/unknown"})
	if w.Code != http.StatusFound || w.Header().Get("Location") != testFrontend+"/" {
		t.Fatalf("unknown code redirect: %d %q", w.Code, w.Header().Get("Location"))
	}
}
