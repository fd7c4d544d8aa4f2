package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/http/middleware"
)

func TestTags(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser("cook")
	e.seedTag("Lunch", "lunch")
	b := e.seedTag("Breakfast", "breakfast")

	tags := decode[[]domain.Tag](t, e.do(req{method: http.MethodGet, path: "/api/tags"}))
	if len(tags) != 2 || tags[0].Slug != "breakfast" {
		t.Fatalf("tags should be ordered by name: %+v", tags)
	}
	got := decode[domain.Tag](t, e.do(req{method: http.MethodGet, path: "/api/tags/" + uintStr(b.ID)}))
	if got.Name != "Breakfast" {
		t.Fatalf("get tag: %+v", got)
	}
	expectError(t, e.do(req{method: http.MethodGet, path: "/api/tags/404"}), http.StatusNotFound, ErrCodeNotFound)

	body := map[string]string{"name": "Dinner", "slug": "dinner"}
	expectError(t, e.do(req{method: http.MethodPost, path: "/api/tags", body: body}), http.StatusUnauthorized, ErrCodeUnauthorized)
	expectError(t, e.do(req{method: http.MethodPost, path: "/api/tags", body: body, user: user.ID}), http.StatusForbidden, ErrCodeForbidden)

	w := e.do(req{method: http.MethodPost, path: "/api/tags", body: body, user: user.ID, role: middleware.RoleAdmin})
	if w.Code != http.StatusCreated {
		t.Fatalf("create tag: %d %s", w.Code, w.Body.String())
	}
	expectError(t, e.do(req{method: http.MethodPost, path: "/api/tags", body: body, user: user.ID, role: middleware.RoleAdmin}),
		http.StatusConflict, ErrCodeConflict)

	er := expectError(t, e.do(req{method: http.MethodPost, path: "/api/tags", user: user.ID, role: middleware.RoleAdmin,
		body: map[string]string{"name": "Bad", "slug": "no spaces"}}), http.StatusBadRequest, ErrCodeValidation)
	if _, has := er.Fields["slug"]; !has {
		t.Fatalf("expected slug field: %+v", er)
	}
}

func TestIngredients(t *testing.T) {
	e := newEnv(t)
	admin := e.seedUser("admin")
	salt := e.seedIngredient("salt", "g")
	e.seedIngredient("sugar", "g")
	e.seedIngredient("pepper", "g")

	items := decode[[]domain.Ingredient](t, e.do(req{method: http.MethodGet, path: "/api/ingredients?name=S"}))
	if len(items) != 2 {
		t.Fatalf("prefix search should be case-insensitive: %+v", items)
	}
	all := decode[[]domain.Ingredient](t, e.do(req{method: http.MethodGet, path: "/api/ingredients"}))
	if len(all) != 3 {
		t.Fatalf("empty prefix lists everything: %+v", all)
	}

	got := decode[domain.Ingredient](t, e.do(req{method: http.MethodGet, path: "/api/ingredients/" + uintStr(salt.ID)}))
	if got.MeasurementUnit != "g" {
		t.Fatalf("get ingredient: %+v", got)
	}
	expectError(t, e.do(req{method: http.MethodGet, path: "/api/ingredients/0"}), http.StatusNotFound, ErrCodeNotFound)

	body := map[string]string{"name": "flour", "measurement_unit": "kg"}
	if w := e.do(req{method: http.MethodPost, path: "/api/ingredients", body: body, user: admin.ID, role: middleware.RoleAdmin}); w.Code != http.StatusCreated {
		t.Fatalf("create ingredient: %d %s", w.Code, w.Body.String())
	}
	expectError(t, e.do(req{method: http.MethodPost, path: "/api/ingredients", body: body, user: admin.ID, role: middleware.RoleAdmin}),
		http.StatusConflict, ErrCodeConflict)
}
