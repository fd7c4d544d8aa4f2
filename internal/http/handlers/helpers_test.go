package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/http/middleware"
	"github.com/tbourn/go-recipes-backend/internal/repo"
	"github.com/tbourn/go-recipes-backend/internal/services"
	"github.com/tbourn/go-recipes-backend/internal/shortlink"
	"github.com/tbourn/go-recipes-backend/internal/storage"
)

const (
	testSecret   = "handler-test-secret"
	testOrigin   = "http://api.test"
	testFrontend = "http://front.test"
	testPassword = "password123"
)

// 1x1 transparent PNG.
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type testEnv struct {
	t  *testing.T
	db *gorm.DB
	r  *gin.Engine
}

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newEnv wires real services over an in-memory database and mounts the
// routes the way the router does, minus the cross-cutting middleware.
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)

	st, err := storage.NewLocal(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	users := services.NewUserService(db, st)
	users.HashCost = bcrypt.MinCost

	h := New(Services{
		Users:         users,
		Catalog:       services.NewCatalogService(db),
		Recipes:       services.NewRecipeService(db, st, shortlink.HashGenerator{Secret: "short-secret"}),
		Collections:   services.NewCollectionService(db),
		Subscriptions: services.NewSubscriptionService(db),
		Shopping:      services.NewShoppingService(db, "en"),
	}, Options{PublicBaseURL: testOrigin + "/", FrontendURL: testFrontend})

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Authenticate(middleware.AuthOptions{Secret: testSecret}),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil),
	)
	auth := middleware.RequireAuth()
	admin := middleware.RequireAdmin()

	r.GET("/s/:code", h.FollowShortLink)
	api := r.Group("/api")
	api.POST("/users", h.Register)
	api.GET("/users", h.ListUsers)
	api.GET("/users/me", auth, h.Me)
	api.PUT("/users/me/avatar", auth, h.SetAvatar)
	api.DELETE("/users/me/avatar", auth, h.DeleteAvatar)
	api.POST("/users/set_password", auth, h.SetPassword)
	api.GET("/users/subscriptions", auth, h.ListSubscriptions)
	api.GET("/users/:id", h.GetUser)
	api.POST("/users/:id/subscribe", auth, h.Subscribe)
	api.DELETE("/users/:id/subscribe", auth, h.Unsubscribe)

	api.GET("/tags", h.ListTags)
	api.GET("/tags/:id", h.GetTag)
	api.POST("/tags", admin, h.CreateTag)
	api.GET("/ingredients", h.ListIngredients)
	api.GET("/ingredients/:id", h.GetIngredient)
	api.POST("/ingredients", admin, h.CreateIngredient)

	api.GET("/recipes", h.ListRecipes)
	api.POST("/recipes", auth, h.CreateRecipe)
	api.GET("/recipes/download_shopping_cart", auth, h.DownloadShoppingCart)
	api.GET("/recipes/:id", h.GetRecipe)
	api.PATCH("/recipes/:id", auth, h.UpdateRecipe)
	api.DELETE("/recipes/:id", auth, h.DeleteRecipe)
	api.GET("/recipes/:id/get-link", h.GetLink)
	api.POST("/recipes/:id/favorite", auth, h.AddFavorite)
	api.DELETE("/recipes/:id/favorite", auth, h.RemoveFavorite)
	api.POST("/recipes/:id/shopping_cart", auth, h.AddToCart)
	api.DELETE("/recipes/:id/shopping_cart", auth, h.RemoveFromCart)

	return &testEnv{t: t, db: db, r: r}
}

// req describes one call; zero values mean anonymous, no body, no headers.
type req struct {
	method string
	path   string
	body   any
	user   uint
	role   string
	header map[string]string
}

func (e *testEnv) do(rq req) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if rq.body != nil {
		if s, isRaw := rq.body.(string); isRaw {
			body = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(rq.body)
			if err != nil {
				e.t.Fatalf("marshal: %v", err)
			}
			body = bytes.NewReader(b)
		}
	}
	hr := httptest.NewRequest(rq.method, rq.path, body)
	if rq.body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	if rq.user != 0 {
		hr.Header.Set("Authorization", "Bearer "+e.token(rq.user, rq.role))
	}
	for k, v := range rq.header {
		hr.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, hr)
	return w
}

func (e *testEnv) token(uid uint, role string) string {
	e.t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		e.t.Fatalf("sign: %v", err)
	}
	return s
}

func (e *testEnv) seedUser(username string) domain.User {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	u := domain.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First " + username,
		LastName:     "Last",
		PasswordHash: string(hash),
	}
	if err := e.db.Create(&u).Error; err != nil {
		e.t.Fatalf("seed user: %v", err)
	}
	return u
}

func (e *testEnv) seedTag(name, slug string) domain.Tag {
	e.t.Helper()
	tg := domain.Tag{Name: name, Slug: slug}
	if err := e.db.Create(&tg).Error; err != nil {
		e.t.Fatalf("seed tag: %v", err)
	}
	return tg
}

func (e *testEnv) seedIngredient(name, unit string) domain.Ingredient {
	e.t.Helper()
	in := domain.Ingredient{Name: name, MeasurementUnit: unit}
	if err := e.db.Create(&in).Error; err != nil {
		e.t.Fatalf("seed ingredient: %v", err)
	}
	return in
}

// recipeBody is a valid create payload.
func recipeBody(name string, tag uint, ingredients map[uint]int) map[string]any {
	ings := make([]map[string]any, 0, len(ingredients))
	for id, amount := range ingredients {
		ings = append(ings, map[string]any{"id": id, "amount": amount})
	}
	return map[string]any{
		"name":         name,
		"text":         "Mix and cook.",
		"cooking_time": 15,
		"image":        pngDataURI,
		"tags":         []uint{tag},
		"ingredients":  ings,
	}
}

// createRecipe posts a recipe as uid and returns its view.
func (e *testEnv) createRecipe(uid uint, body map[string]any) services.RecipeView {
	e.t.Helper()
	w := e.do(req{method: http.MethodPost, path: "/api/recipes", body: body, user: uid})
	if w.Code != http.StatusCreated {
		e.t.Fatalf("create recipe: %d %s", w.Code, w.Body.String())
	}
	return decode[services.RecipeView](e.t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code = %q, want %q", er.Code, code)
	}
	return er
}

func uintStr(id uint) string { return strconv.FormatUint(uint64(id), 10) }
