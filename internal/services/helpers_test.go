package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/repo"
	"github.com/tbourn/go-recipes-backend/internal/shortlink"
)

// ---------- test helpers ----------

// 1x1 transparent PNG.
const pngB64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

const pngDataURI = "data:image/png;base64," + pngB64

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// memStorage keeps saved objects in memory and records deletions.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	saveErr error
}

func newMemStorage() *memStorage { return &memStorage{objects: map[string][]byte{}} }

func (m *memStorage) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	url := "/media/" + key
	m.objects[url] = data
	return url, nil
}

func (m *memStorage) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, url)
	m.deleted = append(m.deleted, url)
	return nil
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// constGenerator hands out the same code for every id.
type constGenerator string

func (g constGenerator) Code(uint) string { return string(g) }

func newRecipeSvc(t *testing.T, db *gorm.DB, st *memStorage) *RecipeService {
	t.Helper()
	return NewRecipeService(db, st, shortlink.HashGenerator{Secret: "test-secret"})
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: "x",
	}
	if err := repo.CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedTag(t *testing.T, db *gorm.DB, slug string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{Name: strings.ToUpper(slug), Slug: slug}
	if err := repo.CreateTag(context.Background(), db, tag); err != nil {
		t.Fatalf("seed tag %s: %v", slug, err)
	}
	return tag
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) *domain.Ingredient {
	t.Helper()
	in := &domain.Ingredient{Name: name, MeasurementUnit: unit}
	if err := repo.CreateIngredient(context.Background(), db, in); err != nil {
		t.Fatalf("seed ingredient %s: %v", name, err)
	}
	return in
}

func ptr[T any](v T) *T { return &v }

// fullInput builds a complete create payload.
func fullInput(name string, tags []uint, ings ...IngredientInput) RecipeInput {
	return RecipeInput{
		Name:        ptr(name),
		Text:        ptr("Mix and cook."),
		CookingTime: ptr(20),
		Image:       ptr(pngDataURI),
		Tags:        &tags,
		Ingredients: &ings,
	}
}

// mustCreate creates a recipe as author and fails the test on error.
func mustCreate(t *testing.T, s *RecipeService, author uint, in RecipeInput) *RecipeView {
	t.Helper()
	v, _, err := s.Create(context.Background(), Actor{UserID: author}, in, "")
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return v
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	return ve.Field
}
