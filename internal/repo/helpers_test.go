package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-recipes-backend/internal/domain"
)

// newTestDB opens a private in-memory database with foreign keys on. When
// migrate is true the full schema is created.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Email: username + "@example.com", Username: username, PasswordHash: "x"}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedTag(t *testing.T, db *gorm.DB, slug string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{Name: strings.ToUpper(slug), Slug: slug}
	if err := CreateTag(context.Background(), db, tag); err != nil {
		t.Fatalf("seed tag %s: %v", slug, err)
	}
	return tag
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) *domain.Ingredient {
	t.Helper()
	in := &domain.Ingredient{Name: name, MeasurementUnit: unit}
	if err := CreateIngredient(context.Background(), db, in); err != nil {
		t.Fatalf("seed ingredient %s: %v", name, err)
	}
	return in
}

// seedRecipe creates a recipe with the given tags and ingredient amounts.
func seedRecipe(t *testing.T, db *gorm.DB, authorID uint, name string, tagIDs []uint, items []IngredientAmount) *domain.Recipe {
	t.Helper()
	ctx := context.Background()
	r := &domain.Recipe{AuthorID: authorID, Name: name, Image: "/media/recipes/" + name + ".png", Text: "text", CookingTime: 10}
	if err := CreateRecipe(ctx, db, r); err != nil {
		t.Fatalf("seed recipe %s: %v", name, err)
	}
	if err := ReplaceRecipeTags(ctx, db, r.ID, tagIDs); err != nil {
		t.Fatalf("seed recipe tags: %v", err)
	}
	if err := ReplaceRecipeIngredients(ctx, db, r.ID, items); err != nil {
		t.Fatalf("seed recipe ingredients: %v", err)
	}
	return r
}

func boolPtr(b bool) *bool { return &b }
