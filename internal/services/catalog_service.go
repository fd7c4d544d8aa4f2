// Package services – CatalogService
//
// This file serves the shared reference data: tags and ingredients. Reads
// are public; creation is reserved to administrators by the router. Bulk
// ingredient import skips pairs that already exist.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TagInput is the payload of tag creation.
type TagInput struct {
	Name string `json:"name" validate:"required,max=32"      example:"Breakfast"`
	Slug string `json:"slug" validate:"required,max=32,slug" example:"breakfast"`
}

// IngredientCreateInput is the payload of ingredient creation and one entry
// of an import file.
type IngredientCreateInput struct {
	Name            string `json:"name"             yaml:"name"             validate:"required,max=128" example:"salt"`
	MeasurementUnit string `json:"measurement_unit" yaml:"measurement_unit" validate:"required,max=64"  example:"g"`
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Created int64
	Skipped int64
}

// CatalogService serves tags and ingredients.
type CatalogService struct {
	DB *gorm.DB

	// ImportBatchSize bounds rows per INSERT during import.
	ImportBatchSize int
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db, ImportBatchSize: 500}
}

// ListTags returns every tag ordered by name.
func (s *CatalogService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "ListTags")
	defer span.End()

	tags, err := repo.ListTags(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, nil
}

// GetTag returns one tag.
func (s *CatalogService) GetTag(ctx context.Context, id uint) (*domain.Tag, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "GetTag",
		trace.WithAttributes(attribute.Int64("tag.id", int64(id))),
	)
	defer span.End()

	t, err := repo.GetTag(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	return t, err
}

// CreateTag adds a tag. A taken name or slug yields ErrTagExists.
func (s *CatalogService) CreateTag(ctx context.Context, in TagInput) (*domain.Tag, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "CreateTag")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := check(in); err != nil {
		return nil, err
	}
	t := &domain.Tag{Name: in.Name, Slug: in.Slug}
	if err := repo.CreateTag(ctx, s.DB, t); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrTagExists
		}
		return nil, err
	}
	return t, nil
}

// ListIngredients returns ingredients whose name starts with prefix,
// ignoring case; every ingredient when prefix is blank.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]domain.Ingredient, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "ListIngredients",
		trace.WithAttributes(attribute.String("prefix", prefix)),
	)
	defer span.End()

	out, err := repo.ListIngredients(ctx, s.DB, prefix)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Ingredient{}
	}
	return out, nil
}

// GetIngredient returns one ingredient.
func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "GetIngredient",
		trace.WithAttributes(attribute.Int64("ingredient.id", int64(id))),
	)
	defer span.End()

	in, err := repo.GetIngredient(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrIngredientNotFound
	}
	return in, err
}

// CreateIngredient adds an ingredient. A taken (name, unit) pair yields
// ErrIngredientExists.
func (s *CatalogService) CreateIngredient(ctx context.Context, in IngredientCreateInput) (*domain.Ingredient, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "CreateIngredient")
	defer span.End()

	in = normalizeIngredient(in)
	if err := check(in); err != nil {
		return nil, err
	}
	row := &domain.Ingredient{Name: in.Name, MeasurementUnit: in.MeasurementUnit}
	if err := repo.CreateIngredient(ctx, s.DB, row); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrIngredientExists
		}
		return nil, err
	}
	return row, nil
}

// ImportIngredients validates every entry, drops duplicates within the
// batch, and inserts the rest, skipping pairs already stored. Nothing is
// written when any entry is invalid.
func (s *CatalogService) ImportIngredients(ctx context.Context, items []IngredientCreateInput) (ImportResult, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "ImportIngredients",
		trace.WithAttributes(attribute.Int("items", len(items))),
	)
	defer span.End()

	type pair struct{ name, unit string }
	seen := make(map[pair]bool, len(items))
	rows := make([]domain.Ingredient, 0, len(items))
	for i, it := range items {
		it = normalizeIngredient(it)
		if err := check(it); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return ImportResult{}, invalid("items", "entry %d: %s", i+1, ve.Error())
			}
			return ImportResult{}, err
		}
		k := pair{it.Name, it.MeasurementUnit}
		if seen[k] {
			continue
		}
		seen[k] = true
		rows = append(rows, domain.Ingredient{Name: it.Name, MeasurementUnit: it.MeasurementUnit})
	}

	created, err := repo.ImportIngredients(ctx, s.DB, rows, s.ImportBatchSize)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Created: created, Skipped: int64(len(items)) - created}, nil
}

func normalizeIngredient(in IngredientCreateInput) IngredientCreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.MeasurementUnit = strings.TrimSpace(in.MeasurementUnit)
	return in
}
