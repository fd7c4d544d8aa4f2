// Package services – RecipeService
//
// This file implements RecipeService, which owns the recipe authoring
// workflow: validation of the submitted payload, storage of the uploaded
// image, the single transaction that writes the recipe row together with its
// tags and ingredient amounts, and the read-back into RecipeView. It also
// serves listings, share codes and short-code resolution.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/repo"
	"github.com/tbourn/go-recipes-backend/internal/shortlink"
	"github.com/tbourn/go-recipes-backend/internal/storage"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ScopeCreateRecipe is the idempotency scope of recipe creation.
const ScopeCreateRecipe = "recipes.create"

const (
	recipeNameMaxLen = 256
	recipeImageDir   = "recipes"
)

// IngredientInput is one ingredient line of a recipe write.
type IngredientInput struct {
	ID     uint `json:"id"     example:"3"`
	Amount int  `json:"amount" example:"5"`
}

// RecipeInput is the payload of a recipe create or update. Nil fields are
// absent from the request. Create needs every field; update needs Tags and
// Ingredients and leaves absent scalar fields unchanged.
type RecipeInput struct {
	Name        *string            `json:"name"         example:"Soup"`
	Text        *string            `json:"text"         example:"Boil water, add salt."`
	CookingTime *int               `json:"cooking_time" example:"30"`
	Image       *string            `json:"image"        example:"data:image/png;base64,iVBORw0KGgo..."`
	Tags        *[]uint            `json:"tags"`
	Ingredients *[]IngredientInput `json:"ingredients"`
}

// RecipeQuery holds the list filters of GET /recipes.
type RecipeQuery struct {
	AuthorID  uint
	TagSlugs  []string
	Favorited *bool
	InCart    *bool
}

// RecipeService provides the recipe workflow.
type RecipeService struct {
	DB         *gorm.DB
	Storage    storage.Storage
	ShortLinks shortlink.Generator
	Policy     *bluemonday.Policy

	PageSize       int
	MaxPageSize    int
	IdempotencyTTL time.Duration
}

// NewRecipeService constructs a RecipeService with default paging, a strict
// markup policy and a 24h idempotency window.
func NewRecipeService(db *gorm.DB, st storage.Storage, gen shortlink.Generator) *RecipeService {
	return &RecipeService{
		DB:             db,
		Storage:        st,
		ShortLinks:     gen,
		Policy:         bluemonday.StrictPolicy(),
		PageSize:       DefaultPageSize,
		MaxPageSize:    MaxPageSize,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// recipeWrite is a validated RecipeInput.
type recipeWrite struct {
	fields map[string]any
	tagIDs []uint
	items  []repo.IngredientAmount
}

// Create validates the input, stores the image and writes the recipe with
// its tags, ingredient amounts and share code in one transaction. When
// idemKey is set and a live record exists for (actor, key), the recipe made
// by the first request is returned with replayed=true and nothing is written.
func (s *RecipeService) Create(ctx context.Context, a Actor, in RecipeInput, idemKey string) (view *RecipeView, replayed bool, err error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(a.UserID)),
			attribute.Bool("idempotent", idemKey != ""),
		),
	)
	defer span.End()

	if err := requireUser(ctx, s.DB, a); err != nil {
		return nil, false, err
	}

	if idemKey != "" {
		rec, err := repo.GetIdempotency(ctx, s.DB, a.UserID, ScopeCreateRecipe, idemKey, time.Now().UTC())
		switch {
		case err == nil:
			v, err := s.Get(ctx, a, rec.ResourceID)
			if err == nil {
				return v, true, nil
			}
			// The first recipe was deleted since; treat the key as fresh.
			if !errors.Is(err, ErrRecipeNotFound) {
				return nil, false, err
			}
		case !errors.Is(err, repo.ErrNotFound):
			return nil, false, err
		}
	}

	w, err := s.validate(in, true)
	if err != nil {
		return nil, false, err
	}
	imageURL, err := s.saveImage(ctx, *in.Image)
	if err != nil {
		return nil, false, err
	}

	var id uint
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(ctx, tx, w); err != nil {
			return err
		}
		r := &domain.Recipe{
			AuthorID:    a.UserID,
			Name:        w.fields["name"].(string),
			Text:        w.fields["text"].(string),
			CookingTime: w.fields["cooking_time"].(int),
			Image:       imageURL,
		}
		if err := repo.CreateRecipe(ctx, tx, r); err != nil {
			return err
		}
		if err := repo.SetShortLinkCode(ctx, tx, r.ID, s.ShortLinks.Code(r.ID)); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrShortLinkConflict
			}
			return err
		}
		if err := repo.ReplaceRecipeTags(ctx, tx, r.ID, w.tagIDs); err != nil {
			return err
		}
		if err := repo.ReplaceRecipeIngredients(ctx, tx, r.ID, w.items); err != nil {
			return err
		}
		id = r.ID
		return nil
	})
	if err != nil {
		_ = s.Storage.Delete(ctx, imageURL)
		if errors.Is(err, repo.ErrMissingReference) {
			err = ErrReferenceGone
		}
		return nil, false, err
	}
	recipesCreated.Inc()
	span.SetAttributes(attribute.Int64("recipe.id", int64(id)))

	if idemKey != "" {
		// Best effort: losing the record only disables replay for this key.
		_, _ = repo.CreateIdempotency(ctx, s.DB, a.UserID, ScopeCreateRecipe, idemKey, id, http.StatusCreated, s.IdempotencyTTL)
	}

	view, err = s.Get(ctx, a, id)
	return view, false, err
}

// Update replaces the tag set and ingredient lines of the actor's recipe and
// applies the scalar fields that are present. A new image replaces the old
// one, which is deleted after commit.
func (s *RecipeService) Update(ctx context.Context, a Actor, id uint, in RecipeInput) (*RecipeView, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.Int64("recipe.id", int64(id)),
			attribute.Int64("user.id", int64(a.UserID)),
		),
	)
	defer span.End()

	current, err := s.authored(ctx, a, id)
	if err != nil {
		return nil, err
	}
	w, err := s.validate(in, false)
	if err != nil {
		return nil, err
	}

	var newImage string
	if in.Image != nil {
		if newImage, err = s.saveImage(ctx, *in.Image); err != nil {
			return nil, err
		}
		w.fields["image"] = newImage
	}
	w.fields["updated_at"] = time.Now()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(ctx, tx, w); err != nil {
			return err
		}
		if err := repo.UpdateRecipeFields(ctx, tx, id, w.fields); err != nil {
			return err
		}
		if err := repo.ReplaceRecipeTags(ctx, tx, id, w.tagIDs); err != nil {
			return err
		}
		return repo.ReplaceRecipeIngredients(ctx, tx, id, w.items)
	})
	if err != nil {
		if newImage != "" {
			_ = s.Storage.Delete(ctx, newImage)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if newImage != "" && current.Image != "" {
		_ = s.Storage.Delete(ctx, current.Image)
	}
	return s.Get(ctx, a, id)
}

// Delete removes the actor's recipe with its child rows and memberships.
func (s *RecipeService) Delete(ctx context.Context, a Actor, id uint) error {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.Int64("recipe.id", int64(id)),
			attribute.Int64("user.id", int64(a.UserID)),
		),
	)
	defer span.End()

	current, err := s.authored(ctx, a, id)
	if err != nil {
		return err
	}
	if err := repo.DeleteRecipe(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	if current.Image != "" {
		_ = s.Storage.Delete(ctx, current.Image)
	}
	return nil
}

// Get returns the full representation of a recipe as seen by a.
func (s *RecipeService) Get(ctx context.Context, a Actor, id uint) (*RecipeView, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("recipe.id", int64(id))),
	)
	defer span.End()

	r, err := repo.GetRecipe(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	views, err := s.views(ctx, a, []domain.Recipe{*r})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns one page of recipes, newest first, and the total number of
// matches. Membership filters are ignored for anonymous viewers.
func (s *RecipeService) List(ctx context.Context, a Actor, q RecipeQuery, page, limit int) ([]RecipeView, int64, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	offset, size := pageWindow(page, limit, s.PageSize, s.MaxPageSize)
	f := s.filter(a, q)

	total, err := repo.CountRecipes(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []RecipeView{}, total, nil
	}
	rows, err := repo.ListRecipesPage(ctx, s.DB, f, offset, size)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, a, rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// ListETag returns a weak validator for the page List would return to an
// anonymous viewer. Authenticated responses carry per-viewer flags and get
// no validator, so "" is returned for them.
func (s *RecipeService) ListETag(ctx context.Context, a Actor, q RecipeQuery, page, limit int) (string, error) {
	if a.Authenticated() {
		return "", nil
	}
	f := s.filter(a, q)
	count, maxUpdated, err := repo.RecipesStats(ctx, s.DB, f)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxUpdated != nil {
		ts = maxUpdated.UTC().UnixNano()
	}
	_, size := pageWindow(page, limit, s.PageSize, s.MaxPageSize)
	if page < 1 {
		page = 1
	}

	slugs := append([]string(nil), q.TagSlugs...)
	sort.Strings(slugs)
	sum := sha1.Sum([]byte(fmt.Sprintf("%d|%s|%d|%d", q.AuthorID, strings.Join(slugs, ","), page, size)))
	return fmt.Sprintf(`W/"recipes-%s-%d-%d"`, hex.EncodeToString(sum[:6]), count, ts), nil
}

// ShortCode returns the share code of a recipe, assigning one to recipes
// that predate code generation.
func (s *RecipeService) ShortCode(ctx context.Context, id uint) (string, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "ShortCode",
		trace.WithAttributes(attribute.Int64("recipe.id", int64(id))),
	)
	defer span.End()

	var r domain.Recipe
	err := s.DB.WithContext(ctx).Select("id", "short_link_code").First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrRecipeNotFound
	}
	if err != nil {
		return "", err
	}
	if r.ShortLinkCode != nil {
		return *r.ShortLinkCode, nil
	}

	code := s.ShortLinks.Code(id)
	switch err := repo.SetShortLinkCode(ctx, s.DB, id, code); {
	case err == nil:
		return code, nil
	case errors.Is(err, repo.ErrDuplicate):
		return "", ErrShortLinkConflict
	case errors.Is(err, repo.ErrNotFound):
		// Assigned concurrently; read the winner.
		return s.ShortCode(ctx, id)
	default:
		return "", err
	}
}

// Resolve maps a share code to its recipe id.
func (s *RecipeService) Resolve(ctx context.Context, code string) (uint, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("short_link.code", code)),
	)
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return 0, ErrShortLinkNotFound
	}
	id, err := repo.RecipeIDByShortCode(ctx, s.DB, code)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, ErrShortLinkNotFound
	}
	return id, err
}

func (s *RecipeService) filter(a Actor, q RecipeQuery) repo.RecipeFilter {
	f := repo.RecipeFilter{AuthorID: q.AuthorID, TagSlugs: q.TagSlugs}
	if a.Authenticated() {
		f.ViewerID = a.UserID
		f.Favorited = q.Favorited
		f.InCart = q.InCart
	}
	return f
}

// authored loads a recipe and checks that a wrote it.
func (s *RecipeService) authored(ctx context.Context, a Actor, id uint) (*domain.Recipe, error) {
	if !a.Authenticated() {
		return nil, ErrUnauthenticated
	}
	var r domain.Recipe
	err := s.DB.WithContext(ctx).Select("id", "author_id", "image").First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.AuthorID != a.UserID {
		return nil, ErrNotAuthor
	}
	return &r, nil
}

// views attaches the viewer-dependent flags to recipes.
func (s *RecipeService) views(ctx context.Context, a Actor, rows []domain.Recipe) ([]RecipeView, error) {
	out := make([]RecipeView, 0, len(rows))
	var (
		favs, cart, subs map[uint]bool
		err              error
	)
	if a.Authenticated() && len(rows) > 0 {
		ids := make([]uint, 0, len(rows))
		authors := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
			authors = append(authors, r.AuthorID)
		}
		if favs, err = repo.MembershipSet(ctx, s.DB, repo.CollectionFavorites, a.UserID, ids); err != nil {
			return nil, err
		}
		if cart, err = repo.MembershipSet(ctx, s.DB, repo.CollectionShoppingCart, a.UserID, ids); err != nil {
			return nil, err
		}
		if subs, err = repo.SubscribedSet(ctx, s.DB, a.UserID, authors); err != nil {
			return nil, err
		}
	}
	for _, r := range rows {
		out = append(out, a.recipeView(r, recipeFlags{
			favorited:  favs[r.ID],
			inCart:     cart[r.ID],
			subscribed: subs[r.AuthorID],
		}))
	}
	return out, nil
}

func (s *RecipeService) saveImage(ctx context.Context, raw string) (string, error) {
	img, err := storage.DecodeImage(raw)
	if err != nil {
		return "", invalid("image", "Upload a valid image.")
	}
	return s.Storage.Save(ctx, storage.NewKey(recipeImageDir, img.Ext), img.Data, img.ContentType)
}

// clean strips markup and surrounding whitespace. Entities produced by the
// sanitizer are decoded again so stored text stays plain.
func (s *RecipeService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.Policy.Sanitize(v)))
}

// validate checks the payload shape. Reference existence is checked inside
// the write transaction by checkReferences.
func (s *RecipeService) validate(in RecipeInput, create bool) (*recipeWrite, error) {
	w := &recipeWrite{fields: map[string]any{}}

	if in.Name != nil {
		name := s.clean(*in.Name)
		switch {
		case name == "":
			return nil, invalid("name", "This field may not be blank.")
		case utf8.RuneCountInString(name) > recipeNameMaxLen:
			return nil, invalid("name", "Ensure this field has no more than %d characters.", recipeNameMaxLen)
		}
		w.fields["name"] = name
	} else if create {
		return nil, invalid("name", "This field is required.")
	}

	if in.Text != nil {
		text := s.clean(*in.Text)
		if text == "" {
			return nil, invalid("text", "This field may not be blank.")
		}
		w.fields["text"] = text
	} else if create {
		return nil, invalid("text", "This field is required.")
	}

	if in.CookingTime != nil {
		if *in.CookingTime < 1 {
			return nil, invalid("cooking_time", "Ensure this value is greater than or equal to 1.")
		}
		w.fields["cooking_time"] = *in.CookingTime
	} else if create {
		return nil, invalid("cooking_time", "This field is required.")
	}

	if in.Image != nil {
		if strings.TrimSpace(*in.Image) == "" {
			return nil, invalid("image", "This field may not be blank.")
		}
	} else if create {
		return nil, invalid("image", "This field is required.")
	}

	if in.Tags == nil {
		return nil, invalid("tags", "This field is required.")
	}
	if len(*in.Tags) == 0 {
		return nil, invalid("tags", "At least one tag is required.")
	}
	seenTags := make(map[uint]bool, len(*in.Tags))
	for _, id := range *in.Tags {
		if id == 0 {
			return nil, invalid("tags", "Invalid tag id.")
		}
		if seenTags[id] {
			return nil, invalid("tags", "Tags must be unique.")
		}
		seenTags[id] = true
		w.tagIDs = append(w.tagIDs, id)
	}

	if in.Ingredients == nil {
		return nil, invalid("ingredients", "This field is required.")
	}
	if len(*in.Ingredients) == 0 {
		return nil, invalid("ingredients", "At least one ingredient is required.")
	}
	seenIngs := make(map[uint]bool, len(*in.Ingredients))
	for _, it := range *in.Ingredients {
		if it.ID == 0 {
			return nil, invalid("ingredients", "Invalid ingredient id.")
		}
		if seenIngs[it.ID] {
			return nil, invalid("ingredients", "Ingredients must be unique.")
		}
		if it.Amount < 1 {
			return nil, invalid("ingredients", "Amount must be at least 1.")
		}
		seenIngs[it.ID] = true
		w.items = append(w.items, repo.IngredientAmount{IngredientID: it.ID, Amount: it.Amount})
	}
	return w, nil
}

// checkReferences verifies that every referenced tag and ingredient exists.
func checkReferences(ctx context.Context, tx *gorm.DB, w *recipeWrite) error {
	tags, err := repo.TagsByIDs(ctx, tx, w.tagIDs)
	if err != nil {
		return err
	}
	found := make(map[uint]bool, len(tags))
	for _, t := range tags {
		found[t.ID] = true
	}
	if missing := missingIDs(w.tagIDs, found); len(missing) > 0 {
		return invalid("tags", "Unknown tag id(s): %s.", joinIDs(missing))
	}

	ingIDs := make([]uint, 0, len(w.items))
	for _, it := range w.items {
		ingIDs = append(ingIDs, it.IngredientID)
	}
	ings, err := repo.IngredientsByIDs(ctx, tx, ingIDs)
	if err != nil {
		return err
	}
	found = make(map[uint]bool, len(ings))
	for _, i := range ings {
		found[i.ID] = true
	}
	if missing := missingIDs(ingIDs, found); len(missing) > 0 {
		return invalid("ingredients", "Unknown ingredient id(s): %s.", joinIDs(missing))
	}
	return nil
}

func missingIDs(want []uint, found map[uint]bool) []uint {
	var out []uint
	for _, id := range want {
		if !found[id] {
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
