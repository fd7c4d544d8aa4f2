// Package handlers exposes the REST endpoints of the recipes API.
//
// Handlers are transport-thin: they parse path and query parameters, bind
// JSON, build a services.Actor from the authenticated identity and translate
// service results and errors into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/http/middleware"
	"github.com/tbourn/go-recipes-backend/internal/repo"
	"github.com/tbourn/go-recipes-backend/internal/services"
	"github.com/tbourn/go-recipes-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService manages accounts, avatars and passwords.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.UserView, error)
	Get(ctx context.Context, a services.Actor, id uint) (*services.UserView, error)
	Me(ctx context.Context, a services.Actor) (*services.UserView, error)
	List(ctx context.Context, a services.Actor, page, limit int) ([]services.UserView, int64, error)
	SetAvatar(ctx context.Context, a services.Actor, raw string) (string, error)
	DeleteAvatar(ctx context.Context, a services.Actor) error
	SetPassword(ctx context.Context, a services.Actor, in services.PasswordInput) error
}

// CatalogService serves tags and ingredients.
type CatalogService interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTag(ctx context.Context, id uint) (*domain.Tag, error)
	CreateTag(ctx context.Context, in services.TagInput) (*domain.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error)
	CreateIngredient(ctx context.Context, in services.IngredientCreateInput) (*domain.Ingredient, error)
}

// RecipeService runs the recipe workflow and short links.
type RecipeService interface {
	Create(ctx context.Context, a services.Actor, in services.RecipeInput, idemKey string) (*services.RecipeView, bool, error)
	Update(ctx context.Context, a services.Actor, id uint, in services.RecipeInput) (*services.RecipeView, error)
	Delete(ctx context.Context, a services.Actor, id uint) error
	Get(ctx context.Context, a services.Actor, id uint) (*services.RecipeView, error)
	List(ctx context.Context, a services.Actor, q services.RecipeQuery, page, limit int) ([]services.RecipeView, int64, error)
	ListETag(ctx context.Context, a services.Actor, q services.RecipeQuery, page, limit int) (string, error)
	ShortCode(ctx context.Context, id uint) (string, error)
	Resolve(ctx context.Context, code string) (uint, error)
}

// CollectionService toggles favorites and shopping-cart membership.
type CollectionService interface {
	Add(ctx context.Context, a services.Actor, c repo.Collection, recipeID uint) (*services.RecipeShortView, error)
	Remove(ctx context.Context, a services.Actor, c repo.Collection, recipeID uint) error
}

// SubscriptionService manages follows between users.
type SubscriptionService interface {
	Subscribe(ctx context.Context, a services.Actor, authorID uint, recipesLimit int) (*services.SubscriptionView, error)
	Unsubscribe(ctx context.Context, a services.Actor, authorID uint) error
	List(ctx context.Context, a services.Actor, page, limit, recipesLimit int) ([]services.SubscriptionView, int64, error)
}

// ShoppingService renders the cart as a downloadable list.
type ShoppingService interface {
	Export(ctx context.Context, a services.Actor) (*services.ShoppingList, error)
}

//
// Handler wiring
//

// Options carries the transport settings handlers need.
type Options struct {
	// PublicBaseURL is the origin for share links, media and page links.
	// The request's own scheme and host are used when empty.
	PublicBaseURL string
	// FrontendURL is where short links redirect.
	FrontendURL string

	PageSize    int
	MaxPageSize int
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	users    UserService
	catalog  CatalogService
	recipes  RecipeService
	collect  CollectionService
	subs     SubscriptionService
	shopping ShoppingService
	opts     Options
}

// Services bundles the dependencies of New.
type Services struct {
	Users         UserService
	Catalog       CatalogService
	Recipes       RecipeService
	Collections   CollectionService
	Subscriptions SubscriptionService
	Shopping      ShoppingService
}

// New constructs Handlers bound to the given services.
func New(svc Services, opts Options) *Handlers {
	if opts.PageSize <= 0 {
		opts.PageSize = services.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = services.MaxPageSize
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	return &Handlers{
		users:    svc.Users,
		catalog:  svc.Catalog,
		recipes:  svc.Recipes,
		collect:  svc.Collections,
		subs:     svc.Subscriptions,
		shopping: svc.Shopping,
		opts:     opts,
	}
}

//
// Helpers
//

// origin returns the public origin of this API.
func (h *Handlers) origin(c *gin.Context) string {
	if h.opts.PublicBaseURL != "" {
		return h.opts.PublicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func (h *Handlers) actor(c *gin.Context) services.Actor {
	return services.Actor{UserID: middleware.UserIDFrom(c), BaseURL: h.origin(c)}
}

// pageParams reads page and limit, bounded the same way the services bound them.
func (h *Handlers) pageParams(c *gin.Context) (page, limit int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit = utils.AtoiDefault(c.Query("limit"), h.opts.PageSize)
	if limit < 1 {
		limit = h.opts.PageSize
	}
	if limit > h.opts.MaxPageSize {
		limit = h.opts.MaxPageSize
	}
	return page, limit
}

// pathID parses the :id parameter, answering 404 for anything that is not a
// positive integer.
func pathID(c *gin.Context, what string) (uint, bool) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusNotFound, ErrCodeNotFound, what+" not found")
	}
	return id, valid
}

// bindJSON decodes the body, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}
