// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// authentication, idempotency, rate limiting, CORS, security headers and
// compression.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/docs"
	"github.com/tbourn/go-recipes-backend/internal/config"
	"github.com/tbourn/go-recipes-backend/internal/http/handlers"
	"github.com/tbourn/go-recipes-backend/internal/http/middleware"
	"github.com/tbourn/go-recipes-backend/internal/repo"
	"github.com/tbourn/go-recipes-backend/internal/services"
	"github.com/tbourn/go-recipes-backend/internal/shortlink"
	"github.com/tbourn/go-recipes-backend/internal/storage"
	"github.com/tbourn/go-recipes-backend/internal/utils"
)

// Deps are the infrastructure handles the routes are built on.
type Deps struct {
	DB         *gorm.DB
	Storage    storage.Storage
	ShortLinks shortlink.Generator
}

// downloadPath is excluded from gzip so the attachment keeps its length.
const downloadPath = "/recipes/download_shopping_cart"

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), authentication,
// idempotency and rate limiting, CORS and security headers, health, metrics,
// media and docs endpoints, and then mounts the public API under
// cfg.APIBasePath. Share-link redirects live at /s/:code outside the prefix.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access log with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Authenticate: resolve the bearer token (anonymous when absent)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath

	// Custom tags for gin's binding engine.
	if v, isValidator := binding.Validator.Engine().(*validator.Validate); isValidator {
		_ = utils.RegisterRules(v)
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (images travel base64 in JSON)
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Bearer identity
	r.Use(middleware.Authenticate(middleware.AuthOptions{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	}))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{},
		func(ctx context.Context, userID uint, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, deps.DB, userID, services.ScopeCreateRecipe, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag", middleware.HeaderIdempotencyReplayed}
	methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, listed := allowed[origin]; listed {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
		SkipNoStore:  []string{joinPath(apiBase, "/recipes"), cfg.Storage.MediaURL, "/swagger/", "/s/"},
	}))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{joinPath(apiBase, downloadPath)})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Uploaded media on the local driver
	if local, isLocal := deps.Storage.(*storage.Local); isLocal && local.BaseURL != "" && local.BaseURL != "/" {
		r.Static(local.BaseURL, local.Root)
	}

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(newServices(deps, cfg), handlers.Options{
		PublicBaseURL: cfg.ShortLink.PublicBaseURL,
		FrontendURL:   cfg.ShortLink.FrontendURL,
		PageSize:      cfg.PageSize,
		MaxPageSize:   cfg.MaxPageSize,
	})
	auth := middleware.RequireAuth()
	admin := middleware.RequireAdmin()

	// Share links
	r.GET("/s/:code", h.FollowShortLink)

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Users
		api.POST("/users", h.Register)
		api.GET("/users", h.ListUsers)
		api.GET("/users/me", auth, h.Me)
		api.PUT("/users/me/avatar", auth, h.SetAvatar)
		api.DELETE("/users/me/avatar", auth, h.DeleteAvatar)
		api.POST("/users/set_password", auth, h.SetPassword)
		api.GET("/users/:id", h.GetUser)

		// Subscriptions
		api.GET("/users/subscriptions", auth, h.ListSubscriptions)
		api.POST("/users/:id/subscribe", auth, h.Subscribe)
		api.DELETE("/users/:id/subscribe", auth, h.Unsubscribe)

		// Catalog
		api.GET("/tags", h.ListTags)
		api.GET("/tags/:id", h.GetTag)
		api.POST("/tags", admin, h.CreateTag)
		api.GET("/ingredients", h.ListIngredients)
		api.GET("/ingredients/:id", h.GetIngredient)
		api.POST("/ingredients", admin, h.CreateIngredient)

		// Recipes
		api.GET("/recipes", h.ListRecipes)
		api.POST("/recipes", auth, h.CreateRecipe)
		api.GET(downloadPath, auth, h.DownloadShoppingCart)
		api.GET("/recipes/:id", h.GetRecipe)
		api.PATCH("/recipes/:id", auth, h.UpdateRecipe)
		api.DELETE("/recipes/:id", auth, h.DeleteRecipe)
		api.GET("/recipes/:id/get-link", h.GetLink)

		// Collections
		api.POST("/recipes/:id/favorite", auth, h.AddFavorite)
		api.DELETE("/recipes/:id/favorite", auth, h.RemoveFavorite)
		api.POST("/recipes/:id/shopping_cart", auth, h.AddToCart)
		api.DELETE("/recipes/:id/shopping_cart", auth, h.RemoveFromCart)
	}
}

// newServices builds the service layer from deps, applying paging and TTL
// settings from cfg.
func newServices(deps Deps, cfg config.Config) handlers.Services {
	users := services.NewUserService(deps.DB, deps.Storage)
	users.PageSize, users.MaxPageSize = cfg.PageSize, cfg.MaxPageSize

	recipes := services.NewRecipeService(deps.DB, deps.Storage, deps.ShortLinks)
	recipes.PageSize, recipes.MaxPageSize = cfg.PageSize, cfg.MaxPageSize
	if cfg.IdempotencyTTL > 0 {
		recipes.IdempotencyTTL = cfg.IdempotencyTTL
	}

	subs := services.NewSubscriptionService(deps.DB)
	subs.PageSize, subs.MaxPageSize = cfg.PageSize, cfg.MaxPageSize

	return handlers.Services{
		Users:         users,
		Catalog:       services.NewCatalogService(deps.DB),
		Recipes:       recipes,
		Collections:   services.NewCollectionService(deps.DB),
		Subscriptions: subs,
		Shopping:      services.NewShoppingService(deps.DB, cfg.ListLocale),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error. A non-positive cap disables it.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(prefix, p string) string {
	if prefix == "" || prefix == "/" {
		return p
	}
	return prefix + p
}
