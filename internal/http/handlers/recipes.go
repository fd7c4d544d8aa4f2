// Recipe HTTP handlers.
//
//   - POST   /recipes               (create, Idempotency-Key aware)
//   - GET    /recipes               (list, paginated, filters, weak ETag)
//   - GET    /recipes/{id}          (detail)
//   - PATCH  /recipes/{id}          (update, author only)
//   - DELETE /recipes/{id}          (delete, author only)
//   - GET    /recipes/{id}/get-link (share link)
//   - GET    /s/{code}              (share link redirect, outside the API prefix)
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipes-backend/internal/http/middleware"
	"github.com/tbourn/go-recipes-backend/internal/services"
	"github.com/tbourn/go-recipes-backend/internal/utils"
)

// ShortLinkResponse carries the public share URL of a recipe.
type ShortLinkResponse struct {
	ShortLink string `json:"short-link" example:"http://localhost:8080/s/3q2-7w"`
}

// recipeQuery reads the list filters; a malformed author id is reported.
func recipeQuery(c *gin.Context) (services.RecipeQuery, error) {
	q := services.RecipeQuery{
		Favorited: utils.ParseFlag(c.Query("is_favorited")),
		InCart:    utils.ParseFlag(c.Query("is_in_shopping_cart")),
	}
	if raw := strings.TrimSpace(c.Query("author")); raw != "" {
		id, valid := utils.ParseID(raw)
		if !valid {
			return q, &services.ValidationError{Field: "author", Message: "Select a valid choice."}
		}
		q.AuthorID = id
	}
	for _, slug := range c.QueryArray("tags") {
		if slug = strings.TrimSpace(slug); slug != "" {
			q.TagSlugs = append(q.TagSlugs, slug)
		}
	}
	return q, nil
}

// CreateRecipe godoc
// @ID          createRecipe
// @Summary     Create a recipe
// @Description Creates a recipe authored by the current user. With an Idempotency-Key, a repeated request returns the first result and sets Idempotency-Replayed.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header    string                 false  "Client key for safe retries"  example(req-2f1c)
// @Param       body             body      services.RecipeInput   true   "Recipe"
// @Success     201              {object}  services.RecipeView
// @Header      201              {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400              {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401              {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     409              {object}  handlers.ErrorResponse  "Short link collision"
// @Router      /recipes [post]
func (h *Handlers) CreateRecipe(c *gin.Context) {
	var in services.RecipeInput
	if !bindJSON(c, &in) {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)
	view, replayed, err := h.recipes.Create(c.Request.Context(), h.actor(c), in, key)
	if err != nil {
		respondError(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, view)
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     List recipes (paginated)
// @Description Newest first. Membership filters apply to authenticated viewers only. Anonymous responses carry a weak ETag and may return 304.
// @Tags        Recipes
// @Produce     json
// @Param       If-None-Match        header    string    false  "Return 304 if ETag matches"
// @Param       page                 query     int       false  "Page number"     minimum(1) default(1)
// @Param       limit                query     int       false  "Items per page"  minimum(1) maximum(100) default(6)
// @Param       author               query     int       false  "Author id"
// @Param       tags                 query     []string  false  "Tag slugs (any of)"  collectionFormat(multi)
// @Param       is_favorited         query     int       false  "1 or 0"  Enums(0, 1)
// @Param       is_in_shopping_cart  query     int       false  "1 or 0"  Enums(0, 1)
// @Success     200                  {object}  handlers.Page[services.RecipeView]
// @Header      200                  {string}  ETag  "Weak ETag (anonymous viewers)"
// @Success     304                  {string}  string  "Not Modified"
// @Failure     400                  {object}  handlers.ErrorResponse  "Malformed author"
// @Router      /recipes [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	a := h.actor(c)
	q, err := recipeQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit := h.pageParams(c)

	// ETag pre-check (best effort).
	if etag, err := h.recipes.ListETag(ctx, a, q, page, limit); err == nil && etag != "" {
		c.Header("ETag", etag)
		c.Header("Cache-Control", "no-cache")
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.recipes.List(ctx, a, q, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, pageOf(h.origin(c), c.Request.URL, items, total, page, limit))
}

// GetRecipe godoc
// @ID          getRecipe
// @Summary     Get a recipe
// @Tags        Recipes
// @Produce     json
// @Param       id   path      int  true  "Recipe ID"
// @Success     200  {object}  services.RecipeView
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Router      /recipes/{id} [get]
func (h *Handlers) GetRecipe(c *gin.Context) {
	id, valid := pathID(c, "recipe")
	if !valid {
		return
	}
	r, err := h.recipes.Get(c.Request.Context(), h.actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// UpdateRecipe godoc
// @ID          updateRecipe
// @Summary     Update a recipe
// @Description Partial update by the author. tags and ingredients are required and replace the current sets.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                   true  "Recipe ID"
// @Param       body  body      services.RecipeInput  true  "Changes"
// @Success     200   {object}  services.RecipeView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401   {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     403   {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404   {object}  handlers.ErrorResponse  "Recipe not found"
// @Router      /recipes/{id} [patch]
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	id, valid := pathID(c, "recipe")
	if !valid {
		return
	}
	var in services.RecipeInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.recipes.Update(c.Request.Context(), h.actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// DeleteRecipe godoc
// @ID          deleteRecipe
// @Summary     Delete a recipe
// @Tags        Recipes
// @Security    BearerAuth
// @Param       id   path      int  true  "Recipe ID"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Router      /recipes/{id} [delete]
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	id, valid := pathID(c, "recipe")
	if !valid {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), h.actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// GetLink godoc
// @ID          getRecipeLink
// @Summary     Get a share link
// @Tags        Recipes
// @Produce     json
// @Param       id   path      int  true  "Recipe ID"
// @Success     200  {object}  handlers.ShortLinkResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Short link collision"
// @Router      /recipes/{id}/get-link [get]
func (h *Handlers) GetLink(c *gin.Context) {
	id, valid := pathID(c, "recipe")
	if !valid {
		return
	}
	code, err := h.recipes.ShortCode(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ShortLinkResponse{ShortLink: h.origin(c) + "/s/" + code})
}

// FollowShortLink godoc
// @ID          followShortLink
// @Summary     Resolve a share link
// @Description Redirects to the recipe page of the frontend, or to the frontend root when the code is unknown.
// @Tags        Recipes
// @Param       code  path  string  true  "Share code"
// @Success     302   {string}  string  "Found"
// @Router      /s/{code} [get]
func (h *Handlers) FollowShortLink(c *gin.Context) {
	id, err := h.recipes.Resolve(c.Request.Context(), c.Param("code"))
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, h.opts.FrontendURL+"/recipes/"+strconv.FormatUint(uint64(id), 10)+"/")
	case errors.Is(err, services.ErrShortLinkNotFound):
		c.Redirect(http.StatusFound, h.opts.FrontendURL+"/")
	default:
		respondError(c, err)
	}
}
