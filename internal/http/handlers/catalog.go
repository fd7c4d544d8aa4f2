// Catalog HTTP handlers: tags and ingredients. Reads are public and
// unpaginated; writes require the admin role (enforced by the router).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipes-backend/internal/services"
)

// ListTags godoc
// @ID          listTags
// @Summary     List tags
// @Tags        Tags
// @Produce     json
// @Success     200  {array}  domain.Tag
// @Router      /tags [get]
func (h *Handlers) ListTags(c *gin.Context) {
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, tags)
}

// GetTag godoc
// @ID          getTag
// @Summary     Get a tag
// @Tags        Tags
// @Produce     json
// @Param       id   path      int  true  "Tag ID"
// @Success     200  {object}  domain.Tag
// @Failure     404  {object}  handlers.ErrorResponse  "Tag not found"
// @Router      /tags/{id} [get]
func (h *Handlers) GetTag(c *gin.Context) {
	id, valid := pathID(c, "tag")
	if !valid {
		return
	}
	t, err := h.catalog.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// CreateTag godoc
// @ID          createTag
// @Summary     Create a tag (admin)
// @Tags        Tags
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.TagInput  true  "Tag"
// @Success     201   {object}  domain.Tag
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     403   {object}  handlers.ErrorResponse  "Admin role required"
// @Failure     409   {object}  handlers.ErrorResponse  "Name or slug taken"
// @Router      /tags [post]
func (h *Handlers) CreateTag(c *gin.Context) {
	var in services.TagInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.catalog.CreateTag(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, t)
}

// ListIngredients godoc
// @ID          listIngredients
// @Summary     Search ingredients
// @Description Case-insensitive name prefix search; all ingredients when name is empty.
// @Tags        Ingredients
// @Produce     json
// @Param       name  query    string  false  "Name prefix"  example(sal)
// @Success     200   {array}  domain.Ingredient
// @Router      /ingredients [get]
func (h *Handlers) ListIngredients(c *gin.Context) {
	items, err := h.catalog.ListIngredients(c.Request.Context(), strings.TrimSpace(c.Query("name")))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetIngredient godoc
// @ID          getIngredient
// @Summary     Get an ingredient
// @Tags        Ingredients
// @Produce     json
// @Param       id   path      int  true  "Ingredient ID"
// @Success     200  {object}  domain.Ingredient
// @Failure     404  {object}  handlers.ErrorResponse  "Ingredient not found"
// @Router      /ingredients/{id} [get]
func (h *Handlers) GetIngredient(c *gin.Context) {
	id, valid := pathID(c, "ingredient")
	if !valid {
		return
	}
	ing, err := h.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ing)
}

// CreateIngredient godoc
// @ID          createIngredient
// @Summary     Create an ingredient (admin)
// @Tags        Ingredients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.IngredientCreateInput  true  "Ingredient"
// @Success     201   {object}  domain.Ingredient
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     403   {object}  handlers.ErrorResponse  "Admin role required"
// @Failure     409   {object}  handlers.ErrorResponse  "Name and unit taken"
// @Router      /ingredients [post]
func (h *Handlers) CreateIngredient(c *gin.Context) {
	var in services.IngredientCreateInput
	if !bindJSON(c, &in) {
		return
	}
	ing, err := h.catalog.CreateIngredient(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, ing)
}
