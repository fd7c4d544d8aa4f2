// Collection HTTP handlers: favorites, the shopping cart and its download.
//
//   - POST|DELETE /recipes/{id}/favorite
//   - POST|DELETE /recipes/{id}/shopping_cart
//   - GET         /recipes/download_shopping_cart
package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipes-backend/internal/repo"
)

// addTo and removeFrom are shared by the favorite and cart endpoints.
func (h *Handlers) addTo(c *gin.Context, coll repo.Collection) {
	id, valid := pathID(c, "recipe")
	if !valid {
		return
	}
	r, err := h.collect.Add(c.Request.Context(), h.actor(c), coll, id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

func (h *Handlers) removeFrom(c *gin.Context, coll repo.Collection) {
	id, valid := pathID(c, "recipe")
	if !valid {
		return
	}
	if err := h.collect.Remove(c.Request.Context(), h.actor(c), coll, id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Add a recipe to favorites
// @Tags        Collections
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Recipe ID"
// @Success     201  {object}  services.RecipeShortView
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already in favorites"
// @Router      /recipes/{id}/favorite [post]
func (h *Handlers) AddFavorite(c *gin.Context) { h.addTo(c, repo.CollectionFavorites) }

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a recipe from favorites
// @Tags        Collections
// @Security    BearerAuth
// @Param       id   path      int  true  "Recipe ID"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found or not in favorites"
// @Router      /recipes/{id}/favorite [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) { h.removeFrom(c, repo.CollectionFavorites) }

// AddToCart godoc
// @ID          addToCart
// @Summary     Add a recipe to the shopping cart
// @Tags        Collections
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Recipe ID"
// @Success     201  {object}  services.RecipeShortView
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already in the cart"
// @Router      /recipes/{id}/shopping_cart [post]
func (h *Handlers) AddToCart(c *gin.Context) { h.addTo(c, repo.CollectionShoppingCart) }

// RemoveFromCart godoc
// @ID          removeFromCart
// @Summary     Remove a recipe from the shopping cart
// @Tags        Collections
// @Security    BearerAuth
// @Param       id   path      int  true  "Recipe ID"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipe not found or not in the cart"
// @Router      /recipes/{id}/shopping_cart [delete]
func (h *Handlers) RemoveFromCart(c *gin.Context) { h.removeFrom(c, repo.CollectionShoppingCart) }

// DownloadShoppingCart godoc
// @ID          downloadShoppingCart
// @Summary     Download the shopping list
// @Description Sums ingredient amounts over every recipe in the cart and returns a plain-text attachment.
// @Tags        Collections
// @Produce     plain
// @Security    BearerAuth
// @Success     200  {string}  string  "Shopping list"
// @Failure     400  {object}  handlers.ErrorResponse  "Cart is empty"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Router      /recipes/download_shopping_cart [get]
func (h *Handlers) DownloadShoppingCart(c *gin.Context) {
	list, err := h.shopping.Export(c.Request.Context(), h.actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": list.FileName}))
	c.Data(http.StatusOK, list.ContentType, []byte(list.Body))
}
