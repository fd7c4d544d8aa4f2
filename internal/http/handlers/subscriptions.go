// Subscription HTTP handlers.
//
//   - POST|DELETE /users/{id}/subscribe
//   - GET         /users/subscriptions   (paginated, recipes_limit)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipes-backend/internal/utils"
)

// recipesLimit reads recipes_limit; absent or malformed means no cap.
func recipesLimit(c *gin.Context) int {
	return utils.AtoiDefault(c.Query("recipes_limit"), 0)
}

// Subscribe godoc
// @ID          subscribe
// @Summary     Follow an author
// @Tags        Subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id             path      int  true   "Author ID"
// @Param       recipes_limit  query     int  false  "Max recipes embedded"  minimum(0)
// @Success     201            {object}  services.SubscriptionView
// @Failure     400            {object}  handlers.ErrorResponse  "Cannot follow yourself"
// @Failure     401            {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     404            {object}  handlers.ErrorResponse  "User not found"
// @Failure     409            {object}  handlers.ErrorResponse  "Already subscribed"
// @Router      /users/{id}/subscribe [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	id, valid := pathID(c, "user")
	if !valid {
		return
	}
	v, err := h.subs.Subscribe(c.Request.Context(), h.actor(c), id, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, v)
}

// Unsubscribe godoc
// @ID          unsubscribe
// @Summary     Unfollow an author
// @Tags        Subscriptions
// @Security    BearerAuth
// @Param       id   path      int  true  "Author ID"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found or not subscribed"
// @Router      /users/{id}/subscribe [delete]
func (h *Handlers) Unsubscribe(c *gin.Context) {
	id, valid := pathID(c, "user")
	if !valid {
		return
	}
	if err := h.subs.Unsubscribe(c.Request.Context(), h.actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// ListSubscriptions godoc
// @ID          listSubscriptions
// @Summary     Followed authors (paginated)
// @Tags        Subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       page           query     int  false  "Page number"     minimum(1) default(1)
// @Param       limit          query     int  false  "Items per page"  minimum(1) maximum(100) default(6)
// @Param       recipes_limit  query     int  false  "Max recipes per author"  minimum(0)
// @Success     200            {object}  handlers.Page[services.SubscriptionView]
// @Failure     401            {object}  handlers.ErrorResponse  "Not authenticated"
// @Router      /users/subscriptions [get]
func (h *Handlers) ListSubscriptions(c *gin.Context) {
	page, limit := h.pageParams(c)
	items, total, err := h.subs.List(c.Request.Context(), h.actor(c), page, limit, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, pageOf(h.origin(c), c.Request.URL, items, total, page, limit))
}
