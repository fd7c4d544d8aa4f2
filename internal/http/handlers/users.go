// User HTTP handlers.
//
//   - POST   /users                (register)
//   - GET    /users                (list, paginated)
//   - GET    /users/{id}           (profile)
//   - GET    /users/me             (current user)
//   - PUT    /users/me/avatar      (upload avatar)
//   - DELETE /users/me/avatar      (remove avatar)
//   - POST   /users/set_password   (change password)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipes-backend/internal/services"
)

// AvatarRequest carries a base64 data-URI image.
type AvatarRequest struct {
	Avatar string `json:"avatar" example:"data:image/png;base64,iVBORw0KGgo..."`
}

// AvatarResponse returns the stored avatar URL.
type AvatarResponse struct {
	Avatar string `json:"avatar" example:"http://localhost:8080/media/users/5c1e.png"`
}

// Register godoc
// @ID          registerUser
// @Summary     Register a user
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      services.RegisterInput  true  "Account details"
// @Success     201   {object}  services.UserView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409   {object}  handlers.ErrorResponse  "Username or e-mail taken"
// @Router      /users [post]
func (h *Handlers) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (paginated)
// @Tags        Users
// @Produce     json
// @Param       page   query     int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query     int  false  "Items per page"  minimum(1) maximum(100) default(6)
// @Success     200    {object}  handlers.Page[services.UserView]
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, limit := h.pageParams(c)
	items, total, err := h.users.List(c.Request.Context(), h.actor(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, pageOf(h.origin(c), c.Request.URL, items, total, page, limit))
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user profile
// @Tags        Users
// @Produce     json
// @Param       id   path      int  true  "User ID"
// @Success     200  {object}  services.UserView
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := pathID(c, "user")
	if !valid {
		return
	}
	u, err := h.users.Get(c.Request.Context(), h.actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// Me godoc
// @ID          getMe
// @Summary     Current user
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  services.UserView
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.users.Me(c.Request.Context(), h.actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// SetAvatar godoc
// @ID          setAvatar
// @Summary     Upload an avatar
// @Description Replaces the current user's avatar with a base64 data-URI image.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.AvatarRequest  true  "Image"
// @Success     200   {object}  handlers.AvatarResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing or invalid image"
// @Failure     401   {object}  handlers.ErrorResponse  "Not authenticated"
// @Router      /users/me/avatar [put]
func (h *Handlers) SetAvatar(c *gin.Context) {
	var req AvatarRequest
	if !bindJSON(c, &req) {
		return
	}
	url, err := h.users.SetAvatar(c.Request.Context(), h.actor(c), req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, AvatarResponse{Avatar: url})
}

// DeleteAvatar godoc
// @ID          deleteAvatar
// @Summary     Remove the avatar
// @Tags        Users
// @Security    BearerAuth
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Router      /users/me/avatar [delete]
func (h *Handlers) DeleteAvatar(c *gin.Context) {
	if err := h.users.DeleteAvatar(c.Request.Context(), h.actor(c)); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// SetPassword godoc
// @ID          setPassword
// @Summary     Change password
// @Tags        Users
// @Accept      json
// @Security    BearerAuth
// @Param       body  body      services.PasswordInput  true  "Current and new password"
// @Success     204   {string}  string  "No Content"
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed or wrong current password"
// @Failure     401   {object}  handlers.ErrorResponse  "Not authenticated"
// @Router      /users/set_password [post]
func (h *Handlers) SetPassword(c *gin.Context) {
	var in services.PasswordInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.users.SetPassword(c.Request.Context(), h.actor(c), in); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
