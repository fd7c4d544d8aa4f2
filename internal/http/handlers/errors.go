// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Service errors are translated in one place, respondError,
// so every endpoint reports the same condition with the same status and code.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_failed",
//	  "message": "cooking_time: Ensure this value is greater than or equal to 1.",
//	  "fields": {"cooking_time": "Ensure this value is greater than or equal to 1."}
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipes-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeEmptyCart        = "empty_cart"
	ErrCodeSelfSubscription = "self_subscription"
)

// errorStatus pairs a service sentinel with its HTTP status and code.
type errorStatus struct {
	err    error
	status int
	code   string
}

var errorTable = []errorStatus{
	{services.ErrUnauthenticated, http.StatusUnauthorized, ErrCodeUnauthorized},
	{services.ErrUnknownActor, http.StatusUnauthorized, ErrCodeUnauthorized},
	{services.ErrNotAuthor, http.StatusForbidden, ErrCodeForbidden},

	{services.ErrRecipeNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrTagNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrIngredientNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrShortLinkNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrNotInCollection, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrNotSubscribed, http.StatusNotFound, ErrCodeNotFound},

	{services.ErrAlreadyInCollection, http.StatusConflict, ErrCodeConflict},
	{services.ErrAlreadySubscribed, http.StatusConflict, ErrCodeConflict},
	{services.ErrShortLinkConflict, http.StatusConflict, ErrCodeConflict},
	{services.ErrReferenceGone, http.StatusConflict, ErrCodeConflict},
	{services.ErrUserExists, http.StatusConflict, ErrCodeConflict},
	{services.ErrTagExists, http.StatusConflict, ErrCodeConflict},
	{services.ErrIngredientExists, http.StatusConflict, ErrCodeConflict},

	{services.ErrSelfSubscription, http.StatusBadRequest, ErrCodeSelfSubscription},
	{services.ErrEmptyCart, http.StatusBadRequest, ErrCodeEmptyCart},
}

// respondError writes the envelope matching err. Unknown errors become a
// logged 500 whose message does not leak internals.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, ve.Error(), map[string]string{ve.Field: ve.Message})
		return
	}
	if errors.Is(err, services.ErrWrongPassword) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, err.Error(), map[string]string{"current_password": err.Error()})
		return
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			fail(c, e.status, e.code, err.Error())
			return
		}
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}
