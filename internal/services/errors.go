// Package services defines the business logic for users, the tag and
// ingredient catalog, recipes, per-user collections, subscriptions and the
// shopping-list export. This file centralizes the service-level error values
// so that they can be consistently returned by service methods and checked
// by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-recipes-backend/internal/utils"
)

// Not-found errors.
var (
	// ErrRecipeNotFound indicates that the requested recipe does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrTagNotFound indicates that the requested tag does not exist.
	ErrTagNotFound = errors.New("tag not found")

	// ErrIngredientNotFound indicates that the requested ingredient does not exist.
	ErrIngredientNotFound = errors.New("ingredient not found")

	// ErrShortLinkNotFound is returned when a share code maps to no recipe.
	ErrShortLinkNotFound = errors.New("short link not found")

	// ErrNotInCollection is returned when removing a recipe that is not in
	// the user's favorites or shopping cart.
	ErrNotInCollection = errors.New("recipe is not in the collection")

	// ErrNotSubscribed is returned when unsubscribing from an author the
	// user does not follow.
	ErrNotSubscribed = errors.New("not subscribed to this user")
)

// Conflict errors.
var (
	// ErrAlreadyInCollection is returned when adding a recipe twice to the
	// same collection.
	ErrAlreadyInCollection = errors.New("recipe is already in the collection")

	// ErrAlreadySubscribed is returned when following an author twice.
	ErrAlreadySubscribed = errors.New("already subscribed to this user")

	// ErrShortLinkConflict is returned when a freshly generated share code is
	// already taken. The write is rolled back and never retried.
	ErrShortLinkConflict = errors.New("short link code collision")

	// ErrUserExists is returned when the username or e-mail is taken.
	ErrUserExists = errors.New("a user with that username or email already exists")

	// ErrTagExists is returned when the tag name or slug is taken.
	ErrTagExists = errors.New("a tag with that name or slug already exists")

	// ErrIngredientExists is returned when the (name, unit) pair is taken.
	ErrIngredientExists = errors.New("an ingredient with that name and unit already exists")
)

// Permission and state errors.
var (
	// ErrUnauthenticated is returned when an operation needs a current user.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrUnknownActor is returned when a verified token names a user that
	// no longer exists.
	ErrUnknownActor = errors.New("the authenticated account no longer exists")

	// ErrReferenceGone is returned when a row a write points at was deleted
	// between the checks and the insert.
	ErrReferenceGone = errors.New("a referenced record no longer exists")

	// ErrNotAuthor is returned when a user edits or deletes someone else's recipe.
	ErrNotAuthor = errors.New("only the author can modify this recipe")

	// ErrSelfSubscription is returned when a user tries to follow themself.
	ErrSelfSubscription = errors.New("cannot subscribe to yourself")

	// ErrEmptyCart is returned when exporting a shopping list with nothing in it.
	ErrEmptyCart = errors.New("shopping cart is empty")

	// ErrWrongPassword is returned when the current password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
)

// ValidationError reports a field-scoped input problem. Nothing is written
// when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// check runs the shared struct validator on v and reports the first failure
// as a *ValidationError.
func check(v any) error {
	err := utils.Validate.Struct(v)
	if err == nil {
		return nil
	}
	if field, msg, ok := utils.FirstFieldError(err); ok {
		return &ValidationError{Field: field, Message: msg}
	}
	return err
}
