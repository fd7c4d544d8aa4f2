// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file verifies bearer tokens issued by the identity provider. Tokens
// are HS256 JWTs carrying the numeric user id and an optional role. This
// service never issues tokens.
//
//   - Authenticate() parses an Authorization header when present and stores
//     the identity under the "userID" (uint) and "role" context keys.
//     Requests without a header continue anonymously; a malformed, expired or
//     wrongly signed token is rejected with 401.
//   - RequireAuth() and RequireAdmin() guard individual routes.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	ctxKeyUserID = "userID"
	ctxKeyRole   = "role"

	// RoleAdmin grants catalog write access.
	RoleAdmin = "admin"
)

// Claims is the token payload.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthOptions configures token verification.
type AuthOptions struct {
	Secret string
	// Issuer is compared with the iss claim when non-empty.
	Issuer string
}

// ParseToken verifies raw and returns its claims.
func ParseToken(raw string, opts AuthOptions) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(opts.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user_id")
	}
	if opts.Issuer != "" && !claims.VerifyIssuer(opts.Issuer, true) {
		return nil, errors.New("unexpected issuer")
	}
	return claims, nil
}

// Authenticate resolves the caller from the Authorization header.
func Authenticate(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if h == "" {
			c.Next()
			return
		}
		scheme, raw, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			abortUnauthorized(c, "malformed Authorization header")
			return
		}
		claims, err := ParseToken(strings.TrimSpace(raw), opts)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxKeyUserID, claims.UserID)
		c.Set(ctxKeyRole, claims.Role)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFrom(c) == 0 {
			abortUnauthorized(c, "authentication credentials were not provided")
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFrom(c) == 0 {
			abortUnauthorized(c, "authentication credentials were not provided")
			return
		}
		if role, _ := c.Get(ctxKeyRole); role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "forbidden",
				"message":    "admin role required",
			})
			return
		}
		c.Next()
	}
}

// UserIDFrom returns the authenticated user id, or 0 for anonymous callers.
func UserIDFrom(c *gin.Context) uint {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
