package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"

	"github.com/jmehdipour/billing-sync/internal/auth"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
)

// IdentityFromCtx extracts the caller set by JWTMiddleware.
func IdentityFromCtx(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(ctxUserID).(string)
	if !ok || id == "" {
		return auth.Identity{}, false
	}
	email, _ := c.Get(ctxUserEmail).(string)
	return auth.Identity{UserID: id, Email: email}, true
}

// JWTMiddleware authenticates requests using the Authorization bearer token.
func JWTMiddleware(v *auth.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing token"})
			}
			id, err := v.Verify(raw)
			if err != nil {
				c.Logger().Debugf("token rejected: %v", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			c.Set(ctxUserID, id.UserID)
			c.Set(ctxUserEmail, id.Email)
			return next(c)
		}
	}
}

// AdminKeyMiddleware guards operator endpoints with the X-Admin-Key header.
// With no keys configured every request is refused.
func AdminKeyMiddleware(keys []string) echo.MiddlewareFunc {
	valid := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			valid = append(valid, []byte(k))
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-Admin-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing admin key"})
			}
			for _, k := range valid {
				if subtle.ConstantTimeCompare([]byte(key), k) == 1 {
					return next(c)
				}
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid admin key"})
		}
	}
}
