package middleware

import (
	"errors"
	"net/http"

	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookie holds the signed session JWT.
	SessionCookie = "token"

	claimsContextKey = "session"
)

// TokenValidator is satisfied by *services.TokenService.
type TokenValidator interface {
	ValidateToken(tokenStr string) (*services.SessionClaims, error)
}

// Authenticate resolves the session cookie into claims on every request.
// Anonymous requests pass through; an invalid cookie is cleared.
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			ClearSessionCookie(c, false)
			c.Next()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// RequireAuth sends anonymous users to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnly restricts access to the ADMIN role.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			c.Redirect(http.StatusFound, "/products?error=access_denied")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the session claims of the request, or nil when anonymous.
func CurrentUser(c *gin.Context) *services.SessionClaims {
	if v, ok := c.Get(claimsContextKey); ok {
		if claims, ok := v.(*services.SessionClaims); ok {
			return claims
		}
	}
	return nil
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	if user := CurrentUser(c); user != nil && user.UserID != uuid.Nil {
		return user.UserID, nil
	}
	return uuid.Nil, errors.New("user ID not found in context")
}

// SetSessionCookie stores token as an HTTP-only cookie for maxAge seconds.
func SetSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}
