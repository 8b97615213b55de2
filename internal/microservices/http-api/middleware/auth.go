package middleware

import (
	"net/http"
	"strings"

	"libhub/internal/microservices/http-api/dto"
	"libhub/internal/shared"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*shared.AuthClaims, error)
}

// AuthMiddleware resolves the acting identity for API requests.
// A request without an Authorization header continues as Anonymous so the
// library service can answer with its own unauthorized response; a header
// that is malformed or carries a bad token is rejected here.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			SetIdentity(c, shared.Anonymous)
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set("claims", claims)
		c.Set("userID", claims.UserID)
		SetIdentity(c, shared.Identity(claims.UserID))

		c.Next()
	}
}

// SetIdentity records the acting identity for the rest of the chain.
func SetIdentity(c *gin.Context, id shared.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity set by AuthMiddleware, or Anonymous.
func IdentityFrom(c *gin.Context) shared.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(shared.Identity); ok {
			return id
		}
	}
	return shared.Anonymous
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":     msg,
		"login_url": dto.LoginPath,
	})
}
