package middleware

import (
	"net/http"
	"strings"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/service"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/gin-gonic/gin"
)

const (
	ClaimsKey = "claims"
)

// JWTAuth validates the Bearer access token on every protected route and
// binds the caller's principal to the request context.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticação requerida"))
			return
		}

		claims, err := service.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims.Kind != service.TokenAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token inválido ou expirado"))
			return
		}
		p, err := claims.Principal()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token inválido ou expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(tenant.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permissão insuficiente"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}
