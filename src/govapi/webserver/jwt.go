package webserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWT validates the bearer token and stores the member address (and admin
// flag) on the request context.
func JWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := c.GetHeader("Authorization")
		if !strings.HasPrefix(bearer, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		tokenStr := bearer[7:]
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		addr, _ := claims["addr"].(string)
		if addr == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		admin, _ := claims["admin"].(bool)
		c.Set("addr", addr)
		c.Set("admin", admin)
		c.Next()
	}
}

// RequireAdmin gates admin-only routes; it must run after JWT.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "admin only"})
			return
		}
		c.Next()
	}
}
