package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RequireUser validates the bearer JWT and injects the subject username and
// claims into the context.
func RequireUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, secret)
		if !ok {
			return
		}

		username, _ := claims["sub"].(string)
		if strings.TrimSpace(username) == "" {
			log.Println("[AUTH] [ERROR] sub claim missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("username", username)
		c.Set("claims", claims)
		c.Next()
	}
}

func parseBearer(c *gin.Context, secret string) (jwt.MapClaims, bool) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return nil, false
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return claims, true
}

// Username returns the authenticated username injected by RequireUser.
func Username(c *gin.Context) string {
	if v, ok := c.Get("username"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
