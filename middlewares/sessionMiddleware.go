package middlewares

import (
	"net/http"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the token header into a session. The token must
// be a valid signed JWT and still present in Redis; logout revokes the Redis
// side, so a structurally valid token alone is not enough.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}

		validated, err := utils.JwtValidate(token)
		if err != nil || !validated.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)
		if claims, ok := validated.Claims.(*utils.JwtCustomClaim); ok {
			ctx = utils.SetUserIdInContext(ctx, claims.ID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
