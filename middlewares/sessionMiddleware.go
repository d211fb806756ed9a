package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/utils"
)

// SessionMiddleware resolves the `token` header to a username through Redis
// ("Token:$token"). Requests without a token pass through unauthenticated.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if deviceId := strings.TrimSpace(c.GetHeader("x-device-id")); deviceId != "" {
			ctx = utils.SetDeviceIdInContext(ctx, deviceId)
		}

		token := c.Request.Header.Get("token")
		if token == "" {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx = utils.SetUsernameInContext(ctx, username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
