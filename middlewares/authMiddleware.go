package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/bizbooks_backend/utils"
)

// AuthMiddleware accepts `Authorization: Bearer <jwt>` and puts the claim's user id,
// admin flag and company (when present) in the request context.
// Requests without the header pass through.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = strings.TrimSpace(auth[len(bearer):])

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok || customClaim.ID <= 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), customClaim.ID)
		ctx = utils.SetIsAdminInContext(ctx, customClaim.Role == "A")
		if customClaim.CompanyId != "" {
			ctx = utils.SetCompanyIdInContext(ctx, customClaim.CompanyId)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
