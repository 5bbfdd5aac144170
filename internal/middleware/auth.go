package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Identity extracts the caller's user id from the X-User-ID header. The
// header is issued by the auth gateway in front of this service; the
// core trusts it and performs no authentication of its own. Requests
// without a usable identity are rejected before touching storage.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}

		userID, err := strconv.Atoi(raw)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
