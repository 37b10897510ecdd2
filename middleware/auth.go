package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the API gateway, and the cookies it mirrors them to.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
	cookieUserID   = "user_id"
	cookieUserRole = "user_role"

	ContextOperatorID   = "operator_id"
	ContextOperatorRole = "operator_role"

	RoleAdmin = "admin"
)

func headerOrCookie(c *gin.Context, header, cookie string) string {
	if v := c.GetHeader(header); v != "" {
		return v
	}
	if v, err := c.Cookie(cookie); err == nil {
		return v
	}
	return ""
}

// AuthMiddleware requires a gateway-authenticated caller and stores the
// caller's id and role on the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := headerOrCookie(c, HeaderUserID, cookieUserID)
		if operatorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(ContextOperatorID, operatorID)
		c.Set(ContextOperatorRole, headerOrCookie(c, HeaderUserRole, cookieUserRole))
		c.Next()
	}
}

// AdminOnly lets only admin operators through. It must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextOperatorRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}
