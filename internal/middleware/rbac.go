package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

// Self admits a caller whose user id equals the :id route parameter, so
// teachers reach their own calendar without a broader role.
const Self = "SELF"

// RBAC admits callers holding one of the allowed roles. Self may be listed
// alongside roles.
func RBAC(allowed ...string) gin.HandlerFunc {
	roles := make(map[models.UserRole]struct{}, len(allowed))
	self := false
	for _, a := range allowed {
		if a == Self {
			self = true
			continue
		}
		roles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			deny(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := roles[claims.Role]; ok {
			c.Next()
			return
		}
		if self && claims.UserID != "" && c.Param("id") == claims.UserID {
			c.Next()
			return
		}
		deny(c, appErrors.Clone(appErrors.ErrPermissionDenied, "role "+string(claims.Role)+" cannot access this resource"))
	}
}

// RequireRoles is RBAC for typed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
