package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"

	"github.com/tbourn/go-api-boilerplate/internal/exceptions"
)

// RequireRoles allows the request when no roles are given or when the role
// set by APIKeyGuard is one of roles. Roles are compared with Unicode case
// folding. Anything else is a 403.
//
// Install after APIKeyGuard.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[foldRole(r)] = struct{}{}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}
		if _, ok := allowed[foldRole(RoleFrom(c))]; ok && RoleFrom(c) != "" {
			c.Next()
			return
		}
		LoggerFrom(c).Warn().Str("role", RoleFrom(c)).Msg("role not permitted")
		_ = c.Error(exceptions.Forbidden(msgForbidden))
		c.Abort()
	}
}

// foldRole returns the case-folded form of r. A Caser is stateful, so each
// call gets its own.
func foldRole(r string) string {
	return cases.Fold().String(r)
}
