package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-api-boilerplate/internal/exceptions"
)

const (
	// APIKeyHeader carries the caller's API key.
	APIKeyHeader = "X-API-Key"
	// PlatformKeyHeader identifies the calling platform. It is informational
	// only and never used for authentication.
	PlatformKeyHeader = "X-Platform-Key"

	ctxKeyUserID   = "userID"
	ctxKeyRole     = "role"
	ctxKeyPlatform = "platform"
)

// Messages returned by the guards.
const (
	msgAPIKeyMissing = "API Key is missing"
	msgAPIKeyInvalid = "Invalid API Key"
	msgForbidden     = "Forbidden resource"
)

// APIKeyGuard authenticates requests by the X-API-Key header against keys,
// a map of accepted key to role.
//
// On success the principal is stored in the Gin context: "userID" holds a
// short fingerprint of the key (so rate limiting and logs never see the key
// itself) and "role" holds the mapped role. On failure a 401 is raised via
// c.Error and rendered by ExceptionFilter.
//
// Every configured key is compared in constant time, whether or not an
// earlier one already matched.
func APIKeyGuard(keys map[string]string) gin.HandlerFunc {
	type entry struct {
		key  []byte
		role string
	}
	entries := make([]entry, 0, len(keys))
	for k, role := range keys {
		if k = strings.TrimSpace(k); k != "" {
			entries = append(entries, entry{key: []byte(k), role: role})
		}
	}

	return func(c *gin.Context) {
		provided := strings.TrimSpace(c.GetHeader(APIKeyHeader))
		if provided == "" {
			LoggerFrom(c).Warn().Msg("api key missing")
			_ = c.Error(exceptions.Unauthorized(msgAPIKeyMissing))
			c.Abort()
			return
		}

		var (
			role    string
			matched bool
		)
		for _, e := range entries {
			if hmac.Equal([]byte(provided), e.key) && !matched {
				role, matched = e.role, true
			}
		}
		if !matched {
			LoggerFrom(c).Warn().Msg("api key invalid")
			_ = c.Error(exceptions.Unauthorized(msgAPIKeyInvalid))
			c.Abort()
			return
		}

		uid := keyFingerprint(provided)
		c.Set(ctxKeyUserID, uid)
		c.Set(ctxKeyRole, role)
		withUser(c, uid)
		c.Next()
	}
}

// RoleFrom returns the role set by APIKeyGuard, or "" when unauthenticated.
func RoleFrom(c *gin.Context) string {
	v, _ := c.Get(ctxKeyRole)
	return asString(v)
}

// PlatformKey returns the X-Platform-Key header of the request.
func PlatformKey(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyPlatform); ok {
		return asString(v)
	}
	return strings.TrimSpace(c.GetHeader(PlatformKeyHeader))
}

func keyFingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "key:" + hex.EncodeToString(sum[:6])
}
