package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/teamforge/teamforge-api/internal/constants"
	apierrors "github.com/teamforge/teamforge-api/internal/errors"
)

// RequireAuth rejects requests without an authenticated session. On success
// the user id is normalized to uint64 and stored in the request context, so
// downstream code never touches the session directly.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		userID, ok := normalizeUserID(session.Get(constants.SessionKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's id from the request context.
func GetUserID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return normalizeUserID(value)
}

// normalizeUserID coerces the session-stored id into uint64. Session values
// round-trip through gob, so the concrete integer type depends on what was
// written; anything non-positive or non-integer counts as unauthenticated.
func normalizeUserID(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int64:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
