package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/teamforge/teamforge-api/internal/constants"
	apierrors "github.com/teamforge/teamforge-api/internal/errors"
	"github.com/teamforge/teamforge-api/internal/services"
)

// RequirePermission runs a permission check against the organization placed
// in context by RequireOrganizationAccess and aborts with the decision's
// reason on denial. The decision is stored in context for handlers that want
// the IsAdmin/IsMember flags.
func RequirePermission(checker *services.PermissionChecker, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		org, ok := GetOrganization(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}

		orgID := org.ID
		decision, err := checker.Check(
			services.PermissionActor{UserID: userID},
			resource,
			action,
			services.PermissionContext{OrganizationID: &orgID},
		)
		if err != nil {
			// Fail closed when the decision cannot be computed
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}

		if !decision.Allowed {
			apierrors.PermissionDenied(c, decision.Reason)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyDecision, decision)
		c.Next()
	}
}

// GetDecision retrieves the permission decision placed in context by
// RequirePermission
func GetDecision(c *gin.Context) (*services.PermissionDecision, bool) {
	value, exists := c.Get(constants.ContextKeyDecision)
	if !exists {
		return nil, false
	}
	decision, ok := value.(*services.PermissionDecision)
	return decision, ok
}
