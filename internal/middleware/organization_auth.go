package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teamforge/teamforge-api/internal/constants"
	"github.com/teamforge/teamforge-api/internal/database"
	apierrors "github.com/teamforge/teamforge-api/internal/errors"
	"github.com/teamforge/teamforge-api/internal/models"
)

// RequireOrganizationAccess checks if the user is an active member of the
// organization named in the URL
func RequireOrganizationAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgIDStr := c.Param("id")
		orgID, err := strconv.ParseUint(orgIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var org models.Organization
		if err := database.GetDB().First(&org, orgID).Error; err != nil {
			apierrors.NotFound(c, "Organization not found")
			c.Abort()
			return
		}

		// Return 404 instead of 403 to avoid leaking organization existence
		var member models.OrganizationMember
		err = database.GetDB().
			Where("organization_id = ? AND user_id = ? AND is_active = ?", orgID, userID, true).
			First(&member).Error
		if err != nil {
			apierrors.NotFound(c, "Organization not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyOrganization, org)
		c.Set(constants.ContextKeyMembership, member)
		c.Next()
	}
}

// GetOrganization retrieves the organization placed in context by
// RequireOrganizationAccess
func GetOrganization(c *gin.Context) (models.Organization, bool) {
	value, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		return models.Organization{}, false
	}
	org, ok := value.(models.Organization)
	return org, ok
}

// GetMembership retrieves the caller's membership placed in context by
// RequireOrganizationAccess
func GetMembership(c *gin.Context) (models.OrganizationMember, bool) {
	value, exists := c.Get(constants.ContextKeyMembership)
	if !exists {
		return models.OrganizationMember{}, false
	}
	member, ok := value.(models.OrganizationMember)
	return member, ok
}
