package repository

import (
	"fmt"

	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/gorm"
)

// GormMembershipRepository resolves active memberships across the
// organization, department and team member tables.
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository{db: db}
}

// ActiveMembership returns the user's active membership in the given entity.
// User-scoped lookups have no membership table; they resolve to a synthetic
// membership when the entity id is the user itself.
func (r *GormMembershipRepository) ActiveMembership(userID uint64, entityType models.EntityType, entityID uint64) (*Membership, error) {
	switch entityType {
	case models.EntityOrganization:
		var m models.OrganizationMember
		if err := r.db.Where("organization_id = ? AND user_id = ? AND is_active = ?",
			entityID, userID, true).First(&m).Error; err != nil {
			return nil, err
		}
		return &Membership{
			EntityType: models.EntityOrganization,
			EntityID:   m.OrganizationID,
			UserID:     m.UserID,
			RoleName:   m.RoleName,
			JoinedAt:   m.JoinedAt,
		}, nil

	case models.EntityDepartment:
		var m models.DepartmentMember
		if err := r.db.Where("department_id = ? AND user_id = ? AND is_active = ?",
			entityID, userID, true).First(&m).Error; err != nil {
			return nil, err
		}
		return &Membership{
			EntityType: models.EntityDepartment,
			EntityID:   m.DepartmentID,
			UserID:     m.UserID,
			RoleName:   string(m.Role),
			JoinedAt:   m.JoinedAt,
		}, nil

	case models.EntityTeam:
		var m models.TeamMember
		if err := r.db.Where("team_id = ? AND user_id = ? AND is_active = ?",
			entityID, userID, true).First(&m).Error; err != nil {
			return nil, err
		}
		return &Membership{
			EntityType: models.EntityTeam,
			EntityID:   m.TeamID,
			UserID:     m.UserID,
			RoleName:   m.RoleName,
			JoinedAt:   m.JoinedAt,
		}, nil

	case models.EntityUser:
		if entityID != userID {
			return nil, gorm.ErrRecordNotFound
		}
		return &Membership{
			EntityType: models.EntityUser,
			EntityID:   entityID,
			UserID:     userID,
		}, nil

	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
}
