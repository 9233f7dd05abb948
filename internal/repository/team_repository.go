package repository

import (
	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a new team
func (r *GormTeamRepository) Create(team *models.Team) error {
	return r.db.Create(team).Error
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// Update updates a team
func (r *GormTeamRepository) Update(team *models.Team) error {
	return r.db.Save(team).Error
}

// ListByOrganization returns active teams of an organization
func (r *GormTeamRepository) ListByOrganization(orgID uint64) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.Where("organization_id = ? AND is_active = ?", orgID, true).
		Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// AddMember adds a member to a team
func (r *GormTeamRepository) AddMember(member *models.TeamMember) error {
	return r.db.Create(member).Error
}

// FindActiveMember finds the active membership for (team, user)
func (r *GormTeamRepository) FindActiveMember(teamID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Where("team_id = ? AND user_id = ? AND is_active = ?",
		teamID, userID, true).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// DeactivateMember soft-removes a member from a team
func (r *GormTeamRepository) DeactivateMember(teamID, userID uint64) error {
	return r.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND is_active = ?", teamID, userID, true).
		Update("is_active", false).Error
}

// ListMembers returns active members of a team
func (r *GormTeamRepository) ListMembers(teamID uint64) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := r.db.Preload("User").
		Where("team_id = ? AND is_active = ?", teamID, true).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
