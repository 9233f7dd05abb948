package repository

import (
	"fmt"

	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/gorm"
)

// GormUsageRepository counts current feature usage from the task, team and
// membership tables. Counts are read outside any mutation transaction; see
// the UsageRepository contract for the race this accepts.
type GormUsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new UsageRepository
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &GormUsageRepository{db: db}
}

// Count returns the current usage for a feature within a scope.
func (r *GormUsageRepository) Count(scopeID uint64, feature string) (int64, error) {
	var count int64
	var err error

	switch feature {
	case models.FeatureTasks:
		err = r.db.Model(&models.Task{}).
			Where("organization_id = ?", scopeID).
			Count(&count).Error
	case models.FeatureTeams:
		err = r.db.Model(&models.Team{}).
			Where("organization_id = ? AND is_active = ?", scopeID, true).
			Count(&count).Error
	case models.FeatureTeamMembers:
		err = r.db.Model(&models.TeamMember{}).
			Where("team_id = ? AND is_active = ?", scopeID, true).
			Count(&count).Error
	default:
		return 0, fmt.Errorf("no usage counter for feature %q", feature)
	}

	if err != nil {
		return 0, err
	}
	return count, nil
}
