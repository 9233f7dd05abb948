package repository

import (
	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/gorm"
)

// GormRoleRepository is a GORM implementation of RoleRepository
type GormRoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &GormRoleRepository{db: db}
}

// Create inserts a role into the catalog
func (r *GormRoleRepository) Create(role *models.Role) error {
	return r.db.Create(role).Error
}

// FindByName finds an active role by its stable name
func (r *GormRoleRepository) FindByName(name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.Where("name = ? AND is_active = ?", name, true).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns all active roles ordered by hierarchy level descending
func (r *GormRoleRepository) List() ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.Where("is_active = ?", true).
		Order("hierarchy_level DESC").
		Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
