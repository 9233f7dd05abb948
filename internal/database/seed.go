package database

import (
	"errors"
	"fmt"

	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/gorm"
)

// DefaultRoles is the role catalog seeded at bootstrap. Hierarchy levels are
// unique and totally ordered; permissions of lower roles are subsets of
// higher ones so downward inheritance holds.
func DefaultRoles() []models.Role {
	return []models.Role{
		{
			Name:           models.RoleAdmin,
			DisplayName:    "Administrator",
			HierarchyLevel: 100,
			DefaultPermissions: models.PermissionSet{
				models.CategoryTasks:          {"create", "read", "update", "delete", "assign"},
				models.CategoryTeams:          {"create", "read", "update", "delete", "manage_members"},
				models.CategoryDepartments:    {"create", "read", "update", "delete", "manage_members", "move"},
				models.CategoryAnalytics:      {"view", "export"},
				models.CategoryAdministration: {"manage_roles", "manage_matrix", "manage_billing"},
			},
			IsActive: true,
		},
		{
			Name:           models.RoleManager,
			DisplayName:    "Manager",
			HierarchyLevel: 70,
			DefaultPermissions: models.PermissionSet{
				models.CategoryTasks:       {"create", "read", "update", "delete", "assign"},
				models.CategoryTeams:       {"create", "read", "update", "manage_members"},
				models.CategoryDepartments: {"read", "manage_members"},
				models.CategoryAnalytics:   {"view"},
			},
			IsActive: true,
		},
		{
			Name:           models.RoleMember,
			DisplayName:    "Member",
			HierarchyLevel: 40,
			DefaultPermissions: models.PermissionSet{
				models.CategoryTasks:       {"create", "read", "update"},
				models.CategoryTeams:       {"read"},
				models.CategoryDepartments: {"read"},
			},
			IsActive: true,
		},
		{
			Name:           models.RoleViewer,
			DisplayName:    "Viewer",
			HierarchyLevel: 10,
			DefaultPermissions: models.PermissionSet{
				models.CategoryTasks:       {"read"},
				models.CategoryTeams:       {"read"},
				models.CategoryDepartments: {"read"},
			},
			IsActive: true,
		},
	}
}

// SeedRoles inserts the default role catalog, skipping roles that already
// exist so bootstrap is idempotent.
func SeedRoles(db *gorm.DB) error {
	for _, role := range DefaultRoles() {
		var existing models.Role
		err := db.Where("name = ?", role.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check role %q: %w", role.Name, err)
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %q: %w", role.Name, err)
		}
	}
	return nil
}
