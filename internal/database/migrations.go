package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Permission matrix lookup by entity plus lifecycle status
		{"permission_matrices", "idx_matrices_entity_status", "entity_type, entity_id, status"},

		// Department hierarchy traversal
		{"departments", "idx_departments_organization_id", "organization_id"},
		{"departments", "idx_departments_parent_id", "parent_department_id"},
		{"departments", "idx_departments_hierarchy_path", "hierarchy_path"},

		// Membership lookups across scopes
		{"organization_members", "idx_org_members_organization_id", "organization_id"},
		{"organization_members", "idx_org_members_user_id", "user_id"},
		{"department_members", "idx_dept_members_department_id", "department_id"},
		{"department_members", "idx_dept_members_user_id", "user_id"},
		{"team_members", "idx_team_members_team_id", "team_id"},
		{"team_members", "idx_team_members_user_id", "user_id"},

		// Audit trail reads per entity
		{"audit_logs", "idx_audit_logs_entity", "entity_type, entity_id"},

		// Task listing and filtering
		{"tasks", "idx_tasks_organization_id", "organization_id"},
		{"tasks", "idx_tasks_team_id", "team_id"},
		{"tasks", "idx_tasks_status", "status"},
		{"tasks", "idx_tasks_created_at", "created_at"},

		// Organization invite code lookup
		{"organizations", "idx_organizations_invite_code", "invite_code"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
