package models

import (
	"time"
)

// EntityType is the closed set of scopes a permission matrix can attach to.
type EntityType string

const (
	EntityOrganization EntityType = "organization"
	EntityDepartment   EntityType = "department"
	EntityTeam         EntityType = "team"
	EntityUser         EntityType = "user"
)

// Valid reports whether the entity type is one of the known scopes.
func (e EntityType) Valid() bool {
	switch e {
	case EntityOrganization, EntityDepartment, EntityTeam, EntityUser:
		return true
	}
	return false
}

// MatrixStatus is the lifecycle state of a permission matrix. Matrices are
// never updated in place: a replacement supersedes the active row.
type MatrixStatus string

const (
	MatrixActive     MatrixStatus = "active"
	MatrixSuperseded MatrixStatus = "superseded"
)

// Rule categories recognized at write time.
const (
	CategoryTasks          = "tasks"
	CategoryTeams          = "teams"
	CategoryDepartments    = "departments"
	CategoryAnalytics      = "analytics"
	CategoryAdministration = "administration"
)

// KnownCategory reports whether category is accepted in matrix rules.
func KnownCategory(category string) bool {
	switch category {
	case CategoryTasks, CategoryTeams, CategoryDepartments, CategoryAnalytics, CategoryAdministration:
		return true
	}
	return false
}

// RuleSet groups explicit allow/deny rules by category: category → action → allowed.
type RuleSet map[string]map[string]bool

// InheritanceSettings controls how a matrix participates in hierarchy
// traversal. The bool fields carry no column defaults: a tagged default
// would make gorm skip zero values on insert, turning an explicit false
// back into true. Callers that want the defaults use DefaultInheritance.
type InheritanceSettings struct {
	InheritFromParent   bool `gorm:"not null" json:"inherit_from_parent"`
	AllowOverride       bool `gorm:"not null" json:"allow_override"`
	InheritancePriority int  `gorm:"not null;default:0" json:"inheritance_priority"`
}

// ComplianceSettings records audit and retention policy attached to a matrix.
type ComplianceSettings struct {
	AuditRequired       bool   `gorm:"not null;default:false" json:"audit_required"`
	ApprovalWorkflow    bool   `gorm:"not null;default:false" json:"approval_workflow"`
	RetentionPeriodDays int    `gorm:"not null;default:365" json:"retention_period_days"`
	ComplianceLevel     string `gorm:"type:varchar(20);not null;default:'standard'" json:"compliance_level"`
}

// PermissionMatrix holds the explicit permission rules for one entity.
// At most one row per (entity_type, entity_id) has status "active";
// replacement deactivates the previous row in the same transaction, so the
// full history remains queryable for audit.
type PermissionMatrix struct {
	ID          uint64              `gorm:"primarykey" json:"id"`
	EntityType  EntityType          `gorm:"type:varchar(20);not null;index:idx_matrix_entity" json:"entity_type"`
	EntityID    uint64              `gorm:"not null;index:idx_matrix_entity" json:"entity_id"`
	Status      MatrixStatus        `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Rules       RuleSet             `gorm:"serializer:json" json:"rules"`
	Inheritance InheritanceSettings `gorm:"embedded;embeddedPrefix:inheritance_" json:"inheritance"`
	Compliance  ComplianceSettings  `gorm:"embedded;embeddedPrefix:compliance_" json:"compliance"`
	CreatedBy   *uint64             `json:"created_by,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// DefaultInheritance returns the settings applied when an entity has no
// matrix of its own.
func DefaultInheritance() InheritanceSettings {
	return InheritanceSettings{
		InheritFromParent:   true,
		AllowOverride:       true,
		InheritancePriority: 0,
	}
}
