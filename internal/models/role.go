package models

import (
	"time"

	"gorm.io/gorm"
)

// Well-known role names seeded at bootstrap.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
	RoleViewer  = "viewer"
)

// PermissionSet maps a resource (rule category) to the actions a role may
// perform on it by default.
type PermissionSet map[string][]string

// Allows reports whether the set grants action on resource.
func (p PermissionSet) Allows(resource, action string) bool {
	for _, a := range p[resource] {
		if a == action {
			return true
		}
	}
	return false
}

// Role is a named entry in the role catalog. HierarchyLevel is unique per
// role; a higher level means more privilege.
type Role struct {
	ID                 uint64         `gorm:"primarykey" json:"id"`
	Name               string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	DisplayName        string         `gorm:"type:varchar(100);not null" json:"display_name"`
	HierarchyLevel     int            `gorm:"uniqueIndex;not null" json:"hierarchy_level"`
	DefaultPermissions PermissionSet  `gorm:"serializer:json" json:"default_permissions"`
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}
