package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Department is a node in the organization tree. HierarchyPath is the
// materialized, ordered list of ancestor ids (root first, slash separated,
// excluding the department itself), so ancestor queries are O(depth) without
// recursive SQL. HierarchyLevel is 0 for a root department and
// parent.HierarchyLevel+1 otherwise; both fields are kept consistent with
// ParentDepartmentID by the repository inside the same transaction that
// mutates the tree.
type Department struct {
	ID                 uint64         `gorm:"primarykey" json:"id"`
	Name               string         `gorm:"type:varchar(255);not null" json:"name"`
	OrganizationID     uint64         `gorm:"not null;index" json:"organization_id"`
	ParentDepartmentID *uint64        `gorm:"index" json:"parent_department_id,omitempty"`
	HierarchyLevel     int            `gorm:"not null;default:0" json:"hierarchy_level"`
	HierarchyPath      string         `gorm:"type:varchar(255);not null;default:'';index" json:"hierarchy_path"`
	ManagerUserID      *uint64        `json:"manager_user_id,omitempty"`
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization Organization       `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Members      []DepartmentMember `gorm:"foreignKey:DepartmentID" json:"members,omitempty"`
}

// AncestorIDs parses the materialized path into ancestor ids, root first.
func (d *Department) AncestorIDs() []uint64 {
	if d.HierarchyPath == "" {
		return nil
	}
	parts := strings.Split(d.HierarchyPath, "/")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsDescendantOf reports whether candidate has ancestorID on its path.
func (d *Department) IsDescendantOf(ancestorID uint64) bool {
	for _, id := range d.AncestorIDs() {
		if id == ancestorID {
			return true
		}
	}
	return false
}

// ChildPath returns the materialized path a direct child of d must carry.
func (d *Department) ChildPath() string {
	self := strconv.FormatUint(d.ID, 10)
	if d.HierarchyPath == "" {
		return self
	}
	return d.HierarchyPath + "/" + self
}

// JoinPath builds a materialized path from ancestor ids, root first.
func JoinPath(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, "/")
}
