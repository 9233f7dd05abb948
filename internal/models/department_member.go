package models

import "time"

// DepartmentRole is the membership role within a department.
type DepartmentRole string

const (
	DeptRoleManager DepartmentRole = "manager"
	DeptRoleLead    DepartmentRole = "lead"
	DeptRoleMember  DepartmentRole = "member"
	DeptRoleViewer  DepartmentRole = "viewer"
)

// DepartmentMember links a user to a department. The service layer keeps at
// most one active row per (department_id, user_id); deactivated rows stay for
// the audit trail.
type DepartmentMember struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	DepartmentID uint64         `gorm:"not null;index:idx_dept_members_dept_user" json:"department_id"`
	UserID       uint64         `gorm:"not null;index:idx_dept_members_dept_user" json:"user_id"`
	Role         DepartmentRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	JoinedAt     time.Time      `json:"joined_at"`
	AddedBy      *uint64        `json:"added_by,omitempty"`

	// Relations
	Department Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
