package dto

import (
	"time"

	"github.com/teamforge/teamforge-api/internal/models"
)

// DepartmentDTO represents a department in API responses
type DepartmentDTO struct {
	ID                 uint64    `json:"id"`
	Name               string    `json:"name"`
	OrganizationID     uint64    `json:"organization_id"`
	ParentDepartmentID *uint64   `json:"parent_department_id,omitempty"`
	HierarchyLevel     int       `json:"hierarchy_level"`
	HierarchyPath      string    `json:"hierarchy_path"`
	ManagerUserID      *uint64   `json:"manager_user_id,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

// DepartmentMemberDTO represents a department membership
type DepartmentMemberDTO struct {
	User     UserDTO               `json:"user"`
	Role     models.DepartmentRole `json:"role"`
	JoinedAt time.Time             `json:"joined_at"`
}

// CreateDepartmentRequest represents the create department request body
type CreateDepartmentRequest struct {
	Name               string  `json:"name" binding:"required"`
	ParentDepartmentID *uint64 `json:"parent_department_id"`
	ManagerUserID      *uint64 `json:"manager_user_id"`
}

// MoveDepartmentRequest represents the subtree move request body. A null
// parent moves the department to the root of the organization.
type MoveDepartmentRequest struct {
	NewParentID *uint64 `json:"new_parent_id"`
}

// AddDepartmentMemberRequest represents the add member request body
type AddDepartmentMemberRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

// ToDepartmentDTO converts a department to DTO
func ToDepartmentDTO(dept models.Department) DepartmentDTO {
	return DepartmentDTO{
		ID:                 dept.ID,
		Name:               dept.Name,
		OrganizationID:     dept.OrganizationID,
		ParentDepartmentID: dept.ParentDepartmentID,
		HierarchyLevel:     dept.HierarchyLevel,
		HierarchyPath:      dept.HierarchyPath,
		ManagerUserID:      dept.ManagerUserID,
		IsActive:           dept.IsActive,
		CreatedAt:          dept.CreatedAt,
	}
}

// ToDepartmentDTOs converts a department slice to DTOs
func ToDepartmentDTOs(depts []models.Department) []DepartmentDTO {
	dtos := make([]DepartmentDTO, len(depts))
	for i, dept := range depts {
		dtos[i] = ToDepartmentDTO(dept)
	}
	return dtos
}

// ToDepartmentMemberDTO converts a department member to DTO
func ToDepartmentMemberDTO(member models.DepartmentMember) DepartmentMemberDTO {
	return DepartmentMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}
