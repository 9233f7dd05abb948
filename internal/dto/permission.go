package dto

import (
	"time"

	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/services"
)

// PermissionContextRequest narrows a check to a position in the tenant tree
type PermissionContextRequest struct {
	OrganizationID *uint64 `json:"organization_id"`
	DepartmentID   *uint64 `json:"department_id"`
	TeamID         *uint64 `json:"team_id"`
	Feature        string  `json:"feature"`
}

// CheckPermissionRequest represents a single permission check request body
type CheckPermissionRequest struct {
	UserID   uint64                   `json:"user_id" binding:"required"`
	RoleName string                   `json:"role_name"`
	Resource string                   `json:"resource" binding:"required"`
	Action   string                   `json:"action" binding:"required"`
	Context  PermissionContextRequest `json:"context"`
}

// BatchCheckEntry is one entry of a batch permission check
type BatchCheckEntry struct {
	Resource string                   `json:"resource" binding:"required"`
	Action   string                   `json:"action" binding:"required"`
	Context  PermissionContextRequest `json:"context"`
}

// BatchCheckPermissionRequest represents the batch check request body
type BatchCheckPermissionRequest struct {
	UserID     uint64            `json:"user_id" binding:"required"`
	RoleName   string            `json:"role_name"`
	RequireAll bool              `json:"require_all"`
	Checks     []BatchCheckEntry `json:"checks" binding:"required,min=1"`
}

// MigrationImpactRequest represents the role migration assessment request body
type MigrationImpactRequest struct {
	FromRole string `json:"from_role" binding:"required"`
	ToRole   string `json:"to_role" binding:"required"`
}

// ReplaceMatrixRequest represents the matrix replacement request body
type ReplaceMatrixRequest struct {
	Rules       models.RuleSet              `json:"rules" binding:"required"`
	Inheritance *models.InheritanceSettings `json:"inheritance"`
	Compliance  *models.ComplianceSettings  `json:"compliance"`
}

// MatrixDTO represents a permission matrix version in API responses
type MatrixDTO struct {
	ID          uint64                     `json:"id"`
	EntityType  models.EntityType          `json:"entity_type"`
	EntityID    uint64                     `json:"entity_id"`
	Status      models.MatrixStatus        `json:"status"`
	Rules       models.RuleSet             `json:"rules"`
	Inheritance models.InheritanceSettings `json:"inheritance"`
	Compliance  models.ComplianceSettings  `json:"compliance"`
	CreatedBy   *uint64                    `json:"created_by,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// ToPermissionContext converts a request context into the checker's form
func (r PermissionContextRequest) ToPermissionContext() services.PermissionContext {
	return services.PermissionContext{
		OrganizationID: r.OrganizationID,
		DepartmentID:   r.DepartmentID,
		TeamID:         r.TeamID,
		Feature:        r.Feature,
	}
}

// ToMatrixDTO converts a permission matrix to DTO
func ToMatrixDTO(matrix models.PermissionMatrix) MatrixDTO {
	return MatrixDTO{
		ID:          matrix.ID,
		EntityType:  matrix.EntityType,
		EntityID:    matrix.EntityID,
		Status:      matrix.Status,
		Rules:       matrix.Rules,
		Inheritance: matrix.Inheritance,
		Compliance:  matrix.Compliance,
		CreatedBy:   matrix.CreatedBy,
		CreatedAt:   matrix.CreatedAt,
		UpdatedAt:   matrix.UpdatedAt,
	}
}

// ToMatrixDTOs converts a matrix slice to DTOs
func ToMatrixDTOs(matrices []models.PermissionMatrix) []MatrixDTO {
	dtos := make([]MatrixDTO, len(matrices))
	for i, matrix := range matrices {
		dtos[i] = ToMatrixDTO(matrix)
	}
	return dtos
}
