package repository

import (
	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/gorm"
)

// GormPermissionMatrixRepository is a GORM implementation of PermissionMatrixRepository
type GormPermissionMatrixRepository struct {
	db *gorm.DB
}

// NewPermissionMatrixRepository creates a new PermissionMatrixRepository
func NewPermissionMatrixRepository(db *gorm.DB) PermissionMatrixRepository {
	return &GormPermissionMatrixRepository{db: db}
}

// FindActive returns the single active matrix for an entity
func (r *GormPermissionMatrixRepository) FindActive(entityType models.EntityType, entityID uint64) (*models.PermissionMatrix, error) {
	var matrix models.PermissionMatrix
	if err := r.db.Where("entity_type = ? AND entity_id = ? AND status = ?",
		entityType, entityID, models.MatrixActive).
		First(&matrix).Error; err != nil {
		return nil, err
	}
	return &matrix, nil
}

// ReplaceActive supersedes the current active matrix and inserts the new one
// in a single transaction. The previous matrix is never deleted; it stays
// queryable for audit. Concurrent replacements on the same entity serialize
// on the row update; last committed wins, but the invariant of exactly one
// active matrix per entity holds at every commit point.
func (r *GormPermissionMatrixRepository) ReplaceActive(matrix *models.PermissionMatrix) (*models.PermissionMatrix, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PermissionMatrix{}).
			Where("entity_type = ? AND entity_id = ? AND status = ?",
				matrix.EntityType, matrix.EntityID, models.MatrixActive).
			Update("status", models.MatrixSuperseded).Error; err != nil {
			return err
		}

		matrix.ID = 0
		matrix.Status = models.MatrixActive
		return tx.Create(matrix).Error
	})
	if err != nil {
		return nil, err
	}
	return matrix, nil
}

// History returns all matrices ever written for an entity, newest first
func (r *GormPermissionMatrixRepository) History(entityType models.EntityType, entityID uint64) ([]models.PermissionMatrix, error) {
	var matrices []models.PermissionMatrix
	if err := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC, id DESC").
		Find(&matrices).Error; err != nil {
		return nil, err
	}
	return matrices, nil
}
