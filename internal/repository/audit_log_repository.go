package repository

import (
	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository is a GORM implementation of AuditLogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts an audit log row
func (r *GormAuditLogRepository) Append(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

// ListByEntity returns audit entries for an entity, newest first
func (r *GormAuditLogRepository) ListByEntity(entityType models.EntityType, entityID uint64) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	if err := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
