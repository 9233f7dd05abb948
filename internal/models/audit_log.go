package models

import "time"

// AuditLog records a compliance-relevant mutation: matrix replacements and
// role migrations. Rows are append-only.
type AuditLog struct {
	ID         string     `gorm:"type:varchar(36);primarykey" json:"id"`
	EntityType EntityType `gorm:"type:varchar(20);not null;index" json:"entity_type"`
	EntityID   uint64     `gorm:"not null;index" json:"entity_id"`
	Action     string     `gorm:"type:varchar(50);not null" json:"action"`
	ActorID    *uint64    `json:"actor_id,omitempty"`
	Detail     string     `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
