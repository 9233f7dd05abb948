package models

import "time"

// OrganizationMember links a user to an organization with a catalog role.
type OrganizationMember struct {
	OrganizationID uint64    `gorm:"primarykey" json:"organization_id"`
	UserID         uint64    `gorm:"primarykey" json:"user_id"`
	RoleName       string    `gorm:"type:varchar(50);not null" json:"role_name"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	JoinedAt       time.Time `json:"joined_at"`
	AddedBy        *uint64   `json:"added_by,omitempty"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
