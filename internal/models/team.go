package models

import (
	"time"

	"gorm.io/gorm"
)

// Team is a flat group under an organization: teams never nest. A team may
// carry its own subscription tier; when empty, the organization's tier
// applies for team-scoped feature limits.
type Team struct {
	ID             uint64           `gorm:"primarykey" json:"id"`
	Name           string           `gorm:"type:varchar(255);not null" json:"name"`
	OrganizationID uint64           `gorm:"not null;index" json:"organization_id"`
	OwnerID        *uint64          `json:"owner_id,omitempty"`
	Tier           SubscriptionTier `gorm:"type:varchar(20);not null;default:''" json:"tier,omitempty"`
	IsActive       bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Members      []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// EffectiveTier resolves the tier used for team-scoped limit checks.
func (t *Team) EffectiveTier(orgTier SubscriptionTier) SubscriptionTier {
	if t.Tier.Valid() {
		return t.Tier
	}
	return orgTier
}
