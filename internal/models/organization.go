package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization is the tenant root. OwnerID is optional: deleting the owning
// user leaves the organization ownerless rather than cascading.
type Organization struct {
	ID         uint64           `gorm:"primarykey" json:"id"`
	Name       string           `gorm:"type:varchar(255);not null" json:"name"`
	OwnerID    *uint64          `json:"owner_id,omitempty"`
	InviteCode string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	Tier       SubscriptionTier `gorm:"type:varchar(20);not null;default:'free'" json:"tier"`
	MaxTeams   int64            `gorm:"not null;default:1" json:"max_teams"`
	MaxMembers int64            `gorm:"not null;default:5" json:"max_members"`
	Settings   string           `gorm:"type:text" json:"settings,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	Members     []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Departments []Department         `gorm:"foreignKey:OrganizationID" json:"departments,omitempty"`
	Teams       []Team               `gorm:"foreignKey:OrganizationID" json:"teams,omitempty"`
	Tasks       []Task               `gorm:"foreignKey:OrganizationID" json:"tasks,omitempty"`
}

// ApplyTierCeilings resets MaxTeams/MaxMembers to the ceilings derived from
// the organization's tier. Called whenever the tier changes so the stored
// ceilings never drift from the plan.
func (o *Organization) ApplyTierCeilings() {
	if limit, ok := LimitFor(o.Tier, FeatureTeams); ok {
		o.MaxTeams = limit
	}
	if limit, ok := LimitFor(o.Tier, FeatureTeamMembers); ok {
		o.MaxMembers = limit
	}
}
