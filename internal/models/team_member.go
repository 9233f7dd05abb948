package models

import "time"

// TeamMember links a user to a team.
type TeamMember struct {
	TeamID   uint64    `gorm:"primarykey" json:"team_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	RoleName string    `gorm:"type:varchar(50);not null;default:'member'" json:"role_name"`
	IsActive bool      `gorm:"not null;default:true" json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
	AddedBy  *uint64   `json:"added_by,omitempty"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
