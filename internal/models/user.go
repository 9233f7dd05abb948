package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName  string         `gorm:"type:varchar(100)" json:"display_name"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedTasks  []Task               `gorm:"foreignKey:CreatorID" json:"-"`
	Organizations []OrganizationMember `gorm:"foreignKey:UserID" json:"-"`
	Departments   []DepartmentMember   `gorm:"foreignKey:UserID" json:"-"`
	Teams         []TeamMember         `gorm:"foreignKey:UserID" json:"-"`
}
