package dto

import (
	"time"

	"github.com/teamforge/teamforge-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID             uint64                  `json:"id"`
	Name           string                  `json:"name"`
	OrganizationID uint64                  `json:"organization_id"`
	OwnerID        *uint64                 `json:"owner_id,omitempty"`
	Tier           models.SubscriptionTier `json:"tier,omitempty"`
	IsActive       bool                    `json:"is_active"`
	CreatedAt      time.Time               `json:"created_at"`
}

// TeamMemberDTO represents a team membership
type TeamMemberDTO struct {
	User     UserDTO   `json:"user"`
	RoleName string    `json:"role_name"`
	JoinedAt time.Time `json:"joined_at"`
}

// CreateTeamRequest represents the create team request body
type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
	Tier string `json:"tier"`
}

// AddTeamMemberRequest represents the add team member request body
type AddTeamMemberRequest struct {
	UserID   uint64 `json:"user_id" binding:"required"`
	RoleName string `json:"role_name"`
}

// ToTeamDTO converts a team to DTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:             team.ID,
		Name:           team.Name,
		OrganizationID: team.OrganizationID,
		OwnerID:        team.OwnerID,
		Tier:           team.Tier,
		IsActive:       team.IsActive,
		CreatedAt:      team.CreatedAt,
	}
}

// ToTeamDTOs converts a team slice to DTOs
func ToTeamDTOs(teams []models.Team) []TeamDTO {
	dtos := make([]TeamDTO, len(teams))
	for i, team := range teams {
		dtos[i] = ToTeamDTO(team)
	}
	return dtos
}

// ToTeamMemberDTO converts a team member to DTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		User:     ToUserDTO(member.User),
		RoleName: member.RoleName,
		JoinedAt: member.JoinedAt,
	}
}
