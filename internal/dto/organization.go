package dto

import (
	"time"

	"github.com/teamforge/teamforge-api/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID         uint64                  `json:"id"`
	Name       string                  `json:"name"`
	OwnerID    *uint64                 `json:"owner_id,omitempty"`
	Tier       models.SubscriptionTier `json:"tier"`
	MaxTeams   int64                   `json:"max_teams"`
	MaxMembers int64                   `json:"max_members"`
	InviteCode string                  `json:"invite_code,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// OrganizationMemberDTO represents a member in an organization
type OrganizationMemberDTO struct {
	User     UserDTO   `json:"user"`
	RoleName string    `json:"role_name"`
	JoinedAt time.Time `json:"joined_at"`
}

// OrganizationWithRoleDTO represents an organization with the user's role
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	RoleName string `json:"role_name"`
}

// OrganizationDetailDTO represents detailed organization information
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members []OrganizationMemberDTO `json:"members"`
}

// CreateOrganizationRequest represents the create organization request body
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Tier string `json:"tier"`
}

// UpdateOrganizationRequest represents the update organization request body
type UpdateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// ChangeTierRequest represents the tier change request body
type ChangeTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// JoinOrganizationRequest represents the join-by-invite request body
type JoinOrganizationRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

// ChangeMemberRoleRequest represents the member role change request body
type ChangeMemberRoleRequest struct {
	RoleName string `json:"role_name" binding:"required"`
}

// ToOrganizationDTO converts an organization to DTO. The invite code is only
// included when the caller may administer the organization.
func ToOrganizationDTO(org models.Organization, includeInviteCode bool) OrganizationDTO {
	dto := OrganizationDTO{
		ID:         org.ID,
		Name:       org.Name,
		OwnerID:    org.OwnerID,
		Tier:       org.Tier,
		MaxTeams:   org.MaxTeams,
		MaxMembers: org.MaxMembers,
		CreatedAt:  org.CreatedAt,
	}
	if includeInviteCode {
		dto.InviteCode = org.InviteCode
	}
	return dto
}

// ToOrganizationMemberDTO converts a member to DTO
func ToOrganizationMemberDTO(member models.OrganizationMember) OrganizationMemberDTO {
	return OrganizationMemberDTO{
		User:     ToUserDTO(member.User),
		RoleName: member.RoleName,
		JoinedAt: member.JoinedAt,
	}
}

// ToOrganizationWithRoleDTO converts an organization member to DTO with role
func ToOrganizationWithRoleDTO(member models.OrganizationMember) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(member.Organization, false),
		RoleName:        member.RoleName,
	}
}

// ToOrganizationDetailDTO converts organization with members to detailed DTO
func ToOrganizationDetailDTO(org models.Organization, members []models.OrganizationMember, includeInviteCode bool) OrganizationDetailDTO {
	memberDTOs := make([]OrganizationMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToOrganizationMemberDTO(member)
	}

	return OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org, includeInviteCode),
		Members:         memberDTOs,
	}
}
