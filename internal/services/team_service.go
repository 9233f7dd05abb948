package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameRequired   = errors.New("team name cannot be empty")
	ErrAlreadyTeamMember  = errors.New("user is already a member of this team")
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrTeamTierUnknown    = errors.New("unknown team subscription tier")
)

// TeamService manages teams and their memberships. Creation and membership
// growth are gated by the owning tenant's subscription tier.
type TeamService struct {
	teamRepo      repository.TeamRepository
	orgRepo       repository.OrganizationRepository
	tierGate      *TierGate
	matrixService *PermissionMatrixService
}

// NewTeamService creates a new TeamService.
func NewTeamService(
	teamRepo repository.TeamRepository,
	orgRepo repository.OrganizationRepository,
	tierGate *TierGate,
	matrixService *PermissionMatrixService,
) *TeamService {
	return &TeamService{
		teamRepo:      teamRepo,
		orgRepo:       orgRepo,
		tierGate:      tierGate,
		matrixService: matrixService,
	}
}

// CreateTeamInput represents parameters to create a team.
type CreateTeamInput struct {
	Name           string
	OrganizationID uint64
	OwnerID        uint64
	Tier           models.SubscriptionTier
}

// CreateTeam creates a team under an organization. The organization tier's
// team ceiling is checked first; the usage count is read outside the insert,
// so two concurrent creates can both pass (accepted best-effort bound).
func (s *TeamService) CreateTeam(input CreateTeamInput) (*models.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrTeamNameRequired
	}
	if input.Tier != "" && !input.Tier.Valid() {
		return nil, ErrTeamTierUnknown
	}

	org, err := s.orgRepo.FindByID(input.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	if err := s.tierGate.CheckScopedLimit(org.Tier, org.ID, models.FeatureTeams); err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:           input.Name,
		OrganizationID: input.OrganizationID,
		OwnerID:        &input.OwnerID,
		Tier:           input.Tier,
		IsActive:       true,
	}
	if err := s.teamRepo.Create(team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	member := &models.TeamMember{
		TeamID:   team.ID,
		UserID:   input.OwnerID,
		RoleName: models.RoleAdmin,
		IsActive: true,
		JoinedAt: time.Now(),
	}
	if err := s.teamRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add owner to team: %w", err)
	}

	if _, err := s.matrixService.EnsureDefaultMatrix(models.EntityTeam, team.ID, &input.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to install default matrix: %w", err)
	}

	return team, nil
}

// GetTeam returns a team by id.
func (s *TeamService) GetTeam(id uint64) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

// ListTeams returns the active teams of an organization.
func (s *TeamService) ListTeams(orgID uint64) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// AddTeamMemberInput represents parameters to add a team member.
type AddTeamMemberInput struct {
	TeamID   uint64
	UserID   uint64
	RoleName string
	AddedBy  *uint64
}

// AddMember adds a user to a team, gated by the team-member ceiling of the
// team's effective tier (the team's own tier when set, the organization's
// otherwise).
func (s *TeamService) AddMember(input AddTeamMemberInput) (*models.TeamMember, error) {
	team, err := s.teamRepo.FindByID(input.TeamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	if _, err := s.teamRepo.FindActiveMember(input.TeamID, input.UserID); err == nil {
		return nil, ErrAlreadyTeamMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	org, err := s.orgRepo.FindByID(team.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	tier := team.EffectiveTier(org.Tier)
	if err := s.tierGate.CheckScopedLimit(tier, team.ID, models.FeatureTeamMembers); err != nil {
		return nil, err
	}

	roleName := input.RoleName
	if roleName == "" {
		roleName = models.RoleMember
	}

	member := &models.TeamMember{
		TeamID:   input.TeamID,
		UserID:   input.UserID,
		RoleName: roleName,
		IsActive: true,
		JoinedAt: time.Now(),
		AddedBy:  input.AddedBy,
	}
	if err := s.teamRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}
	return member, nil
}

// RemoveMember deactivates a team membership.
func (s *TeamService) RemoveMember(teamID, userID uint64) error {
	if _, err := s.teamRepo.FindActiveMember(teamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamMemberNotFound
		}
		return fmt.Errorf("failed to find team member: %w", err)
	}

	if err := s.teamRepo.DeactivateMember(teamID, userID); err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return nil
}

// ListMembers returns the active members of a team.
func (s *TeamService) ListMembers(teamID uint64) ([]models.TeamMember, error) {
	members, err := s.teamRepo.ListMembers(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}
