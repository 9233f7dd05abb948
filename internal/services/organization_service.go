package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"github.com/teamforge/teamforge-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyOrganizationMember  = errors.New("user is already a member of this organization")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
	ErrInvalidTier                = errors.New("unknown subscription tier")
	ErrRoleChangeDenied           = errors.New("role change denied")
)

// OrganizationService provides business logic for tenant organizations.
type OrganizationService struct {
	orgRepo       repository.OrganizationRepository
	matrixService *PermissionMatrixService
	tierGate      *TierGate
	checker       *PermissionChecker
	roleHierarchy *RoleHierarchyService
	auditRepo     repository.AuditLogRepository
	log           *logrus.Logger
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	matrixService *PermissionMatrixService,
	tierGate *TierGate,
	checker *PermissionChecker,
	roleHierarchy *RoleHierarchyService,
	auditRepo repository.AuditLogRepository,
	log *logrus.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:       orgRepo,
		matrixService: matrixService,
		tierGate:      tierGate,
		checker:       checker,
		roleHierarchy: roleHierarchy,
		auditRepo:     auditRepo,
		log:           log,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name    string
	OwnerID uint64
	Tier    models.SubscriptionTier
}

// CreateOrganization creates a new organization, derives its tier ceilings,
// assigns the owner as admin and installs the default permission matrix.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	if input.Name == "" {
		return nil, ErrInvalidOrganizationName
	}

	tier := input.Tier
	if tier == "" {
		tier = models.TierFree
	}
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org := &models.Organization{
		Name:       input.Name,
		OwnerID:    &input.OwnerID,
		InviteCode: inviteCode,
		Tier:       tier,
	}
	org.ApplyTierCeilings()

	if err := s.orgRepo.Create(org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         input.OwnerID,
		RoleName:       models.RoleAdmin,
		IsActive:       true,
		JoinedAt:       time.Now(),
	}
	if err := s.orgRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add owner to organization: %w", err)
	}

	if _, err := s.matrixService.EnsureDefaultMatrix(models.EntityOrganization, org.ID, &input.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to install default matrix: %w", err)
	}

	return org, nil
}

// ListOrganizationsForUser returns organizations the user belongs to.
func (s *OrganizationService) ListOrganizationsForUser(userID uint64) ([]models.OrganizationMember, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetOrganizationWithMembers returns an organization and its active members.
func (s *OrganizationService) GetOrganizationWithMembers(orgID uint64) (*models.Organization, []models.OrganizationMember, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("failed to find organization: %w", err)
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// UpdateOrganizationName updates an organization's name.
func (s *OrganizationService) UpdateOrganizationName(orgID uint64, name string) (*models.Organization, error) {
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	org.Name = name
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// ChangeTier moves the organization to a new subscription tier and rederives
// its team/member ceilings so they never drift from the plan.
func (s *OrganizationService) ChangeTier(orgID uint64, tier models.SubscriptionTier) (*models.Organization, error) {
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}

	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	org.Tier = tier
	org.ApplyTierCeilings()
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to change tier: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"organization_id": orgID,
		"tier":            tier,
	}).Info("organization tier changed")
	return org, nil
}

// DeleteOrganization removes an organization and everything it owns.
func (s *OrganizationService) DeleteOrganization(orgID uint64) error {
	if _, err := s.findOrganization(orgID); err != nil {
		return err
	}

	if err := s.orgRepo.Delete(orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

// JoinOrganizationByInvite adds a user to an organization via invite code.
// The membership ceiling is enforced here, at mutation time, not only when
// ceilings are read.
func (s *OrganizationService) JoinOrganizationByInvite(userID uint64, inviteCode string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByInviteCode(inviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find organization by invite code: %w", err)
	}

	if _, err := s.orgRepo.FindActiveMember(org.ID, userID); err == nil {
		return nil, ErrAlreadyOrganizationMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	members, err := s.orgRepo.ListMembers(org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if org.MaxMembers != models.Unlimited && int64(len(members)) >= org.MaxMembers {
		return nil, &LimitExceededError{
			Feature: "members",
			Tier:    org.Tier,
			Current: int64(len(members)),
			Limit:   org.MaxMembers,
		}
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userID,
		RoleName:       models.RoleMember,
		IsActive:       true,
		JoinedAt:       time.Now(),
	}
	if err := s.orgRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to organization: %w", err)
	}

	return org, nil
}

// RegenerateInviteCode generates a new invite code for the organization.
func (s *OrganizationService) RegenerateInviteCode(orgID uint64) (*models.Organization, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org.InviteCode = code
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}
	return org, nil
}

// RemoveMember deactivates a member of the organization.
func (s *OrganizationService) RemoveMember(orgID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.orgRepo.FindActiveMember(orgID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to find organization member: %w", err)
	}

	if err := s.orgRepo.DeactivateMember(orgID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// ChangeMemberRole migrates a member to another catalog role. The decision
// engine and the role hierarchy are consulted first: the migration impact is
// assessed before any row changes, and a denied verdict aborts the change.
func (s *OrganizationService) ChangeMemberRole(orgID, actorID, targetID uint64, newRole string) (*RoleMigrationImpact, error) {
	target, err := s.orgRepo.FindActiveMember(orgID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to find organization member: %w", err)
	}

	actor := PermissionActor{UserID: actorID}
	pctx := PermissionContext{OrganizationID: &orgID}
	decision, impact, err := s.checker.CheckRoleChange(actor, target.RoleName, newRole, pctx, s.roleHierarchy)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return impact, fmt.Errorf("%w: %s", ErrRoleChangeDenied, decision.Reason)
	}

	if err := s.orgRepo.UpdateMemberRole(orgID, targetID, newRole); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		EntityType: models.EntityOrganization,
		EntityID:   orgID,
		Action:     "member.role_change",
		ActorID:    &actorID,
		Detail: fmt.Sprintf("user %d: %s -> %s (risk %s)",
			targetID, target.RoleName, newRole, impact.RiskLevel),
		CreatedAt: time.Now(),
	}
	if err := s.auditRepo.Append(entry); err != nil {
		s.log.WithError(err).Warn("failed to append role change audit entry")
	}

	return impact, nil
}

func (s *OrganizationService) findOrganization(orgID uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}
