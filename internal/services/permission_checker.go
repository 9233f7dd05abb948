package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/teamforge/teamforge-api/internal/constants"
	"github.com/teamforge/teamforge-api/internal/metrics"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNoEntityContext = errors.New("permission context names no entity")
)

// PermissionChecker is the decision engine. It composes the role catalog,
// the permission matrix store, the organization hierarchy and the tier gate
// into a single allow/deny verdict.
//
// Resolution order, first definitive result wins:
//  1. explicit deny at the most specific entity in context
//  2. explicit allow at the most specific entity
//  3. the actor's role-default permission
//  4. inherited decisions walking one ancestor at a time, nearest first,
//     while the current entity's inherit_from_parent holds
//  5. the subscription tier ceiling (deny-only, applied to would-be allows)
//  6. default deny
type PermissionChecker struct {
	roleRepo       repository.RoleRepository
	matrixRepo     repository.PermissionMatrixRepository
	deptRepo       repository.DepartmentRepository
	membershipRepo repository.MembershipRepository
	teamRepo       repository.TeamRepository
	orgRepo        repository.OrganizationRepository
	tierGate       *TierGate
	log            *logrus.Logger
}

// NewPermissionChecker creates a new PermissionChecker.
func NewPermissionChecker(
	roleRepo repository.RoleRepository,
	matrixRepo repository.PermissionMatrixRepository,
	deptRepo repository.DepartmentRepository,
	membershipRepo repository.MembershipRepository,
	teamRepo repository.TeamRepository,
	orgRepo repository.OrganizationRepository,
	tierGate *TierGate,
	log *logrus.Logger,
) *PermissionChecker {
	return &PermissionChecker{
		roleRepo:       roleRepo,
		matrixRepo:     matrixRepo,
		deptRepo:       deptRepo,
		membershipRepo: membershipRepo,
		teamRepo:       teamRepo,
		orgRepo:        orgRepo,
		tierGate:       tierGate,
		log:            log,
	}
}

// Check answers whether actor may perform action on resource within the
// given context. A denial is a decision, not an error; errors are only
// raised for data-store failures, which callers treat as deny (fail closed).
func (s *PermissionChecker) Check(actor PermissionActor, resource, action string, pctx PermissionContext) (*PermissionDecision, error) {
	start := time.Now()
	decision, err := s.check(actor, resource, action, pctx)
	if err != nil {
		return nil, err
	}

	metrics.ObserveCheck(decision.Allowed, decision.Reason, time.Since(start).Seconds())
	s.log.WithFields(logrus.Fields{
		"user_id":  actor.UserID,
		"resource": resource,
		"action":   action,
		"allowed":  decision.Allowed,
		"reason":   decision.Reason,
	}).Debug("permission check")

	return decision, nil
}

func (s *PermissionChecker) check(actor PermissionActor, resource, action string, pctx PermissionContext) (*PermissionDecision, error) {
	chain, err := s.buildEntityChain(pctx)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, ErrNoEntityContext
	}

	role, err := s.resolveRole(actor, pctx)
	if err != nil {
		return nil, err
	}

	isAdmin := role != nil && role.HierarchyLevel >= constants.AdminLevelThreshold
	isMember, err := s.resolveMembership(actor.UserID, chain)
	if err != nil {
		return nil, err
	}

	verdict := func(allowed bool, reason string) *PermissionDecision {
		return &PermissionDecision{
			Allowed:  allowed,
			IsAdmin:  isAdmin,
			IsMember: isMember,
			Reason:   reason,
		}
	}

	// Steps 1-2: explicit rule at the most specific entity.
	head := chain[0]
	headMatrix, err := s.findMatrix(head)
	if err != nil {
		return nil, err
	}
	switch resolveRule(headMatrix, resource, action) {
	case Deny:
		return verdict(false, ReasonExplicitDeny), nil
	case Allow:
		return s.applyTierCeiling(verdict(true, ReasonExplicitAllow), pctx)
	}

	// Step 3: role default.
	if role != nil && role.DefaultPermissions.Allows(resource, action) {
		return s.applyTierCeiling(verdict(true, ReasonRoleDefault), pctx)
	}

	// Step 4: walk upward while inheritance is enabled at the current
	// level. Traversal order enforces override precedence: the nearest
	// ancestor with a definitive rule wins.
	inherit := models.DefaultInheritance().InheritFromParent
	if headMatrix != nil {
		inherit = headMatrix.Inheritance.InheritFromParent
	}
	for _, ancestor := range chain[1:] {
		if !inherit {
			break
		}
		matrix, err := s.findMatrix(ancestor)
		if err != nil {
			return nil, err
		}
		switch resolveRule(matrix, resource, action) {
		case Deny:
			return verdict(false, ReasonInheritedDeny), nil
		case Allow:
			return s.applyTierCeiling(verdict(true, ReasonInheritedAllow), pctx)
		}
		if matrix != nil {
			inherit = matrix.Inheritance.InheritFromParent
		}
	}

	// Step 6: nothing produced a decision.
	return verdict(false, ReasonNoPermission), nil
}

// CheckMany evaluates each request independently and combines the outcomes
// with AND (requireAll) or OR. A request that fails at the store boundary is
// reported per-request and counts as denied.
func (s *PermissionChecker) CheckMany(requests []CheckRequest, requireAll bool) *BatchPermissionResult {
	result := &BatchPermissionResult{
		Allowed: requireAll,
		Results: make([]CheckResult, 0, len(requests)),
	}
	if len(requests) == 0 {
		result.Allowed = false
		return result
	}

	for _, req := range requests {
		entry := CheckResult{Resource: req.Resource, Action: req.Action}

		decision, err := s.Check(req.Actor, req.Resource, req.Action, req.Context)
		if err != nil {
			entry.Err = err.Error()
			entry.Decision = PermissionDecision{Allowed: false, Reason: ReasonNoPermission}
		} else {
			entry.Decision = *decision
		}
		result.Results = append(result.Results, entry)

		if requireAll {
			result.Allowed = result.Allowed && entry.Decision.Allowed
		} else {
			result.Allowed = result.Allowed || entry.Decision.Allowed
		}
	}

	return result
}

// CheckRoleChange gates a role migration. The migration impact is assessed
// before the operation is allowed: high or critical risk requires the actor
// to be an administrator even when the matrix or role defaults would allow
// the manage_roles action.
func (s *PermissionChecker) CheckRoleChange(actor PermissionActor, fromRole, toRole string, pctx PermissionContext, roleHierarchy *RoleHierarchyService) (*PermissionDecision, *RoleMigrationImpact, error) {
	decision, err := s.Check(actor, models.CategoryAdministration, "manage_roles", pctx)
	if err != nil {
		return nil, nil, err
	}

	impact, err := roleHierarchy.AssessMigrationImpact(fromRole, toRole)
	if err != nil {
		return nil, nil, err
	}

	if decision.Allowed && !decision.IsAdmin &&
		(impact.RiskLevel == RiskHigh || impact.RiskLevel == RiskCritical) {
		denied := *decision
		denied.Allowed = false
		denied.Reason = ReasonEscalationRisk
		return &denied, impact, nil
	}

	return decision, impact, nil
}

// buildEntityChain orders the traversal from the most specific entity in
// context to the tenant root: team, then department and its ancestors, then
// organization.
func (s *PermissionChecker) buildEntityChain(pctx PermissionContext) ([]entityRef, error) {
	var chain []entityRef

	orgID := pctx.OrganizationID

	if pctx.TeamID != nil {
		chain = append(chain, entityRef{Type: models.EntityTeam, ID: *pctx.TeamID})
		if orgID == nil {
			team, err := s.teamRepo.FindByID(*pctx.TeamID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to resolve team: %w", err)
			}
			if team != nil {
				orgID = &team.OrganizationID
			}
		}
	}

	if pctx.DepartmentID != nil {
		chain = append(chain, entityRef{Type: models.EntityDepartment, ID: *pctx.DepartmentID})

		ancestors, err := s.deptRepo.Ancestors(*pctx.DepartmentID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to resolve department ancestors: %w", err)
			}
		} else {
			for _, anc := range ancestors {
				chain = append(chain, entityRef{Type: models.EntityDepartment, ID: anc.ID})
				if orgID == nil {
					orgID = &anc.OrganizationID
				}
			}
		}
		if orgID == nil {
			dept, err := s.deptRepo.FindByID(*pctx.DepartmentID)
			if err == nil {
				orgID = &dept.OrganizationID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to resolve department: %w", err)
			}
		}
	}

	if orgID != nil {
		chain = append(chain, entityRef{Type: models.EntityOrganization, ID: *orgID})
	}

	return chain, nil
}

// resolveRole loads the actor's catalog role: the explicit role name when
// supplied, otherwise the role on the actor's organization membership.
// A missing role is not an error; the actor simply has no role defaults.
func (s *PermissionChecker) resolveRole(actor PermissionActor, pctx PermissionContext) (*models.Role, error) {
	name := actor.RoleName
	if name == "" && pctx.OrganizationID != nil {
		membership, err := s.membershipRepo.ActiveMembership(actor.UserID, models.EntityOrganization, *pctx.OrganizationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to resolve membership role: %w", err)
		}
		name = membership.RoleName
	}
	if name == "" {
		return nil, nil
	}

	role, err := s.roleRepo.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}
	return role, nil
}

// resolveMembership reports whether the actor holds an active membership in
// any entity on the resolution chain.
func (s *PermissionChecker) resolveMembership(userID uint64, chain []entityRef) (bool, error) {
	for _, ref := range chain {
		_, err := s.membershipRepo.ActiveMembership(userID, ref.Type, ref.ID)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("failed to resolve membership: %w", err)
		}
	}
	return false, nil
}

// findMatrix loads the active matrix for an entity; absence is nil, not an
// error.
func (s *PermissionChecker) findMatrix(ref entityRef) (*models.PermissionMatrix, error) {
	matrix, err := s.matrixRepo.FindActive(ref.Type, ref.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load permission matrix: %w", err)
	}
	return matrix, nil
}

// applyTierCeiling turns a would-be allow into a deny when the implicated
// feature is at its tier limit. The gate never produces an allow on its own.
func (s *PermissionChecker) applyTierCeiling(decision *PermissionDecision, pctx PermissionContext) (*PermissionDecision, error) {
	if pctx.Feature == "" || !decision.Allowed {
		return decision, nil
	}

	tier, scopeID, err := s.resolveTierScope(pctx)
	if err != nil {
		return nil, err
	}
	if !tier.Valid() {
		return decision, nil
	}

	if err := s.tierGate.CheckScopedLimit(tier, scopeID, pctx.Feature); err != nil {
		var limitErr *LimitExceededError
		if errors.As(err, &limitErr) {
			metrics.FeatureLimitDenials.WithLabelValues(pctx.Feature).Inc()
			denied := *decision
			denied.Allowed = false
			denied.Reason = ReasonLimitExceeded
			return &denied, nil
		}
		return nil, err
	}

	return decision, nil
}

// resolveTierScope picks the tier and usage scope for the feature in
// context. Team-scoped features use the team's own tier when it carries one,
// falling back to the organization's.
func (s *PermissionChecker) resolveTierScope(pctx PermissionContext) (models.SubscriptionTier, uint64, error) {
	if pctx.Feature == models.FeatureTeamMembers && pctx.TeamID != nil {
		team, err := s.teamRepo.FindByID(*pctx.TeamID)
		if err != nil {
			return "", 0, fmt.Errorf("failed to resolve team tier: %w", err)
		}
		orgTier := models.SubscriptionTier("")
		if org, err := s.orgRepo.FindByID(team.OrganizationID); err == nil {
			orgTier = org.Tier
		}
		return team.EffectiveTier(orgTier), team.ID, nil
	}

	if pctx.OrganizationID == nil {
		return "", 0, nil
	}
	org, err := s.orgRepo.FindByID(*pctx.OrganizationID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to resolve organization tier: %w", err)
	}
	return org.Tier, org.ID, nil
}

// resolveRule looks up the explicit rule for (resource, action) in a matrix.
// A nil matrix, an unknown category, or an absent action all resolve to
// Unspecified so that missing data never silently grants or blocks.
func resolveRule(matrix *models.PermissionMatrix, resource, action string) Decision {
	if matrix == nil {
		return Unspecified
	}
	actions, ok := matrix.Rules[resource]
	if !ok {
		return Unspecified
	}
	allowed, ok := actions[action]
	if !ok {
		return Unspecified
	}
	if allowed {
		return Allow
	}
	return Deny
}
