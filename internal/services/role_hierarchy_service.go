package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrRoleNotFound = errors.New("role not found")
)

// RiskLevel grades the privilege impact of a role migration.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Level-delta thresholds for migration risk.
const (
	riskHighDelta     = 30
	riskCriticalDelta = 60
)

// RoleMigrationImpact describes what changes when a member moves between
// catalog roles.
type RoleMigrationImpact struct {
	FromRole          string    `json:"from_role"`
	ToRole            string    `json:"to_role"`
	LevelDelta        int       `json:"level_delta"`
	RiskLevel         RiskLevel `json:"risk_level"`
	GainedPermissions []string  `json:"gained_permissions"`
	LostPermissions   []string  `json:"lost_permissions"`
}

// RoleTreeNode is one role in the catalog with the names of the roles it
// inherits from (every active role strictly below it).
type RoleTreeNode struct {
	Role         models.Role `json:"role"`
	InheritsFrom []string    `json:"inherits_from"`
}

// RoleHierarchyService computes inherited permissions across the role
// catalog and assesses the risk of role migrations.
type RoleHierarchyService struct {
	roleRepo repository.RoleRepository
}

// NewRoleHierarchyService creates a new RoleHierarchyService.
func NewRoleHierarchyService(roleRepo repository.RoleRepository) *RoleHierarchyService {
	return &RoleHierarchyService{roleRepo: roleRepo}
}

// RoleTree returns the catalog ordered by hierarchy level descending, each
// node annotated with the roles it inherits from.
func (s *RoleHierarchyService) RoleTree() ([]RoleTreeNode, error) {
	roles, err := s.roleRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	nodes := make([]RoleTreeNode, 0, len(roles))
	for _, role := range roles {
		node := RoleTreeNode{Role: role}
		for _, other := range roles {
			if other.HierarchyLevel < role.HierarchyLevel {
				node.InheritsFrom = append(node.InheritsFrom, other.Name)
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// InheritedPermissions returns the effective default permission set of a
// role: the union of its own defaults and the defaults of every active role
// strictly below it in hierarchy level.
func (s *RoleHierarchyService) InheritedPermissions(roleName string) (models.PermissionSet, error) {
	role, err := s.roleRepo.FindByName(roleName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}

	roles, err := s.roleRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	merged := models.PermissionSet{}
	mergePermissions(merged, role.DefaultPermissions)
	for _, other := range roles {
		if other.HierarchyLevel < role.HierarchyLevel {
			mergePermissions(merged, other.DefaultPermissions)
		}
	}
	return merged, nil
}

// AssessMigrationImpact compares the inherited permission sets of two roles
// and grades the escalation risk. Gaining any administration permission is
// at least high risk regardless of the level delta; that rule exists to flag
// lateral migrations that smuggle in privilege.
func (s *RoleHierarchyService) AssessMigrationImpact(fromRole, toRole string) (*RoleMigrationImpact, error) {
	from, err := s.roleRepo.FindByName(fromRole)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to find role %q: %w", fromRole, err)
	}
	to, err := s.roleRepo.FindByName(toRole)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to find role %q: %w", toRole, err)
	}

	fromPerms, err := s.InheritedPermissions(fromRole)
	if err != nil {
		return nil, err
	}
	toPerms, err := s.InheritedPermissions(toRole)
	if err != nil {
		return nil, err
	}

	gained := diffPermissions(toPerms, fromPerms)
	lost := diffPermissions(fromPerms, toPerms)
	delta := to.HierarchyLevel - from.HierarchyLevel

	risk := RiskLow
	switch {
	case delta >= riskCriticalDelta:
		risk = RiskCritical
	case delta >= riskHighDelta:
		risk = RiskHigh
	case delta > 0:
		risk = RiskMedium
	}

	if gainsAdministration(gained) && risk != RiskHigh && risk != RiskCritical {
		risk = RiskHigh
	}

	return &RoleMigrationImpact{
		FromRole:          from.Name,
		ToRole:            to.Name,
		LevelDelta:        delta,
		RiskLevel:         risk,
		GainedPermissions: gained,
		LostPermissions:   lost,
	}, nil
}

// mergePermissions unions src into dst, deduplicating actions.
func mergePermissions(dst models.PermissionSet, src models.PermissionSet) {
	for resource, actions := range src {
		for _, action := range actions {
			if !dst.Allows(resource, action) {
				dst[resource] = append(dst[resource], action)
			}
		}
	}
}

// diffPermissions returns the "resource:action" pairs present in a but not
// in b, sorted for stable output.
func diffPermissions(a, b models.PermissionSet) []string {
	var diff []string
	for resource, actions := range a {
		for _, action := range actions {
			if !b.Allows(resource, action) {
				diff = append(diff, resource+":"+action)
			}
		}
	}
	sort.Strings(diff)
	return diff
}

// gainsAdministration reports whether any gained pair is in the
// administration category.
func gainsAdministration(gained []string) bool {
	prefix := models.CategoryAdministration + ":"
	for _, pair := range gained {
		if len(pair) > len(prefix) && pair[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
