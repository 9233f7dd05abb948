package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/teamforge/teamforge-api/internal/constants"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrDepartmentNotFound       = errors.New("department not found")
	ErrDepartmentNameRequired   = errors.New("department name cannot be empty")
	ErrParentDepartmentNotFound = errors.New("parent department not found")
	ErrParentInOtherOrg         = errors.New("parent department belongs to another organization")
	ErrDepartmentTooDeep        = errors.New("department nesting too deep")
	ErrAlreadyDepartmentMember  = errors.New("user is already an active member of this department")
	ErrDepartmentMemberNotFound = errors.New("department member not found")
)

// DepartmentService manages the department tree and its memberships.
type DepartmentService struct {
	deptRepo      repository.DepartmentRepository
	orgRepo       repository.OrganizationRepository
	matrixService *PermissionMatrixService
	log           *logrus.Logger
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(
	deptRepo repository.DepartmentRepository,
	orgRepo repository.OrganizationRepository,
	matrixService *PermissionMatrixService,
	log *logrus.Logger,
) *DepartmentService {
	return &DepartmentService{
		deptRepo:      deptRepo,
		orgRepo:       orgRepo,
		matrixService: matrixService,
		log:           log,
	}
}

// CreateDepartmentInput represents parameters to create a department.
type CreateDepartmentInput struct {
	Name               string
	OrganizationID     uint64
	ParentDepartmentID *uint64
	ManagerUserID      *uint64
	ActorID            *uint64
}

// CreateDepartment creates a department under an organization or under
// another department, computing hierarchy level and materialized path from
// the parent. A default permission matrix is installed alongside.
func (s *DepartmentService) CreateDepartment(input CreateDepartmentInput) (*models.Department, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrDepartmentNameRequired
	}

	if _, err := s.orgRepo.FindByID(input.OrganizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	level := 0
	path := ""
	if input.ParentDepartmentID != nil {
		parent, err := s.deptRepo.FindByID(*input.ParentDepartmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentDepartmentNotFound
			}
			return nil, fmt.Errorf("failed to find parent department: %w", err)
		}
		if parent.OrganizationID != input.OrganizationID {
			return nil, ErrParentInOtherOrg
		}
		if parent.HierarchyLevel+1 >= constants.MaxHierarchyDepth {
			return nil, ErrDepartmentTooDeep
		}
		level = parent.HierarchyLevel + 1
		path = parent.ChildPath()
	}

	dept := &models.Department{
		Name:               input.Name,
		OrganizationID:     input.OrganizationID,
		ParentDepartmentID: input.ParentDepartmentID,
		HierarchyLevel:     level,
		HierarchyPath:      path,
		ManagerUserID:      input.ManagerUserID,
		IsActive:           true,
	}

	if err := s.deptRepo.Create(dept); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	if _, err := s.matrixService.EnsureDefaultMatrix(models.EntityDepartment, dept.ID, input.ActorID); err != nil {
		return nil, fmt.Errorf("failed to install default matrix: %w", err)
	}

	return dept, nil
}

// GetDepartment returns a department by id.
func (s *DepartmentService) GetDepartment(id uint64) (*models.Department, error) {
	dept, err := s.deptRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to find department: %w", err)
	}
	return dept, nil
}

// ListDepartments returns the active departments of an organization,
// shallowest first.
func (s *DepartmentService) ListDepartments(orgID uint64) ([]models.Department, error) {
	depts, err := s.deptRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}

// Ancestors returns the department's ancestors, nearest first.
func (s *DepartmentService) Ancestors(id uint64) ([]models.Department, error) {
	ancestors, err := s.deptRepo.Ancestors(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to resolve ancestors: %w", err)
	}
	return ancestors, nil
}

// IsDescendant reports whether candidate sits below ancestor in the tree.
func (s *DepartmentService) IsDescendant(candidateID, ancestorID uint64) (bool, error) {
	dept, err := s.deptRepo.FindByID(candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrDepartmentNotFound
		}
		return false, fmt.Errorf("failed to find department: %w", err)
	}
	return dept.IsDescendantOf(ancestorID), nil
}

// MoveDepartment re-parents a department. The repository rejects moves that
// would create a cycle before mutating any row; that error is passed through
// unchanged.
func (s *DepartmentService) MoveDepartment(id uint64, newParentID *uint64) error {
	if err := s.deptRepo.MoveSubtree(id, newParentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		if errors.Is(err, repository.ErrCycleDetected) ||
			errors.Is(err, repository.ErrDepthExceeded) ||
			errors.Is(err, repository.ErrCrossOrganizationMove) {
			return err
		}
		return fmt.Errorf("failed to move department: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"department_id": id,
		"new_parent":    newParentID,
	}).Info("department moved")
	return nil
}

// DeactivateDepartment soft-disables a department and its whole subtree.
func (s *DepartmentService) DeactivateDepartment(id uint64) error {
	if err := s.deptRepo.DeactivateSubtree(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return fmt.Errorf("failed to deactivate department: %w", err)
	}
	return nil
}

// AddMemberInput represents parameters to add a department member.
type AddMemberInput struct {
	DepartmentID uint64
	UserID       uint64
	Role         models.DepartmentRole
	AddedBy      *uint64
}

// AddMember adds a user to a department, enforcing the unique active
// (department, user) pair.
func (s *DepartmentService) AddMember(input AddMemberInput) (*models.DepartmentMember, error) {
	if _, err := s.deptRepo.FindByID(input.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to find department: %w", err)
	}

	if _, err := s.deptRepo.FindActiveMember(input.DepartmentID, input.UserID); err == nil {
		return nil, ErrAlreadyDepartmentMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	role := input.Role
	if role == "" {
		role = models.DeptRoleMember
	}

	member := &models.DepartmentMember{
		DepartmentID: input.DepartmentID,
		UserID:       input.UserID,
		Role:         role,
		IsActive:     true,
		JoinedAt:     time.Now(),
		AddedBy:      input.AddedBy,
	}
	if err := s.deptRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add department member: %w", err)
	}
	return member, nil
}

// RemoveMember deactivates a department membership.
func (s *DepartmentService) RemoveMember(departmentID, userID uint64) error {
	if _, err := s.deptRepo.FindActiveMember(departmentID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentMemberNotFound
		}
		return fmt.Errorf("failed to find department member: %w", err)
	}

	if err := s.deptRepo.DeactivateMember(departmentID, userID); err != nil {
		return fmt.Errorf("failed to remove department member: %w", err)
	}
	return nil
}

// ListMembers returns the active members of a department.
func (s *DepartmentService) ListMembers(departmentID uint64) ([]models.DepartmentMember, error) {
	members, err := s.deptRepo.ListMembers(departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list department members: %w", err)
	}
	return members, nil
}
