package repository

import (
	"errors"
	"time"

	"github.com/teamforge/teamforge-api/internal/models"
)

// Errors surfaced by repository implementations where the caller needs to
// distinguish the failure from a plain storage error.
var (
	// ErrCycleDetected is returned when a department move would make the
	// department its own ancestor. The move is rejected before any row is
	// mutated.
	ErrCycleDetected = errors.New("department move would create a cycle")

	// ErrDepthExceeded is returned when a move or create would push a
	// subtree past the maximum hierarchy depth.
	ErrDepthExceeded = errors.New("department hierarchy depth exceeded")

	// ErrCrossOrganizationMove is returned when the new parent belongs to a
	// different organization.
	ErrCrossOrganizationMove = errors.New("cannot move department across organizations")
)

// RoleRepository is the role catalog store.
type RoleRepository interface {
	// Create inserts a role into the catalog
	Create(role *models.Role) error

	// FindByName finds an active role by its stable name
	FindByName(name string) (*models.Role, error)

	// List returns all active roles ordered by hierarchy level descending
	List() ([]models.Role, error)
}

// PermissionMatrixRepository stores per-entity permission matrices.
type PermissionMatrixRepository interface {
	// FindActive returns the single active matrix for an entity, or
	// gorm.ErrRecordNotFound when the entity has none
	FindActive(entityType models.EntityType, entityID uint64) (*models.PermissionMatrix, error)

	// ReplaceActive supersedes the entity's active matrix (if any) and
	// inserts the new one as active, atomically
	ReplaceActive(matrix *models.PermissionMatrix) (*models.PermissionMatrix, error)

	// History returns all matrices ever written for an entity, newest first
	History(entityType models.EntityType, entityID uint64) ([]models.PermissionMatrix, error)
}

// DepartmentRepository stores the department tree.
type DepartmentRepository interface {
	// Create inserts a department with its hierarchy fields already computed
	Create(dept *models.Department) error

	// FindByID finds a department by ID
	FindByID(id uint64) (*models.Department, error)

	// Update persists mutable department attributes
	Update(dept *models.Department) error

	// Ancestors returns the department's ancestors, nearest first
	Ancestors(id uint64) ([]models.Department, error)

	// ListChildren returns the direct children of a department
	ListChildren(parentID uint64) ([]models.Department, error)

	// ListByOrganization returns all active departments of an organization
	ListByOrganization(orgID uint64) ([]models.Department, error)

	// MoveSubtree re-parents a department and rewrites hierarchy level and
	// path for the whole subtree in one transaction. Returns
	// ErrCycleDetected when the new parent is a descendant of the moved
	// department.
	MoveSubtree(id uint64, newParentID *uint64) error

	// DeactivateSubtree soft-disables a department and everything below it
	DeactivateSubtree(id uint64) error

	// AddMember inserts a department membership
	AddMember(member *models.DepartmentMember) error

	// FindActiveMember finds the active membership for (department, user)
	FindActiveMember(departmentID, userID uint64) (*models.DepartmentMember, error)

	// DeactivateMember soft-removes a user from a department
	DeactivateMember(departmentID, userID uint64) error

	// ListMembers returns active members of a department
	ListMembers(departmentID uint64) ([]models.DepartmentMember, error)
}

// Membership is the flattened result of an active-membership lookup across
// entity scopes.
type Membership struct {
	EntityType models.EntityType
	EntityID   uint64
	UserID     uint64
	RoleName   string
	JoinedAt   time.Time
}

// MembershipRepository resolves active memberships regardless of which table
// they live in.
type MembershipRepository interface {
	// ActiveMembership returns the user's active membership in the given
	// entity, or gorm.ErrRecordNotFound
	ActiveMembership(userID uint64, entityType models.EntityType, entityID uint64) (*Membership, error)
}

// UsageRepository supplies current usage counts for tier-limit checks. The
// counts are read outside any mutation transaction, so concurrent creates can
// race past a limit by one; this is an accepted best-effort bound.
type UsageRepository interface {
	// Count returns the current usage for a feature. The scope id is the
	// organization id for tasks/teams and the team id for team_members.
	Count(scopeID uint64, feature string) (int64, error)
}

// AuditLogRepository appends compliance audit entries.
type AuditLogRepository interface {
	// Append inserts an audit log row
	Append(entry *models.AuditLog) error

	// ListByEntity returns audit entries for an entity, newest first
	ListByEntity(entityType models.EntityType, entityID uint64) ([]models.AuditLog, error)
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(org *models.Organization) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(code string) (*models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// Delete deletes an organization and all related data
	Delete(id uint64) error

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// DeactivateMember soft-removes a member from an organization
	DeactivateMember(organizationID, userID uint64) error

	// FindActiveMember finds the active membership for (organization, user)
	FindActiveMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// UpdateMemberRole changes the catalog role on an active membership
	UpdateMemberRole(organizationID, userID uint64, roleName string) error

	// ListMembersByUserID lists all organizations a user is an active member of
	ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all active members of an organization
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a new team
	Create(team *models.Team) error

	// FindByID finds a team by ID
	FindByID(id uint64) (*models.Team, error)

	// Update updates a team
	Update(team *models.Team) error

	// ListByOrganization returns active teams of an organization
	ListByOrganization(orgID uint64) ([]models.Team, error)

	// AddMember adds a member to a team
	AddMember(member *models.TeamMember) error

	// FindActiveMember finds the active membership for (team, user)
	FindActiveMember(teamID, userID uint64) (*models.TeamMember, error)

	// DeactivateMember soft-removes a member from a team
	DeactivateMember(teamID, userID uint64) error

	// ListMembers returns active members of a team
	ListMembers(teamID uint64) ([]models.TeamMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks for a set of organizations with pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OrganizationIDs []uint64
	Status          *models.TaskStatus
	CreatorID       *uint64
	SortByDueDate   bool
	Page            int
	PageSize        int
}
