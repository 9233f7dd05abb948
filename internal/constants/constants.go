package constants

// Context keys
const (
	ContextKeyUserID       = "user_id"
	ContextKeyOrganization = "organization"
	ContextKeyMembership   = "organization_member"
	ContextKeyDecision     = "permission_decision"
)

// Session keys. Kept separate from context keys so renaming one surface
// never silently logs everyone out or breaks handler lookups.
const (
	SessionKeyUserID = "authenticated_user_id"
)

// Authentication
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Permission engine
const (
	// AdminLevelThreshold is the role hierarchy level at or above which an
	// actor is treated as a system administrator regardless of entity context.
	AdminLevelThreshold = 90

	// MaxHierarchyDepth bounds department nesting. Moves or creates that
	// would exceed it are rejected before any row is written.
	MaxHierarchyDepth = 10
)

// Role catalog caching
const (
	RoleCacheSize = 128
)
