package services

import "github.com/teamforge/teamforge-api/internal/models"

// Decision is the outcome of resolving one entity's matrix for a
// (resource, action) pair. Absence of data is Unspecified, never an implicit
// allow or deny; callers apply the final default-deny.
type Decision int

const (
	Unspecified Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unspecified"
	}
}

// Reasons attached to permission decisions, surfaced for audit. An explicit
// deny and an absent permission both yield allowed=false but carry different
// reasons.
const (
	ReasonExplicitDeny   = "explicit-deny"
	ReasonExplicitAllow  = "explicit-allow"
	ReasonRoleDefault    = "role-default"
	ReasonInheritedDeny  = "inherited-from-parent-deny"
	ReasonInheritedAllow = "inherited-from-parent-allow"
	ReasonLimitExceeded  = "tier-limit-exceeded"
	ReasonEscalationRisk = "role-escalation-risk"
	ReasonNoPermission   = "no-permission-found"
)

// PermissionActor identifies who is asking. RoleName may be left empty, in
// which case the checker resolves it from the actor's organization
// membership in the supplied context.
type PermissionActor struct {
	UserID   uint64
	RoleName string
}

// PermissionContext narrows a check to a position in the tenant tree. The
// most specific entity present (team, else department, else organization)
// anchors the traversal. Feature, when set, names the tier-gated feature the
// action would consume.
type PermissionContext struct {
	OrganizationID *uint64
	DepartmentID   *uint64
	TeamID         *uint64
	Feature        string
}

// PermissionDecision is the verdict of a permission check. IsAdmin and
// IsMember are surfaced for callers independently of Allowed: administrators
// are not automatically members.
type PermissionDecision struct {
	Allowed  bool   `json:"allowed"`
	IsAdmin  bool   `json:"is_admin"`
	IsMember bool   `json:"is_member"`
	Reason   string `json:"reason"`
}

// CheckRequest is one entry in a batch permission check.
type CheckRequest struct {
	Actor    PermissionActor
	Resource string
	Action   string
	Context  PermissionContext
}

// CheckResult pairs a batch entry with its decision. Err is set when the
// check failed at the data-store boundary; such entries count as denied.
type CheckResult struct {
	Resource string             `json:"resource"`
	Action   string             `json:"action"`
	Decision PermissionDecision `json:"decision"`
	Err      string             `json:"error,omitempty"`
}

// BatchPermissionResult combines per-request results with an AND (require
// all) or OR aggregate. Partial failures stay visible per request.
type BatchPermissionResult struct {
	Allowed bool          `json:"allowed"`
	Results []CheckResult `json:"results"`
}

// entityRef is one step in the traversal chain, most specific first.
type entityRef struct {
	Type models.EntityType
	ID   uint64
}
