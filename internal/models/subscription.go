package models

// SubscriptionTier identifies a tenant's billing plan. Tiers are totally
// ordered: Free < Pro < Enterprise.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// Rank returns the position of the tier in the total order. Unknown tiers
// rank below Free so that a corrupted value never widens limits.
func (t SubscriptionTier) Rank() int {
	switch t {
	case TierFree:
		return 1
	case TierPro:
		return 2
	case TierEnterprise:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the tier is one of the known values.
func (t SubscriptionTier) Valid() bool {
	return t == TierFree || t == TierPro || t == TierEnterprise
}

// Feature keys gated by tier limits.
const (
	FeatureTasks       = "tasks"
	FeatureTeams       = "teams"
	FeatureTeamMembers = "team_members"
	FeatureAPICalls    = "api_calls_per_day"
)

// Unlimited marks a feature with no ceiling for a tier.
const Unlimited int64 = -1

// tierLimits maps (tier, feature) to a ceiling. Pairs absent from the table
// are treated as unlimited so that new features never deny by default.
var tierLimits = map[SubscriptionTier]map[string]int64{
	TierFree: {
		FeatureTasks:       50,
		FeatureTeams:       1,
		FeatureTeamMembers: 5,
		FeatureAPICalls:    1000,
	},
	TierPro: {
		FeatureTasks:       1000,
		FeatureTeams:       10,
		FeatureTeamMembers: 50,
		FeatureAPICalls:    50000,
	},
	TierEnterprise: {
		FeatureTasks:       Unlimited,
		FeatureTeams:       Unlimited,
		FeatureTeamMembers: Unlimited,
		FeatureAPICalls:    Unlimited,
	},
}

// LimitFor returns the ceiling for a (tier, feature) pair. The second result
// is false when the pair is not in the table, which callers must treat as
// "no limit".
func LimitFor(tier SubscriptionTier, feature string) (int64, bool) {
	limits, ok := tierLimits[tier]
	if !ok {
		return Unlimited, false
	}
	limit, ok := limits[feature]
	if !ok {
		return Unlimited, false
	}
	return limit, ok
}
