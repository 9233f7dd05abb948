package services

import (
	"fmt"

	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
)

// LimitExceededError reports a tier quota hit. It is recoverable: the caller
// can upgrade the tier or free capacity.
type LimitExceededError struct {
	Feature string                  `json:"feature"`
	Tier    models.SubscriptionTier `json:"tier"`
	Current int64                   `json:"current"`
	Limit   int64                   `json:"limit"`
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit reached for tier %s: %d of %d used",
		e.Feature, e.Tier, e.Current, e.Limit)
}

// TierGate maps subscription tiers to feature ceilings and answers whether
// one more unit of a feature fits under the tenant's plan.
type TierGate struct {
	usageRepo repository.UsageRepository
}

// NewTierGate creates a new TierGate.
func NewTierGate(usageRepo repository.UsageRepository) *TierGate {
	return &TierGate{usageRepo: usageRepo}
}

// CheckFeatureLimit succeeds when currentUsage is below the ceiling for
// (tier, feature). Pairs without a configured ceiling never deny; this is a
// deliberate permissive default so newly introduced features are not blocked
// by stale tier tables. Pure function over the supplied usage count.
func (g *TierGate) CheckFeatureLimit(tier models.SubscriptionTier, currentUsage int64, feature string) error {
	limit, ok := models.LimitFor(tier, feature)
	if !ok || limit == models.Unlimited {
		return nil
	}
	if currentUsage < limit {
		return nil
	}
	return &LimitExceededError{
		Feature: feature,
		Tier:    tier,
		Current: currentUsage,
		Limit:   limit,
	}
}

// CheckScopedLimit fetches the current usage for (scope, feature) and applies
// CheckFeatureLimit. The count is read outside the caller's transaction, so
// two concurrent creates can both pass and overshoot the ceiling by one;
// this is an accepted best-effort bound, not a hard guarantee.
func (g *TierGate) CheckScopedLimit(tier models.SubscriptionTier, scopeID uint64, feature string) error {
	usage, err := g.usageRepo.Count(scopeID, feature)
	if err != nil {
		return fmt.Errorf("failed to count %s usage: %w", feature, err)
	}
	return g.CheckFeatureLimit(tier, usage, feature)
}
