package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamforge/teamforge-api/internal/models"
)

func TestCheckFeatureLimit_UnderLimit(t *testing.T) {
	gate := NewTierGate(nil)

	err := gate.CheckFeatureLimit(models.TierFree, 0, models.FeatureTeams)
	require.NoError(t, err)
}

func TestCheckFeatureLimit_AtLimit(t *testing.T) {
	gate := NewTierGate(nil)

	err := gate.CheckFeatureLimit(models.TierFree, 1, models.FeatureTeams)
	require.Error(t, err)

	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, models.FeatureTeams, limitErr.Feature)
	require.Equal(t, int64(1), limitErr.Limit)
}

func TestCheckFeatureLimit_EnterpriseUnlimited(t *testing.T) {
	gate := NewTierGate(nil)

	err := gate.CheckFeatureLimit(models.TierEnterprise, 1_000_000, models.FeatureTasks)
	require.NoError(t, err)
}

func TestCheckFeatureLimit_UnknownPairNeverDenies(t *testing.T) {
	gate := NewTierGate(nil)

	// Features without a defined (tier, feature) limit are ungated.
	require.NoError(t, gate.CheckFeatureLimit(models.TierFree, 999, "unknown_feature"))
	require.NoError(t, gate.CheckFeatureLimit("mystery", 999, models.FeatureTasks))
}

func TestCheckFeatureLimit_MonotonicAcrossTiers(t *testing.T) {
	gate := NewTierGate(nil)

	// Usage allowed at a lower tier stays allowed at every higher tier.
	for _, feature := range []string{models.FeatureTasks, models.FeatureTeams, models.FeatureTeamMembers} {
		freeLimit, ok := models.LimitFor(models.TierFree, feature)
		require.True(t, ok)

		usage := freeLimit - 1
		require.NoError(t, gate.CheckFeatureLimit(models.TierFree, usage, feature))
		require.NoError(t, gate.CheckFeatureLimit(models.TierPro, usage, feature))
		require.NoError(t, gate.CheckFeatureLimit(models.TierEnterprise, usage, feature))
	}
}
