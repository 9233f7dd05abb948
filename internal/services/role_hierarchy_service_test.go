package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamforge/teamforge-api/internal/database"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRoleHierarchyTestEnv(t *testing.T) (*gorm.DB, *RoleHierarchyService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}))
	require.NoError(t, database.SeedRoles(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db, NewRoleHierarchyService(repository.NewRoleRepository(db))
}

func TestRoleTree_InheritanceEdges(t *testing.T) {
	_, svc := setupRoleHierarchyTestEnv(t)

	nodes, err := svc.RoleTree()
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	byName := make(map[string]RoleTreeNode, len(nodes))
	for _, node := range nodes {
		byName[node.Role.Name] = node
	}

	require.Empty(t, byName[models.RoleViewer].InheritsFrom)
	require.ElementsMatch(t,
		[]string{models.RoleManager, models.RoleMember, models.RoleViewer},
		byName[models.RoleAdmin].InheritsFrom)
}

func TestInheritedPermissions_SupersetOfLowerRoles(t *testing.T) {
	_, svc := setupRoleHierarchyTestEnv(t)

	lower := []string{models.RoleViewer, models.RoleMember, models.RoleManager, models.RoleAdmin}
	for i := 1; i < len(lower); i++ {
		higher, err := svc.InheritedPermissions(lower[i])
		require.NoError(t, err)
		below, err := svc.InheritedPermissions(lower[i-1])
		require.NoError(t, err)

		for resource, actions := range below {
			for _, action := range actions {
				require.Truef(t, higher.Allows(resource, action),
					"%s should inherit %s:%s from %s", lower[i], resource, action, lower[i-1])
			}
		}
	}
}

func TestInheritedPermissions_UnknownRole(t *testing.T) {
	_, svc := setupRoleHierarchyTestEnv(t)

	_, err := svc.InheritedPermissions("phantom")
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestAssessMigrationImpact_DeltaThresholds(t *testing.T) {
	_, svc := setupRoleHierarchyTestEnv(t)

	tests := []struct {
		from, to string
		risk     RiskLevel
	}{
		// viewer(10) -> member(40): delta 30
		{models.RoleViewer, models.RoleMember, RiskHigh},
		// member(40) -> manager(70): delta 30
		{models.RoleMember, models.RoleManager, RiskHigh},
		// viewer(10) -> admin(100): delta 90
		{models.RoleViewer, models.RoleAdmin, RiskCritical},
		// manager(70) -> member(40): downgrade
		{models.RoleManager, models.RoleMember, RiskLow},
	}

	for _, tt := range tests {
		impact, err := svc.AssessMigrationImpact(tt.from, tt.to)
		require.NoError(t, err)
		require.Equalf(t, tt.risk, impact.RiskLevel, "%s -> %s", tt.from, tt.to)
	}
}

func TestAssessMigrationImpact_AdministrationGainIsHighRisk(t *testing.T) {
	db, svc := setupRoleHierarchyTestEnv(t)

	// A role one level above manager that also carries an administration
	// permission. The small level delta alone would grade medium.
	require.NoError(t, db.Create(&models.Role{
		Name:           "ops",
		DisplayName:    "Operations",
		HierarchyLevel: 75,
		DefaultPermissions: models.PermissionSet{
			models.CategoryTasks:          {"create", "read", "update", "delete", "assign"},
			models.CategoryAdministration: {"manage_matrix"},
		},
		IsActive: true,
	}).Error)

	impact, err := svc.AssessMigrationImpact(models.RoleManager, "ops")
	require.NoError(t, err)
	require.Equal(t, 5, impact.LevelDelta)
	require.Contains(t, impact.GainedPermissions, "administration:manage_matrix")
	require.Equal(t, RiskHigh, impact.RiskLevel)
}

func TestAssessMigrationImpact_GainedAndLost(t *testing.T) {
	_, svc := setupRoleHierarchyTestEnv(t)

	impact, err := svc.AssessMigrationImpact(models.RoleManager, models.RoleMember)
	require.NoError(t, err)
	require.Empty(t, impact.GainedPermissions)
	require.Contains(t, impact.LostPermissions, "tasks:delete")
	require.Contains(t, impact.LostPermissions, "analytics:view")
}
