package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamforge/teamforge-api/internal/database"
	"github.com/teamforge/teamforge-api/internal/logging"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type checkerTestEnv struct {
	db         *gorm.DB
	checker    *PermissionChecker
	matrixRepo repository.PermissionMatrixRepository
}

func setupCheckerTestEnv(t *testing.T) checkerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Department{},
		&models.DepartmentMember{},
		&models.Team{},
		&models.TeamMember{},
		&models.PermissionMatrix{},
		&models.Task{},
	)
	require.NoError(t, err)
	require.NoError(t, database.SeedRoles(db))

	roleRepo := repository.NewRoleRepository(db)
	matrixRepo := repository.NewPermissionMatrixRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	tierGate := NewTierGate(repository.NewUsageRepository(db))

	checker := NewPermissionChecker(
		roleRepo, matrixRepo, deptRepo, membershipRepo, teamRepo, orgRepo,
		tierGate, logging.New("test", "error"),
	)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return checkerTestEnv{db: db, checker: checker, matrixRepo: matrixRepo}
}

func createCheckerOrg(t *testing.T, db *gorm.DB, tier models.SubscriptionTier) *models.Organization {
	t.Helper()
	org := &models.Organization{
		Name:       "Acme",
		InviteCode: "ACME-" + string(tier),
		Tier:       tier,
	}
	org.ApplyTierCeilings()
	require.NoError(t, db.Create(org).Error)
	return org
}

func addCheckerMember(t *testing.T, db *gorm.DB, orgID, userID uint64, roleName string) {
	t.Helper()
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		RoleName:       roleName,
		IsActive:       true,
		JoinedAt:       time.Now(),
	}).Error)
}

func installMatrix(t *testing.T, repo repository.PermissionMatrixRepository, entityType models.EntityType, entityID uint64, rules models.RuleSet, inherit bool) {
	t.Helper()
	_, err := repo.ReplaceActive(&models.PermissionMatrix{
		EntityType: entityType,
		EntityID:   entityID,
		Rules:      rules,
		Inheritance: models.InheritanceSettings{
			InheritFromParent: inherit,
			AllowOverride:     true,
		},
	})
	require.NoError(t, err)
}

func TestCheck_DefaultDenyWithoutAnyData(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierFree)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 42},
		models.CategoryTasks, "create",
		PermissionContext{OrganizationID: &org.ID},
	)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNoPermission, decision.Reason)
	require.False(t, decision.IsAdmin)
	require.False(t, decision.IsMember)
}

func TestCheck_NoEntityContext(t *testing.T) {
	env := setupCheckerTestEnv(t)

	_, err := env.checker.Check(
		PermissionActor{UserID: 1},
		models.CategoryTasks, "create",
		PermissionContext{},
	)
	require.ErrorIs(t, err, ErrNoEntityContext)
}

func TestCheck_RoleDefaultAllow(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)
	addCheckerMember(t, env.db, org.ID, 1, models.RoleMember)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 1},
		models.CategoryTasks, "create",
		PermissionContext{OrganizationID: &org.ID},
	)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, ReasonRoleDefault, decision.Reason)
	require.True(t, decision.IsMember)
	require.False(t, decision.IsAdmin)
}

func TestCheck_ExplicitDenyBeatsRoleDefault(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)
	addCheckerMember(t, env.db, org.ID, 1, models.RoleAdmin)

	installMatrix(t, env.matrixRepo, models.EntityOrganization, org.ID, models.RuleSet{
		models.CategoryTasks: {"delete": false},
	}, true)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 1},
		models.CategoryTasks, "delete",
		PermissionContext{OrganizationID: &org.ID},
	)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonExplicitDeny, decision.Reason)
	// An admin denied by an explicit rule is still an admin.
	require.True(t, decision.IsAdmin)
}

func TestCheck_ExplicitAllowForRolelessActor(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)

	installMatrix(t, env.matrixRepo, models.EntityOrganization, org.ID, models.RuleSet{
		models.CategoryAnalytics: {"view": true},
	}, true)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 7},
		models.CategoryAnalytics, "view",
		PermissionContext{OrganizationID: &org.ID},
	)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, ReasonExplicitAllow, decision.Reason)
	require.False(t, decision.IsMember)
}

func TestCheck_InheritedDenyFromOrganization(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)

	dept := &models.Department{
		Name:           "Engineering",
		OrganizationID: org.ID,
		IsActive:       true,
	}
	require.NoError(t, env.db.Create(dept).Error)

	// The department has no matrix of its own; the organization's explicit
	// deny is inherited.
	installMatrix(t, env.matrixRepo, models.EntityOrganization, org.ID, models.RuleSet{
		models.CategoryAnalytics: {"export": false},
	}, true)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 9},
		models.CategoryAnalytics, "export",
		PermissionContext{OrganizationID: &org.ID, DepartmentID: &dept.ID},
	)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonInheritedDeny, decision.Reason)
}

func TestCheck_InheritanceDisabledStopsWalk(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)

	dept := &models.Department{
		Name:           "Sales",
		OrganizationID: org.ID,
		IsActive:       true,
	}
	require.NoError(t, env.db.Create(dept).Error)

	// Department matrix opts out of inheritance; the organization allow
	// below it must never be reached.
	installMatrix(t, env.matrixRepo, models.EntityDepartment, dept.ID, models.RuleSet{}, false)
	installMatrix(t, env.matrixRepo, models.EntityOrganization, org.ID, models.RuleSet{
		models.CategoryAnalytics: {"view": true},
	}, true)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 9},
		models.CategoryAnalytics, "view",
		PermissionContext{OrganizationID: &org.ID, DepartmentID: &dept.ID},
	)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNoPermission, decision.Reason)
}

func TestCheck_NearestAncestorWins(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)

	parent := &models.Department{Name: "Division", OrganizationID: org.ID, IsActive: true}
	require.NoError(t, env.db.Create(parent).Error)
	child := &models.Department{
		Name:               "Unit",
		OrganizationID:     org.ID,
		ParentDepartmentID: &parent.ID,
		HierarchyLevel:     1,
		HierarchyPath:      parent.ChildPath(),
		IsActive:           true,
	}
	require.NoError(t, env.db.Create(child).Error)

	// Parent department allows, organization denies. The nearer rule wins.
	installMatrix(t, env.matrixRepo, models.EntityDepartment, parent.ID, models.RuleSet{
		models.CategoryTeams: {"create": true},
	}, true)
	installMatrix(t, env.matrixRepo, models.EntityOrganization, org.ID, models.RuleSet{
		models.CategoryTeams: {"create": false},
	}, true)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 5},
		models.CategoryTeams, "create",
		PermissionContext{OrganizationID: &org.ID, DepartmentID: &child.ID},
	)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, ReasonInheritedAllow, decision.Reason)
}

func TestCheck_TierCeilingDeniesWouldBeAllow(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierFree)
	addCheckerMember(t, env.db, org.ID, 1, models.RoleManager)

	// Free tier allows exactly one team; one already exists.
	require.NoError(t, env.db.Create(&models.Team{
		Name:           "Existing",
		OrganizationID: org.ID,
		IsActive:       true,
	}).Error)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 1},
		models.CategoryTeams, "create",
		PermissionContext{OrganizationID: &org.ID, Feature: models.FeatureTeams},
	)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonLimitExceeded, decision.Reason)
}

func TestCheck_TierCeilingNeverGrants(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierEnterprise)

	// Unlimited tier, but no rule and no role: still denied.
	decision, err := env.checker.Check(
		PermissionActor{UserID: 3},
		models.CategoryTeams, "create",
		PermissionContext{OrganizationID: &org.ID, Feature: models.FeatureTeams},
	)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNoPermission, decision.Reason)
}

func TestCheck_AdminFlagFromHierarchyLevel(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)

	decision, err := env.checker.Check(
		PermissionActor{UserID: 2, RoleName: models.RoleAdmin},
		models.CategoryAdministration, "manage_roles",
		PermissionContext{OrganizationID: &org.ID},
	)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.True(t, decision.IsAdmin)
	// Admin status does not imply membership.
	require.False(t, decision.IsMember)
}

func TestCheckMany_RequireAll(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)
	addCheckerMember(t, env.db, org.ID, 1, models.RoleMember)

	pctx := PermissionContext{OrganizationID: &org.ID}
	actor := PermissionActor{UserID: 1}

	result := env.checker.CheckMany([]CheckRequest{
		{Actor: actor, Resource: models.CategoryTasks, Action: "create", Context: pctx},
		{Actor: actor, Resource: models.CategoryAdministration, Action: "manage_roles", Context: pctx},
	}, true)

	require.False(t, result.Allowed)
	require.Len(t, result.Results, 2)
	require.True(t, result.Results[0].Decision.Allowed)
	require.False(t, result.Results[1].Decision.Allowed)
}

func TestCheckMany_AnyOf(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)
	addCheckerMember(t, env.db, org.ID, 1, models.RoleMember)

	pctx := PermissionContext{OrganizationID: &org.ID}
	actor := PermissionActor{UserID: 1}

	result := env.checker.CheckMany([]CheckRequest{
		{Actor: actor, Resource: models.CategoryAdministration, Action: "manage_roles", Context: pctx},
		{Actor: actor, Resource: models.CategoryTasks, Action: "read", Context: pctx},
	}, false)

	require.True(t, result.Allowed)
}

func TestCheckMany_EmptyBatchDenied(t *testing.T) {
	env := setupCheckerTestEnv(t)

	result := env.checker.CheckMany(nil, true)
	require.False(t, result.Allowed)
	require.Empty(t, result.Results)
}

func TestCheckRoleChange_EscalationRequiresAdmin(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)
	addCheckerMember(t, env.db, org.ID, 1, models.RoleManager)

	// A manager granted manage_roles by matrix may not perform high-risk
	// migrations.
	installMatrix(t, env.matrixRepo, models.EntityOrganization, org.ID, models.RuleSet{
		models.CategoryAdministration: {"manage_roles": true},
	}, true)

	roleHierarchy := NewRoleHierarchyService(repository.NewRoleRepository(env.db))

	decision, impact, err := env.checker.CheckRoleChange(
		PermissionActor{UserID: 1},
		models.RoleViewer, models.RoleAdmin,
		PermissionContext{OrganizationID: &org.ID},
		roleHierarchy,
	)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonEscalationRisk, decision.Reason)
	require.Equal(t, RiskCritical, impact.RiskLevel)
}

func TestCheckRoleChange_AdminMayEscalate(t *testing.T) {
	env := setupCheckerTestEnv(t)
	org := createCheckerOrg(t, env.db, models.TierPro)
	addCheckerMember(t, env.db, org.ID, 1, models.RoleAdmin)

	roleHierarchy := NewRoleHierarchyService(repository.NewRoleRepository(env.db))

	decision, impact, err := env.checker.CheckRoleChange(
		PermissionActor{UserID: 1},
		models.RoleViewer, models.RoleAdmin,
		PermissionContext{OrganizationID: &org.ID},
		roleHierarchy,
	)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, RiskCritical, impact.RiskLevel)
}
