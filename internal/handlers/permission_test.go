package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/teamforge/teamforge-api/internal/constants"
	"github.com/teamforge/teamforge-api/internal/database"
	"github.com/teamforge/teamforge-api/internal/dto"
	"github.com/teamforge/teamforge-api/internal/logging"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"github.com/teamforge/teamforge-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type permissionTestEnv struct {
	db      *gorm.DB
	handler *PermissionHandler
	org     *models.Organization
}

func setupPermissionTestEnv(t *testing.T) permissionTestEnv {
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
		&models.AuditLog{},
		&models.Task{},
	)
	require.NoError(t, err)
	require.NoError(t, database.SeedRoles(db))

	logger := logging.New("test", "error")
	roleRepo := repository.NewRoleRepository(db)
	matrixRepo := repository.NewPermissionMatrixRepository(db)
	tierGate := services.NewTierGate(repository.NewUsageRepository(db))
	checker := services.NewPermissionChecker(
		roleRepo, matrixRepo,
		repository.NewDepartmentRepository(db),
		repository.NewMembershipRepository(db),
		repository.NewTeamRepository(db),
		repository.NewOrganizationRepository(db),
		tierGate, logger,
	)
	roleHierarchy := services.NewRoleHierarchyService(roleRepo)
	matrixService := services.NewPermissionMatrixService(matrixRepo, repository.NewAuditLogRepository(db), logger)
	handler := NewPermissionHandler(checker, roleHierarchy, matrixService)

	org := &models.Organization{Name: "Acme", InviteCode: "ACME-PERM", Tier: models.TierPro}
	require.NoError(t, db.Create(org).Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return permissionTestEnv{db: db, handler: handler, org: org}
}

func permTestContext(method, url string, body []byte, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	c.Set(constants.ContextKeyUserID, uint64(1))

	return c, w
}

func TestPermissionHandler_CheckPermission(t *testing.T) {
	env := setupPermissionTestEnv(t)

	require.NoError(t, env.db.Create(&models.OrganizationMember{
		OrganizationID: env.org.ID,
		UserID:         1,
		RoleName:       models.RoleMember,
		IsActive:       true,
		JoinedAt:       time.Now(),
	}).Error)

	body, err := json.Marshal(dto.CheckPermissionRequest{
		UserID:   1,
		Resource: models.CategoryTasks,
		Action:   "create",
		Context:  dto.PermissionContextRequest{OrganizationID: &env.org.ID},
	})
	require.NoError(t, err)

	c, w := permTestContext(http.MethodPost, "/api/permissions/check", body, nil)

	env.handler.CheckPermission(c)

	require.Equal(t, http.StatusOK, w.Code)

	var decision services.PermissionDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	require.True(t, decision.Allowed)
	require.Equal(t, services.ReasonRoleDefault, decision.Reason)
	require.True(t, decision.IsMember)
}

func TestPermissionHandler_CheckPermission_NoContext(t *testing.T) {
	env := setupPermissionTestEnv(t)

	body, err := json.Marshal(dto.CheckPermissionRequest{
		UserID:   1,
		Resource: models.CategoryTasks,
		Action:   "create",
	})
	require.NoError(t, err)

	c, w := permTestContext(http.MethodPost, "/api/permissions/check", body, nil)

	env.handler.CheckPermission(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPermissionHandler_ReplaceMatrixAndHistory(t *testing.T) {
	env := setupPermissionTestEnv(t)

	params := gin.Params{
		{Key: "entity_type", Value: "organization"},
		{Key: "entity_id", Value: "1"},
	}

	body, err := json.Marshal(dto.ReplaceMatrixRequest{
		Rules: models.RuleSet{
			models.CategoryTasks: {"create": true, "delete": false},
		},
	})
	require.NoError(t, err)

	c, w := permTestContext(http.MethodPut, "/api/permissions/matrix/organization/1", body, params)
	env.handler.ReplaceMatrix(c)
	require.Equal(t, http.StatusCreated, w.Code)

	// Replace once more, then history shows both versions.
	c, w = permTestContext(http.MethodPut, "/api/permissions/matrix/organization/1", body, params)
	env.handler.ReplaceMatrix(c)
	require.Equal(t, http.StatusCreated, w.Code)

	c, w = permTestContext(http.MethodGet, "/api/permissions/matrix/organization/1/history", nil, params)
	env.handler.GetMatrixHistory(c)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]dto.MatrixDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	history := response["history"]
	require.Len(t, history, 2)
	require.Equal(t, models.MatrixActive, history[0].Status)
	require.Equal(t, models.MatrixSuperseded, history[1].Status)
}

func TestPermissionHandler_ReplaceMatrix_UnknownCategory(t *testing.T) {
	env := setupPermissionTestEnv(t)

	params := gin.Params{
		{Key: "entity_type", Value: "team"},
		{Key: "entity_id", Value: "9"},
	}

	body, err := json.Marshal(dto.ReplaceMatrixRequest{
		Rules: models.RuleSet{
			"payments": {"refund": true},
		},
	})
	require.NoError(t, err)

	c, w := permTestContext(http.MethodPut, "/api/permissions/matrix/team/9", body, params)
	env.handler.ReplaceMatrix(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPermissionHandler_GetMatrix_InvalidEntityType(t *testing.T) {
	env := setupPermissionTestEnv(t)

	params := gin.Params{
		{Key: "entity_type", Value: "galaxy"},
		{Key: "entity_id", Value: "1"},
	}

	c, w := permTestContext(http.MethodGet, "/api/permissions/matrix/galaxy/1", nil, params)
	env.handler.GetMatrix(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPermissionHandler_MigrationImpact(t *testing.T) {
	env := setupPermissionTestEnv(t)

	body, err := json.Marshal(dto.MigrationImpactRequest{
		FromRole: models.RoleViewer,
		ToRole:   models.RoleAdmin,
	})
	require.NoError(t, err)

	c, w := permTestContext(http.MethodPost, "/api/permissions/roles/migration-impact", body, nil)
	env.handler.AssessMigrationImpact(c)
	require.Equal(t, http.StatusOK, w.Code)

	var impact services.RoleMigrationImpact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &impact))
	require.Equal(t, services.RiskCritical, impact.RiskLevel)
	require.Contains(t, impact.GainedPermissions, "administration:manage_roles")
}
