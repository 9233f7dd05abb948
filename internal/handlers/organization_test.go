package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

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

type organizationTestEnv struct {
	db         *gorm.DB
	handler    *OrganizationHandler
	orgService *services.OrganizationService
}

func setupOrganizationTestEnv(t *testing.T) organizationTestEnv {
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

	database.SetDB(db)

	logger := logging.New("test", "error")
	roleRepo := repository.NewRoleRepository(db)
	matrixRepo := repository.NewPermissionMatrixRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	tierGate := services.NewTierGate(repository.NewUsageRepository(db))
	matrixService := services.NewPermissionMatrixService(matrixRepo, auditRepo, logger)
	roleHierarchy := services.NewRoleHierarchyService(roleRepo)
	checker := services.NewPermissionChecker(
		roleRepo, matrixRepo,
		repository.NewDepartmentRepository(db),
		repository.NewMembershipRepository(db),
		repository.NewTeamRepository(db),
		orgRepo, tierGate, logger,
	)
	orgService := services.NewOrganizationService(orgRepo, matrixService, tierGate, checker, roleHierarchy, auditRepo, logger)
	handler := NewOrganizationHandler(orgService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return organizationTestEnv{
		db:         db,
		handler:    handler,
		orgService: orgService,
	}
}

func orgTestContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

func createTestOrganizationUser(t *testing.T, db *gorm.DB, email string) *models.User {
	user := &models.User{
		Email:        email,
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestOrganizationHandler_CreateOrganization(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	user := createTestOrganizationUser(t, env.db, "owner@example.com")

	payload := map[string]string{"name": "New Org", "tier": "pro"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodPost, "/api/organizations", body, user.ID)

	env.handler.CreateOrganization(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.OrganizationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, payload["name"], response.Name)
	require.Equal(t, models.TierPro, response.Tier)
	require.NotEmpty(t, response.InviteCode)

	// Tier ceilings derived from the plan at creation time.
	proTeams, _ := models.LimitFor(models.TierPro, models.FeatureTeams)
	require.Equal(t, proTeams, response.MaxTeams)
}

func TestOrganizationHandler_CreateOrganization_UnknownTier(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	user := createTestOrganizationUser(t, env.db, "owner@example.com")

	body, err := json.Marshal(map[string]string{"name": "Org", "tier": "platinum"})
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodPost, "/api/organizations", body, user.ID)

	env.handler.CreateOrganization(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHandler_ListOrganizations(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	user := createTestOrganizationUser(t, env.db, "member@example.com")

	_, err := env.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:    "Org One",
		OwnerID: user.ID,
	})
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodGet, "/api/organizations", nil, user.ID)

	env.handler.ListOrganizations(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]dto.OrganizationWithRoleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	orgs := response["organizations"]
	require.Len(t, orgs, 1)
	require.Equal(t, "Org One", orgs[0].OrganizationDTO.Name)
	require.Equal(t, models.RoleAdmin, orgs[0].RoleName)
}

func TestOrganizationHandler_JoinOrganization_InvalidCode(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	user := createTestOrganizationUser(t, env.db, "user@example.com")

	body, err := json.Marshal(map[string]string{"invite_code": "UNKNOWN"})
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodPost, "/api/organizations/join", body, user.ID)

	env.handler.JoinOrganization(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrganizationHandler_JoinOrganization_MemberCeiling(t *testing.T) {
	env := setupOrganizationTestEnv(t)

	owner := createTestOrganizationUser(t, env.db, "owner@example.com")
	org, err := env.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:    "Full House",
		OwnerID: owner.ID,
		Tier:    models.TierFree,
	})
	require.NoError(t, err)

	// Fill the free-tier member ceiling; the owner already occupies a seat.
	for i := int64(1); i < org.MaxMembers; i++ {
		u := createTestOrganizationUser(t, env.db, fmt.Sprintf("filler%d@example.com", i))
		_, err := env.orgService.JoinOrganizationByInvite(u.ID, org.InviteCode)
		require.NoError(t, err)
	}

	late := createTestOrganizationUser(t, env.db, "late@example.com")
	body, err := json.Marshal(map[string]string{"invite_code": org.InviteCode})
	require.NoError(t, err)

	c, w := orgTestContext(http.MethodPost, "/api/organizations/join", body, late.ID)

	env.handler.JoinOrganization(c)

	require.Equal(t, http.StatusPaymentRequired, w.Code)
}
