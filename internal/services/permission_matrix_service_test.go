package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamforge/teamforge-api/internal/logging"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMatrixServiceTestEnv(t *testing.T) (*gorm.DB, *PermissionMatrixService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PermissionMatrix{}, &models.AuditLog{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	svc := NewPermissionMatrixService(
		repository.NewPermissionMatrixRepository(db),
		repository.NewAuditLogRepository(db),
		logging.New("test", "error"),
	)
	return db, svc
}

func TestReplaceMatrix_RejectsUnknownCategory(t *testing.T) {
	_, svc := setupMatrixServiceTestEnv(t)

	_, err := svc.ReplaceMatrix(ReplaceMatrixInput{
		EntityType: models.EntityOrganization,
		EntityID:   1,
		Rules:      models.RuleSet{"billing": {"charge": true}},
	})
	require.ErrorIs(t, err, ErrInvalidRuleCategory)
}

func TestReplaceMatrix_RejectsInvalidEntityType(t *testing.T) {
	_, svc := setupMatrixServiceTestEnv(t)

	_, err := svc.ReplaceMatrix(ReplaceMatrixInput{
		EntityType: "spaceship",
		EntityID:   1,
		Rules:      models.RuleSet{},
	})
	require.ErrorIs(t, err, ErrInvalidEntityType)
}

func TestReplaceMatrix_RejectsEmptyActionName(t *testing.T) {
	_, svc := setupMatrixServiceTestEnv(t)

	_, err := svc.ReplaceMatrix(ReplaceMatrixInput{
		EntityType: models.EntityTeam,
		EntityID:   1,
		Rules:      models.RuleSet{models.CategoryTeams: {"": true}},
	})
	require.ErrorIs(t, err, ErrInvalidRuleAction)
}

func TestReplaceMatrix_AuditTrailWhenRequired(t *testing.T) {
	db, svc := setupMatrixServiceTestEnv(t)

	actorID := uint64(5)
	replaced, err := svc.ReplaceMatrix(ReplaceMatrixInput{
		EntityType:  models.EntityOrganization,
		EntityID:    3,
		Rules:       models.RuleSet{models.CategoryTasks: {"delete": false}},
		Inheritance: models.DefaultInheritance(),
		Compliance:  models.ComplianceSettings{AuditRequired: true, ComplianceLevel: "strict"},
		ActorID:     &actorID,
	})
	require.NoError(t, err)
	require.Equal(t, models.MatrixActive, replaced.Status)

	var entries []models.AuditLog
	require.NoError(t, db.Where("entity_type = ? AND entity_id = ?",
		models.EntityOrganization, uint64(3)).Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, "permission_matrix.replace", entries[0].Action)
	require.Equal(t, actorID, *entries[0].ActorID)
	require.NotEmpty(t, entries[0].ID)
}

func TestReplaceMatrix_NoAuditByDefault(t *testing.T) {
	db, svc := setupMatrixServiceTestEnv(t)

	_, err := svc.EnsureDefaultMatrix(models.EntityDepartment, 8, nil)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGetActiveMatrix_MissingEntity(t *testing.T) {
	_, svc := setupMatrixServiceTestEnv(t)

	_, err := svc.GetActiveMatrix(models.EntityUser, 99)
	require.ErrorIs(t, err, ErrMatrixNotFound)
}
