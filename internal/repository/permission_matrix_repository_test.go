package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMatrixRepo(t *testing.T) (*gorm.DB, PermissionMatrixRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PermissionMatrix{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db, NewPermissionMatrixRepository(db)
}

func TestReplaceActive_ExactlyOneActivePerEntity(t *testing.T) {
	db, repo := setupMatrixRepo(t)

	for i := 0; i < 3; i++ {
		_, err := repo.ReplaceActive(&models.PermissionMatrix{
			EntityType: models.EntityOrganization,
			EntityID:   1,
			Rules: models.RuleSet{
				models.CategoryTasks: {"create": i%2 == 0},
			},
			Inheritance: models.DefaultInheritance(),
		})
		require.NoError(t, err)
	}

	var active int64
	require.NoError(t, db.Model(&models.PermissionMatrix{}).
		Where("entity_type = ? AND entity_id = ? AND status = ?",
			models.EntityOrganization, uint64(1), models.MatrixActive).
		Count(&active).Error)
	require.Equal(t, int64(1), active)

	var total int64
	require.NoError(t, db.Model(&models.PermissionMatrix{}).
		Where("entity_type = ? AND entity_id = ?", models.EntityOrganization, uint64(1)).
		Count(&total).Error)
	require.Equal(t, int64(3), total)
}

func TestReplaceActive_SupersededNeverDeleted(t *testing.T) {
	_, repo := setupMatrixRepo(t)

	first, err := repo.ReplaceActive(&models.PermissionMatrix{
		EntityType:  models.EntityTeam,
		EntityID:    7,
		Rules:       models.RuleSet{models.CategoryTeams: {"create": true}},
		Inheritance: models.DefaultInheritance(),
	})
	require.NoError(t, err)

	_, err = repo.ReplaceActive(&models.PermissionMatrix{
		EntityType:  models.EntityTeam,
		EntityID:    7,
		Rules:       models.RuleSet{models.CategoryTeams: {"create": false}},
		Inheritance: models.DefaultInheritance(),
	})
	require.NoError(t, err)

	history, err := repo.History(models.EntityTeam, 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.MatrixActive, history[0].Status)
	require.Equal(t, models.MatrixSuperseded, history[1].Status)
	require.Equal(t, first.ID, history[1].ID)
	// The superseded version keeps its rules for audit.
	require.True(t, history[1].Rules[models.CategoryTeams]["create"])
}

func TestReplaceActive_PersistsInheritanceOptOut(t *testing.T) {
	_, repo := setupMatrixRepo(t)

	settings := models.DefaultInheritance()
	settings.InheritFromParent = false
	_, err := repo.ReplaceActive(&models.PermissionMatrix{
		EntityType:  models.EntityDepartment,
		EntityID:    4,
		Rules:       models.RuleSet{models.CategoryTasks: {"read": true}},
		Inheritance: settings,
	})
	require.NoError(t, err)

	stored, err := repo.FindActive(models.EntityDepartment, 4)
	require.NoError(t, err)
	require.False(t, stored.Inheritance.InheritFromParent)
	require.True(t, stored.Inheritance.AllowOverride)
}

func TestFindActive_ScopedPerEntity(t *testing.T) {
	_, repo := setupMatrixRepo(t)

	_, err := repo.ReplaceActive(&models.PermissionMatrix{
		EntityType:  models.EntityOrganization,
		EntityID:    1,
		Rules:       models.RuleSet{models.CategoryTasks: {"read": true}},
		Inheritance: models.DefaultInheritance(),
	})
	require.NoError(t, err)

	// Same numeric id, different entity type: distinct scope.
	_, err = repo.FindActive(models.EntityDepartment, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	matrix, err := repo.FindActive(models.EntityOrganization, 1)
	require.NoError(t, err)
	require.True(t, matrix.Rules[models.CategoryTasks]["read"])
}
