package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/teamforge/teamforge-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockUsageRepo(t *testing.T) (sqlmock.Sqlmock, UsageRepository) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return mock, NewUsageRepository(db)
}

func TestUsageCount_Teams(t *testing.T) {
	mock, repo := setupMockUsageRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `teams`").
		WithArgs(uint64(1), true).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(3))

	count, err := repo.Count(1, models.FeatureTeams)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageCount_TeamMembersScopedByTeam(t *testing.T) {
	mock, repo := setupMockUsageRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `team_members`").
		WithArgs(uint64(42), true).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(5))

	count, err := repo.Count(42, models.FeatureTeamMembers)
	require.NoError(t, err)
	require.Equal(t, int64(5), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageCount_UnknownFeature(t *testing.T) {
	_, repo := setupMockUsageRepo(t)

	_, err := repo.Count(1, "api_keys")
	require.Error(t, err)
}
