package service_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/repository"
	"github.com/Tomlord1122/todo-api/internal/service"
	"github.com/Tomlord1122/todo-api/internal/testutil"
)

func TestStatisticsComeFromOneSnapshot(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := database.Open(postgres.New(postgres.Config{Conn: sqlDB}), testutil.Logger())
	require.NoError(t, err)
	svc := service.NewTodoService(repository.NewGormTodoRepository(db, testutil.Logger()),
		service.WithLogger(testutil.Logger()))

	// any further count query would fail the expectations
	mock.ExpectQuery(`GROUP BY`).
		WillReturnRows(sqlmock.NewRows([]string{"is_completed", "n"}).
			AddRow(false, int64(2)).
			AddRow(true, int64(1)))

	stats, err := svc.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, service.Statistics{
		TotalCount:            3,
		CompletedCount:        1,
		PendingCount:          2,
		CompletionRatePercent: 33.33,
	}, stats)
	assert.Equal(t, stats.TotalCount, stats.CompletedCount+stats.PendingCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRateRoundsHalfToEven(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := database.Open(postgres.New(postgres.Config{Conn: sqlDB}), testutil.Logger())
	require.NoError(t, err)
	svc := service.NewTodoService(repository.NewGormTodoRepository(db, testutil.Logger()),
		service.WithLogger(testutil.Logger()))

	tests := []struct {
		completed, pending int64
		want               float64
	}{
		{1, 31, 3.12},  // 3.125
		{3, 29, 9.38},  // 9.375
		{1, 7, 12.5},   // 12.5
		{2, 1, 66.67},  // 66.666...
		{0, 4, 0},
	}
	for _, tt := range tests {
		mock.ExpectQuery(`GROUP BY`).
			WillReturnRows(sqlmock.NewRows([]string{"is_completed", "n"}).
				AddRow(true, tt.completed).
				AddRow(false, tt.pending))

		stats, err := svc.GetStatistics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.want, stats.CompletionRatePercent, "%d of %d", tt.completed, tt.completed+tt.pending)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}
