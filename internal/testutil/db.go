// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/repository"
	"github.com/Tomlord1122/todo-api/internal/service"
)

// Logger discards output so test runs stay quiet.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetupTestDB opens a private in-memory SQLite database with the schema applied.
// The pool is pinned to one connection so every query sees the same memory
// database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), Logger())
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db), "migrate schema")
	return db
}

// NewTodoService returns a service over a fresh SQLite database.
func NewTodoService(t *testing.T, opts ...service.Option) service.TodoService {
	t.Helper()
	repo := repository.NewGormTodoRepository(SetupTestDB(t), Logger())
	return service.NewTodoService(repo, append([]service.Option{service.WithLogger(Logger())}, opts...)...)
}
