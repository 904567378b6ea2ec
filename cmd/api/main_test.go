package main

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	natssrv "github.com/nats-io/nats-server/v2/server"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/events"
	"github.com/Tomlord1122/todo-api/internal/testutil"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.AppConfig{Env: "test", LogLevel: "warn", LogFormat: "json"}, &buf)

	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
	log.Warn("disk almost full")
	assert.Contains(t, buf.String(), `"msg":"disk almost full"`)
	assert.Contains(t, buf.String(), `"env":"test"`)

	buf.Reset()
	log = newLogger(config.AppConfig{LogLevel: "nonsense"}, &buf)
	assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
	log.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestMigrateCommandCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", path)
	t.Setenv("DB_CONN_MAX_LIFETIME", "1h")
	t.Setenv("PORT", "8080")

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.Execute())

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.True(t, db.Migrator().HasTable(&domain.TodoItem{}))
}

func TestRootRejectsBadConfig(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"migrate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func newTestPublisher(t *testing.T) *events.Publisher {
	t.Helper()
	s, err := natssrv.NewServer(&natssrv.Options{Port: -1})
	require.NoError(t, err)
	go s.Start()
	if !s.ReadyForConnections(5 * time.Second) {
		s.Shutdown()
		t.Fatalf("nats server not ready")
	}
	t.Cleanup(s.Shutdown)

	pub, err := events.Connect(s.ClientURL(), "test", "", testutil.Logger())
	require.NoError(t, err)
	return pub
}

func TestRunReleasesResourcesWhenListenFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	dbService := database.Wrap(testutil.SetupTestDB(t))
	pub := newTestPublisher(t)
	apiServer := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- run(ctx, stop, apiServer, dbService, pub, testutil.Logger()) }()

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ListenAndServe")
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after the listener failed")
	}

	assert.Equal(t, "down", dbService.Health()["status"], "pool is closed")
	assert.Error(t, pub.TodoAdded(context.Background(), domain.TodoItem{ID: 1, Title: "x"}), "nats connection is closed")
}

func TestRunShutsDownOnCancel(t *testing.T) {
	dbService := database.Wrap(testutil.SetupTestDB(t))
	apiServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	ctx, stop := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- run(ctx, stop, apiServer, dbService, nil, testutil.Logger()) }()
	stop()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
	assert.Equal(t, "down", dbService.Health()["status"])
}
