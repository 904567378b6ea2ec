package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/domain"
)

// Service exposes the shared GORM handle plus pool health and shutdown.
type Service interface {
	Health() map[string]string
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db   *gorm.DB
	name string
}

// New opens the database selected by cfg.Driver and applies pool settings.
func New(cfg config.DBConfig, log *slog.Logger) (Service, error) {
	var dialector gorm.Dialector
	name := cfg.Database
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
		name = cfg.SQLitePath
	default:
		dialector = postgres.New(postgres.Config{
			DriverName: "pgx",
			DSN:        cfg.PostgresDSN(),
		})
	}

	db, err := Open(dialector, log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime.Std())
	if cfg.Driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY on a file database
		sqlDB.SetMaxOpenConns(1)
	}

	return &service{db: db, name: name}, nil
}

// Open wraps gorm.Open with the SQL logger routed into slog.
func Open(dialector gorm.Dialector, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	gormLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelDebug),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema. It is invoked explicitly at startup or
// by the migrate command.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.TodoItem{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Wrap adapts an already opened handle, mostly for tests.
func Wrap(db *gorm.DB) Service {
	return &service{db: db, name: db.Dialector.Name()}
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health pings the database and reports pool statistics. The message flags a
// pool running close to its MaxOpenConns limit or callers queueing for a
// connection.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return map[string]string{"status": "down", "error": fmt.Sprintf("get underlying sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return map[string]string{"status": "down", "error": fmt.Sprintf("db down: %v", err)}
	}

	st := sqlDB.Stats()
	return map[string]string{
		"status":               "up",
		"message":              poolMessage(st),
		"database":             s.name,
		"max_open_connections": strconv.Itoa(st.MaxOpenConnections),
		"open_connections":     strconv.Itoa(st.OpenConnections),
		"in_use":               strconv.Itoa(st.InUse),
		"idle":                 strconv.Itoa(st.Idle),
		"wait_count":           strconv.FormatInt(st.WaitCount, 10),
		"wait_duration":        st.WaitDuration.String(),
		"max_idle_closed":      strconv.FormatInt(st.MaxIdleClosed, 10),
		"max_lifetime_closed":  strconv.FormatInt(st.MaxLifetimeClosed, 10),
	}
}

// poolMessage summarises st. Saturation is measured against the configured
// limit; an unlimited pool (MaxOpenConnections == 0) is never saturated.
func poolMessage(st sql.DBStats) string {
	switch {
	case st.MaxOpenConnections > 0 && st.InUse*5 >= st.MaxOpenConnections*4:
		return fmt.Sprintf("Connection pool near capacity: %d of %d connections in use (DB_MAX_OPEN_CONNS).",
			st.InUse, st.MaxOpenConnections)
	case st.WaitCount > 0 && st.WaitDuration >= time.Second:
		return fmt.Sprintf("Requests waited %s for a connection across %d waits; consider raising DB_MAX_OPEN_CONNS.",
			st.WaitDuration, st.WaitCount)
	case st.MaxLifetimeClosed > 0 && st.MaxLifetimeClosed > int64(st.OpenConnections):
		return "Connections are recycled by DB_CONN_MAX_LIFETIME faster than they are reused."
	default:
		return "It's healthy"
	}
}

func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	slog.Info("closing connection pool", "database", s.name)
	return sqlDB.Close()
}
