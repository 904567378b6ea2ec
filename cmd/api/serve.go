package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/events"
	"github.com/Tomlord1122/todo-api/internal/metrics"
	"github.com/Tomlord1122/todo-api/internal/repository"
	"github.com/Tomlord1122/todo-api/internal/server"
	"github.com/Tomlord1122/todo-api/internal/service"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			return serve(cfg, log)
		},
	}
}

func serve(cfg config.Config, log *slog.Logger) error {
	dbService, err := database.New(cfg.DB, log)
	if err != nil {
		return err
	}
	gormDB := dbService.GetDB()

	if cfg.DB.AutoMigrate {
		log.Info("running database auto-migration")
		if err := database.Migrate(gormDB); err != nil {
			_ = dbService.Close()
			return err
		}
	}

	observers := []service.Observer{events.NewLogObserver(log)}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		sqlDB, err := gormDB.DB()
		if err != nil {
			_ = dbService.Close()
			return fmt.Errorf("get underlying sql.DB: %w", err)
		}
		if err := m.RegisterDB(sqlDB, cfg.DB.Driver); err != nil {
			_ = dbService.Close()
			return fmt.Errorf("register db metrics: %w", err)
		}
		observers = append(observers, m.Observer())
	}

	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, "todo-api", log)
		if err != nil {
			_ = dbService.Close()
			return err
		}
		observers = append(observers, publisher)
		log.Info("publishing todo events", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
	}

	todos := service.NewProvider(func() repository.TodoRepository {
		return repository.NewGormTodoRepository(gormDB, log)
	}, service.WithLogger(log), service.WithObservers(observers...))

	apiServer := server.NewServer(cfg.HTTP, server.New(todos, dbService, m, log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return run(ctx, stop, apiServer, dbService, publisher, log)
}

// run serves until ctx is cancelled or the listener fails. Either way the
// database pool and the NATS connection are closed before it returns.
func run(ctx context.Context, stop context.CancelFunc, apiServer *http.Server, dbService database.Service, publisher *events.Publisher, log *slog.Logger) error {
	done := make(chan bool, 1)
	go gracefulShutdown(ctx, stop, apiServer, dbService, publisher, log, done)

	log.Info("starting server", "addr", apiServer.Addr)
	err := apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return fmt.Errorf("http server ListenAndServe: %w", err)
	}

	<-done
	log.Info("graceful shutdown complete")
	return nil
}

// gracefulShutdown waits for ctx, then drains the server and releases the
// publisher and the pool. stop restores default signal handling so a second
// Ctrl+C kills the process.
func gracefulShutdown(ctx context.Context, stop context.CancelFunc, apiServer *http.Server, dbService database.Service, publisher *events.Publisher, log *slog.Logger, done chan bool) {
	<-ctx.Done()

	log.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	// The server has 5 seconds to finish the requests it is currently handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error("error draining nats connection", "error", err)
		}
	}

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			log.Error("error closing database connection pool", "error", err)
		} else {
			log.Info("database connection pool closed")
		}
	}

	log.Info("server exiting")
	done <- true
}
