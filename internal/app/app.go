package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/db"
	"github.com/caselens/caselens-backend/internal/observability"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// App owns every wired component for one process: HTTP router, Temporal
// worker, clients, repos and services. Construction is all-or-nothing;
// a partially wired App is never returned.
type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "caselens-backend",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	log.Info("Connecting to database...")
	dbService, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	gdb := dbService.DB()

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(gdb, log)
	svcs, err := wireServices(gdb, log, cfg, clients, reposet)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}
	handlers := wireHandlers(log, cfg, clients, svcs)
	router := wireRouter(log, handlers)

	log.Info("Application wired",
		"environment", cfg.Environment,
		"db_driver", dbService.Driver(),
		"run_server", cfg.RunServer,
		"run_worker", svcs.Worker != nil,
	)

	return &App{
		Log:          log,
		DB:           gdb,
		Router:       router,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     svcs,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background components, currently just the Temporal
// worker when one is wired. The HTTP server is started separately via
// Run so a process can serve either role, or both.
func (a *App) Start(ctx context.Context) error {
	if a.cancel != nil {
		return fmt.Errorf("app already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Services.Worker != nil {
		if err := a.Services.Worker.Start(runCtx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	return nil
}

// Run blocks serving HTTP on the given address.
func (a *App) Run(address string) error {
	if a.Router == nil {
		return fmt.Errorf("router is not wired")
	}
	return a.Router.Run(address)
}

// Close stops background components and releases client connections.
// Safe to call after a failed Start.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
