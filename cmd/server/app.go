package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	apiMiddleware "github.com/phrazzld/pksim-api/internal/api/middleware"
	"github.com/phrazzld/pksim-api/internal/chart"
	"github.com/phrazzld/pksim-api/internal/config"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/phrazzld/pksim-api/internal/events"
	"github.com/phrazzld/pksim-api/internal/metrics"
	"github.com/phrazzld/pksim-api/internal/personalize"
	"github.com/phrazzld/pksim-api/internal/platform/postgres"
	"github.com/phrazzld/pksim-api/internal/scheduler"
	"github.com/phrazzld/pksim-api/internal/service"
	"github.com/phrazzld/pksim-api/internal/service/auth"
	"github.com/phrazzld/pksim-api/internal/task"
	"github.com/phrazzld/pksim-api/internal/workspace"
)

// application holds the wired dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService   auth.JWTService
	accounts     service.AccountService
	bloodTests   service.BloodTestService
	personalizer *personalize.Service
	aggregator   *chart.Aggregator
	registry     *workspace.Registry

	emitter     *events.InMemoryEventEmitter
	taskRunner  *task.TaskRunner
	rateLimiter *apiMiddleware.RateLimiter
	scheduler   *scheduler.Scheduler
}

// newApplication wires every component. The task runner is created but not
// started; Run starts it.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	bloodTestStore := postgres.NewPostgresBloodTestStore(db, logger)

	app.accounts = service.NewAccountService(
		userStore,
		bloodTestStore,
		auth.NewBcryptVerifier(),
		service.DBTxRunner(db),
		logger,
	)
	app.bloodTests = service.NewBloodTestService(bloodTestStore, logger)
	app.personalizer = personalize.NewService(
		bloodTestStore,
		pk.NewDefaultEstimator(),
		cfg.Simulation.FetchTimeout(),
		logger,
	)

	app.aggregator = chart.NewAggregator(cfg.Task.WorkerCount)
	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.registry = workspace.NewRegistry(workspace.Options{
		Limits:      cfg.Simulation.Limits(),
		MaxRegimens: cfg.Simulation.MaxRegimens,
		Aggregator:  app.aggregator,
		Emitter:     app.emitter,
		Logger:      logger,
	})

	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	app.taskRunner.OnTaskDone(func(t task.Task, err error) {
		metrics.ObserveTask(t.Type(), err)
	})

	factory := personalize.NewTaskFactory(app.personalizer, app.registry, logger)
	app.emitter.Subscribe(events.TypeEstimateRequested,
		task.NewTaskFactoryEventHandler(factory, app.taskRunner, logger))

	var pruner scheduler.Pruner
	if cfg.RateLimit.Enabled {
		app.rateLimiter = apiMiddleware.NewRateLimiter(cfg.RateLimit)
		pruner = app.rateLimiter
	}
	app.scheduler = scheduler.New(
		scheduler.DefaultConfig(cfg.Simulation.WorkspaceIdle()),
		app.registry,
		pruner,
		logger,
	)

	logger.Info("application initialized",
		"worker_count", cfg.Task.WorkerCount,
		"max_regimens", cfg.Simulation.MaxRegimens)
	return app, nil
}

// Run starts the background workers and serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	if err := app.scheduler.Start(); err != nil {
		app.cleanup()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup stops background work and closes the database. Workers are
// stopped before the pool so in-flight estimates see a live connection.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
