package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/pksim-api/internal/api"
	apiMiddleware "github.com/phrazzld/pksim-api/internal/api/middleware"
	"github.com/phrazzld/pksim-api/internal/api/shared"
	"github.com/phrazzld/pksim-api/internal/metrics"
)

const healthPingTimeout = 2 * time.Second

func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(metrics.Middleware)
	if app.rateLimiter != nil {
		r.Use(app.rateLimiter.Handler)
	}
	r.Use(apiMiddleware.MaxBodyBytes(app.config.Server.MaxRequestBytes))

	authHandler := api.NewAuthHandler(app.accounts, app.jwtService, app.config.Auth.TokenLifetime())
	accountHandler := api.NewAccountHandler(app.accounts, app.registry)
	simulationHandler := api.NewSimulationHandler(app.aggregator, app.config.Simulation.Limits(), app.config.Simulation.MaxRegimens)
	estimateHandler := api.NewEstimateHandler(app.personalizer)
	bloodTestHandler := api.NewBloodTestHandler(app.bloodTests)
	workspaceHandler := api.NewWorkspaceHandler(app.registry)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Get("/compounds", api.ListCompounds)
		r.Post("/simulations", simulationHandler.Simulate)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Delete("/account", accountHandler.Delete)
			r.Post("/estimates", estimateHandler.Estimate)

			r.Post("/blood-tests", bloodTestHandler.Create)
			r.Get("/blood-tests", bloodTestHandler.List)
			r.Delete("/blood-tests/{id}", bloodTestHandler.Delete)

			r.Route("/workspace", func(r chi.Router) {
				r.Get("/", workspaceHandler.Get)
				r.Post("/regimens", workspaceHandler.AddRegimen)
				r.Patch("/regimens/{id}", workspaceHandler.UpdateRegimen)
				r.Delete("/regimens/{id}", workspaceHandler.RemoveRegimen)
				r.Get("/levels/{day}", workspaceHandler.Levels)
			})
		})
	})

	r.Get("/health", app.health)
	r.Handle("/metrics", metrics.Handler())

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Queue    int    `json:"queued_tasks"`
}

// health reports 503 when the database does not answer.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Queue: app.taskRunner.QueueLen()}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if err := app.db.PingContext(ctx); err != nil {
		app.logger.Warn("health check database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	shared.RespondWithJSON(w, r, status, resp)
}
