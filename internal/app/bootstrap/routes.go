// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	activityfeature "github.com/dalemusser/crmhub/internal/app/features/activity"
	callsfeature "github.com/dalemusser/crmhub/internal/app/features/calls"
	customersfeature "github.com/dalemusser/crmhub/internal/app/features/customers"
	dashboardfeature "github.com/dalemusser/crmhub/internal/app/features/dashboard"
	healthfeature "github.com/dalemusser/crmhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/crmhub/internal/app/features/login"
	notificationsfeature "github.com/dalemusser/crmhub/internal/app/features/notifications"
	searchfeature "github.com/dalemusser/crmhub/internal/app/features/search"
	systemusersfeature "github.com/dalemusser/crmhub/internal/app/features/systemusers"
	tasksfeature "github.com/dalemusser/crmhub/internal/app/features/tasks"
	userinfofeature "github.com/dalemusser/crmhub/internal/app/features/userinfo"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so every service in deps.Services is ready.
//
// Every route except /health, /metrics and /auth requires a bearer
// credential; the resolver middleware loads the principal for all of them
// and each feature router enforces its own role checks.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Resolver == nil {
		return nil, fmt.Errorf("build handler: startup did not run")
	}
	db := deps.MongoDatabase

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	// JSON bodies for unknown routes and methods instead of chi's plain text.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, logger, apperr.NotFound("route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error": map[string]string{"kind": "method_not_allowed", "message": "method not allowed"},
		})
	})

	// Health check and Prometheus scrape endpoints
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", svc.Metrics.Handler())

	// Global auth middleware: loads the Principal into context when a valid
	// bearer credential is present. Unauthenticated requests pass through
	// and are rejected by the feature routers that require a principal.
	r.Group(func(ar chi.Router) {
		ar.Use(svc.Resolver.LoadPrincipal)

		loginHandler := loginfeature.NewHandler(svc.Principals, logger)
		ar.Mount("/auth", loginfeature.Routes(loginHandler))

		meHandler := userinfofeature.NewHandler(svc.Principals, logger)
		ar.Mount("/me", userinfofeature.Routes(meHandler))

		principalsHandler := systemusersfeature.NewHandler(svc.Principals, logger)
		ar.Mount("/principals", systemusersfeature.Routes(principalsHandler))

		tasksHandler := tasksfeature.NewHandler(svc.Tasks, svc.Projector, logger)
		ar.Mount("/tasks", tasksfeature.Routes(tasksHandler))

		customersHandler := customersfeature.NewHandler(svc.Customers, logger)
		ar.Mount("/customers", customersfeature.Routes(customersHandler))

		callsHandler := callsfeature.NewHandler(svc.Calls, svc.Projector, logger)
		ar.Mount("/calls", callsfeature.Routes(callsHandler))

		notificationsHandler := notificationsfeature.NewHandler(svc.Notifications, logger)
		ar.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

		searchHandler := searchfeature.NewHandler(svc.Search, logger)
		ar.Mount("/search", searchfeature.Routes(searchHandler))

		activityHandler := activityfeature.NewHandler(svc.Activity, logger)
		ar.Mount("/activity", activityfeature.Routes(activityHandler))

		dashboardHandler := dashboardfeature.NewHandler(db, logger)
		ar.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))
	})

	return r, nil
}
