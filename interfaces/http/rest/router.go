package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/application/services"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/observability"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	"github.com/BOHARRY/courtDataAPI-sub002/interfaces/http/rest/handlers"
	"github.com/BOHARRY/courtDataAPI-sub002/interfaces/http/rest/middleware"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/auth"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/common"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

// readyTimeout bounds the store check behind /ready
const readyTimeout = 3 * time.Second

// Router creates and configures the HTTP router
type Router struct {
	config     *config.Config
	workspaces *services.WorkspaceService
	canvas     *services.CanvasService
	repair     *services.RepairService
	store      persistence.DocumentStore
	validator  *auth.JWTValidator
	metrics    *observability.Collector
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewRouter creates a new router instance. validator may be nil when the
// gateway authenticates requests.
func NewRouter(
	cfg *config.Config,
	workspaces *services.WorkspaceService,
	canvas *services.CanvasService,
	repair *services.RepairService,
	store persistence.DocumentStore,
	validator *auth.JWTValidator,
	metrics *observability.Collector,
	errs *apperrors.ErrorHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:     cfg,
		workspaces: workspaces,
		canvas:     canvas,
		repair:     repair,
		store:      store,
		validator:  validator,
		metrics:    metrics,
		errors:     errs,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.config.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.config.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.config.EnableMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	workspaceHandler := handlers.NewWorkspaceHandler(rt.workspaces, rt.errors, rt.logger)
	canvasHandler := handlers.NewCanvasHandler(rt.canvas, rt.errors, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.canvas, rt.errors, rt.logger)
	edgeHandler := handlers.NewEdgeHandler(rt.canvas, rt.errors, rt.logger)
	repairHandler := handlers.NewRepairHandler(rt.repair, rt.errors, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.config.AuthMode, rt.validator, rt.errors, rt.logger))

		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", workspaceHandler.CreateWorkspace)
			r.Get("/", workspaceHandler.ListWorkspaces)

			r.Get("/active", workspaceHandler.GetActiveWorkspace)
			r.Post("/active/{workspaceID}", workspaceHandler.SetActiveWorkspace)

			r.Route("/{workspaceID}", func(r chi.Router) {
				r.Get("/", workspaceHandler.GetWorkspace)
				r.Put("/", workspaceHandler.UpdateWorkspace)
				r.Delete("/", workspaceHandler.DeleteWorkspace)

				r.Group(func(r chi.Router) {
					r.Use(workspaceHandler.RequireWorkspace)

					r.Get("/canvas/{canvasID}/manifest", canvasHandler.GetManifest)
					r.Put("/canvas/{canvasID}/manifest", canvasHandler.SaveManifest)
					r.Patch("/canvas/{canvasID}/viewport", canvasHandler.UpdateViewport)

					r.Post("/nodes/batch", nodeHandler.BatchGetNodes)
					r.Put("/nodes/batch", nodeHandler.BatchSaveNodes)
					r.Post("/nodes/repair", repairHandler.RepairNodes)
					r.Get("/nodes/{nodeID}", nodeHandler.GetNode)
					r.Put("/nodes/{nodeID}", nodeHandler.SaveNode)
					r.Patch("/nodes/{nodeID}/position", nodeHandler.UpdatePosition)
					r.Patch("/nodes/{nodeID}/content", nodeHandler.UpdateContent)

					r.Post("/edges/batch", edgeHandler.BatchGetEdges)
					r.Put("/edges/batch", edgeHandler.BatchSaveEdges)
					r.Get("/edges/{edgeID}", edgeHandler.GetEdge)
					r.Put("/edges/{edgeID}", edgeHandler.SaveEdge)
				})
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck pings the document store
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := rt.store.HealthCheck(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"store":  "unavailable",
		})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
