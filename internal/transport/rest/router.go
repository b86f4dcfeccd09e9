package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/leave-management/api"
	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/attachment"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
)

// RouterDeps is everything the HTTP surface needs. Nil handlers leave their
// routes unregistered.
type RouterDeps struct {
	Server            internal.ServerConfig
	Verifier          auth.Verifier
	ManagerRole       string
	HealthChecks      map[string]Checker
	LeaveHandler      *leave.Handler
	AttachmentHandler *attachment.Handler
	Logger            *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps RouterDeps) {
	base := transport.NewBaseHandler(deps.Logger)
	healthHandler := NewHealthHandler(base, deps.HealthChecks)

	managerRole := deps.ManagerRole
	if managerRole == "" {
		managerRole = auth.RoleManager
	}

	// Apply global middleware
	router.Use(corsHandler(deps.Server))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPISpec)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	if deps.AttachmentHandler != nil {
		router.Get("/uploads/{ref}", deps.AttachmentHandler.Download)
	}

	// Mount API under /api/v1 to match OpenAPI servers
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		r.Group(func(pr chi.Router) {
			pr.Use(middleware.Authenticate(deps.Verifier, base))

			if deps.AttachmentHandler != nil {
				pr.Post("/attachments", deps.AttachmentHandler.Upload)
			}

			if deps.LeaveHandler != nil {
				h := deps.LeaveHandler
				pr.Route("/leaves", func(lr chi.Router) {
					lr.Post("/", h.CreateLeave)
					lr.Get("/mine", h.GetMyLeaves)
					lr.Get("/summary", h.GetSummary)

					// Manager routes
					lr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequireRoles(base, managerRole))
						mr.Get("/", h.GetAllLeaves)
						mr.Get("/pending", h.GetPendingLeaves)
						mr.Get("/export", h.ExportLeaves)
						mr.Patch("/{id}/approve", h.ApproveLeave)
						mr.Patch("/{id}/reject", h.RejectLeave)
					})

					lr.Get("/{id}", h.GetLeave)
				})
			}
		})
	})
}

func corsHandler(cfg internal.ServerConfig) func(http.Handler) http.Handler {
	origins := cfg.Origins()
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.TraceIDHeader},
		ExposedHeaders:   []string{middleware.TraceIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
