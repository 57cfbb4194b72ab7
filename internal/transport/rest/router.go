package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/auth"
	"github.com/jtoledo/betriebsportal/internal/inventory"
	"github.com/jtoledo/betriebsportal/internal/sheets"
	"github.com/jtoledo/betriebsportal/internal/timetracking"
	"github.com/jtoledo/betriebsportal/internal/transport/middleware"
	"github.com/jtoledo/betriebsportal/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, cfg *internal.Config, provider *sheets.Provider, authHandler *auth.Handler, authService *auth.Service, inventoryHandler *inventory.Handler, timeHandler *timetracking.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(provider, &cfg.Sheets)
	authz := auth.NewAuthorization(authService, logger)

	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Recovery(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Post("/login", authHandler.Login)
		r.Get("/auth/session", authHandler.Session)
		r.Post("/logout", authHandler.Logout)

		// Everything below requires a live session; the per-route guards
		// additionally enforce resource permissions.
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Route("/inventory", func(ir chi.Router) {
				view := authz.Require("inventory", "view")
				edit := authz.Require("inventory", "edit")

				ir.With(view).Get("/items", inventoryHandler.GetItems)
				ir.With(edit).Post("/items", inventoryHandler.CreateItem)
				ir.With(view).Get("/categories", inventoryHandler.GetCategories)
				ir.With(view).Get("/references", inventoryHandler.GetReferences)
				ir.With(view).Get("/movements", inventoryHandler.GetMovements)
				ir.With(edit).Post("/movements", inventoryHandler.CreateMovement)
				ir.With(view).Get("/stock", inventoryHandler.GetStock)
			})

			pr.Route("/time", func(tr chi.Router) {
				view := authz.Require("timeTracking", "view")
				edit := authz.Require("timeTracking", "edit")

				tr.With(edit).Post("/entry", timeHandler.CreateEntry)
				tr.With(view).Get("/locations", timeHandler.GetLocations)
				tr.With(view).Get("/history/{employeeId}", timeHandler.GetHistory)
				tr.With(edit).Delete("/entries", timeHandler.DeleteEntries)
			})
		})
	})
}
