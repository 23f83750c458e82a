package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/foundly/pkg/app"
	"github.com/ghuser/foundly/pkg/auth"
	"github.com/ghuser/foundly/services/report/application/handlers"
	appsvcs "github.com/ghuser/foundly/services/report/application/services"
)

// ReportRoutes registers report endpoints on the provided chi router.
func ReportRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)

	r.Route("/reports", func(r chi.Router) {
		// Public browsing.
		r.Get("/", handlers.NewListReportsHandler(svcs).Execute)

		// Owner-scoped endpoints. Registered before /{id} so chi matches
		// the literal "me" segment first.
		r.Route("/me", func(r chi.Router) {
			r.Use(auth.RequireAuth(a.SessionStore, a.Logger))
			r.Post("/", handlers.NewPostReportHandler(svcs).Execute)
			r.Get("/", handlers.NewGetMyReportsHandler(svcs).Execute)
			r.Put("/{id}", handlers.NewPutReportHandler(svcs).Execute)
			r.Delete("/{id}", handlers.NewDeleteReportHandler(svcs).Execute)
		})

		r.Get("/{id}", handlers.NewGetReportHandler(svcs).Execute)

		r.With(
			auth.RequireAuth(a.SessionStore, a.Logger),
			auth.RequireRole(auth.RoleAdmin, a.Logger),
		).Delete("/{id}", handlers.NewAdminDeleteReportHandler(svcs).Execute)
	})
}
