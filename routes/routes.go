package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/nmcp-sl/supervise/app"
	"github.com/nmcp-sl/supervise/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Supervisor(app.TokenSecret))

		r.Post("/connectivity", SetConnectivity(app))
		r.Get("/status", GetStatus(app))

		r.Post("/submissions", SubmitForm(app))
		r.Get("/submissions", ListSubmissions(app))
		r.Post("/sync", TriggerSync(app))

		// CRUD drafts
		r.Post("/drafts", SaveDraft(app))
		r.Get("/drafts", ListDrafts(app))
		r.Get("/drafts/{id}", LoadDraft(app))
		r.Delete("/drafts/{id}", DeleteDraft(app))

		r.Get("/dashboard", GetDashboard(app))
		r.Post("/reports", GenerateReport(app))
	})

	return api
}
