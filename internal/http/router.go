package http

import (
	"net/http"
	"time"

	"github.com/sladosa/diary-multiuser/internal/auth"
	"github.com/sladosa/diary-multiuser/internal/confirm"
	"github.com/sladosa/diary-multiuser/internal/repo"
	"github.com/sladosa/diary-multiuser/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type API struct {
	Repo    *repo.Repo
	Service *service.Service
	Auth    *auth.Manager
	Deletes *confirm.Tracker
	Origins []string
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(loggingMiddleware)
	r.Use(a.corsMiddleware)

	r.Get("/health", a.handleHealth)

	authLimit := NewRateLimiter(5, 10)
	r.Route("/auth", func(r chi.Router) {
		r.With(authLimit.Middleware).Post("/register", a.handleRegister)
		r.With(authLimit.Middleware).Post("/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.authMiddleware)
			r.Post("/logout", a.handleLogout)
			r.Get("/me", a.handleMe)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authMiddleware)

		r.Route("/areas", func(r chi.Router) {
			r.Get("/", a.handleListAreas)
			r.Post("/", a.handleCreateArea)
			r.Put("/{id}", a.handleUpdateArea)
			r.Delete("/{id}", a.handleDeleteArea)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", a.handleListCategories)
			r.Post("/", a.handleCreateCategory)
			r.Put("/{id}", a.handleUpdateCategory)
			r.Delete("/{id}", a.handleDeleteCategory)
		})
		r.Route("/events", func(r chi.Router) {
			r.Get("/", a.handleListEvents)
			r.Post("/", a.handleCreateEvent)
			r.Post("/bulk", a.handleBulkInsertEvents)
			r.Post("/import", a.handleImportEvents)
			r.Put("/{id}", a.handleUpdateEvent)
			r.Delete("/{id}", a.handleDeleteEvent)
		})
		r.Get("/stats", a.handleStats)
		r.Get("/export", a.handleExport)
	})

	return r
}
