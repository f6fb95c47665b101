package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/shortlink/internal/metrics"
	"github.com/mmeshcher/shortlink/internal/middleware"
)

func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery(h.logger, sentryFlushTimeout))
	r.Use(middleware.RequestTimeout(h.requestTimeout))
	r.Use(middleware.GzipMiddleware)
	r.Use(middleware.Auth(h.auth, h.logger))

	r.Get("/", h.HomeHandler)
	r.Post("/", h.ShortenHandler)
	r.Get("/ping", h.PingHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/shorten", h.ShortenJSONHandler)
		r.Get("/user/urls", h.GetUserURLsHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.SignUpHandler)
			r.Post("/login", h.LoginHandler)
			r.Post("/logout", h.LogoutHandler)
			r.Get("/user", h.CurrentUserHandler)
		})
	})

	r.Get("/{shortCode}", h.RedirectHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	return r
}
