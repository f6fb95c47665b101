package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RedirectHandler always answers 302: to the stored URL on a hit, home
// otherwise. Lookup failures are never shown to the visitor.
func (h *Handler) RedirectHandler(rw http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	target, _ := h.service.Resolve(r.Context(), shortCode)

	http.Redirect(rw, r, target, http.StatusFound)
}

func (h *Handler) HomeHandler(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte("shortlink: POST a URL to / or /api/shorten to get a short link\n"))
}
