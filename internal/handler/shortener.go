package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/middleware"
)

// ShortenHandler accepts the long URL as a plain text body.
func (h *Handler) ShortenHandler(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		http.Error(rw, "Empty body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	_, shortURL, err := h.service.CreateShortURL(r.Context(), userID, string(body))
	if err != nil {
		status, message := creationStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to create short URL", zap.Error(err))
		}
		http.Error(rw, message, status)
		return
	}

	rw.Header().Set("Content-Type", "text/plain")
	rw.WriteHeader(http.StatusCreated)
	rw.Write([]byte(shortURL))
}
