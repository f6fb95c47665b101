package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/middleware"
	"github.com/mmeshcher/shortlink/internal/models"
)

var validate = validator.New()

func (h *Handler) ShortenJSONHandler(rw http.ResponseWriter, r *http.Request) {
	if !isJSONRequest(r) {
		h.writeJSONError(rw, http.StatusBadRequest, "Content-Type must be application/json")
		return
	}

	var req models.ShortenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeJSONError(rw, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := validate.Struct(&req); err != nil {
		h.writeJSONError(rw, http.StatusBadRequest, "url is required")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	link, shortURL, err := h.service.CreateShortURL(r.Context(), userID, req.URL)
	if err != nil {
		status, message := creationStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to create short URL", zap.Error(err))
		}
		h.writeJSONError(rw, status, message)
		return
	}

	h.writeJSON(rw, http.StatusCreated, models.ShortenResponse{
		Result:    shortURL,
		ShortCode: link.ShortCode,
		Clicks:    link.Clicks,
	})
}
